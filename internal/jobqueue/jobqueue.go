/*
Package jobqueue provides a River-based job queue for dispatching chat
negotiation notifications to the platform notifier endpoint.

For retry policies and tuning parameters, see queue_config.go.
*/
package jobqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/rs/zerolog/log"

	"github.com/wellnest/internal/actors"
	"github.com/wellnest/internal/chat"
	"github.com/wellnest/internal/chatreq"
)

// Notification event types carried on chat_notify jobs.
const (
	EventRequestCreated   = "request_created"
	EventChatMaterialized = "chat_materialized"
	EventChatGrown        = "chat_grown"
)

// ChatNotifyJobArgs describes one notification to one recipient. Delivery
// fan-out happens at enqueue time so each recipient retries independently.
type ChatNotifyJobArgs struct {
	Event      string     `json:"event"`
	RequestID  string     `json:"request_id"`
	ChatID     string     `json:"chat_id,omitempty"`
	GroupLabel string     `json:"group_label,omitempty"`
	Recipient  actors.Ref `json:"recipient"`
	Initiator  actors.Ref `json:"initiator"`
}

// Kind returns the job kind for River.
func (ChatNotifyJobArgs) Kind() string {
	return "chat_notify"
}

// ChatNotifyWorker delivers notification events to the configured notifier
// endpoint. The notifier service owns the actual email/push delivery.
type ChatNotifyWorker struct {
	river.WorkerDefaults[ChatNotifyJobArgs]
	config *QueueConfig
	client *http.Client
}

// Work posts the event envelope to the notifier endpoint. A non-2xx
// response is returned as an error so River retries the job.
func (w *ChatNotifyWorker) Work(ctx context.Context, job *river.Job[ChatNotifyJobArgs]) error {
	if w.config.NotifierEndpoint == "" {
		log.Debug().
			Str("event", job.Args.Event).
			Str("request_id", job.Args.RequestID).
			Msg("notifier endpoint not configured, dropping notification")
		return nil
	}

	payload, err := json.Marshal(job.Args)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.NotifierEndpoint, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create notifier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.config.NotifierToken != "" {
		req.Header.Set("Authorization", "Bearer "+w.config.NotifierToken)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notifier returned %d: %s", resp.StatusCode, string(body))
	}

	log.Debug().
		Str("event", job.Args.Event).
		Str("request_id", job.Args.RequestID).
		Str("recipient", job.Args.Recipient.String()).
		Msg("notification delivered")

	return nil
}

// Queue wraps the River client and implements chatreq.Notifier by
// enqueueing one chat_notify job per recipient.
type Queue struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	config *QueueConfig
}

// NewQueue creates the notification queue on its own pgx pool.
func NewQueue(ctx context.Context, databaseURL string, config *QueueConfig) (*Queue, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &ChatNotifyWorker{
		config: config,
		client: &http.Client{Timeout: config.JobTimeout},
	})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:  config.RiverQueueConfig(),
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &Queue{client: client, pool: pool, config: config}, nil
}

// Start starts the queue workers.
func (q *Queue) Start(ctx context.Context) error {
	return q.client.Start(ctx)
}

// Stop stops the queue workers and releases the pool.
func (q *Queue) Stop(ctx context.Context) error {
	err := q.client.Stop(ctx)
	q.pool.Close()
	return err
}

// RequestCreated notifies every invitee about a new negotiation.
func (q *Queue) RequestCreated(ctx context.Context, req *chatreq.ChatRequest) error {
	for _, p := range req.Participants {
		args := ChatNotifyJobArgs{
			Event:      EventRequestCreated,
			RequestID:  req.ID,
			GroupLabel: req.GroupLabel,
			Recipient:  p.Actor,
			Initiator:  req.Owner,
		}
		if err := q.insert(ctx, args); err != nil {
			return err
		}
	}
	return nil
}

// ChatMaterialized notifies every chat participant that the chat exists.
func (q *Queue) ChatMaterialized(ctx context.Context, c *chat.Chat, req *chatreq.ChatRequest) error {
	for _, ref := range c.Participants {
		args := ChatNotifyJobArgs{
			Event:      EventChatMaterialized,
			RequestID:  req.ID,
			ChatID:     c.ID,
			GroupLabel: c.Label,
			Recipient:  ref,
			Initiator:  req.Owner,
		}
		if err := q.insert(ctx, args); err != nil {
			return err
		}
	}
	return nil
}

// ChatGrown notifies existing participants that someone joined.
func (q *Queue) ChatGrown(ctx context.Context, c *chat.Chat, req *chatreq.ChatRequest, joined actors.Ref) error {
	for _, ref := range c.Participants {
		if ref == joined {
			continue
		}
		args := ChatNotifyJobArgs{
			Event:      EventChatGrown,
			RequestID:  req.ID,
			ChatID:     c.ID,
			GroupLabel: c.Label,
			Recipient:  ref,
			Initiator:  joined,
		}
		if err := q.insert(ctx, args); err != nil {
			return err
		}
	}
	return nil
}

func (q *Queue) insert(ctx context.Context, args ChatNotifyJobArgs) error {
	_, err := q.client.Insert(ctx, args, &river.InsertOpts{
		MaxAttempts: q.config.MaxRetries,
	})
	if err != nil {
		return fmt.Errorf("failed to insert %s job: %w", args.Event, err)
	}
	return nil
}

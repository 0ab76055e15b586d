/*
Package jobqueue configuration - tunable parameters for the notification
job queue.

Performance: raise MaxWorkers for higher notification throughput; each
worker holds a database connection while running. Reliability: MaxRetries
follows River's backoff schedule; notifications are best-effort signals,
so the default gives up long before River's 3-day ceiling. Failed jobs
retain their error in the River jobs table.
*/
package jobqueue

import (
	"time"

	"github.com/riverqueue/river"
)

// QueueConfig holds the tunables for the notification queue.
type QueueConfig struct {
	// Worker settings
	MaxWorkers int

	// Retry settings
	MaxRetries int

	// JobTimeout bounds one delivery attempt to the notifier endpoint.
	JobTimeout time.Duration

	// NotifierEndpoint is where chat_notify events are POSTed. Empty
	// means notifications are dropped (useful for local development).
	NotifierEndpoint string

	// NotifierToken is sent as a bearer token when set.
	NotifierToken string
}

// DefaultQueueConfig returns the default configuration.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		MaxWorkers: 10,
		MaxRetries: 8,
		JobTimeout: 30 * time.Second,
	}
}

// RiverQueueConfig converts our config to River's queue configuration format.
func (c *QueueConfig) RiverQueueConfig() map[string]river.QueueConfig {
	return map[string]river.QueueConfig{
		river.QueueDefault: {
			MaxWorkers: c.MaxWorkers,
		},
	}
}

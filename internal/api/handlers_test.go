package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellnest/internal/actors"
	"github.com/wellnest/internal/chat"
	"github.com/wellnest/internal/chatreq"
	"github.com/wellnest/internal/config"
	"github.com/wellnest/internal/profile"
)

const testSecret = "test-secret"

var (
	apiOwner = actors.Ref{Kind: actors.KindMember, ID: "owner-1"}
	apiAlice = actors.Ref{Kind: actors.KindMember, ID: "alice"}
	apiBob   = actors.Ref{Kind: actors.KindSpecialist, ID: "bob"}
)

type apiFixture struct {
	server    *Server
	directory *actors.MemoryDirectory
	chats     *chat.MemoryStore
	profiles  *profile.MemoryStore
	manager   *chatreq.Manager
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Port = 0
	cfg.Auth.JWTSecret = testSecret
	cfg.RateLimit.PerMinute = 600

	directory := actors.NewMemoryDirectory()
	directory.Add(apiOwner, "Owner")
	directory.Add(apiAlice, "Alice")
	directory.Add(apiBob, "Bob")

	chats := chat.NewMemoryStore()
	profiles := profile.NewMemoryStore()
	requests := chatreq.NewMemoryStore()
	manager := chatreq.NewManager(requests, chats, directory, profiles, chatreq.NopNotifier{})

	return &apiFixture{
		server:    NewServer(cfg, manager, chats, directory, profiles),
		directory: directory,
		chats:     chats,
		profiles:  profiles,
		manager:   manager,
	}
}

func mintToken(t *testing.T, ref actors.Ref) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, actorClaims(ref))
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func actorClaims(ref actors.Ref) jwt.MapClaims {
	return jwt.MapClaims{
		"actor_id":   ref.ID,
		"actor_kind": string(ref.Kind),
		"exp":        time.Now().Add(time.Hour).Unix(),
	}
}

func (f *apiFixture) do(t *testing.T, method, path string, as *actors.Ref, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+mintToken(t, *as))
	}

	rec := httptest.NewRecorder()
	f.server.Echo().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("missing token", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/chat-requests", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/chat-requests", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		f.server.Echo().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, actorClaims(apiOwner))
		signed, err := token.SignedString([]byte("other-secret"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/chat-requests", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()
		f.server.Echo().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCreateChatRequestEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("happy path", func(t *testing.T) {
		body := `{"mode":"private","participants":[{"kind":"member","id":"alice"}],"reason":{"free_text":"hello"}}`
		rec := f.do(t, http.MethodPost, "/api/v1/chat-requests", &apiOwner, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created chatreq.ChatRequest
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, apiOwner, created.Owner)
	})

	t.Run("unknown mode", func(t *testing.T) {
		body := `{"mode":"broadcast","participants":[{"kind":"member","id":"alice"}]}`
		rec := f.do(t, http.MethodPost, "/api/v1/chat-requests", &apiOwner, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown kind", func(t *testing.T) {
		body := `{"mode":"private","participants":[{"kind":"admin","id":"alice"}]}`
		rec := f.do(t, http.MethodPost, "/api/v1/chat-requests", &apiOwner, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown invitee", func(t *testing.T) {
		body := `{"mode":"private","participants":[{"kind":"member","id":"ghost"}]}`
		rec := f.do(t, http.MethodPost, "/api/v1/chat-requests", &apiOwner, body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		body := `{"mode":"group","participants":[{"kind":"member","id":"alice"},{"kind":"specialist","id":"bob"}]}`
		rec := f.do(t, http.MethodPost, "/api/v1/chat-requests", &apiOwner, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "group without label")
	})
}

func TestRespondEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	body := `{"mode":"private","participants":[{"kind":"member","id":"alice"}]}`
	rec := f.do(t, http.MethodPost, "/api/v1/chat-requests", &apiOwner, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created chatreq.ChatRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	respondPath := fmt.Sprintf("/api/v1/chat-requests/%s/respond", created.ID)

	t.Run("unknown request", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/chat-requests/no-such/respond", &apiAlice, `{"decision":"accept"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-invited actor", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, respondPath, &apiBob, `{"decision":"accept"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("bad decision", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, respondPath, &apiAlice, `{"decision":"maybe"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("accept materializes", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, respondPath, &apiAlice, `{"decision":"accept"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var result chatreq.RespondResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		require.NotNil(t, result.Chat)
		assert.Len(t, result.Chat.Participants, 2)
		assert.False(t, result.Repaired)
	})

	t.Run("conflicting repeat decision", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, respondPath, &apiAlice, `{"decision":"reject"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestGetAndListChatRequests(t *testing.T) {
	f := newAPIFixture(t)

	body := `{"mode":"private","participants":[{"kind":"member","id":"alice"}]}`
	rec := f.do(t, http.MethodPost, "/api/v1/chat-requests", &apiOwner, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created chatreq.ChatRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	getPath := "/api/v1/chat-requests/" + created.ID

	t.Run("owner and invitee can read", func(t *testing.T) {
		for _, ref := range []actors.Ref{apiOwner, apiAlice} {
			rec := f.do(t, http.MethodGet, getPath, &ref, "")
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("outsider gets 404", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, getPath, &apiBob, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("sent box", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/chat-requests?box=sent", &apiOwner, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var list []*chatreq.ChatRequest
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, created.ID, list[0].ID)
	})

	t.Run("received box is the default", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/chat-requests", &apiAlice, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var list []*chatreq.ChatRequest
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list, 1)
	})

	t.Run("bad box value", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/chat-requests?box=archive", &apiOwner, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty box is an empty array, not null", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/chat-requests", &apiBob, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
	})
}

func TestChatEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	body := `{"mode":"private","participants":[{"kind":"member","id":"alice"}]}`
	rec := f.do(t, http.MethodPost, "/api/v1/chat-requests", &apiOwner, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created chatreq.ChatRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = f.do(t, http.MethodPost, "/api/v1/chat-requests/"+created.ID+"/respond", &apiAlice, `{"decision":"accept"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result chatreq.RespondResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotNil(t, result.Chat)
	chatPath := "/api/v1/chats/" + result.Chat.ID

	t.Run("participants can read the chat", func(t *testing.T) {
		for _, ref := range []actors.Ref{apiOwner, apiAlice} {
			rec := f.do(t, http.MethodGet, chatPath, &ref, "")
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("non-participant cannot tell the chat exists", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, chatPath, &apiBob, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list chats", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/chats", &apiOwner, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var list []*chat.Chat
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, result.Chat.ID, list[0].ID)
	})

	t.Run("empty list is an empty array", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/chats", &apiBob, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
	})
}

func TestAffinityEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	attrs := make(map[string]string, len(profile.ComparableAttributes))
	for _, name := range profile.ComparableAttributes {
		attrs[name] = "baseline"
	}
	f.profiles.Put(apiOwner, attrs)
	f.profiles.Put(apiAlice, attrs)

	t.Run("identical profiles score 100", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/affinity/member/alice", &apiOwner, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp AffinityResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 100.0, resp.Score)
		assert.Equal(t, apiAlice, resp.Target)
	})

	t.Run("missing target profile scores zero", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/affinity/specialist/bob", &apiOwner, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp AffinityResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 0.0, resp.Score)
	})

	t.Run("unknown target actor", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/affinity/member/ghost", &apiOwner, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad kind", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/affinity/robot/alice", &apiOwner, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

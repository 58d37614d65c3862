// File: internal/infra/api/client_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"agentloop-chat/internal/domain/model"
	"agentloop-chat/internal/domain/ports/adapter"
	derror "agentloop-chat/internal/error"
)

type memCredStore struct {
	creds adapter.Credentials
}

func (m *memCredStore) Load() (adapter.Credentials, error) { return m.creds, nil }
func (m *memCredStore) Save(c adapter.Credentials) error   { m.creds = c; return nil }
func (m *memCredStore) Clear() error                       { m.creds = adapter.Credentials{}; return nil }

func newTestClient(t *testing.T, h http.Handler, creds adapter.Credentials) (*Client, *memCredStore) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	store := &memCredStore{creds: creds}
	log := zerolog.Nop()
	return NewClient(srv.URL, 5*time.Second, store, &log), store
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func TestLoginStoresTokenPair(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token/", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["username"] != "alice" || in["password"] != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "acc-1", "refresh": "ref-1"})
	})
	client, store := newTestClient(t, mux, adapter.Credentials{})

	creds, err := client.Login(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if creds.Access != "acc-1" || creds.Refresh != "ref-1" {
		t.Fatalf("creds = %+v", creds)
	}
	if store.creds != creds {
		t.Fatalf("stored = %+v", store.creds)
	}
}

func TestLoginBadPassword(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	client, _ := newTestClient(t, mux, adapter.Credentials{})

	_, err := client.Login(context.Background(), "alice", "wrong")
	var se *derror.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenStreamRefreshesOnceOn401(t *testing.T) {
	var refreshes, opens int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshes++
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["refresh"] != "ref-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "acc-2"})
	})
	mux.HandleFunc("POST /orchestrator/agent-loop/", func(w http.ResponseWriter, r *http.Request) {
		opens++
		if bearer(r) != "acc-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, "data: [DONE]\n")
	})
	client, store := newTestClient(t, mux, adapter.Credentials{Access: "stale", Refresh: "ref-1"})

	body, err := client.OpenStream(context.Background(), model.ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	defer body.Close()

	if refreshes != 1 || opens != 2 {
		t.Fatalf("refreshes=%d opens=%d", refreshes, opens)
	}
	if store.creds.Access != "acc-2" || store.creds.Refresh != "ref-1" {
		t.Fatalf("stored = %+v", store.creds)
	}
	b, _ := io.ReadAll(body)
	if string(b) != "data: [DONE]\n" {
		t.Fatalf("body = %q", b)
	}
}

func TestOpenStreamRefreshFailureExpiresSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("POST /orchestrator/agent-loop/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	client, store := newTestClient(t, mux, adapter.Credentials{Access: "stale", Refresh: "ref-1"})

	_, err := client.OpenStream(context.Background(), model.ChatRequest{Message: "hi"})
	if !errors.Is(err, derror.ErrSessionExpired) {
		t.Fatalf("err = %v", err)
	}
	if !store.creds.Empty() {
		t.Fatalf("credentials not cleared: %+v", store.creds)
	}
}

func TestOpenStreamSecond401IsNotRetried(t *testing.T) {
	var refreshes, opens int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshes++
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "acc-2"})
	})
	mux.HandleFunc("POST /orchestrator/agent-loop/", func(w http.ResponseWriter, r *http.Request) {
		opens++
		w.WriteHeader(http.StatusUnauthorized)
	})
	client, _ := newTestClient(t, mux, adapter.Credentials{Access: "stale", Refresh: "ref-1"})

	_, err := client.OpenStream(context.Background(), model.ChatRequest{Message: "hi"})
	var se *derror.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v", err)
	}
	if refreshes != 1 || opens != 2 {
		t.Fatalf("refreshes=%d opens=%d", refreshes, opens)
	}
}

func TestOpenStreamWithoutToken(t *testing.T) {
	client, _ := newTestClient(t, http.NewServeMux(), adapter.Credentials{})

	_, err := client.OpenStream(context.Background(), model.ChatRequest{Message: "hi"})
	if !errors.Is(err, derror.ErrNotAuthenticated) {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenStreamServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orchestrator/agent-loop/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	client, _ := newTestClient(t, mux, adapter.Credentials{Access: "acc", Refresh: "ref"})

	_, err := client.OpenStream(context.Background(), model.ChatRequest{Message: "hi"})
	var se *derror.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Fatalf("err = %v", err)
	}
}

func TestGetChatHistoryUnwrapsEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /lg/chat/history/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("session_id") != "s1" || r.URL.Query().Get("project_id") != "p1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, `{
			"status": "success",
			"code": 200,
			"data": {
				"session_id": "s1",
				"project_name": "demo",
				"history": [
					{"type": "human", "content": "hi"},
					{"type": "ai", "content": "hello"}
				]
			}
		}`)
	})
	client, _ := newTestClient(t, mux, adapter.Credentials{Access: "acc", Refresh: "ref"})

	hist, err := client.GetChatHistory(context.Background(), "s1", "p1")
	if err != nil {
		t.Fatal(err)
	}
	if hist.SessionID != "s1" || len(hist.History) != 2 || hist.History[1].Content != "hello" {
		t.Fatalf("history = %+v", hist)
	}
}

func TestRESTEnvelopeFailureStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /lg/chat/sessions/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status": "error", "message": "project not found"}`)
	})
	client, _ := newTestClient(t, mux, adapter.Credentials{Access: "acc", Refresh: "ref"})

	_, err := client.ListChatSessions(context.Background(), "missing")
	if err == nil || !strings.Contains(err.Error(), "project not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestBatchDeleteSharesRefreshPolicy(t *testing.T) {
	var refreshes int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshes++
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "acc-2"})
	})
	mux.HandleFunc("POST /lg/chat/batch-delete/", func(w http.ResponseWriter, r *http.Request) {
		if bearer(r) != "acc-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var in struct {
			SessionIDs []string `json:"session_ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"deleted_count": len(in.SessionIDs)},
		})
	})
	client, _ := newTestClient(t, mux, adapter.Credentials{Access: "stale", Refresh: "ref-1"})

	res, err := client.BatchDeleteChatHistory(context.Background(), []string{"a", "b"}, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if res.DeletedCount != 2 || refreshes != 1 {
		t.Fatalf("res = %+v refreshes = %d", res, refreshes)
	}
}

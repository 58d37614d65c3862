// File: internal/infra/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"agentloop-chat/internal/domain/model"
	"agentloop-chat/internal/domain/ports/adapter"
	derror "agentloop-chat/internal/error"
	"agentloop-chat/internal/infra/metrics"
)

const (
	agentLoopPath    = "/orchestrator/agent-loop/"
	tokenPath        = "/token/"
	tokenRefreshPath = "/token/refresh/"
	chatBasePath     = "/lg/chat"
)

// Compile-time check
var _ adapter.StreamOpener = (*Client)(nil)

// Client talks to the test-automation backend: it opens agent-loop event
// streams and wraps the chat-session REST endpoints. All authenticated
// calls share one retry policy: attempt, on 401 refresh the access token
// exactly once, attempt once more, give up.
type Client struct {
	base   string
	rest   *http.Client // bounded timeout
	stream *http.Client // no timeout; lifetime bounded by ctx
	creds  adapter.CredentialStore
	log    *zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, creds adapter.CredentialStore, logger *zerolog.Logger) *Client {
	return &Client{
		base:   baseURL,
		rest:   &http.Client{Timeout: timeout},
		stream: &http.Client{},
		creds:  creds,
		log:    logger,
	}
}

// ===== Authentication =====

// Login trades a username/password for a token pair and persists it.
func (c *Client) Login(ctx context.Context, username, password string) (adapter.Credentials, error) {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+tokenPath, bytes.NewReader(body))
	if err != nil {
		return adapter.Credentials{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.rest.Do(req)
	if err != nil {
		return adapter.Credentials{}, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return adapter.Credentials{}, &derror.StatusError{Code: resp.StatusCode}
	}

	var creds adapter.Credentials
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		return adapter.Credentials{}, fmt.Errorf("login: decode response: %w", err)
	}
	if creds.Access == "" || creds.Refresh == "" {
		return adapter.Credentials{}, fmt.Errorf("login: incomplete token pair in response")
	}
	if err := c.creds.Save(creds); err != nil {
		return adapter.Credentials{}, err
	}
	return creds, nil
}

// Logout drops the stored token pair.
func (c *Client) Logout() error {
	return c.creds.Clear()
}

// refreshAccess trades the stored refresh token for a new access token.
// Any failure logs the user out and reports ErrSessionExpired.
func (c *Client) refreshAccess(ctx context.Context) (string, error) {
	creds, err := c.creds.Load()
	if err != nil {
		return "", err
	}
	if creds.Refresh == "" {
		metrics.AuthRefresh(false)
		_ = c.creds.Clear()
		return "", derror.ErrSessionExpired
	}

	body, _ := json.Marshal(map[string]string{"refresh": creds.Refresh})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+tokenRefreshPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.rest.Do(req)
	if err != nil {
		metrics.AuthRefresh(false)
		_ = c.creds.Clear()
		return "", fmt.Errorf("%w: refresh failed: %v", derror.ErrSessionExpired, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Access string `json:"access"`
	}
	if resp.StatusCode != http.StatusOK ||
		json.NewDecoder(resp.Body).Decode(&payload) != nil ||
		payload.Access == "" {
		metrics.AuthRefresh(false)
		_ = c.creds.Clear()
		return "", derror.ErrSessionExpired
	}

	creds.Access = payload.Access
	if err := c.creds.Save(creds); err != nil {
		return "", err
	}
	metrics.AuthRefresh(true)
	c.log.Debug().Msg("access token refreshed")
	return payload.Access, nil
}

// ===== Agent-loop stream =====

// OpenStream POSTs the chat request and returns the raw event-stream body.
// On 401 it refreshes the access token once and retries once; a second
// rejection surfaces as a StatusError like any other non-OK response.
func (c *Client) OpenStream(ctx context.Context, chatReq model.ChatRequest) (io.ReadCloser, error) {
	creds, err := c.creds.Load()
	if err != nil {
		return nil, err
	}
	if creds.Access == "" {
		return nil, derror.ErrNotAuthenticated
	}
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	resp, err := c.openOnce(ctx, creds.Access, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		token, err := c.refreshAccess(ctx)
		if err != nil {
			return nil, err
		}
		if resp, err = c.openOnce(ctx, token, body); err != nil {
			return nil, err
		}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &derror.StatusError{Code: resp.StatusCode}
	}
	if resp.Body == nil {
		return nil, derror.ErrNoResponseBody
	}
	return resp.Body, nil
}

func (c *Client) openOnce(ctx context.Context, token string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+agentLoopPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+token)
	return c.stream.Do(req)
}

// ===== Chat session REST surface =====

// apiEnvelope is the backend's standard response wrapper.
type apiEnvelope struct {
	Status  string          `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

// GetChatHistory fetches the persisted transcript of one session.
func (c *Client) GetChatHistory(ctx context.Context, sessionID, projectID string) (*model.ChatHistory, error) {
	q := url.Values{"session_id": {sessionID}, "project_id": {projectID}}
	var out model.ChatHistory
	if err := c.doJSON(ctx, http.MethodGet, chatBasePath+"/history/", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteChatHistory removes one session's transcript.
func (c *Client) DeleteChatHistory(ctx context.Context, sessionID, projectID string) error {
	q := url.Values{"session_id": {sessionID}, "project_id": {projectID}}
	return c.doJSON(ctx, http.MethodDelete, chatBasePath+"/history/", q, nil, nil)
}

// ListChatSessions enumerates the caller's sessions within a project.
func (c *Client) ListChatSessions(ctx context.Context, projectID string) (*model.SessionList, error) {
	q := url.Values{"project_id": {projectID}}
	var out model.SessionList
	if err := c.doJSON(ctx, http.MethodGet, chatBasePath+"/sessions/", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BatchDeleteChatHistory removes several sessions' transcripts in one call.
func (c *Client) BatchDeleteChatHistory(ctx context.Context, sessionIDs []string, projectID string) (*model.BatchDeleteResult, error) {
	body := map[string]any{"session_ids": sessionIDs, "project_id": projectID}
	var out model.BatchDeleteResult
	if err := c.doJSON(ctx, http.MethodPost, chatBasePath+"/batch-delete/", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// doJSON performs one authenticated REST call with the shared
// refresh-once-on-401 policy and unwraps the response envelope into out.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	creds, err := c.creds.Load()
	if err != nil {
		return err
	}
	if creds.Access == "" {
		return derror.ErrNotAuthenticated
	}

	resp, err := c.restOnce(ctx, method, path, query, body, creds.Access)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		token, err := c.refreshAccess(ctx)
		if err != nil {
			return err
		}
		if resp, err = c.restOnce(ctx, method, path, query, body, token); err != nil {
			return err
		}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &derror.StatusError{Code: resp.StatusCode}
	}

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Status != "success" {
		msg := env.Message
		if msg == "" {
			msg = "request failed"
		}
		return fmt.Errorf("%s %s: %s", method, path, msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

func (c *Client) restOnce(ctx context.Context, method, path string, query url.Values, body any, token string) (*http.Response, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.rest.Do(req)
}

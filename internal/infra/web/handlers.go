// File: internal/infra/web/handlers.go
package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// sessionSummary is the list view: counters only, no transcript.
type sessionSummary struct {
	SessionID         string `json:"session_id"`
	IsComplete        bool   `json:"is_complete"`
	Error             string `json:"error,omitempty"`
	MessageCount      int    `json:"message_count"`
	CurrentStep       int    `json:"current_step"`
	MaxSteps          *int   `json:"max_steps,omitempty"`
	ContextTokenCount int    `json:"context_token_count"`
	ContextLimit      int    `json:"context_limit"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	snap := s.states.Snapshot()
	out := make([]sessionSummary, 0, len(snap))
	for id, st := range snap {
		out = append(out, sessionSummary{
			SessionID:         id,
			IsComplete:        st.IsComplete,
			Error:             st.Error,
			MessageCount:      len(st.Messages),
			CurrentStep:       st.CurrentStep,
			MaxSteps:          st.MaxSteps,
			ContextTokenCount: st.ContextTokenCount,
			ContextLimit:      st.ContextLimit,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, ok := s.states.Get(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleUsage reads the side cache, so it keeps answering after the primary
// state has been cleared.
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	usage, ok := s.usage.Get(id)
	if !ok {
		http.Error(w, "no usage recorded", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// File: internal/infra/state/memory.go
package state

import (
	"sync"

	"agentloop-chat/internal/domain/model"
	"agentloop-chat/internal/domain/ports/repository"
)

// Compile-time checks
var (
	_ repository.StreamStateStore  = (*StreamStore)(nil)
	_ repository.ContextUsageCache = (*UsageCache)(nil)
)

// StreamStore is the in-process session-state map. Lifetime: created at
// application start, torn down with the process.
type StreamStore struct {
	mu     sync.RWMutex
	states map[string]*model.StreamState
}

func NewStreamStore() *StreamStore {
	return &StreamStore{states: make(map[string]*model.StreamState)}
}

func (s *StreamStore) Get(sessionID string) (model.StreamState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[sessionID]
	if !ok {
		return model.StreamState{}, false
	}
	return st.Clone(), true
}

func (s *StreamStore) Put(sessionID string, st *model.StreamState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[sessionID] = st
}

func (s *StreamStore) Update(sessionID string, fn func(st *model.StreamState)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[sessionID]
	if !ok {
		return false
	}
	fn(st)
	return true
}

func (s *StreamStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
}

func (s *StreamStore) Snapshot() map[string]model.StreamState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.StreamState, len(s.states))
	for id, st := range s.states {
		out[id] = st.Clone()
	}
	return out
}

// UsageCache keeps the last-known context usage per session. Deliberately
// untouched by StreamStore.Delete: it is the seed that prevents a token
// counter reset between turns.
type UsageCache struct {
	mu    sync.RWMutex
	usage map[string]model.ContextUsage
}

func NewUsageCache() *UsageCache {
	return &UsageCache{usage: make(map[string]model.ContextUsage)}
}

func (c *UsageCache) Get(sessionID string) (model.ContextUsage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.usage[sessionID]
	return u, ok
}

func (c *UsageCache) Put(sessionID string, usage model.ContextUsage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usage[sessionID] = usage
}

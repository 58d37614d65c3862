package repository

import "agentloop-chat/internal/domain/model"

// StreamStateStore holds the primary per-session stream state. One decode
// loop is the only writer for its own key; Update runs the mutation under
// the store's lock so concurrent readers (status server, CLI renderer) see
// consistent snapshots.
type StreamStateStore interface {
	// Get returns a deep copy of the state for sessionID.
	Get(sessionID string) (model.StreamState, bool)
	// Put installs st as the full replacement state for sessionID.
	Put(sessionID string, st *model.StreamState)
	// Update applies fn to the live state. Reports false when no state
	// exists for sessionID (the event is dropped by the caller).
	Update(sessionID string, fn func(st *model.StreamState)) bool
	// Delete removes the primary state. It must not touch the usage cache.
	Delete(sessionID string)
	// Snapshot returns deep copies of every tracked session.
	Snapshot() map[string]model.StreamState
}

// ContextUsageCache is the last-write-wins token usage side channel.
// Entries survive StreamStateStore.Delete and live until process teardown.
type ContextUsageCache interface {
	Get(sessionID string) (model.ContextUsage, bool)
	Put(sessionID string, usage model.ContextUsage)
}

package notification

import (
	"sync"

	"github.com/appetiteclub/ordernotify/pkg/enums/orderstatus"
)

// StatusRegistry remembers the last status the poll channel observed per
// order. Only the poller writes to it.
type StatusRegistry struct {
	mu    sync.RWMutex
	state map[string]orderstatus.Status
}

func NewStatusRegistry() *StatusRegistry {
	return &StatusRegistry{
		state: make(map[string]orderstatus.Status),
	}
}

func (r *StatusRegistry) Get(orderID string) (orderstatus.Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	status, ok := r.state[orderID]
	return status, ok
}

// Replace swaps the whole content for snapshot. Orders missing from snapshot
// are forgotten.
func (r *StatusRegistry) Replace(snapshot map[string]orderstatus.Status) {
	next := make(map[string]orderstatus.Status, len(snapshot))
	for id, status := range snapshot {
		next[id] = status
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = next
}

// Snapshot returns a copy of the registry content.
func (r *StatusRegistry) Snapshot() map[string]orderstatus.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]orderstatus.Status, len(r.state))
	for id, status := range r.state {
		out[id] = status
	}
	return out
}

func (r *StatusRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.state)
}

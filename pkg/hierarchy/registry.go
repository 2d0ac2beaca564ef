package hierarchy

import (
	"sync"

	"github.com/nbkit/nbsync/pkg/content"
	"github.com/nbkit/nbsync/pkg/server"
)

// Registry holds the last complete traversal snapshot per server identity.
// Snapshots are only ever replaced wholesale: a traversal that doesn't
// finish publishes nothing, and concurrent traversals against the same
// server race benignly with the last one to finish winning the slot.
type Registry struct {
	mu        sync.Mutex
	snapshots map[server.Identity][]*content.Content
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{snapshots: map[server.Identity][]*content.Content{}}
}

// Set replaces the snapshot for identity.
func (r *Registry) Set(identity server.Identity, snapshot []*content.Content) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[identity] = snapshot
}

// Get returns the last complete snapshot for identity.
func (r *Registry) Get(identity server.Identity) ([]*content.Content, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot, ok := r.snapshots[identity]
	return snapshot, ok
}

// Invalidate drops the snapshot for identity.
func (r *Registry) Invalidate(identity server.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snapshots, identity)
}

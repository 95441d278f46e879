package peer

import (
	"sync"
	"time"

	iradix "github.com/hashicorp/go-immutable-radix/v2"

	"github.com/brypt-community/brypt-node/internal/wire"
)

// Registry holds every known peer proxy, keyed by node identifier, backed
// by an immutable radix tree so Walk/Snapshot iterate in ascending
// identifier-byte order without a separate sort pass. The fetch-node
// fan-out (internal/route) walks "the current peer cache" in that order;
// internal/await sorts aggregated entries by responder on its own.
type Registry struct {
	mu        sync.RWMutex
	tree      *iradix.Tree[*Proxy]
	updatedAt time.Time
	now       func() time.Time
}

// NewRegistry returns an empty peer registry.
func NewRegistry() *Registry {
	return &Registry{tree: iradix.New[*Proxy](), now: time.Now}
}

// Upsert inserts or replaces the proxy registered under its own identifier.
func (r *Registry) Upsert(p *Proxy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree, _, _ = r.tree.Insert(p.ID(), p)
	r.updatedAt = r.now()
}

// Get returns the proxy registered under id, if any.
func (r *Registry) Get(id wire.NodeID) (*Proxy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tree.Get(id)
}

// Remove drops the proxy registered under id, reporting whether one was
// present.
func (r *Registry) Remove(id wire.NodeID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	newTree, _, ok := r.tree.Delete(id)
	r.tree = newTree
	if ok {
		r.updatedAt = r.now()
	}
	return ok
}

// UpdatedAt reports when the registry's membership last changed, the
// network-state timestamp an InformationHandler reports under
// update_timestamp. It is the zero time until the first Upsert.
func (r *Registry) UpdatedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updatedAt
}

// Len reports how many peers are currently registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tree.Len()
}

// Walk visits every registered peer in ascending identifier-byte order,
// stopping early if fn returns false.
func (r *Registry) Walk(fn func(id wire.NodeID, p *Proxy) bool) {
	r.mu.RLock()
	tree := r.tree
	r.mu.RUnlock()

	tree.Root().Walk(func(k []byte, v *Proxy) bool {
		return !fn(wire.NodeID(k), v)
	})
}

// Snapshot returns every registered peer identifier in ascending order.
func (r *Registry) Snapshot() []wire.NodeID {
	var out []wire.NodeID
	r.Walk(func(id wire.NodeID, _ *Proxy) bool {
		out = append(out, id.Clone())
		return true
	})
	return out
}

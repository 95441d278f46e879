// Package route implements the route trie and dispatch handlers (§4.6):
// static route registration over a bespoke radix trie, exact-match
// lookup (a route matches only a handler registered at that full route),
// and the Next action handlers use to reply, fire-and-forget, or
// fan out a request.
package route

import (
	"fmt"
	"sync"

	"github.com/brypt-community/brypt-node/internal/await"
	"github.com/brypt-community/brypt-node/internal/logger"
	"github.com/brypt-community/brypt-node/internal/metrics"
	"github.com/brypt-community/brypt-node/internal/peer"
	"github.com/brypt-community/brypt-node/internal/wire"
)

// ServiceProvider resolves named dependencies for handlers during
// router initialization (§4.6: "on_fetch_services(provider)").
type ServiceProvider interface {
	Service(name string) (any, bool)
}

// Handler is a route's dispatch target.
type Handler interface {
	// OnFetchServices is called once during router initialization to
	// resolve dependencies. Returning false aborts initialization.
	OnFetchServices(provider ServiceProvider) bool

	// OnMessage is invoked per dispatch. It returns whether handling
	// succeeded.
	OnMessage(parcel *wire.ApplicationParcel, next *Next) bool
}

// Router owns the route trie and dispatches inbound Application parcels
// to the matching handler.
type Router struct {
	mu       sync.RWMutex
	trie     *trie
	provider ServiceProvider
	tracker  *await.Service
	localID  wire.NodeID
	log      logger.Logger
}

// NewRouter returns an empty router. localID is stamped as the source of
// every parcel a Next action sends on the router's behalf; tracker backs
// Next.Defer's aggregated trackers.
func NewRouter(localID wire.NodeID, provider ServiceProvider, tracker *await.Service, log logger.Logger) *Router {
	return &Router{
		trie:     newTrie(),
		provider: provider,
		tracker:  tracker,
		localID:  localID.Clone(),
		log:      log,
	}
}

// Register attaches handler to route, validating it against the path
// grammar first. A second registration on the same route silently
// replaces the first, with a warning logged.
func (r *Router) Register(routePath string, handler Handler) error {
	canonical, ok := normalizePath(routePath)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidRoute, routePath)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if replaced := r.trie.insert(canonical, handler); replaced && r.log != nil {
		r.log.Warn("route handler replaced", logger.String("route", canonical))
	}
	return nil
}

// Init resolves every registered handler's dependencies via
// OnFetchServices, aborting on the first failure.
func (r *Router) Init() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ok := true
	r.trie.walk(func(h Handler) {
		if ok && !h.OnFetchServices(r.provider) {
			ok = false
		}
	})
	return ok
}

// Dispatch looks up a handler for parcel's route and invokes it, passing
// a Next action scoped to p/endpointID. Handler panics are recovered and
// logged with the route and source identifier, counting as failure.
func (r *Router) Dispatch(parcel *wire.ApplicationParcel, p *peer.Proxy, endpointID string) (ok bool) {
	r.mu.RLock()
	handler, found := r.trie.lookup(parcel.Route)
	r.mu.RUnlock()

	if !found {
		if r.log != nil {
			r.log.Warn("no handler for route", logger.String("route", parcel.Route))
		}
		metrics.RoutesDispatched.WithLabelValues(parcel.Route, "unknown_route").Inc()
		return false
	}

	next := &Next{
		peer:       p,
		endpointID: endpointID,
		parcel:     parcel,
		provider:   r.provider,
		tracker:    r.tracker,
		localID:    r.localID,
	}

	defer func() {
		if rec := recover(); rec != nil {
			if r.log != nil {
				r.log.Error("route handler panicked",
					logger.String("route", parcel.Route),
					logger.NodeID("source", parcel.Header.Source),
					logger.Any("panic", rec))
			}
			metrics.RoutesDispatched.WithLabelValues(parcel.Route, "handler_failure").Inc()
			ok = false
		}
	}()

	ok = handler.OnMessage(parcel, next)
	outcome := "success"
	if !ok {
		outcome = "handler_failure"
	}
	metrics.RoutesDispatched.WithLabelValues(parcel.Route, outcome).Inc()
	return ok
}

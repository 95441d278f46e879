// Package node is the composition root: it assembles C1-C8 plus the
// thin collaborators (endpoint drivers, bootstrap cache, service
// locator) into a running brypt node, owning every singleton the rest
// of the core only ever sees through a weak reference (§6: "the Service
// Provider holds weak references to all singletons; they are owned by
// the process root (the node bootstrap)").
package node

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brypt-community/brypt-node/internal/authorized"
	"github.com/brypt-community/brypt-node/internal/await"
	"github.com/brypt-community/brypt-node/internal/bootstrap"
	"github.com/brypt-community/brypt-node/internal/config"
	"github.com/brypt-community/brypt-node/internal/endpoint"
	"github.com/brypt-community/brypt-node/internal/exchange"
	"github.com/brypt-community/brypt-node/internal/logger"
	"github.com/brypt-community/brypt-node/internal/peer"
	"github.com/brypt-community/brypt-node/internal/route"
	"github.com/brypt-community/brypt-node/internal/scheduler"
	"github.com/brypt-community/brypt-node/internal/security"
	"github.com/brypt-community/brypt-node/internal/wire"
)

// Node owns every core singleton and the thin collaborators around it.
type Node struct {
	log      logger.Logger
	identity *security.Identity

	peers      *peer.Registry
	tracker    *await.Service
	router     *route.Router
	authorized *authorized.Processor
	registrar  *scheduler.Registrar
	locator    *bootstrap.Locator
	boot       *bootstrap.Service

	driversMu sync.Mutex
	drivers   map[string]endpoint.Driver
}

// New assembles a Node from cfg. It does not bind or connect any
// endpoint yet — call Bind/Connect, then Run.
func New(cfg *config.Config, log logger.Logger) (*Node, error) {
	identity, err := loadOrGenerateIdentity(cfg.Identity)
	if err != nil {
		return nil, fmt.Errorf("node: identity: %w", err)
	}

	tracker := await.NewService()
	peers := peer.NewRegistry()
	locator := bootstrap.NewLocator()
	cachePath := ""
	if cfg.Bootstrap != nil {
		cachePath = cfg.Bootstrap.CachePath
	}
	boot := bootstrap.NewService(cachePath)

	router := route.NewRouter(identity.NodeID(), locator, tracker, log)
	authProc := authorized.NewProcessor(router, tracker, identity.NodeID(), log)

	n := &Node{
		log:        log,
		identity:   identity,
		peers:      peers,
		tracker:    tracker,
		router:     router,
		authorized: authProc,
		registrar:  scheduler.NewRegistrar(),
		locator:    locator,
		boot:       boot,
		drivers:    make(map[string]endpoint.Driver),
	}

	locator.Register("peer.Registry", peers)
	locator.Register("await.Service", tracker)
	locator.Register("bootstrap.Service", boot)
	locator.Register("node.Identity", identity)
	locator.Register("node.Descriptor", descriptorFromConfig(cfg.Cluster))
	locator.Register("node.Protocols", n.Protocols)

	if err := n.registerHandlers(cfg); err != nil {
		return nil, err
	}

	n.registrar.Register(authProc.Delegate())
	n.registrar.Register(&scheduler.Delegate{
		Owner:   "tracking",
		Ready:   func() bool { return tracker.Ready() > 0 },
		Execute: tracker.Execute,
	})

	return n, nil
}

// descriptorFromConfig builds a route.NodeDescriptor from the operator's
// cluster settings, defaulting to an unclustered leaf node when cfg is nil
// (§State: GetDesignation maps the Branch/Leaf device operation to
// "coordinator"/"node").
func descriptorFromConfig(cfg *config.ClusterConfig) *route.NodeDescriptor {
	descriptor := &route.NodeDescriptor{Designation: route.DesignationNode}
	if cfg == nil {
		return descriptor
	}
	descriptor.Cluster = cfg.ID
	if cfg.Coordinator {
		descriptor.Designation = route.DesignationCoordinator
	}
	return descriptor
}

// registerHandlers wires the node's application-route handlers into its
// router (§8 scenarios 1 and 5), so Router().Init() in cmd/bryptd/run.go
// has real handlers to resolve.
func (n *Node) registerHandlers(cfg *config.Config) error {
	deadline := 5 * time.Second
	if cfg.Await != nil && cfg.Await.AggregateTimeout > 0 {
		deadline = cfg.Await.AggregateTimeout
	}

	if err := n.router.Register(route.InformationPath, route.NewInformationHandler()); err != nil {
		return fmt.Errorf("node: register %s: %w", route.InformationPath, err)
	}
	if err := n.router.Register(route.FetchNodePath, route.NewFetchNodeHandler(deadline)); err != nil {
		return fmt.Errorf("node: register %s: %w", route.FetchNodePath, err)
	}
	return nil
}

// Identity returns the node's own identity.
func (n *Node) Identity() *security.Identity {
	return n.identity
}

// Router returns the route trie/dispatcher, for registering handlers
// before Run.
func (n *Node) Router() *route.Router {
	return n.router
}

// Peers returns the peer registry.
func (n *Node) Peers() *peer.Registry {
	return n.peers
}

// Locator returns the service locator, for registering additional
// singletons (e.g. a metrics collector) before Run.
func (n *Node) Locator() *bootstrap.Locator {
	return n.locator
}

// LoadBootstrapCache reads the bootstrap-cache file once, per §6.
func (n *Node) LoadBootstrapCache() error {
	return n.boot.Load()
}

// Protocols returns the protocol names of every endpoint driver started so
// far (bound or connected), the set an InformationHandler response reports
// under protocols. It reads live, since Router().Init() runs before
// StartEndpoints in cmd/bryptd/run.go and so sees no drivers yet.
func (n *Node) Protocols() []string {
	n.driversMu.Lock()
	defer n.driversMu.Unlock()

	out := make([]string, 0, len(n.drivers))
	for protocol := range n.drivers {
		out = append(out, protocol)
	}
	return out
}

// driverFor returns (creating if necessary) the named protocol's driver.
func (n *Node) driverFor(protocol string) (endpoint.Driver, error) {
	n.driversMu.Lock()
	defer n.driversMu.Unlock()

	if d, ok := n.drivers[protocol]; ok {
		return d, nil
	}

	var d endpoint.Driver
	switch protocol {
	case "loopback":
		d = endpoint.NewLoopback()
	case "tcp":
		d = endpoint.NewTCP()
	case "ws":
		d = endpoint.NewWS()
	default:
		return nil, fmt.Errorf("node: unknown endpoint protocol %q", protocol)
	}
	n.drivers[protocol] = d
	return d, nil
}

// Bind starts listening for inbound connections on protocol/address.
func (n *Node) Bind(protocol, address string) error {
	driver, err := n.driverFor(protocol)
	if err != nil {
		return err
	}
	ok, err := driver.Bind(address, func(conn endpoint.Conn) endpoint.ReceiveFunc {
		receive, _ := n.acceptConnection(protocol, conn, security.RoleAcceptor)
		return receive
	})
	if err != nil {
		return fmt.Errorf("node: bind %s %s: %w", protocol, address, err)
	}
	if !ok {
		return fmt.Errorf("node: bind %s %s rejected", protocol, address)
	}
	return nil
}

// Connect dials a peer at protocol/address, initiating a handshake once
// the connection is established.
func (n *Node) Connect(protocol, address string) error {
	driver, err := n.driverFor(protocol)
	if err != nil {
		return err
	}

	var proc *exchange.Processor
	conn, err := driver.Connect(address, func(conn endpoint.Conn) endpoint.ReceiveFunc {
		var receive endpoint.ReceiveFunc
		receive, proc = n.acceptConnection(protocol, conn, security.RoleInitiator)
		return receive
	})
	if err != nil {
		return fmt.Errorf("node: connect %s %s: %w", protocol, address, err)
	}
	if conn == nil {
		return fmt.Errorf("node: connect %s %s rejected", protocol, address)
	}

	hello, err := proc.Prepare()
	if err != nil {
		return fmt.Errorf("node: prepare handshake for %s %s: %w", protocol, address, err)
	}
	if hello != "" {
		conn.Send(hello)
	}
	return nil
}

// StartEndpoints binds and connects every endpoint named in cfg.Endpoints.
func (n *Node) StartEndpoints(cfg []config.EndpointConfig) error {
	for _, ep := range cfg {
		if ep.BindAddress != "" {
			if err := n.Bind(ep.Protocol, ep.BindAddress); err != nil {
				return err
			}
		}
		for _, address := range ep.ConnectAddresses {
			if err := n.Connect(ep.Protocol, address); err != nil {
				return err
			}
		}
	}
	return nil
}

// idlePollInterval bounds how long Run backs off between scheduler
// cycles once a cycle completes zero tasks; work that arrives
// asynchronously off an endpoint driver's goroutine (a connection
// readiness flag, a queued parcel) is picked up on the next cycle.
const idlePollInterval = 10 * time.Millisecond

// Run drives the scheduler until ctx is cancelled.
func (n *Node) Run(ctx context.Context) error {
	for {
		completed, err := n.registrar.RunOnce()
		if err != nil {
			return fmt.Errorf("node: scheduler: %w", err)
		}

		if completed == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(idlePollInterval):
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// peerFor returns the registry's proxy for id, registering a fresh one
// if this is the first contact.
func (n *Node) peerFor(id wire.NodeID) *peer.Proxy {
	if existing, ok := n.peers.Get(id); ok {
		return existing
	}
	p := peer.NewProxy(id, n.tracker)
	n.peers.Upsert(p)
	return p
}

// Package peer implements the peer proxy and registry (§4.4): the stable
// handle for a known peer across endpoint churn, and an ordered registry
// of proxies keyed by node identifier.
package peer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/brypt-community/brypt-node/internal/await"
	"github.com/brypt-community/brypt-node/internal/wire"
)

// MessageSink is the polymorphic receiver a proxy's ScheduleReceive calls
// into. It starts out bound to the Exchange Processor and is atomically
// replaced with the Authorized Processor once the handshake observer fires
// on_exchange_close(Success) — that swap happens via SetSink, called by
// whatever owns both processors (the node wiring layer), not by this
// package, since deciding when a handshake has succeeded is the Exchange
// Processor's (C3) business, not the registry's.
type MessageSink interface {
	ScheduleReceive(endpointID string, buf []byte) bool
}

// MessageContext carries the security closures used to build and parse
// outgoing/incoming parcels on one endpoint path.
type MessageContext struct {
	Encryptor wire.Encryptor
	Decryptor wire.Decryptor
	Signer    wire.Signer
	Verifier  wire.Verifier
}

// SendFunc is a single-operation send closure supplied by an endpoint
// driver (out of scope for this package, per §4.4: "treated as a single
// operation producing a boolean; a false result does not mutate proxy
// state").
type SendFunc func(pack string) bool

// Registration binds one endpoint path to its transport details, send
// closure, and current security context.
type Registration struct {
	EndpointID    string
	Protocol      string
	RemoteAddress string
	Send          SendFunc
	Context       *MessageContext

	sent uint64
}

// SentCount reports how many sends have succeeded on this registration.
func (r *Registration) SentCount() uint64 {
	return atomic.LoadUint64(&r.sent)
}

// Proxy is the stable handle for a known peer across endpoint churn.
type Proxy struct {
	id wire.NodeID

	mu            sync.RWMutex
	registrations map[string]*Registration

	sinkMu sync.Mutex
	sink   MessageSink

	tracker  *await.Service
	liveness *LivenessTracker
}

// NewProxy returns a proxy for id, correlating its requests through
// tracker.
func NewProxy(id wire.NodeID, tracker *await.Service) *Proxy {
	return &Proxy{
		id:            id.Clone(),
		registrations: make(map[string]*Registration),
		tracker:       tracker,
		liveness:      NewLivenessTracker(),
	}
}

// ID returns the peer's stable network identifier.
func (p *Proxy) ID() wire.NodeID {
	return p.id
}

// Liveness returns the peer's heartbeat hit/miss counter.
func (p *Proxy) Liveness() *LivenessTracker {
	return p.liveness
}

// RegisterEndpoint stores a Registration and its message context for
// endpointID, replacing any prior registration on that path.
func (p *Proxy) RegisterEndpoint(endpointID, protocol, remoteAddress string, send SendFunc, ctx *MessageContext) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registrations[endpointID] = &Registration{
		EndpointID:    endpointID,
		Protocol:      protocol,
		RemoteAddress: remoteAddress,
		Send:          send,
		Context:       ctx,
	}
}

// DeregisterEndpoint drops a prior registration, e.g. on endpoint churn.
func (p *Proxy) DeregisterEndpoint(endpointID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.registrations, endpointID)
}

// GetMessageContext returns the security closures used to build outgoing
// parcels on endpointID.
func (p *Proxy) GetMessageContext(endpointID string) (*MessageContext, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	reg, ok := p.registrations[endpointID]
	if !ok {
		return nil, false
	}
	return reg.Context, true
}

// PrimaryEndpoint returns one of the peer's registered endpoints and its
// message context, for callers that address a peer generically rather
// than through a specific inbound endpoint (e.g. a cluster-wide notice
// fan-out in internal/route). A proxy registers exactly one endpoint per
// connection in this deployment model, so "one of them" is "the one".
func (p *Proxy) PrimaryEndpoint() (endpointID string, ctx *MessageContext, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for id, reg := range p.registrations {
		return id, reg.Context, true
	}
	return "", nil, false
}

// ScheduleSend invokes the registered send closure for endpointID and
// increments its sent counter on success.
func (p *Proxy) ScheduleSend(endpointID, pack string) bool {
	p.mu.RLock()
	reg, ok := p.registrations[endpointID]
	p.mu.RUnlock()
	if !ok || reg.Send == nil {
		return false
	}

	if !reg.Send(pack) {
		return false
	}
	atomic.AddUint64(&reg.sent, 1)
	return true
}

// ScheduleReceive passes buf, and the endpoint it arrived on, to the
// current sink. It returns false if no sink is bound. The sink lock covers
// only reading the current sink; the sink call itself runs outside it, so
// concurrent receives reach the sink concurrently and a swap never waits
// on an in-flight receive.
func (p *Proxy) ScheduleReceive(endpointID string, buf []byte) bool {
	p.sinkMu.Lock()
	sink := p.sink
	p.sinkMu.Unlock()

	if sink == nil {
		return false
	}
	return sink.ScheduleReceive(endpointID, buf)
}

// SetSink atomically replaces the message sink, e.g. swapping the Exchange
// Processor for the Authorized Processor on handshake success.
func (p *Proxy) SetSink(sink MessageSink) {
	p.sinkMu.Lock()
	defer p.sinkMu.Unlock()
	p.sink = sink
}

// Request finalizes an outgoing Application parcel through the Tracking
// Service so responses are correlated, encodes it with endpointID's
// current security context, sends it, and returns the tracker key.
func (p *Proxy) Request(endpointID string, builder *wire.ApplicationBuilder, deadline time.Duration, onResponse func(await.Response), onError func(error)) (wire.TrackerKey, error) {
	p.mu.RLock()
	reg, ok := p.registrations[endpointID]
	p.mu.RUnlock()
	if !ok {
		return wire.TrackerKey{}, ErrUnknownEndpoint
	}
	if reg.Context == nil || reg.Context.Encryptor == nil {
		return wire.TrackerKey{}, ErrNoSecuredContext
	}

	parcel, key, err := p.tracker.StageRequest(builder, deadline, onResponse, onError)
	if err != nil {
		return wire.TrackerKey{}, err
	}

	encoded, err := parcel.Encode(reg.Context.Encryptor, reg.Context.Signer)
	if err != nil {
		return wire.TrackerKey{}, err
	}

	if !p.ScheduleSend(endpointID, encoded) {
		return key, ErrSendFailed
	}
	return key, nil
}

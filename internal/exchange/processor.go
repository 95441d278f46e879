// Package exchange implements the handshake state machine (§4.3) that
// lives between a peer proxy's creation and its promotion to authorized:
// it drives a security.Synchronizer to completion over the Platform
// parcel channel, enforcing destination rules and a handshake deadline
// along the way.
package exchange

import (
	"errors"
	"sync"
	"time"

	"github.com/brypt-community/brypt-node/internal/metrics"
	"github.com/brypt-community/brypt-node/internal/security"
	"github.com/brypt-community/brypt-node/internal/wire"
)

// State is the processor's lifecycle stage.
type State uint8

const (
	StateInitialization State = iota
	StateSynchronization
	StateReady
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateInitialization:
		return "initialization"
	case StateSynchronization:
		return "synchronization"
	case StateReady:
		return "ready"
	default:
		return "failure"
	}
}

// HandshakeDeadline bounds how long a processor may remain in
// Synchronization before it is forced to Failure (§4.3).
const HandshakeDeadline = 1500 * time.Millisecond

var (
	ErrWrongState          = errors.New("exchange: processor is not in the expected state")
	ErrWrongProtocol       = errors.New("exchange: handshake channel received a non-platform message")
	ErrWrongParcelType     = errors.New("exchange: handshake channel received a non-handshake parcel")
	ErrDestinationMismatch = errors.New("exchange: destination does not name this node")
	ErrDeadlineExceeded    = errors.New("exchange: handshake deadline exceeded")
)

// Observer is notified when a processor leaves Synchronization.
type Observer interface {
	// OnExchangeReady fires once the synchronizer reaches Ready, handing
	// back the finalized secured context and the peer's identifier.
	OnExchangeReady(secured *security.SecuredContext, peerID wire.NodeID)

	// OnExchangeClose fires exactly once, after OnExchangeReady on
	// success, or in place of it on failure. The one exception is an
	// Initiator whose connect protocol fails: OnExchangeReady has already
	// fired, and OnExchangeClose(false) follows it. A peer proxy uses this to
	// swap its message sink from the Exchange Processor to the
	// Authorized Processor.
	OnExchangeClose(success bool)
}

// ConnectProtocol is invoked once Ready is reached, only for the
// Initiator role, to send a fresh authenticated request that establishes
// the application session on top of the now-secured channel.
type ConnectProtocol func(secured *security.SecuredContext) error

// Processor drives one peer's handshake to completion.
type Processor struct {
	mu sync.Mutex

	state        State
	synchronizer security.Synchronizer
	localID      wire.NodeID
	peerID       wire.NodeID
	deadline     time.Time
	startedAt    time.Time
	observer     Observer
	connect      ConnectProtocol
	now          func() time.Time
}

// NewProcessor returns a processor in Initialization, carrying a deadline
// starting from construction time.
func NewProcessor(synchronizer security.Synchronizer, localID wire.NodeID, observer Observer, connect ConnectProtocol) *Processor {
	return newProcessorWithClock(synchronizer, localID, observer, connect, time.Now)
}

func newProcessorWithClock(synchronizer security.Synchronizer, localID wire.NodeID, observer Observer, connect ConnectProtocol, now func() time.Time) *Processor {
	start := now()

	role := "acceptor"
	if synchronizer.Role() == security.RoleInitiator {
		role = "initiator"
	}
	metrics.HandshakesInitiated.WithLabelValues(role).Inc()

	return &Processor{
		state:        StateInitialization,
		synchronizer: synchronizer,
		localID:      localID,
		observer:     observer,
		connect:      connect,
		now:          now,
		startedAt:    start,
		deadline:     start.Add(HandshakeDeadline),
	}
}

// State returns the processor's current state.
func (p *Processor) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Prepare runs the synchronizer's initialize step. If it produced
// handshake bytes, they come back wrapped as an encoded Handshake parcel
// (source: the local identifier, no destination) for the caller to send.
// An empty string with no error means this role has nothing to send yet
// (the Acceptor waits for the peer to speak first).
func (p *Processor) Prepare() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateInitialization {
		return "", ErrWrongState
	}

	status, buf, err := p.synchronizer.Initialize()
	if err != nil {
		p.state = StateFailure
		p.notifyClose(false)
		return "", err
	}
	p.state = StateSynchronization

	if status == security.StatusReady {
		return "", p.transitionReady()
	}
	if len(buf) == 0 {
		return "", nil
	}
	return p.wrapHandshake(buf, nil)
}

// CollectMessage processes one inbound buffer, returning an encoded pack
// to send back to the peer (empty if none is due).
func (p *Processor) CollectMessage(buf []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateSynchronization {
		return "", ErrWrongState
	}
	if p.now().After(p.deadline) {
		p.state = StateFailure
		p.notifyClose(false)
		return "", ErrDeadlineExceeded
	}

	decoded, err := wire.Z85Decode(string(buf))
	if err != nil {
		p.state = StateFailure
		p.notifyClose(false)
		return "", ErrWrongProtocol
	}
	protocol, ok := wire.PeekProtocol(decoded)
	if !ok || protocol != wire.ProtocolPlatform {
		p.state = StateFailure
		p.notifyClose(false)
		return "", ErrWrongProtocol
	}

	parcel, ok := wire.NewPlatformBuilder().FromPack(string(buf), nil).ValidatedBuild()
	if !ok {
		p.state = StateFailure
		p.notifyClose(false)
		return "", ErrWrongProtocol
	}
	if parcel.Type != wire.PlatformHandshake {
		p.state = StateFailure
		p.notifyClose(false)
		return "", ErrWrongParcelType
	}

	if parcel.Header.Destination.Type != wire.DestinationNode {
		p.state = StateFailure
		p.notifyClose(false)
		return "", ErrDestinationMismatch
	}
	if len(parcel.Header.Destination.ID) > 0 && !parcel.Header.Destination.ID.Equal(p.localID) {
		p.state = StateFailure
		p.notifyClose(false)
		return "", ErrDestinationMismatch
	}

	if p.peerID == nil && parcel.Header.Source.Valid() {
		p.peerID = parcel.Header.Source.Clone()
	}

	status, outgoing, err := p.synchronizer.Synchronize(parcel.Payload)
	if err != nil {
		p.state = StateFailure
		p.notifyClose(false)
		return "", err
	}

	if status == security.StatusReady {
		if err := p.transitionReady(); err != nil {
			return "", err
		}
		if len(outgoing) == 0 {
			return "", nil
		}
		return p.wrapHandshake(outgoing, p.peerID)
	}

	if len(outgoing) == 0 {
		return "", nil
	}
	return p.wrapHandshake(outgoing, p.peerID)
}

// Expire forces the processor to Failure if its deadline has passed,
// letting a scheduler delegate sweep idle handshakes without waiting on a
// message that may never arrive.
func (p *Processor) Expire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateSynchronization && p.state != StateInitialization {
		return false
	}
	if !p.now().After(p.deadline) {
		return false
	}
	p.state = StateFailure
	p.notifyClose(false)
	return true
}

// transitionReady finalizes the synchronizer, notifies the observer, and
// — for the Initiator only — runs the injected connect protocol over the
// newly secured channel. Caller must hold p.mu.
func (p *Processor) transitionReady() error {
	secured, err := p.synchronizer.Finalize()
	if err != nil {
		p.state = StateFailure
		p.notifyClose(false)
		return err
	}

	p.state = StateReady
	if p.observer != nil {
		p.observer.OnExchangeReady(secured, p.peerID)
	}

	if p.synchronizer.Role() == security.RoleInitiator && p.connect != nil {
		if err := p.connect(secured); err != nil {
			p.state = StateFailure
			p.notifyClose(false)
			return err
		}
	}

	p.notifyClose(true)
	return nil
}

func (p *Processor) notifyClose(success bool) {
	status := "failure"
	if success {
		status = "ready"
	}
	metrics.HandshakesCompleted.WithLabelValues(status).Inc()
	metrics.HandshakeDuration.Observe(p.now().Sub(p.startedAt).Seconds())

	if p.observer != nil {
		p.observer.OnExchangeClose(success)
	}
}

func (p *Processor) wrapHandshake(payload []byte, destination wire.NodeID) (string, error) {
	builder := wire.NewPlatformBuilder().
		WithSource(p.localID).
		WithType(wire.PlatformHandshake).
		WithTimestamp(p.now().UnixMilli()).
		WithPayload(payload)

	if len(destination) > 0 {
		builder = builder.WithDestination(wire.Destination{Type: wire.DestinationNode, ID: destination})
	}

	parcel, ok := builder.ValidatedBuild()
	if !ok {
		return "", errors.Join(builder.Failures()...)
	}
	return parcel.Encode(nil)
}

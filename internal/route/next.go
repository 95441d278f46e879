package route

import (
	"encoding/json"
	"time"

	"github.com/brypt-community/brypt-node/internal/await"
	"github.com/brypt-community/brypt-node/internal/peer"
	"github.com/brypt-community/brypt-node/internal/wire"
)

// Next is passed to a handler's OnMessage. It carries a weak reference to
// the peer the inbound parcel arrived from, the parcel itself, and a
// service-provider handle, and offers the three actions §4.6 names.
type Next struct {
	peer       *peer.Proxy
	endpointID string
	parcel     *wire.ApplicationParcel
	provider   ServiceProvider
	tracker    *await.Service
	localID    wire.NodeID
}

// Peer returns the weak peer reference the inbound parcel arrived from.
func (n *Next) Peer() *peer.Proxy { return n.peer }

// LocalID returns the identifier Next stamps as Source on every parcel it
// builds, for a handler (e.g. a fan-out aggregator) that needs to address
// parcels of its own outside Dispatch/Respond/Defer.
func (n *Next) LocalID() wire.NodeID { return n.localID }

// Services returns the router's service provider.
func (n *Next) Services() ServiceProvider { return n.provider }

// Dispatch sends a fire-and-forget Application parcel to the same peer.
func (n *Next) Dispatch(routePath string, payload []byte) bool {
	builder := wire.NewApplicationBuilder().
		WithSource(n.localID).
		WithDestination(wire.Destination{Type: wire.DestinationNode, ID: n.peer.ID()}).
		WithRoute(routePath).
		WithPayload(payload)

	return n.buildAndSend(builder)
}

// Respond builds and sends a response Application parcel whose Awaitable
// extension binds to the incoming request's tracker key in Response mode.
func (n *Next) Respond(payload []byte, statusCode uint16) bool {
	_, key, err := awaitableRequestKey(n.parcel)
	if err != nil {
		return false
	}

	builder := wire.NewApplicationBuilder().
		WithSource(n.localID).
		WithDestination(wire.Destination{Type: wire.DestinationNode, ID: n.parcel.Header.Source}).
		WithRoute(n.parcel.Route).
		WithPayload(payload).
		WithExtension(wire.NewAwaitableExtension(wire.AwaitableResponse, key)).
		WithExtension(wire.NewStatusExtension(statusCode))

	return n.buildAndSend(builder)
}

// DeferOptions parameterizes Next.Defer's aggregated fan-out (§4.7).
type DeferOptions struct {
	NoticeDestination  wire.NodeID
	NoticeRoute        string
	NoticePayload      []byte
	ExpectedResponders []wire.NodeID
	Deadline           time.Duration

	// ResponseRoute is stamped on the final aggregated response parcel.
	// Defaults to the inbound parcel's own route when empty.
	ResponseRoute string
}

// aggregatedPayloadEntry is the wire shape of one responder's contribution
// to an aggregated response: a JSON-like mapping from responder identifier
// to payload, per §4.7.
type aggregatedPayloadEntry struct {
	Responder  string `json:"responder"`
	Payload    []byte `json:"payload,omitempty"`
	StatusCode uint16 `json:"status_code,omitempty"`
	TimedOut   bool   `json:"timed_out,omitempty"`
}

// Defer registers an aggregated tracker for a fan-out route (e.g.
// fetch-node) and returns its key. Once every expected responder has
// replied or the deadline passes, the aggregated response is sent back to
// the original requester automatically, correlated to its own Awaitable
// request via the tracker key already stamped on the inbound parcel.
func (n *Next) Defer(opts DeferOptions) (wire.TrackerKey, error) {
	_, originalKey, err := awaitableRequestKey(n.parcel)
	if err != nil {
		return wire.TrackerKey{}, err
	}

	requester := n.parcel.Header.Source.Clone()
	responseRoute := opts.ResponseRoute
	if responseRoute == "" {
		responseRoute = n.parcel.Route
	}

	localID := n.localID
	p := n.peer
	endpointID := n.endpointID

	onComplete := func(requesterID wire.NodeID, entries []await.AggregatedEntry) {
		payload, err := encodeAggregatedEntries(entries)
		if err != nil {
			return
		}

		builder := wire.NewApplicationBuilder().
			WithSource(localID).
			WithDestination(wire.Destination{Type: wire.DestinationNode, ID: requesterID}).
			WithRoute(responseRoute).
			WithPayload(payload).
			WithExtension(wire.NewAwaitableExtension(wire.AwaitableResponse, originalKey))

		parcel, ok := builder.ValidatedBuild()
		if !ok {
			return
		}
		ctx, ok := p.GetMessageContext(endpointID)
		if !ok || ctx.Encryptor == nil {
			return
		}
		encoded, err := parcel.Encode(ctx.Encryptor, ctx.Signer)
		if err != nil {
			return
		}
		p.ScheduleSend(endpointID, encoded)
	}

	return n.tracker.Defer(await.DeferOptions{
		Requester:          requester,
		NoticeSource:       localID,
		NoticeDestination:  opts.NoticeDestination,
		NoticeRoute:        opts.NoticeRoute,
		NoticePayload:      opts.NoticePayload,
		ExpectedResponders: opts.ExpectedResponders,
		Deadline:           opts.Deadline,
		OnComplete:         onComplete,
	})
}

func (n *Next) buildAndSend(builder *wire.ApplicationBuilder) bool {
	parcel, ok := builder.ValidatedBuild()
	if !ok {
		return false
	}
	ctx, ok := n.peer.GetMessageContext(n.endpointID)
	if !ok || ctx.Encryptor == nil {
		return false
	}
	encoded, err := parcel.Encode(ctx.Encryptor, ctx.Signer)
	if err != nil {
		return false
	}
	return n.peer.ScheduleSend(n.endpointID, encoded)
}

func awaitableRequestKey(parcel *wire.ApplicationParcel) (wire.AwaitableBinding, wire.TrackerKey, error) {
	ext, ok := parcel.AwaitableExtension()
	if !ok {
		return 0, wire.TrackerKey{}, ErrNotAwaitableRequest
	}
	binding, key, err := ext.AsAwaitable()
	if err != nil || binding != wire.AwaitableRequest {
		return 0, wire.TrackerKey{}, ErrNotAwaitableRequest
	}
	return binding, key, nil
}

func encodeAggregatedEntries(entries []await.AggregatedEntry) ([]byte, error) {
	out := make([]aggregatedPayloadEntry, len(entries))
	for i, e := range entries {
		out[i] = aggregatedPayloadEntry{
			Responder:  e.Responder.String(),
			Payload:    e.Payload,
			StatusCode: e.StatusCode,
			TimedOut:   e.TimedOut,
		}
	}
	return json.Marshal(out)
}

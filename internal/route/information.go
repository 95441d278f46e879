package route

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/brypt-community/brypt-node/internal/peer"
	"github.com/brypt-community/brypt-node/internal/wire"
)

// InformationPath is the route a node answers its own cluster/neighbor
// state on (§8 scenario 1).
const InformationPath = "/info/node"

// FetchNodePath fans an information request out across the peer cache and
// aggregates the replies into one response (§8 scenario 5).
const FetchNodePath = "/info/fetch/node"

// NodeDescriptor is a node's fixed self-description: which cluster it
// reports membership in, and whether it acts as that cluster's
// coordinator (Branch) or a plain leaf (Leaf). The composition root
// builds one from configuration and registers it under the "node.Descriptor"
// service tag.
type NodeDescriptor struct {
	Cluster     uint32
	Designation string
}

// Designation labels, matching the two-tier device operation a node
// reports itself under.
const (
	DesignationCoordinator = "coordinator"
	DesignationNode        = "node"
)

// nodeInfoPayload is the wire shape of an information response (§8
// scenario 1): cluster, neighbor_count, designation, protocols,
// update_timestamp.
type nodeInfoPayload struct {
	Cluster         uint32   `json:"cluster"`
	NeighborCount   uint32   `json:"neighbor_count"`
	Designation     string   `json:"designation"`
	Protocols       []string `json:"protocols"`
	UpdateTimestamp uint64   `json:"update_timestamp"`
}

// informationServices bundles the dependencies InformationHandler and
// FetchNodeHandler share, resolved once during OnFetchServices, mirroring
// the original NodeHandler/FetchNodeHandler sharing one OnFetchServices
// implementation over NodeState/NetworkState/Network::Manager/IPeerCache.
type informationServices struct {
	descriptor *NodeDescriptor
	registry   *peer.Registry
	protocols  func() []string
}

func (s *informationServices) fetch(provider ServiceProvider) bool {
	descriptor, ok := provider.Service("node.Descriptor")
	if !ok {
		return false
	}
	d, ok := descriptor.(*NodeDescriptor)
	if !ok {
		return false
	}

	registry, ok := provider.Service("peer.Registry")
	if !ok {
		return false
	}
	r, ok := registry.(*peer.Registry)
	if !ok {
		return false
	}

	protocols, ok := provider.Service("node.Protocols")
	if !ok {
		return false
	}
	fn, ok := protocols.(func() []string)
	if !ok {
		return false
	}

	s.descriptor = d
	s.registry = r
	s.protocols = fn
	return true
}

// payload generates the node-information JSON body, reading every field
// live off its source (cluster/designation are fixed, the rest reflect
// current peer-cache and endpoint state), mirroring Json::GenerateNodeInfo.
func (s *informationServices) payload() []byte {
	protocols := append([]string(nil), s.protocols()...)
	sort.Strings(protocols)

	out := nodeInfoPayload{
		Cluster:         s.descriptor.Cluster,
		NeighborCount:   uint32(s.registry.Len()),
		Designation:     s.descriptor.Designation,
		Protocols:       protocols,
		UpdateTimestamp: uint64(s.registry.UpdatedAt().UnixMilli()),
	}
	buf, err := json.Marshal(out)
	if err != nil {
		return nil
	}
	return buf
}

// InformationHandler answers /info/node with this node's own cluster
// state (§8 scenario 1), grounded on
// Route::Fundamental::Information::NodeHandler.
type InformationHandler struct {
	services informationServices
}

// NewInformationHandler returns an unwired InformationHandler; its
// dependencies are resolved by the router during Init.
func NewInformationHandler() *InformationHandler {
	return &InformationHandler{}
}

func (h *InformationHandler) OnFetchServices(provider ServiceProvider) bool {
	return h.services.fetch(provider)
}

func (h *InformationHandler) OnMessage(parcel *wire.ApplicationParcel, next *Next) bool {
	return next.Respond(h.services.payload(), 200)
}

// FetchNodeHandler answers /info/fetch/node by sending every other member
// of the peer cache a notice on InformationPath under one shared tracker
// key, then aggregating their responses (or a timed-out placeholder) back
// to the original requester once every responder has answered or the
// deadline passes (§8 scenario 5), grounded on
// Route::Fundamental::Information::FetchNodeHandler and Await::Create's
// pre-populated "Unfulfilled" entries.
type FetchNodeHandler struct {
	services informationServices
	deadline time.Duration
}

// NewFetchNodeHandler returns a handler that waits up to deadline for
// every cluster peer to answer before completing the aggregate.
func NewFetchNodeHandler(deadline time.Duration) *FetchNodeHandler {
	return &FetchNodeHandler{deadline: deadline}
}

func (h *FetchNodeHandler) OnFetchServices(provider ServiceProvider) bool {
	return h.services.fetch(provider)
}

func (h *FetchNodeHandler) OnMessage(parcel *wire.ApplicationParcel, next *Next) bool {
	source := parcel.Header.Source

	var responderIDs []wire.NodeID
	var responderProxies []*peer.Proxy
	h.services.registry.Walk(func(id wire.NodeID, p *peer.Proxy) bool {
		if id.Equal(source) {
			return true
		}
		responderIDs = append(responderIDs, id.Clone())
		responderProxies = append(responderProxies, p)
		return true
	})

	key, err := next.Defer(DeferOptions{
		NoticeDestination:  wire.NodeID{},
		NoticeRoute:        InformationPath,
		ExpectedResponders: responderIDs,
		Deadline:           h.deadline,
	})
	if err != nil {
		return false
	}

	// The fan-out itself: every expected responder gets the same
	// Awaitable(Request, key) on InformationPath, so their eventual
	// replies all correlate to the one aggregated tracker Defer just
	// registered. Next only reaches the peer the inbound parcel arrived
	// from, so these notices are built and sent directly here rather
	// than through Next.Dispatch/Respond.
	localID := next.LocalID()
	extension := wire.NewAwaitableExtension(wire.AwaitableRequest, key)
	for _, p := range responderProxies {
		sendNotice(p, localID, extension)
	}

	return true
}

func sendNotice(p *peer.Proxy, localID wire.NodeID, extension wire.Extension) {
	endpointID, ctx, ok := p.PrimaryEndpoint()
	if !ok || ctx == nil || ctx.Encryptor == nil {
		return
	}

	notice, ok := wire.NewApplicationBuilder().
		WithSource(localID).
		WithDestination(wire.Destination{Type: wire.DestinationNode, ID: p.ID()}).
		WithRoute(InformationPath).
		WithExtension(extension).
		ValidatedBuild()
	if !ok {
		return
	}

	encoded, err := notice.Encode(ctx.Encryptor, ctx.Signer)
	if err != nil {
		return
	}
	p.ScheduleSend(endpointID, encoded)
}

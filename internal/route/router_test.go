package route

import (
	"testing"

	"github.com/brypt-community/brypt-node/internal/await"
	"github.com/brypt-community/brypt-node/internal/peer"
	"github.com/brypt-community/brypt-node/internal/wire"
)

func testNodeID(seed byte) wire.NodeID {
	id := make(wire.NodeID, 20)
	for i := range id {
		id[i] = seed
	}
	return id
}

type fakeProvider struct{ ok bool }

func (p *fakeProvider) Service(name string) (any, bool) { return nil, false }

type respondingHandler struct{ payload []byte }

func (h *respondingHandler) OnFetchServices(ServiceProvider) bool { return true }
func (h *respondingHandler) OnMessage(parcel *wire.ApplicationParcel, next *Next) bool {
	return next.Respond(h.payload, 200)
}

type dispatchingHandler struct{}

func (h *dispatchingHandler) OnFetchServices(ServiceProvider) bool { return true }
func (h *dispatchingHandler) OnMessage(parcel *wire.ApplicationParcel, next *Next) bool {
	return next.Dispatch("/info/node", []byte("follow-up"))
}

type panickingHandler struct{}

func (h *panickingHandler) OnFetchServices(ServiceProvider) bool { return true }
func (h *panickingHandler) OnMessage(parcel *wire.ApplicationParcel, next *Next) bool {
	panic("boom")
}

type failingInitHandler struct{}

func (h *failingInitHandler) OnFetchServices(ServiceProvider) bool { return false }
func (h *failingInitHandler) OnMessage(parcel *wire.ApplicationParcel, next *Next) bool { return true }

func newTestPeer(endpointID string) *peer.Proxy {
	p := peer.NewProxy(testNodeID(0x02), await.NewService())
	p.RegisterEndpoint(endpointID, "tcp", "", func(string) bool { return true }, &peer.MessageContext{
		Encryptor: newFakeAEAD(),
	})
	return p
}

func inboundRequestParcel(key wire.TrackerKey) *wire.ApplicationParcel {
	return &wire.ApplicationParcel{
		Header:     wire.Header{Source: testNodeID(0x01), Timestamp: 1},
		Route:      "/info/node",
		Payload:    []byte("ping"),
		Extensions: []wire.Extension{wire.NewAwaitableExtension(wire.AwaitableRequest, key)},
	}
}

func TestRouterRegisterRejectsInvalidRoute(t *testing.T) {
	r := NewRouter(testNodeID(0x03), &fakeProvider{}, await.NewService(), nil)
	if err := r.Register("/query/*", &stubHandler{}); err == nil {
		t.Fatal("expected an error registering an invalid route")
	}
}

func TestRouterDispatchUnknownRouteReturnsFalse(t *testing.T) {
	r := NewRouter(testNodeID(0x03), &fakeProvider{}, await.NewService(), nil)
	p := newTestPeer("ep-1")
	parcel := inboundRequestParcel(wire.TrackerKey{})
	if r.Dispatch(parcel, p, "ep-1") {
		t.Fatal("expected dispatch to an unregistered route to fail")
	}
}

func TestRouterDispatchInvokesHandlerRespond(t *testing.T) {
	var sent string
	r := NewRouter(testNodeID(0x03), &fakeProvider{}, await.NewService(), nil)
	if err := r.Register("/info/node", &respondingHandler{payload: []byte("pong")}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	p := peer.NewProxy(testNodeID(0x02), await.NewService())
	p.RegisterEndpoint("ep-1", "tcp", "", func(pack string) bool {
		sent = pack
		return true
	}, &peer.MessageContext{Encryptor: newFakeAEAD()})

	parcel := inboundRequestParcel(wire.TrackerKey{0x01})
	if !r.Dispatch(parcel, p, "ep-1") {
		t.Fatal("expected dispatch to succeed")
	}
	if sent == "" {
		t.Fatal("expected a response to have been sent")
	}
}

func TestRouterDispatchRecoversHandlerPanic(t *testing.T) {
	r := NewRouter(testNodeID(0x03), &fakeProvider{}, await.NewService(), nil)
	if err := r.Register("/info/node", &panickingHandler{}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	p := newTestPeer("ep-1")
	parcel := inboundRequestParcel(wire.TrackerKey{0x01})
	if r.Dispatch(parcel, p, "ep-1") {
		t.Fatal("expected dispatch to report failure after a handler panic")
	}
}

func TestRouterInitAbortsOnFailingHandler(t *testing.T) {
	r := NewRouter(testNodeID(0x03), &fakeProvider{}, await.NewService(), nil)
	if err := r.Register("/1", &failingInitHandler{}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if r.Init() {
		t.Fatal("expected Init to report failure")
	}
}

func TestRouterDispatchFollowUp(t *testing.T) {
	var sent string
	r := NewRouter(testNodeID(0x03), &fakeProvider{}, await.NewService(), nil)
	if err := r.Register("/info/node", &dispatchingHandler{}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	p := peer.NewProxy(testNodeID(0x02), await.NewService())
	p.RegisterEndpoint("ep-1", "tcp", "", func(pack string) bool {
		sent = pack
		return true
	}, &peer.MessageContext{Encryptor: newFakeAEAD()})

	parcel := inboundRequestParcel(wire.TrackerKey{0x01})
	if !r.Dispatch(parcel, p, "ep-1") {
		t.Fatal("expected dispatch to succeed")
	}
	if sent == "" {
		t.Fatal("expected a fire-and-forget follow-up to have been sent")
	}
}

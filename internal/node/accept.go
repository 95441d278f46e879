package node

import (
	"sync"

	"github.com/brypt-community/brypt-node/internal/endpoint"
	"github.com/brypt-community/brypt-node/internal/exchange"
	"github.com/brypt-community/brypt-node/internal/peer"
	"github.com/brypt-community/brypt-node/internal/security"
	"github.com/brypt-community/brypt-node/internal/wire"
)

// exchangeObserver bridges one connection's handshake (C3) to the
// registry/peer layer (C4): on success it registers the endpoint on the
// peer's proxy and swaps the proxy's sink from the exchange processor to
// the node's shared Authorized Processor (C5). OnExchangeReady and
// OnExchangeClose both fire synchronously from within the same
// CollectMessage call that drove the handshake to completion, so there
// is never a concurrent call into proxy from two different connection
// goroutines for the same endpointID.
type exchangeObserver struct {
	node       *Node
	conn       endpoint.Conn
	endpointID string
	protocol   string

	mu    sync.Mutex
	proxy *peer.Proxy
}

func (o *exchangeObserver) OnExchangeReady(secured *security.SecuredContext, peerID wire.NodeID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	p := o.node.peerFor(peerID)
	p.RegisterEndpoint(o.endpointID, o.protocol, o.conn.RemoteAddress(), o.conn.Send, &peer.MessageContext{
		Encryptor: secured,
		Decryptor: secured,
		Signer:    secured,
		Verifier:  secured,
	})
	o.proxy = p
}

func (o *exchangeObserver) OnExchangeClose(success bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !success || o.proxy == nil {
		return
	}
	o.proxy.SetSink(o.node.authorized.SinkFor(o.proxy))
}

// acceptConnection builds the handshake state for one connection and
// returns the ReceiveFunc an endpoint.Driver invokes for every pack it
// reads off conn, alongside the exchange processor driving it. Before a
// handshake completes, packs are fed to the exchange processor directly;
// afterwards they are forwarded to the registered proxy's sink (the
// Authorized Processor).
//
// It does not send anything itself: for the Initiator role, the caller
// (Node.Connect) sends the first handshake message only after the
// driver's Connect call returns, since some drivers (Loopback) deliver
// synchronously and require the peer side to be fully wired before a
// Send can succeed.
func (n *Node) acceptConnection(protocol string, conn endpoint.Conn, role security.ExchangeRole) (endpoint.ReceiveFunc, *exchange.Processor) {
	endpointID := protocol + ":" + conn.RemoteAddress()

	var synchronizer security.Synchronizer
	if role == security.RoleInitiator {
		synchronizer = security.NewInitiator(n.identity)
	} else {
		synchronizer = security.NewAcceptor(n.identity)
	}

	observer := &exchangeObserver{node: n, conn: conn, endpointID: endpointID, protocol: protocol}
	proc := exchange.NewProcessor(synchronizer, n.identity.NodeID(), observer, nil)

	receive := func(pack string) {
		observer.mu.Lock()
		p := observer.proxy
		observer.mu.Unlock()

		if p != nil {
			p.ScheduleReceive(endpointID, []byte(pack))
			return
		}

		reply, err := proc.CollectMessage([]byte(pack))
		if err == nil && reply != "" {
			conn.Send(reply)
		}
	}
	return receive, proc
}

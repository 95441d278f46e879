package endpoint

import (
	"sync"
)

// loopbackHub is the process-wide registry of bound loopback addresses,
// letting two in-process nodes (or a test harness) exchange packs without
// a real socket. Grounded on the teacher's in-memory transport.mock.go
// pattern of a shared map keyed by address standing in for a network.
var loopbackHub = struct {
	mu        sync.Mutex
	listeners map[string]*Loopback
}{listeners: make(map[string]*Loopback)}

// Loopback is the in-process endpoint driver used for local testing and
// same-binary node pairs.
type Loopback struct {
	mu      sync.Mutex
	address string
	accept  AcceptFunc
	closed  bool
}

// NewLoopback returns an unbound loopback driver.
func NewLoopback() *Loopback {
	return &Loopback{}
}

func (l *Loopback) Protocol() string { return "loopback" }

// Bind registers address in the process-wide hub.
func (l *Loopback) Bind(address string, onAccept AcceptFunc) (bool, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false, ErrClosed
	}
	if l.address != "" {
		l.mu.Unlock()
		return false, ErrAlreadyBound
	}
	l.address = address
	l.accept = onAccept
	l.mu.Unlock()

	loopbackHub.mu.Lock()
	defer loopbackHub.mu.Unlock()
	loopbackHub.listeners[address] = l
	return true, nil
}

// Connect looks up address in the hub and, if bound, wires a pair of
// loopbackConn endpoints directly to each side's AcceptFunc. Both sides
// are fully wired (setPeerReceive has run for both) before Connect
// returns, so a caller sending on the returned Conn is guaranteed the
// peer side is ready to receive it.
func (l *Loopback) Connect(address string, onAccept AcceptFunc) (Conn, error) {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	loopbackHub.mu.Lock()
	target, ok := loopbackHub.listeners[address]
	loopbackHub.mu.Unlock()
	if !ok {
		return nil, nil
	}

	target.mu.Lock()
	targetAccept := target.accept
	target.mu.Unlock()
	if targetAccept == nil {
		return nil, nil
	}

	clientSide, serverSide := newLoopbackPair(address, "local")
	clientReceive := onAccept(clientSide)
	clientSide.setPeerReceive(clientReceive)

	serverReceive := targetAccept(serverSide)
	serverSide.setPeerReceive(serverReceive)
	return clientSide, nil
}

// Close drops this driver's binding from the hub.
func (l *Loopback) Close() error {
	l.mu.Lock()
	address := l.address
	l.closed = true
	l.mu.Unlock()

	if address == "" {
		return nil
	}
	loopbackHub.mu.Lock()
	delete(loopbackHub.listeners, address)
	loopbackHub.mu.Unlock()
	return nil
}

// loopbackConn is one half of an in-process connection pair; Send on one
// side invokes the other side's receive callback synchronously.
type loopbackConn struct {
	remote string

	mu   sync.Mutex
	peer *loopbackConn
	recv ReceiveFunc
}

func newLoopbackPair(remoteForClient, remoteForServer string) (*loopbackConn, *loopbackConn) {
	a := &loopbackConn{remote: remoteForClient}
	b := &loopbackConn{remote: remoteForServer}
	a.peer = b
	b.peer = a
	return a, b
}

func (c *loopbackConn) setPeerReceive(recv ReceiveFunc) {
	c.mu.Lock()
	c.recv = recv
	c.mu.Unlock()
}

func (c *loopbackConn) RemoteAddress() string { return c.remote }

func (c *loopbackConn) Send(pack string) bool {
	c.peer.mu.Lock()
	recv := c.peer.recv
	c.peer.mu.Unlock()
	if recv == nil {
		return false
	}
	recv(pack)
	return true
}

func (c *loopbackConn) Close() error { return nil }

// Package endpoint implements the socket drivers that deliver raw bytes
// to a Peer Proxy's schedule_receive and carry its schedule_send back out
// over the wire (§1: "loopback/TCP today; LoRa envisioned"). None of this
// package's invariants are part of the core's testable properties — the
// core only relies on the Endpoint interface's contract (§external
// interfaces: "schedule_bind(binding)/schedule_connect(address) return
// booleans").
package endpoint

import "errors"

// ErrAlreadyBound is returned by Bind when the driver already owns a
// listening address.
var ErrAlreadyBound = errors.New("endpoint: already bound")

// ErrClosed is returned by Bind/Connect after Close.
var ErrClosed = errors.New("endpoint: driver closed")

// Conn is one established connection, abstracting over loopback, TCP, and
// WebSocket transports.
type Conn interface {
	// RemoteAddress identifies the peer side of this connection, for
	// logging and registration.
	RemoteAddress() string
	// Send writes one encoded pack to the peer, returning false if the
	// write failed (matching peer.SendFunc's single-operation contract).
	Send(pack string) bool
	// Close releases the connection's resources.
	Close() error
}

// AcceptFunc is invoked once per connection, inbound or outbound, and
// returns the callback the driver feeds each arriving pack into. The
// caller (internal/node's wiring) is responsible for resolving which
// Peer Proxy owns the connection and calling its schedule_receive.
type AcceptFunc func(conn Conn) ReceiveFunc

// ReceiveFunc handles one incoming pack delivered on the connection
// AcceptFunc was given.
type ReceiveFunc func(pack string)

// Driver is one transport's endpoint implementation.
type Driver interface {
	// Protocol names the transport, matching config.EndpointConfig.Protocol.
	Protocol() string
	// Bind starts listening at address, invoking onAccept for every
	// inbound connection. It returns a boolean rather than only an error
	// to mirror §external interfaces' schedule_bind contract directly;
	// the error carries the reason for logging.
	Bind(address string, onAccept AcceptFunc) (bool, error)
	// Connect dials address, invoking onAccept once the connection is
	// established, and hands back the established Conn so the caller can
	// send an initial message only once the connection is fully wired
	// (onAccept has already run on both ends for drivers, like Loopback,
	// whose delivery is synchronous rather than socket-buffered). A nil
	// Conn with a nil error means address was not reachable.
	Connect(address string, onAccept AcceptFunc) (Conn, error)
	// Close shuts down the driver and every connection it holds.
	Close() error
}

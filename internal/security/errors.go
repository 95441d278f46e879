package security

import "errors"

var (
	// ErrHandshakeNotReady is returned by Finalize before Synchronize has
	// reached StatusReady.
	ErrHandshakeNotReady = errors.New("security: handshake not ready")

	// ErrHandshakeMalformedMessage is returned when an incoming handshake
	// message is the wrong length for the scheme/identity sizes in use.
	ErrHandshakeMalformedMessage = errors.New("security: malformed handshake message")

	// ErrHandshakeAuthenticationFailed is returned when a peer's identity
	// signature over its handshake material does not verify.
	ErrHandshakeAuthenticationFailed = errors.New("security: handshake authentication failed")

	// ErrHandshakeAlreadyFinalized is returned by Synchronize once a
	// Synchronizer has already reached a terminal status.
	ErrHandshakeAlreadyFinalized = errors.New("security: handshake already finalized")
)

// Package security owns the cryptographic state machine and per-session
// closures described by the node's secure-session design: a post-quantum
// KEM handshake establishing direction-keyed AEAD/MAC material, and the
// encrypt/decrypt/sign/verify closures internal/wire consumes once a
// session is established.
package security

import "github.com/brypt-community/brypt-node/internal/wire"

// ExchangeRole distinguishes which side of a handshake a Synchronizer
// plays. The Initiator sends the first handshake message; the Acceptor
// only responds once it has received one.
type ExchangeRole uint8

const (
	RoleInitiator ExchangeRole = iota
	RoleAcceptor
)

func (r ExchangeRole) String() string {
	if r == RoleInitiator {
		return "initiator"
	}
	return "acceptor"
}

// Status reports a Synchronizer's progress.
type Status uint8

const (
	StatusProcessing Status = iota
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusProcessing:
		return "processing"
	case StatusReady:
		return "ready"
	default:
		return "error"
	}
}

// Synchronizer drives one side of the handshake state machine (§4.2).
type Synchronizer interface {
	Role() ExchangeRole

	// Initialize produces the Initiator's first handshake message, or an
	// empty buffer with StatusProcessing for the Acceptor.
	Initialize() (Status, []byte, error)

	// Synchronize consumes the peer's last handshake message and either
	// emits the next one or signals completion/failure.
	Synchronize(incoming []byte) (Status, []byte, error)

	// StageCount reports how many synchronize() calls this role expects
	// to make before reaching a terminal status, so callers can bound
	// retries.
	StageCount() int

	// Finalize returns the per-direction closures once Synchronize has
	// returned StatusReady. It is an error to call Finalize before then.
	Finalize() (*SecuredContext, error)
}

// SecuredContext bundles the four closures a Synchronizer hands back on
// Finalize, implementing internal/wire's Encryptor/Decryptor/Signer/
// Verifier interfaces directly so C1 can consume it without adaptation.
type SecuredContext struct {
	encrypt func(plaintext []byte, nonce int64) ([]byte, error)
	decrypt func(ciphertext []byte, nonce int64) ([]byte, error)
	sign    func(buf []byte) []byte
	verify  func(buf []byte) bool
	sigSize int
}

func (c *SecuredContext) Encrypt(plaintext []byte, nonce int64) ([]byte, error) {
	return c.encrypt(plaintext, nonce)
}

func (c *SecuredContext) Decrypt(ciphertext []byte, nonce int64) ([]byte, error) {
	return c.decrypt(ciphertext, nonce)
}

func (c *SecuredContext) Sign(buf []byte) []byte {
	return c.sign(buf)
}

func (c *SecuredContext) Verify(buf []byte) bool {
	return c.verify(buf)
}

func (c *SecuredContext) SignatureSize() int {
	return c.sigSize
}

var (
	_ wire.Encryptor = (*SecuredContext)(nil)
	_ wire.Decryptor = (*SecuredContext)(nil)
	_ wire.Signer    = (*SecuredContext)(nil)
	_ wire.Verifier  = (*SecuredContext)(nil)
)

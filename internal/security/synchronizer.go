package security

import (
	"crypto/ed25519"
	"fmt"

	"github.com/cloudflare/circl/kem"

	"github.com/brypt-community/brypt-node/internal/wire"
)

// The handshake is exactly two messages, which a KEM's asymmetric
// Encapsulate/Decapsulate shape gives for free (unlike a Diffie-Hellman
// exchange, which needs both sides to contribute ephemeral material before
// either can derive anything): the Initiator publishes an ephemeral KEM
// public key signed under its static identity; the Acceptor encapsulates
// to it, derives the session immediately, and replies with the ciphertext
// signed under its own identity; the Initiator decapsulates and derives
// the same session without needing a third message. This mirrors the
// end-to-end handshake scenario of exactly one parcel each way.
//
// Wire layout (all sizes fixed once a scheme is chosen, so no length
// prefixes are needed):
//
//	message 1 (initiator -> acceptor): kem_pub | identity_pub(32) | sig(64)
//	message 2 (acceptor -> initiator): kem_ct  | identity_pub(32) | sig(64)
const (
	identityPubSize = ed25519.PublicKeySize
	identitySigSize = ed25519.SignatureSize
)

var _ Synchronizer = (*handshakeSynchronizer)(nil)

type handshakeSynchronizer struct {
	role     ExchangeRole
	identity *Identity
	scheme   kem.Scheme

	peerIdentity ed25519.PublicKey
	ephemeral    *kemKeyPair
	status       Status
	secured      *SecuredContext
}

// NewInitiator returns a Synchronizer that opens a handshake under local.
func NewInitiator(local *Identity) Synchronizer {
	return &handshakeSynchronizer{role: RoleInitiator, identity: local, scheme: kemScheme(), status: StatusProcessing}
}

// NewAcceptor returns a Synchronizer that waits for a peer's opening
// message under local.
func NewAcceptor(local *Identity) Synchronizer {
	return &handshakeSynchronizer{role: RoleAcceptor, identity: local, scheme: kemScheme(), status: StatusProcessing}
}

func (s *handshakeSynchronizer) Role() ExchangeRole { return s.role }

func (s *handshakeSynchronizer) StageCount() int { return 1 }

func (s *handshakeSynchronizer) Initialize() (Status, []byte, error) {
	if s.role == RoleAcceptor {
		return StatusProcessing, nil, nil
	}

	ephemeral, err := generateKEMKeyPair()
	if err != nil {
		s.status = StatusError
		return StatusError, nil, err
	}
	s.ephemeral = ephemeral

	pubBytes, err := ephemeral.publicBytes()
	if err != nil {
		s.status = StatusError
		return StatusError, nil, err
	}

	msg := append(append([]byte{}, pubBytes...), s.identity.PublicKey()...)
	msg = append(msg, s.identity.Sign(pubBytes)...)
	return StatusProcessing, msg, nil
}

func (s *handshakeSynchronizer) Synchronize(incoming []byte) (Status, []byte, error) {
	if s.status == StatusReady || s.status == StatusError {
		return s.status, nil, ErrHandshakeAlreadyFinalized
	}

	if s.role == RoleInitiator {
		return s.synchronizeInitiator(incoming)
	}
	return s.synchronizeAcceptor(incoming)
}

func (s *handshakeSynchronizer) synchronizeAcceptor(incoming []byte) (Status, []byte, error) {
	kemPubSize := s.scheme.PublicKeySize()
	want := kemPubSize + identityPubSize + identitySigSize
	if len(incoming) != want {
		s.status = StatusError
		return StatusError, nil, fmt.Errorf("%w: want %d bytes, got %d", ErrHandshakeMalformedMessage, want, len(incoming))
	}

	kemPub := incoming[:kemPubSize]
	peerIdentity := ed25519.PublicKey(incoming[kemPubSize : kemPubSize+identityPubSize])
	sig := incoming[kemPubSize+identityPubSize:]

	if !VerifyIdentitySignature(peerIdentity, kemPub, sig) {
		s.status = StatusError
		return StatusError, nil, ErrHandshakeAuthenticationFailed
	}

	ciphertext, sharedSecret, err := encapsulateTo(s.scheme, kemPub)
	if err != nil {
		s.status = StatusError
		return StatusError, nil, err
	}

	initiatorID := nodeIDFromIdentity(peerIdentity)
	acceptorID := s.identity.NodeID()
	i2a, a2i, err := deriveSessionKeys(sharedSecret, initiatorID, acceptorID)
	if err != nil {
		s.status = StatusError
		return StatusError, nil, err
	}

	secured, err := newSecuredContext(a2i, i2a)
	if err != nil {
		s.status = StatusError
		return StatusError, nil, err
	}

	s.peerIdentity = peerIdentity
	s.secured = secured
	s.status = StatusReady

	reply := append(append([]byte{}, ciphertext...), s.identity.PublicKey()...)
	reply = append(reply, s.identity.Sign(ciphertext)...)
	return StatusReady, reply, nil
}

func (s *handshakeSynchronizer) synchronizeInitiator(incoming []byte) (Status, []byte, error) {
	if s.ephemeral == nil {
		s.status = StatusError
		return StatusError, nil, ErrHandshakeNotReady
	}

	ctSize := s.scheme.CiphertextSize()
	want := ctSize + identityPubSize + identitySigSize
	if len(incoming) != want {
		s.status = StatusError
		return StatusError, nil, fmt.Errorf("%w: want %d bytes, got %d", ErrHandshakeMalformedMessage, want, len(incoming))
	}

	ciphertext := incoming[:ctSize]
	peerIdentity := ed25519.PublicKey(incoming[ctSize : ctSize+identityPubSize])
	sig := incoming[ctSize+identityPubSize:]

	if !VerifyIdentitySignature(peerIdentity, ciphertext, sig) {
		s.status = StatusError
		return StatusError, nil, ErrHandshakeAuthenticationFailed
	}

	sharedSecret, err := s.ephemeral.decapsulate(ciphertext)
	if err != nil {
		s.status = StatusError
		return StatusError, nil, err
	}

	initiatorID := s.identity.NodeID()
	acceptorID := nodeIDFromIdentity(peerIdentity)
	i2a, a2i, err := deriveSessionKeys(sharedSecret, initiatorID, acceptorID)
	if err != nil {
		s.status = StatusError
		return StatusError, nil, err
	}

	secured, err := newSecuredContext(i2a, a2i)
	if err != nil {
		s.status = StatusError
		return StatusError, nil, err
	}

	s.peerIdentity = peerIdentity
	s.secured = secured
	s.status = StatusReady
	return StatusReady, nil, nil
}

func (s *handshakeSynchronizer) Finalize() (*SecuredContext, error) {
	if s.status != StatusReady {
		return nil, ErrHandshakeNotReady
	}
	return s.secured, nil
}

// PeerIdentity returns the peer's authenticated identity public key once
// the handshake reaches StatusReady, for callers (internal/peer) that want
// to record which static identity a session belongs to.
func (s *handshakeSynchronizer) PeerIdentity() (ed25519.PublicKey, bool) {
	if s.status != StatusReady {
		return nil, false
	}
	return s.peerIdentity, true
}

func nodeIDFromIdentity(pub ed25519.PublicKey) wire.NodeID {
	return wire.NodeID(pub[:wire.MaxNodeIDSize])
}

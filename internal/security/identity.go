package security

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"filippo.io/edwards25519"

	"github.com/brypt-community/brypt-node/internal/wire"
)

// Identity is a node's long-lived signing keypair. The handshake uses it to
// authenticate the ephemeral KEM material each side presents, satisfying
// mutual authentication between static identifiers without involving the
// KEM keys in long-term storage at all.
type Identity struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// GenerateIdentity creates a fresh Ed25519 identity keypair.
func GenerateIdentity() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("security: generate identity: %w", err)
	}
	return &Identity{public: pub, private: priv}, nil
}

// LoadIdentity wraps an already-provisioned keypair, e.g. one read from
// node configuration.
func LoadIdentity(pub ed25519.PublicKey, priv ed25519.PrivateKey) *Identity {
	return &Identity{public: pub, private: priv}
}

// PublicKey returns the identity's public key bytes.
func (id *Identity) PublicKey() ed25519.PublicKey {
	return id.public
}

// PrivateKey returns the identity's private key bytes, for persistence by
// the process root. The core never reads this itself.
func (id *Identity) PrivateKey() ed25519.PrivateKey {
	return id.private
}

// NodeID derives this identity's network identifier by truncating its
// public key to the wire's maximum identifier size; the full key remains
// available for signature verification independent of the identifier.
func (id *Identity) NodeID() wire.NodeID {
	return wire.NodeID(id.public[:wire.MaxNodeIDSize])
}

// Sign authenticates buf (typically a handshake message's KEM material)
// under this identity.
func (id *Identity) Sign(buf []byte) []byte {
	return ed25519.Sign(id.private, buf)
}

// VerifyIdentitySignature checks sig over buf under peerPublicKey, after
// confirming peerPublicKey decompresses to a valid curve point. crypto/ed25519
// itself rejects small-order and malformed points during Verify, but the
// teacher's crypto/keys/x25519.go decompresses every incoming Ed25519 public
// key through edwards25519.Point.SetBytes before trusting it for anything
// downstream (there, an X25519 conversion; here, a feed into Verify); this
// keeps the same defensive decompression step even though the downstream use
// differs.
func VerifyIdentitySignature(peerPublicKey ed25519.PublicKey, buf, sig []byte) bool {
	if len(peerPublicKey) != ed25519.PublicKeySize {
		return false
	}
	if _, err := new(edwards25519.Point).SetBytes(peerPublicKey); err != nil {
		return false
	}
	return ed25519.Verify(peerPublicKey, buf, sig)
}

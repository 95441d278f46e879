// Package wire implements the bit-exact on-wire codec for platform and
// application parcels: header encode/decode, Z85 transport encoding, peek
// helpers that inspect an undecoded buffer without full verification, and
// per-parcel-type builders that stage fields and either build unvalidated
// or accumulate staging failures for validated_build.
package wire

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// Node identifier size bounds (§3: "variable length between a minimum and
// maximum size, e.g. 16-32 bytes").
const (
	MinNodeIDSize = 16
	MaxNodeIDSize = 32
)

// NodeID is a network-wide opaque peer identifier. It is comparable for
// equality and usable as a map key once converted to its string form via
// Key(). Identity is immutable once assigned to a peer.
type NodeID []byte

// Valid reports whether id falls within the declared size bounds.
func (id NodeID) Valid() bool {
	return len(id) >= MinNodeIDSize && len(id) <= MaxNodeIDSize
}

// Equal reports whether id and other hold the same bytes.
func (id NodeID) Equal(other NodeID) bool {
	return bytes.Equal(id, other)
}

// Key returns a value suitable for use as a Go map key, since []byte itself
// is not comparable/hashable.
func (id NodeID) Key() string {
	return string(id)
}

// String renders the identifier as hex for debugging. Log call sites that
// want the more compact base58 rendering use logger.NodeID instead; nothing
// in this package ever touches the wire's Z85 alphabet for identifiers.
func (id NodeID) String() string {
	return hex.EncodeToString(id)
}

// Clone returns a copy of id so callers can safely retain it beyond the
// lifetime of a shared buffer.
func (id NodeID) Clone() NodeID {
	if id == nil {
		return nil
	}
	out := make(NodeID, len(id))
	copy(out, id)
	return out
}

// ParseNodeID reverses String, decoding a hex-rendered identifier back
// into a NodeID. It does not itself enforce Valid's size bounds, since
// callers (e.g. a bootstrap-cache reader) may want to surface an
// out-of-range identifier as a different error than a malformed one.
func ParseNodeID(s string) (NodeID, error) {
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("wire: parse node id: %w", err)
	}
	return NodeID(decoded), nil
}

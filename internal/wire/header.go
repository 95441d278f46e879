package wire

import (
	"encoding/binary"
	"errors"
)

// Protocol tags the parcel variant (§3).
type Protocol uint8

const (
	ProtocolPlatform Protocol = iota
	ProtocolApplication
)

func (p Protocol) valid() bool {
	return p == ProtocolPlatform || p == ProtocolApplication
}

// DestinationType enumerates the destination descriptor kinds (§3).
type DestinationType uint8

const (
	DestinationNode DestinationType = iota
	DestinationCluster
	DestinationNetwork
)

func (d DestinationType) valid() bool {
	return d == DestinationNode || d == DestinationCluster || d == DestinationNetwork
}

// Destination describes where a parcel is bound. ID is only meaningful
// when Type is DestinationNode, and may still be empty there (§4.3 step 4:
// "a missing destination is permitted").
type Destination struct {
	Type DestinationType
	ID   NodeID
}

// Header is the common prefix shared by Platform and Application parcels.
// Its wire layout is fixed-width so peek helpers can read fields at known
// offsets without decoding the rest of the buffer.
type Header struct {
	Protocol     Protocol
	Source       NodeID
	Destination  Destination
	Timestamp    int64  // monotonic epoch milliseconds
	DeclaredSize uint32 // length of the final Z85-encoded wire string
	CipherLen    uint32 // ciphertext byte length following the header; 0 for Platform parcels
}

// HeaderSize is the fixed encoded size, in bytes, of a Header:
//
//	protocol:u8 | source_len:u8 | source[32] | dest_type:u8 | dest_present:u8 |
//	dest_len:u8 | dest_id[32] | timestamp:u64 | declared_size:u32 | cipher_len:u32
const HeaderSize = 1 + 1 + MaxNodeIDSize + 1 + 1 + 1 + MaxNodeIDSize + 8 + 4 + 4

// ErrHeaderTooShort is returned when a buffer is shorter than HeaderSize.
var ErrHeaderTooShort = errors.New("wire: buffer shorter than a header")

// ErrHeaderInvalidProtocol is returned when the protocol byte is out of range.
var ErrHeaderInvalidProtocol = errors.New("wire: invalid protocol tag")

// ErrHeaderInvalidDestination is returned when the destination type byte is out of range.
var ErrHeaderInvalidDestination = errors.New("wire: invalid destination type")

// ErrHeaderIDTooLong is returned when a source or destination identifier
// exceeds MaxNodeIDSize.
var ErrHeaderIDTooLong = errors.New("wire: identifier exceeds maximum size")

// EncodeHeader packs h into its fixed-width wire representation.
func EncodeHeader(h Header) ([]byte, error) {
	if len(h.Source) > MaxNodeIDSize {
		return nil, ErrHeaderIDTooLong
	}
	if len(h.Destination.ID) > MaxNodeIDSize {
		return nil, ErrHeaderIDTooLong
	}

	buf := make([]byte, HeaderSize)
	offset := 0

	buf[offset] = byte(h.Protocol)
	offset++

	buf[offset] = byte(len(h.Source))
	offset++
	copy(buf[offset:offset+MaxNodeIDSize], h.Source)
	offset += MaxNodeIDSize

	buf[offset] = byte(h.Destination.Type)
	offset++

	if len(h.Destination.ID) > 0 {
		buf[offset] = 1
	}
	offset++

	buf[offset] = byte(len(h.Destination.ID))
	offset++
	copy(buf[offset:offset+MaxNodeIDSize], h.Destination.ID)
	offset += MaxNodeIDSize

	binary.LittleEndian.PutUint64(buf[offset:offset+8], uint64(h.Timestamp))
	offset += 8

	binary.LittleEndian.PutUint32(buf[offset:offset+4], h.DeclaredSize)
	offset += 4

	binary.LittleEndian.PutUint32(buf[offset:offset+4], h.CipherLen)
	offset += 4

	return buf, nil
}

// DecodeHeader unpacks a Header from the front of buf, returning the header
// and the number of bytes consumed (always HeaderSize on success).
func DecodeHeader(buf []byte) (Header, int, error) {
	if len(buf) < HeaderSize {
		return Header{}, 0, ErrHeaderTooShort
	}

	var h Header
	offset := 0

	h.Protocol = Protocol(buf[offset])
	offset++
	if !h.Protocol.valid() {
		return Header{}, 0, ErrHeaderInvalidProtocol
	}

	sourceLen := int(buf[offset])
	offset++
	if sourceLen > MaxNodeIDSize {
		return Header{}, 0, ErrHeaderIDTooLong
	}
	h.Source = NodeID(buf[offset : offset+sourceLen]).Clone()
	offset += MaxNodeIDSize

	h.Destination.Type = DestinationType(buf[offset])
	offset++
	if !h.Destination.Type.valid() {
		return Header{}, 0, ErrHeaderInvalidDestination
	}

	destPresent := buf[offset] != 0
	offset++

	destLen := int(buf[offset])
	offset++
	if destLen > MaxNodeIDSize {
		return Header{}, 0, ErrHeaderIDTooLong
	}
	if destPresent {
		h.Destination.ID = NodeID(buf[offset : offset+destLen]).Clone()
	}
	offset += MaxNodeIDSize

	h.Timestamp = int64(binary.LittleEndian.Uint64(buf[offset : offset+8]))
	offset += 8

	h.DeclaredSize = binary.LittleEndian.Uint32(buf[offset : offset+4])
	offset += 4

	h.CipherLen = binary.LittleEndian.Uint32(buf[offset : offset+4])
	offset += 4

	return h, offset, nil
}

// PeekProtocol extracts the protocol tag from a decoded buffer without
// verifying or parsing the rest of it. It reports false if the buffer is
// too short or the tag is out of range.
func PeekProtocol(buf []byte) (Protocol, bool) {
	if len(buf) < 1 {
		return 0, false
	}
	p := Protocol(buf[0])
	if !p.valid() {
		return 0, false
	}
	return p, true
}

// PeekDeclaredSize extracts the declared total encoded size from a decoded
// buffer, or false if the prefix is too short.
func PeekDeclaredSize(buf []byte) (uint32, bool) {
	if len(buf) < HeaderSize {
		return 0, false
	}
	return binary.LittleEndian.Uint32(buf[1+1+MaxNodeIDSize+1+1+1+MaxNodeIDSize+8:]), true
}

// PeekSource extracts the source identifier from a decoded buffer, or false
// if the prefix is too short.
func PeekSource(buf []byte) (NodeID, bool) {
	if len(buf) < HeaderSize {
		return nil, false
	}
	sourceLen := int(buf[1])
	if sourceLen > MaxNodeIDSize {
		return nil, false
	}
	return NodeID(buf[2 : 2+sourceLen]).Clone(), true
}

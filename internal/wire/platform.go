package wire

import (
	"encoding/binary"

	"github.com/brypt-community/brypt-node/internal/metrics"
)

// PlatformType enumerates Platform parcel subtypes (§3).
type PlatformType uint8

const (
	PlatformHandshake PlatformType = iota
	PlatformHeartbeatRequest
	PlatformHeartbeatResponse
)

func (t PlatformType) valid() bool {
	return t == PlatformHandshake || t == PlatformHeartbeatRequest || t == PlatformHeartbeatResponse
}

// PlatformParcel carries control traffic: handshake material and
// heartbeats. Its payload is never encrypted — the handshake channel is
// plaintext until a session exists, and heartbeats carry no secret data.
type PlatformParcel struct {
	Header  Header
	Type    PlatformType
	Payload []byte
}

// pack returns the post-header layout: type:u8 | payload_len:u32 |
// payload[payload_len] | extension_count:u8. The extension count is always
// zero today (§4.1: "reserved") but the field stays for forward
// compatibility.
func (p *PlatformParcel) pack() []byte {
	buf := make([]byte, 0, 1+4+len(p.Payload)+1)
	buf = append(buf, byte(p.Type))
	var lenBytes [4]byte
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(p.Payload)))
	buf = append(buf, lenBytes[:]...)
	buf = append(buf, p.Payload...)
	buf = append(buf, 0) // extension_count
	return buf
}

// Encode packs p into its final Z85-encoded wire string, optionally signing
// the padded buffer with signer (nil for pre-session handshake parcels).
func (p *PlatformParcel) Encode(signer Signer) (string, error) {
	p.Header.Protocol = ProtocolPlatform
	p.Header.CipherLen = 0

	body := p.pack()
	unpadded := HeaderSize + len(body)
	padded := align4(unpadded)

	sigSize := 0
	if signer != nil {
		sigSize = signer.SignatureSize()
	}
	total := padded + sigSize
	p.Header.DeclaredSize = uint32(Z85EncodedLen(total))

	headerBytes, err := EncodeHeader(p.Header)
	if err != nil {
		return "", err
	}

	combined := make([]byte, padded, total)
	copy(combined, headerBytes)
	copy(combined[HeaderSize:], body)

	if signer != nil {
		combined = signer.Sign(combined)
	}

	metrics.ParcelsEncoded.WithLabelValues("platform").Inc()
	return Z85Encode(combined), nil
}

// DecodePlatformParcel reverses Encode, verifying the signature with
// verifier if non-nil.
func DecodePlatformParcel(encoded string, verifier Verifier) (*PlatformParcel, error) {
	raw, err := Z85Decode(encoded)
	if err != nil {
		metrics.ParcelsRejected.WithLabelValues("z85_decode").Inc()
		return nil, err
	}

	sigSize := 0
	if verifier != nil {
		sigSize = verifier.SignatureSize()
	}
	if len(raw) < sigSize {
		metrics.ParcelsRejected.WithLabelValues("truncated").Inc()
		return nil, ErrParcelTruncated
	}
	if verifier != nil && !verifier.Verify(raw) {
		metrics.ParcelsRejected.WithLabelValues("signature").Inc()
		return nil, ErrParcelSignatureFail
	}
	unsigned := raw[:len(raw)-sigSize]

	header, consumed, err := DecodeHeader(unsigned)
	if err != nil {
		metrics.ParcelsRejected.WithLabelValues("header").Inc()
		return nil, err
	}
	if header.Protocol != ProtocolPlatform {
		metrics.ParcelsRejected.WithLabelValues("wrong_protocol").Inc()
		return nil, ErrParcelWrongProtocol
	}

	body := unsigned[consumed:]
	if len(body) < 1+4 {
		metrics.ParcelsRejected.WithLabelValues("truncated").Inc()
		return nil, ErrParcelTruncated
	}
	parcelType := PlatformType(body[0])
	if !parcelType.valid() {
		metrics.ParcelsRejected.WithLabelValues("truncated").Inc()
		return nil, ErrParcelTruncated
	}
	payloadLen := int(binary.LittleEndian.Uint32(body[1:5]))
	if 5+payloadLen > len(body) {
		metrics.ParcelsRejected.WithLabelValues("truncated").Inc()
		return nil, ErrParcelTruncated
	}
	payload := make([]byte, payloadLen)
	copy(payload, body[5:5+payloadLen])

	metrics.ParcelsDecoded.WithLabelValues("platform").Inc()
	return &PlatformParcel{Header: header, Type: parcelType, Payload: payload}, nil
}

func align4(n int) int {
	rem := n % 4
	if rem == 0 {
		return n
	}
	return n + (4 - rem)
}

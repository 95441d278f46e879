package wire

import (
	"encoding/binary"

	"github.com/brypt-community/brypt-node/internal/metrics"
)

// ApplicationParcel carries routed, encrypted application traffic (§3).
type ApplicationParcel struct {
	Header     Header
	Route      string
	Payload    []byte
	Extensions []Extension
}

// body returns the plaintext layout that gets encrypted as a single unit:
// route_len:u16 | route | payload_len:u32 | payload | extension_count:u8 |
// extensions[*].
func (p *ApplicationParcel) body() ([]byte, error) {
	extBytes, err := encodeExtensions(p.Extensions)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 2+len(p.Route)+4+len(p.Payload)+1+len(extBytes))

	var routeLen [2]byte
	binary.LittleEndian.PutUint16(routeLen[:], uint16(len(p.Route)))
	buf = append(buf, routeLen[:]...)
	buf = append(buf, p.Route...)

	var payloadLen [4]byte
	binary.LittleEndian.PutUint32(payloadLen[:], uint32(len(p.Payload)))
	buf = append(buf, payloadLen[:]...)
	buf = append(buf, p.Payload...)

	buf = append(buf, byte(len(p.Extensions)))
	buf = append(buf, extBytes...)

	return buf, nil
}

func parseApplicationBody(buf []byte) (route string, payload []byte, exts []Extension, err error) {
	offset := 0
	if offset+2 > len(buf) {
		return "", nil, nil, ErrParcelTruncated
	}
	routeLen := int(binary.LittleEndian.Uint16(buf[offset : offset+2]))
	offset += 2
	if offset+routeLen > len(buf) {
		return "", nil, nil, ErrParcelTruncated
	}
	route = string(buf[offset : offset+routeLen])
	offset += routeLen

	if offset+4 > len(buf) {
		return "", nil, nil, ErrParcelTruncated
	}
	payloadLen := int(binary.LittleEndian.Uint32(buf[offset : offset+4]))
	offset += 4
	if offset+payloadLen > len(buf) {
		return "", nil, nil, ErrParcelTruncated
	}
	payload = make([]byte, payloadLen)
	copy(payload, buf[offset:offset+payloadLen])
	offset += payloadLen

	if offset+1 > len(buf) {
		return "", nil, nil, ErrParcelTruncated
	}
	extCount := int(buf[offset])
	offset++

	exts, _, err = decodeExtensions(buf[offset:], extCount)
	if err != nil {
		return "", nil, nil, err
	}
	return route, payload, exts, nil
}

// Encode packs p into its final Z85-encoded wire string: the header stays
// in plaintext, the body is encrypted as a single unit with the header
// timestamp as AEAD nonce/AAD, the concatenation is zero-padded to a
// 4-byte boundary, and the whole block is optionally signed before Z85
// encoding.
func (p *ApplicationParcel) Encode(encryptor Encryptor, signer Signer) (string, error) {
	if p.Route == "" {
		metrics.ParcelsRejected.WithLabelValues("empty_route").Inc()
		return "", ErrParcelEmptyRoute
	}

	body, err := p.body()
	if err != nil {
		metrics.ParcelsRejected.WithLabelValues("encode_body").Inc()
		return "", err
	}

	ciphertext, err := encryptor.Encrypt(body, p.Header.Timestamp)
	if err != nil {
		metrics.ParcelsRejected.WithLabelValues("encrypt").Inc()
		return "", err
	}

	p.Header.Protocol = ProtocolApplication
	p.Header.CipherLen = uint32(len(ciphertext))

	unpadded := HeaderSize + len(ciphertext)
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
	copy(combined[HeaderSize:], ciphertext)

	if signer != nil {
		combined = signer.Sign(combined)
	}

	metrics.ParcelsEncoded.WithLabelValues("application").Inc()
	return Z85Encode(combined), nil
}

// DecodeApplicationParcel reverses Encode.
func DecodeApplicationParcel(encoded string, decryptor Decryptor, verifier Verifier) (*ApplicationParcel, error) {
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
	if header.Protocol != ProtocolApplication {
		metrics.ParcelsRejected.WithLabelValues("wrong_protocol").Inc()
		return nil, ErrParcelWrongProtocol
	}

	if consumed+int(header.CipherLen) > len(unsigned) {
		metrics.ParcelsRejected.WithLabelValues("truncated").Inc()
		return nil, ErrParcelTruncated
	}
	ciphertext := unsigned[consumed : consumed+int(header.CipherLen)]

	plaintext, err := decryptor.Decrypt(ciphertext, header.Timestamp)
	if err != nil {
		metrics.ParcelsRejected.WithLabelValues("decrypt").Inc()
		return nil, ErrParcelDecryptFailed
	}

	route, payload, exts, err := parseApplicationBody(plaintext)
	if err != nil {
		metrics.ParcelsRejected.WithLabelValues("body").Inc()
		return nil, err
	}
	if route == "" {
		metrics.ParcelsRejected.WithLabelValues("empty_route").Inc()
		return nil, ErrParcelEmptyRoute
	}

	metrics.ParcelsDecoded.WithLabelValues("application").Inc()
	return &ApplicationParcel{Header: header, Route: route, Payload: payload, Extensions: exts}, nil
}

// AwaitableExtension returns the parcel's Awaitable extension, if any.
func (p *ApplicationParcel) AwaitableExtension() (Extension, bool) {
	for _, e := range p.Extensions {
		if e.Key == ExtensionAwaitable {
			return e, true
		}
	}
	return Extension{}, false
}

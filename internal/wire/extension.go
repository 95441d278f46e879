package wire

import (
	"encoding/binary"
	"errors"
)

// ExtensionKey tags an Application parcel extension (§3).
type ExtensionKey uint8

const (
	ExtensionAwaitable ExtensionKey = iota
	ExtensionStatus
)

// AwaitableBinding marks whether an Awaitable extension is the outbound
// request half or the inbound response half of a correlation.
type AwaitableBinding uint8

const (
	AwaitableRequest AwaitableBinding = iota
	AwaitableResponse
)

// TrackerKeySize is the fixed size, in bytes, of an awaitable tracker key
// (§4.7: "a tracker key is 16 bytes").
const TrackerKeySize = 16

// TrackerKey is the 16-byte stable correlation identifier derived from a
// request's invariant fields.
type TrackerKey [TrackerKeySize]byte

// Extension is a single key/length/data entry appended to an Application
// parcel.
type Extension struct {
	Key  ExtensionKey
	Data []byte
}

// ErrExtensionMalformed is returned by the As* accessors when Data does not
// match the shape its Key declares.
var ErrExtensionMalformed = errors.New("wire: malformed extension payload")

// NewAwaitableExtension builds an Awaitable extension binding a tracker key
// to either the Request or Response half of a correlation.
func NewAwaitableExtension(binding AwaitableBinding, key TrackerKey) Extension {
	data := make([]byte, 1+TrackerKeySize)
	data[0] = byte(binding)
	copy(data[1:], key[:])
	return Extension{Key: ExtensionAwaitable, Data: data}
}

// AsAwaitable decodes an Awaitable extension's binding and tracker key.
func (e Extension) AsAwaitable() (AwaitableBinding, TrackerKey, error) {
	var key TrackerKey
	if e.Key != ExtensionAwaitable || len(e.Data) != 1+TrackerKeySize {
		return 0, key, ErrExtensionMalformed
	}
	binding := AwaitableBinding(e.Data[0])
	if binding != AwaitableRequest && binding != AwaitableResponse {
		return 0, key, ErrExtensionMalformed
	}
	copy(key[:], e.Data[1:])
	return binding, key, nil
}

// NewStatusExtension builds a Status extension carrying a numeric response
// code.
func NewStatusExtension(code uint16) Extension {
	data := make([]byte, 2)
	binary.LittleEndian.PutUint16(data, code)
	return Extension{Key: ExtensionStatus, Data: data}
}

// AsStatus decodes a Status extension's numeric code.
func (e Extension) AsStatus() (uint16, error) {
	if e.Key != ExtensionStatus || len(e.Data) != 2 {
		return 0, ErrExtensionMalformed
	}
	return binary.LittleEndian.Uint16(e.Data), nil
}

func encodeExtensions(exts []Extension) ([]byte, error) {
	buf := make([]byte, 0, len(exts)*4)
	for _, e := range exts {
		if len(e.Data) > 0xFFFF {
			return nil, errors.New("wire: extension payload too large")
		}
		buf = append(buf, byte(e.Key))
		var size [2]byte
		binary.LittleEndian.PutUint16(size[:], uint16(len(e.Data)))
		buf = append(buf, size[:]...)
		buf = append(buf, e.Data...)
	}
	return buf, nil
}

func decodeExtensions(buf []byte, count int) ([]Extension, int, error) {
	out := make([]Extension, 0, count)
	offset := 0
	for i := 0; i < count; i++ {
		if offset+3 > len(buf) {
			return nil, 0, ErrParcelTruncated
		}
		key := ExtensionKey(buf[offset])
		size := int(binary.LittleEndian.Uint16(buf[offset+1 : offset+3]))
		offset += 3
		if offset+size > len(buf) {
			return nil, 0, ErrParcelTruncated
		}
		data := make([]byte, size)
		copy(data, buf[offset:offset+size])
		offset += size
		out = append(out, Extension{Key: key, Data: data})
	}
	return out, offset, nil
}

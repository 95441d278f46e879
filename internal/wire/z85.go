package wire

import (
	"encoding/binary"
	"errors"
)

// z85Alphabet is the standard ZeroMQ Z85 85-character alphabet: groups of 4
// input bytes encode to 5 output characters.
const z85Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ.-:+=^!/*?&<>()[]{}@%$#"

var z85Decoder [256]int16

func init() {
	for i := range z85Decoder {
		z85Decoder[i] = -1
	}
	for i, c := range z85Alphabet {
		z85Decoder[byte(c)] = int16(i)
	}
}

// ErrZ85InvalidChar is returned when a decoded character falls outside the
// Z85 alphabet.
var ErrZ85InvalidChar = errors.New("wire: invalid z85 character")

// ErrZ85PartialBlock is returned when the encoded text length is not a
// multiple of 5, i.e. a truncated final group.
var ErrZ85PartialBlock = errors.New("wire: partial z85 block")

// ErrZ85ShortBuffer is returned when a decoded buffer is too short to carry
// its own self-described length prefix.
var ErrZ85ShortBuffer = errors.New("wire: z85 buffer shorter than its length prefix")

// ErrZ85LengthOutOfRange is returned when the self-described length prefix
// claims more data than the decoded buffer actually carries.
var ErrZ85LengthOutOfRange = errors.New("wire: z85 length prefix exceeds decoded buffer")

// Z85Encode encodes data as a Z85 ASCII string. The encoder prepends a
// 4-byte little-endian length so Z85Decode recovers data's exact original
// length even though data itself may not be a multiple of 4 bytes; the
// group-encoding padding that the Z85 scheme requires is then purely an
// artifact of this package and never leaks to callers.
func Z85Encode(data []byte) string {
	framed := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint32(framed[0:4], uint32(len(data)))
	copy(framed[4:], data)

	padded := padTo4(framed)
	out := make([]byte, 0, len(padded)/4*5)
	var value uint32
	for i := 0; i < len(padded); i += 4 {
		value = binary.BigEndian.Uint32(padded[i : i+4])
		var chunk [5]byte
		for j := 4; j >= 0; j-- {
			chunk[j] = z85Alphabet[value%85]
			value /= 85
		}
		out = append(out, chunk[:]...)
	}
	return string(out)
}

// Z85EncodedLen returns the length of the Z85 string Z85Encode(data) would
// produce for a plaintext buffer of n bytes, i.e. the "declared size" the
// header carries for an encoded parcel of that length.
func Z85EncodedLen(n int) int {
	framed := 4 + n
	groups := (framed + 3) / 4
	return groups * 5
}

// Z85Decode reverses Z85Encode, returning exactly the original bytes passed
// to Z85Encode. It rejects characters outside the alphabet and partial
// trailing groups.
func Z85Decode(encoded string) ([]byte, error) {
	if len(encoded)%5 != 0 {
		return nil, ErrZ85PartialBlock
	}
	raw := make([]byte, len(encoded)/5*4)
	for i := 0; i < len(encoded); i += 5 {
		var value uint32
		for j := 0; j < 5; j++ {
			c := encoded[i+j]
			d := z85Decoder[c]
			if d < 0 {
				return nil, ErrZ85InvalidChar
			}
			value = value*85 + uint32(d)
		}
		binary.BigEndian.PutUint32(raw[i/5*4:i/5*4+4], value)
	}

	if len(raw) < 4 {
		return nil, ErrZ85ShortBuffer
	}
	length := binary.LittleEndian.Uint32(raw[0:4])
	if int(length) > len(raw)-4 {
		return nil, ErrZ85LengthOutOfRange
	}
	return raw[4 : 4+length], nil
}

func padTo4(b []byte) []byte {
	rem := len(b) % 4
	if rem == 0 {
		return b
	}
	return append(b, make([]byte, 4-rem)...)
}

package wire

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
)

// fakeAEAD is a reversible XOR "cipher" standing in for internal/security's
// real ChaCha20-Poly1305 closures in these codec tests — it's deterministic
// and fails closed on a tampered nonce, which is all C1's tests need.
type fakeAEAD struct {
	key [32]byte
}

func newFakeAEAD() *fakeAEAD {
	var key [32]byte
	_, _ = rand.Read(key[:])
	return &fakeAEAD{key: key}
}

func (f *fakeAEAD) keystream(nonce int64, n int) []byte {
	out := make([]byte, n)
	var nonceBytes [8]byte
	binary.LittleEndian.PutUint64(nonceBytes[:], uint64(nonce))
	for i := range out {
		out[i] = f.key[i%len(f.key)] ^ nonceBytes[i%8]
	}
	return out
}

func (f *fakeAEAD) Encrypt(plaintext []byte, nonce int64) ([]byte, error) {
	ks := f.keystream(nonce, len(plaintext)+8)
	out := make([]byte, len(plaintext)+8)
	for i, b := range plaintext {
		out[i] = b ^ ks[i]
	}
	var tagInput int64 = nonce ^ int64(len(plaintext))
	binary.LittleEndian.PutUint64(out[len(plaintext):], uint64(tagInput)^binary.LittleEndian.Uint64(f.key[:8]))
	return out, nil
}

var errFakeAEADAuth = errors.New("fakeAEAD: authentication failed")

func (f *fakeAEAD) Decrypt(ciphertext []byte, nonce int64) ([]byte, error) {
	if len(ciphertext) < 8 {
		return nil, errFakeAEADAuth
	}
	plaintextLen := len(ciphertext) - 8
	ks := f.keystream(nonce, len(ciphertext))
	wantTag := int64(nonce) ^ int64(plaintextLen)
	gotTag := int64(binary.LittleEndian.Uint64(ciphertext[plaintextLen:]) ^ binary.LittleEndian.Uint64(f.key[:8]))
	if wantTag != gotTag {
		return nil, errFakeAEADAuth
	}
	out := make([]byte, plaintextLen)
	for i := range out {
		out[i] = ciphertext[i] ^ ks[i]
	}
	return out, nil
}

// fakeSigner/fakeVerifier stand in for a real Ed25519 closure pair: the
// "signature" is just a checksum, but it is positional and tamper-evident,
// which is what these codec tests need.
type fakeSigner struct{ size int }

func (s *fakeSigner) SignatureSize() int { return s.size }

func (s *fakeSigner) Sign(buf []byte) []byte {
	sig := checksum(buf, s.size)
	return append(buf, sig...)
}

type fakeVerifier struct{ size int }

func (v *fakeVerifier) SignatureSize() int { return v.size }

func (v *fakeVerifier) Verify(buf []byte) bool {
	if len(buf) < v.size {
		return false
	}
	body := buf[:len(buf)-v.size]
	got := buf[len(buf)-v.size:]
	want := checksum(body, v.size)
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

func checksum(buf []byte, size int) []byte {
	out := make([]byte, size)
	for i, b := range buf {
		out[i%size] ^= b
	}
	return out
}

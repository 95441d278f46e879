package route

// fakeAEAD is the same XOR-keystream test double used by internal/peer,
// reproduced here since it's unexported there. internal/wire's variant
// differs: it uses a random key and appends an authentication tag.
type fakeAEAD struct{ key byte }

func newFakeAEAD() *fakeAEAD { return &fakeAEAD{key: 0x5A} }

func (a *fakeAEAD) keystream(n int, nonce int64) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = a.key ^ byte(nonce) ^ byte(i)
	}
	return out
}

func (a *fakeAEAD) Encrypt(plaintext []byte, nonce int64) ([]byte, error) {
	ks := a.keystream(len(plaintext), nonce)
	out := make([]byte, len(plaintext))
	for i := range plaintext {
		out[i] = plaintext[i] ^ ks[i]
	}
	return out, nil
}

func (a *fakeAEAD) Decrypt(ciphertext []byte, nonce int64) ([]byte, error) {
	return a.Encrypt(ciphertext, nonce)
}

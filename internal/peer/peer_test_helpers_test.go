package peer

// fakeAEAD is a trivial XOR-keystream stand-in for a real AEAD, used only
// to exercise Request's encode-then-send path. See internal/wire's
// fakeAEAD for the same pattern with a fuller explanation.
type fakeAEAD struct{ key byte }

func newFakeAEAD() *fakeAEAD { return &fakeAEAD{key: 0x3C} }

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

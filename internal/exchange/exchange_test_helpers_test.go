package exchange

// testAEAD is a trivial XOR-keystream stand-in for a real AEAD, used only
// to exercise the non-handshake parcel-rejection path in processor_test.go.
// See internal/wire's fakeAEAD for the same pattern with a fuller
// explanation of why a real cipher isn't needed for these tests.
type testAEAD struct{ key byte }

func newTestAEAD() *testAEAD { return &testAEAD{key: 0x5A} }

func (a *testAEAD) keystream(n int, nonce int64) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = a.key ^ byte(nonce) ^ byte(i)
	}
	return out
}

func (a *testAEAD) Encrypt(plaintext []byte, nonce int64) ([]byte, error) {
	ks := a.keystream(len(plaintext), nonce)
	out := make([]byte, len(plaintext))
	for i := range plaintext {
		out[i] = plaintext[i] ^ ks[i]
	}
	return out, nil
}

func (a *testAEAD) Decrypt(ciphertext []byte, nonce int64) ([]byte, error) {
	return a.Encrypt(ciphertext, nonce)
}

package wire

// Encryptor and Decryptor are the per-direction AEAD closures a Synchronizer
// (internal/security) hands back on finalize(). The nonce is the parcel
// header's timestamp, reused as the AEAD's associated data as well so a
// ciphertext cannot be replayed under a different timestamp.
type Encryptor interface {
	Encrypt(plaintext []byte, nonce int64) ([]byte, error)
}

type Decryptor interface {
	Decrypt(ciphertext []byte, nonce int64) ([]byte, error)
}

// Signer appends a signature to buf and reports its fixed size. Verify
// checks a full packed buffer (the signature occupies its trailing
// SignatureSize bytes).
type Signer interface {
	SignatureSize() int
	Sign(buf []byte) []byte
}

type Verifier interface {
	SignatureSize() int
	Verify(buf []byte) bool
}

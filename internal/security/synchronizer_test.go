package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandshakeProducesMatchingSecuredContexts(t *testing.T) {
	initiatorIdentity, err := GenerateIdentity()
	require.NoError(t, err)
	acceptorIdentity, err := GenerateIdentity()
	require.NoError(t, err)

	initiator := NewInitiator(initiatorIdentity)
	acceptor := NewAcceptor(acceptorIdentity)

	status, accMsg, err := acceptor.Initialize()
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, status)
	assert.Empty(t, accMsg)

	status, msg1, err := initiator.Initialize()
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, status)
	require.NotEmpty(t, msg1)

	status, reply, err := acceptor.Synchronize(msg1)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, status)
	require.NotEmpty(t, reply)

	status, final, err := initiator.Synchronize(reply)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, status)
	assert.Empty(t, final)

	initiatorSecured, err := initiator.Finalize()
	require.NoError(t, err)
	acceptorSecured, err := acceptor.Finalize()
	require.NoError(t, err)

	plaintext := []byte("hello from the initiator")
	ciphertext, err := initiatorSecured.Encrypt(plaintext, 1234)
	require.NoError(t, err)

	decrypted, err := acceptorSecured.Decrypt(ciphertext, 1234)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)

	signed := initiatorSecured.Sign([]byte("a frame"))
	assert.True(t, acceptorSecured.Verify(signed))
}

func TestHandshakeRejectsTamperedInitiatorMessage(t *testing.T) {
	initiatorIdentity, err := GenerateIdentity()
	require.NoError(t, err)
	acceptorIdentity, err := GenerateIdentity()
	require.NoError(t, err)

	initiator := NewInitiator(initiatorIdentity)
	acceptor := NewAcceptor(acceptorIdentity)

	_, _, err = acceptor.Initialize()
	require.NoError(t, err)
	_, msg1, err := initiator.Initialize()
	require.NoError(t, err)

	tampered := append([]byte{}, msg1...)
	tampered[0] ^= 0xFF

	_, _, err = acceptor.Synchronize(tampered)
	assert.ErrorIs(t, err, ErrHandshakeAuthenticationFailed)
}

func TestHandshakeRejectsMalformedMessageLength(t *testing.T) {
	acceptorIdentity, err := GenerateIdentity()
	require.NoError(t, err)

	acceptor := NewAcceptor(acceptorIdentity)
	_, _, err = acceptor.Initialize()
	require.NoError(t, err)

	_, _, err = acceptor.Synchronize([]byte("too short"))
	assert.ErrorIs(t, err, ErrHandshakeMalformedMessage)
}

func TestFinalizeBeforeReadyFails(t *testing.T) {
	identity, err := GenerateIdentity()
	require.NoError(t, err)

	initiator := NewInitiator(identity)
	_, _, err = initiator.Initialize()
	require.NoError(t, err)

	_, err = initiator.Finalize()
	assert.ErrorIs(t, err, ErrHandshakeNotReady)
}

func TestSynchronizeAfterReadyFails(t *testing.T) {
	initiatorIdentity, err := GenerateIdentity()
	require.NoError(t, err)
	acceptorIdentity, err := GenerateIdentity()
	require.NoError(t, err)

	initiator := NewInitiator(initiatorIdentity)
	acceptor := NewAcceptor(acceptorIdentity)

	_, _, _ = acceptor.Initialize()
	_, msg1, err := initiator.Initialize()
	require.NoError(t, err)

	_, reply, err := acceptor.Synchronize(msg1)
	require.NoError(t, err)

	_, _, err = acceptor.Synchronize(reply)
	assert.ErrorIs(t, err, ErrHandshakeAlreadyFinalized)
}

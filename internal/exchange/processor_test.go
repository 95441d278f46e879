package exchange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brypt-community/brypt-node/internal/security"
	"github.com/brypt-community/brypt-node/internal/wire"
)

type recordingObserver struct {
	readyCalls []wire.NodeID
	closeCalls []bool
	secured    []*security.SecuredContext
}

func (o *recordingObserver) OnExchangeReady(secured *security.SecuredContext, peerID wire.NodeID) {
	o.readyCalls = append(o.readyCalls, peerID)
	o.secured = append(o.secured, secured)
}

func (o *recordingObserver) OnExchangeClose(success bool) {
	o.closeCalls = append(o.closeCalls, success)
}

func nodeID(seed byte) wire.NodeID {
	id := make(wire.NodeID, 20)
	for i := range id {
		id[i] = seed
	}
	return id
}

func TestProcessorFullHandshakeBothSides(t *testing.T) {
	initiatorIdentity, err := security.GenerateIdentity()
	require.NoError(t, err)
	acceptorIdentity, err := security.GenerateIdentity()
	require.NoError(t, err)

	initiatorLocalID := nodeID(0x11)
	acceptorLocalID := nodeID(0x22)

	var connectCalled bool
	connect := func(secured *security.SecuredContext) error {
		connectCalled = true
		return nil
	}

	initiatorObserver := &recordingObserver{}
	acceptorObserver := &recordingObserver{}

	initiatorProc := NewProcessor(security.NewInitiator(initiatorIdentity), initiatorLocalID, initiatorObserver, connect)
	acceptorProc := NewProcessor(security.NewAcceptor(acceptorIdentity), acceptorLocalID, acceptorObserver, nil)

	msg1, err := initiatorProc.Prepare()
	require.NoError(t, err)
	require.NotEmpty(t, msg1)

	msg0, err := acceptorProc.Prepare()
	require.NoError(t, err)
	assert.Empty(t, msg0)

	reply, err := acceptorProc.CollectMessage([]byte(msg1))
	require.NoError(t, err)
	require.NotEmpty(t, reply)
	assert.Equal(t, StateReady, acceptorProc.State())
	require.Len(t, acceptorObserver.readyCalls, 1)
	require.Len(t, acceptorObserver.closeCalls, 1)
	assert.True(t, acceptorObserver.closeCalls[0])

	final, err := initiatorProc.CollectMessage([]byte(reply))
	require.NoError(t, err)
	assert.Empty(t, final)
	assert.Equal(t, StateReady, initiatorProc.State())
	require.Len(t, initiatorObserver.readyCalls, 1)
	assert.True(t, connectCalled, "initiator role must run the connect protocol after reaching ready")

	plaintext := []byte("hello over the secured channel")
	ciphertext, err := initiatorObserver.secured[0].Encrypt(plaintext, 1)
	require.NoError(t, err)
	decrypted, err := acceptorObserver.secured[0].Decrypt(ciphertext, 1)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestProcessorRejectsNonPlatformMessage(t *testing.T) {
	identity, err := security.GenerateIdentity()
	require.NoError(t, err)

	observer := &recordingObserver{}
	proc := NewProcessor(security.NewAcceptor(identity), nodeID(0x33), observer, nil)
	_, err = proc.Prepare()
	require.NoError(t, err)

	aead := newTestAEAD()
	appParcel := &wire.ApplicationParcel{
		Header: wire.Header{Source: nodeID(0x44), Timestamp: 1},
		Route:  "/info/node",
	}
	encoded, err := appParcel.Encode(aead, nil)
	require.NoError(t, err)

	_, err = proc.CollectMessage([]byte(encoded))
	assert.ErrorIs(t, err, ErrWrongProtocol)
	assert.Equal(t, StateFailure, proc.State())
	require.Len(t, observer.closeCalls, 1)
	assert.False(t, observer.closeCalls[0])
}

func TestProcessorRejectsMismatchedDestination(t *testing.T) {
	identity, err := security.GenerateIdentity()
	require.NoError(t, err)

	observer := &recordingObserver{}
	proc := NewProcessor(security.NewAcceptor(identity), nodeID(0x55), observer, nil)
	_, err = proc.Prepare()
	require.NoError(t, err)

	parcel, ok := wire.NewPlatformBuilder().
		WithSource(nodeID(0x66)).
		WithDestination(wire.Destination{Type: wire.DestinationNode, ID: nodeID(0x77)}).
		WithType(wire.PlatformHandshake).
		WithPayload([]byte("bogus")).
		ValidatedBuild()
	require.True(t, ok)
	encoded, err := parcel.Encode(nil)
	require.NoError(t, err)

	_, err = proc.CollectMessage([]byte(encoded))
	assert.ErrorIs(t, err, ErrDestinationMismatch)
}

func TestProcessorExpiresAfterDeadline(t *testing.T) {
	identity, err := security.GenerateIdentity()
	require.NoError(t, err)

	observer := &recordingObserver{}
	base := time.Now()
	current := base
	proc := newProcessorWithClock(security.NewAcceptor(identity), nodeID(0x88), observer, nil, func() time.Time { return current })

	assert.False(t, proc.Expire(), "must not expire before the deadline")

	current = base.Add(HandshakeDeadline + time.Millisecond)
	assert.True(t, proc.Expire())
	assert.Equal(t, StateFailure, proc.State())
	require.Len(t, observer.closeCalls, 1)
	assert.False(t, observer.closeCalls[0])
}

func TestProcessorCollectMessageWrongStateFails(t *testing.T) {
	identity, err := security.GenerateIdentity()
	require.NoError(t, err)

	observer := &recordingObserver{}
	proc := NewProcessor(security.NewAcceptor(identity), nodeID(0x99), observer, nil)

	_, err = proc.CollectMessage([]byte("anything"))
	assert.ErrorIs(t, err, ErrWrongState)
}

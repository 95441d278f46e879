package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationParcelRoundTrip(t *testing.T) {
	aead := newFakeAEAD()
	key := TrackerKey{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

	p := &ApplicationParcel{
		Header: Header{
			Source:      NodeID("0123456789abcdef"),
			Destination: Destination{Type: DestinationNode, ID: NodeID("fedcba9876543210")},
			Timestamp:   99,
		},
		Route:      "/info/node",
		Payload:    []byte(`{"hello":"world"}`),
		Extensions: []Extension{NewAwaitableExtension(AwaitableRequest, key)},
	}

	encoded, err := p.Encode(aead, nil)
	require.NoError(t, err)

	decoded, err := DecodeApplicationParcel(encoded, aead, nil)
	require.NoError(t, err)
	assert.Equal(t, p.Route, decoded.Route)
	assert.Equal(t, p.Payload, decoded.Payload)
	require.Len(t, decoded.Extensions, 1)

	binding, gotKey, err := decoded.Extensions[0].AsAwaitable()
	require.NoError(t, err)
	assert.Equal(t, AwaitableRequest, binding)
	assert.Equal(t, key, gotKey)
}

func TestApplicationParcelRoundTripWithSignature(t *testing.T) {
	aead := newFakeAEAD()
	signer := &fakeSigner{size: 16}
	verifier := &fakeVerifier{size: 16}

	p := &ApplicationParcel{
		Header:  Header{Source: NodeID("0123456789abcdef"), Timestamp: 5},
		Route:   "/query/data",
		Payload: []byte("seventeen bytes!!"),
	}

	encoded, err := p.Encode(aead, signer)
	require.NoError(t, err)

	decoded, err := DecodeApplicationParcel(encoded, aead, verifier)
	require.NoError(t, err)
	assert.Equal(t, p.Payload, decoded.Payload)
}

func TestApplicationParcelRejectsEmptyRoute(t *testing.T) {
	aead := newFakeAEAD()
	p := &ApplicationParcel{Header: Header{Source: NodeID("0123456789abcdef")}, Route: ""}
	_, err := p.Encode(aead, nil)
	assert.ErrorIs(t, err, ErrParcelEmptyRoute)
}

func TestApplicationParcelRejectsWrongNonce(t *testing.T) {
	aead := newFakeAEAD()
	p := &ApplicationParcel{
		Header:  Header{Source: NodeID("0123456789abcdef"), Timestamp: 1},
		Route:   "/info/node",
		Payload: []byte("payload"),
	}
	encoded, err := p.Encode(aead, nil)
	require.NoError(t, err)

	// Flip the timestamp inside the decoded header before decrypting, as
	// DecodeApplicationParcel would if a tampered header arrived.
	raw, err := Z85Decode(encoded)
	require.NoError(t, err)
	raw[1+1+MaxNodeIDSize+1+1+1+MaxNodeIDSize] ^= 0xFF
	tampered := Z85Encode(raw)

	_, err = DecodeApplicationParcel(tampered, aead, nil)
	assert.ErrorIs(t, err, ErrParcelDecryptFailed)
}

func TestApplicationBuilderValidatedBuild(t *testing.T) {
	_, ok := NewApplicationBuilder().
		WithSource(NodeID("0123456789abcdef")).
		WithRoute("/info/node").
		ValidatedBuild()
	assert.True(t, ok)

	_, ok = NewApplicationBuilder().
		WithSource(NodeID("0123456789abcdef")).
		WithRoute("").
		ValidatedBuild()
	assert.False(t, ok, "empty route must fail validated_build")
}

func TestApplicationBuilderRejectsMalformedExtension(t *testing.T) {
	_, ok := NewApplicationBuilder().
		WithSource(NodeID("0123456789abcdef")).
		WithRoute("/info/node").
		WithExtension(Extension{Key: ExtensionAwaitable, Data: []byte{1, 2, 3}}).
		ValidatedBuild()
	assert.False(t, ok)
}

func TestApplicationBuilderFromPackAccumulatesFailure(t *testing.T) {
	b := NewApplicationBuilder().FromPack("not-valid-z85!!!", newFakeAEAD(), nil)
	assert.Len(t, b.Failures(), 1)
	_, ok := b.ValidatedBuild()
	assert.False(t, ok)
}

func TestTrackerKeyIsComparableFixedSizeArray(t *testing.T) {
	// Sanity check that TrackerKey is a plain fixed-size comparable array,
	// as internal/await's key derivation (C7) relies on for map lookups.
	var a, b TrackerKey
	for i := range a {
		a[i] = byte(i)
		b[i] = byte(i)
	}
	assert.Equal(t, a, b)
}

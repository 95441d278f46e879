package await

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brypt-community/brypt-node/internal/wire"
)

func TestDeriveTrackerKeyIsDeterministic(t *testing.T) {
	source := wire.NodeID([]byte("source-node-id-0123"))
	destination := wire.NodeID([]byte("destination-node-id"))

	first := DeriveTrackerKey(source, destination, "/info/node", []byte("payload"))
	second := DeriveTrackerKey(source, destination, "/info/node", []byte("payload"))
	assert.Equal(t, first, second)
}

func TestDeriveTrackerKeyDependsOnEveryField(t *testing.T) {
	source := wire.NodeID([]byte("source-node-id-0123"))
	destination := wire.NodeID([]byte("destination-node-id"))
	base := DeriveTrackerKey(source, destination, "/info/node", []byte("payload"))

	variants := []wire.TrackerKey{
		DeriveTrackerKey(wire.NodeID([]byte("different-source-id")), destination, "/info/node", []byte("payload")),
		DeriveTrackerKey(source, wire.NodeID([]byte("different-dest-id!!")), "/info/node", []byte("payload")),
		DeriveTrackerKey(source, destination, "/query/data", []byte("payload")),
		DeriveTrackerKey(source, destination, "/info/node", []byte("different")),
	}
	for _, v := range variants {
		assert.NotEqual(t, base, v)
	}
}

func TestDeriveRequestTrackerKeyIsUniquePerCall(t *testing.T) {
	source := wire.NodeID([]byte("source-node-id-0123"))
	destination := wire.NodeID([]byte("destination-node-id"))

	first := DeriveRequestTrackerKey(source, destination, "/info/node", []byte("payload"))
	second := DeriveRequestTrackerKey(source, destination, "/info/node", []byte("payload"))
	assert.NotEqual(t, first, second, "identical fields must still yield independent tracker keys")
}

package peer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brypt-community/brypt-node/internal/await"
	"github.com/brypt-community/brypt-node/internal/wire"
)

func TestRegistryUpsertGetRemove(t *testing.T) {
	registry := NewRegistry()
	a := NewProxy(testNodeID(0x01), await.NewService())
	b := NewProxy(testNodeID(0x02), await.NewService())

	registry.Upsert(a)
	registry.Upsert(b)
	assert.Equal(t, 2, registry.Len())

	got, ok := registry.Get(testNodeID(0x01))
	require.True(t, ok)
	assert.Same(t, a, got)

	assert.True(t, registry.Remove(testNodeID(0x01)))
	assert.Equal(t, 1, registry.Len())
	_, ok = registry.Get(testNodeID(0x01))
	assert.False(t, ok)

	assert.False(t, registry.Remove(testNodeID(0x01)), "removing twice reports no-op")
}

func TestRegistryUpsertReplacesExistingEntry(t *testing.T) {
	registry := NewRegistry()
	first := NewProxy(testNodeID(0x03), await.NewService())
	second := NewProxy(testNodeID(0x03), await.NewService())

	registry.Upsert(first)
	registry.Upsert(second)
	assert.Equal(t, 1, registry.Len())

	got, ok := registry.Get(testNodeID(0x03))
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestRegistryWalkVisitsInAscendingOrder(t *testing.T) {
	registry := NewRegistry()
	registry.Upsert(NewProxy(testNodeID(0x05), await.NewService()))
	registry.Upsert(NewProxy(testNodeID(0x01), await.NewService()))
	registry.Upsert(NewProxy(testNodeID(0x03), await.NewService()))

	var seeds []byte
	registry.Walk(func(id wire.NodeID, _ *Proxy) bool {
		seeds = append(seeds, id[0])
		return true
	})
	assert.Equal(t, []byte{0x01, 0x03, 0x05}, seeds)
}

func TestRegistryWalkStopsEarly(t *testing.T) {
	registry := NewRegistry()
	registry.Upsert(NewProxy(testNodeID(0x01), await.NewService()))
	registry.Upsert(NewProxy(testNodeID(0x02), await.NewService()))
	registry.Upsert(NewProxy(testNodeID(0x03), await.NewService()))

	var visited int
	registry.Walk(func(id wire.NodeID, _ *Proxy) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}

func TestRegistrySnapshotOrdering(t *testing.T) {
	registry := NewRegistry()
	registry.Upsert(NewProxy(testNodeID(0x09), await.NewService()))
	registry.Upsert(NewProxy(testNodeID(0x02), await.NewService()))

	snap := registry.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, byte(0x02), snap[0][0])
	assert.Equal(t, byte(0x09), snap[1][0])
}

package peer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLivenessTrackerTracksConsecutiveStreaks(t *testing.T) {
	lt := NewLivenessTracker()
	assert.Equal(t, 0, lt.ConsecutiveHits())
	assert.Equal(t, 0, lt.ConsecutiveMisses())

	lt.RecordResponse()
	lt.RecordResponse()
	assert.Equal(t, 2, lt.ConsecutiveHits())
	assert.Equal(t, 0, lt.ConsecutiveMisses())

	lt.RecordMiss()
	assert.Equal(t, 0, lt.ConsecutiveHits())
	assert.Equal(t, 1, lt.ConsecutiveMisses())

	lt.RecordMiss()
	assert.Equal(t, 2, lt.ConsecutiveMisses())

	lt.RecordResponse()
	assert.Equal(t, 1, lt.ConsecutiveHits())
	assert.Equal(t, 0, lt.ConsecutiveMisses())
}

func TestProxyExposesLivenessTracker(t *testing.T) {
	proxy := NewProxy(testNodeID(0x09), nil)
	assert.NotNil(t, proxy.Liveness())
	proxy.Liveness().RecordResponse()
	assert.Equal(t, 1, proxy.Liveness().ConsecutiveHits())
}

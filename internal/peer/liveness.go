package peer

import "sync/atomic"

// LivenessTracker counts consecutive heartbeat responses and misses for
// one peer, mirroring the original implementation's per-peer miss
// counter (the distilled spec's §4.5 parenthetical "counted for
// liveness observers elsewhere"). It does not itself decide when a peer
// is dead; it just exposes the count for whoever does (a future
// liveness policy, or an operator dashboard).
type LivenessTracker struct {
	consecutiveMisses uint32
	consecutiveHits   uint32
}

// NewLivenessTracker returns a tracker with no observed history.
func NewLivenessTracker() *LivenessTracker {
	return &LivenessTracker{}
}

// RecordResponse marks a heartbeat response as received, resetting the
// miss streak.
func (t *LivenessTracker) RecordResponse() {
	atomic.StoreUint32(&t.consecutiveMisses, 0)
	atomic.AddUint32(&t.consecutiveHits, 1)
}

// RecordMiss marks an expected heartbeat response as not having arrived
// in time, resetting the hit streak.
func (t *LivenessTracker) RecordMiss() {
	atomic.StoreUint32(&t.consecutiveHits, 0)
	atomic.AddUint32(&t.consecutiveMisses, 1)
}

// ConsecutiveMisses reports the current miss streak.
func (t *LivenessTracker) ConsecutiveMisses() int {
	return int(atomic.LoadUint32(&t.consecutiveMisses))
}

// ConsecutiveHits reports the current hit streak.
func (t *LivenessTracker) ConsecutiveHits() int {
	return int(atomic.LoadUint32(&t.consecutiveHits))
}

// Package await implements the awaitable tracking service (§4.7): it
// correlates outgoing Application parcels with their eventual responses,
// supporting both a single expected responder (Deferred) and a fan-out to
// many (Aggregated).
package await

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/brypt-community/brypt-node/internal/wire"
)

// DeriveTrackerKey computes the 16-byte stable hash of an outgoing
// parcel's invariant fields. Same inputs always yield the same key, so
// callers may deduplicate on that basis. Grounded on the teacher's general
// preference for fast non-cryptographic hashing wherever collision
// resistance against an adversary isn't the concern (this key only needs
// to correlate a request with its response, not authenticate anything —
// that's the session AEAD's job) — xxhash is already in the dependency
// graph via prometheus/client_golang's indirect requirement, promoted here
// to a direct one since this is a genuine, non-security use for it.
func DeriveTrackerKey(source, destination wire.NodeID, route string, payload []byte) wire.TrackerKey {
	var key wire.TrackerKey
	binary.BigEndian.PutUint64(key[:8], xxhash.Sum64(trackerKeyInput(0x01, source, destination, route, payload)))
	binary.BigEndian.PutUint64(key[8:], xxhash.Sum64(trackerKeyInput(0x02, source, destination, route, payload)))
	return key
}

// DeriveTrackerKeyFromParcel is a convenience wrapper for the common case
// of already holding a built ApplicationParcel.
func DeriveTrackerKeyFromParcel(p *wire.ApplicationParcel) wire.TrackerKey {
	return DeriveTrackerKey(p.Header.Source, p.Header.Destination.ID, p.Route, p.Payload)
}

// trackerKeyInput concatenates the invariant fields behind a one-byte
// domain separator so the two xxhash passes that build the 16-byte key
// don't just repeat the same 8 bytes twice.
func trackerKeyInput(domain byte, source, destination wire.NodeID, route string, payload []byte) []byte {
	buf := make([]byte, 0, 1+len(source)+len(destination)+len(route)+len(payload))
	buf = append(buf, domain)
	buf = append(buf, source...)
	buf = append(buf, destination...)
	buf = append(buf, route...)
	buf = append(buf, payload...)
	return buf
}

// DeriveRequestTrackerKey computes a tracker key for one outgoing
// request or fan-out instance, salted with a fresh random UUIDv4. Unlike
// DeriveTrackerKey's pure content hash, the same (source, destination,
// route, payload) never yields the same key twice: two textually
// identical requests in flight at once (a retried request, a repeated
// periodic fan-out) get independent tracker entries instead of silently
// colliding — StageRequest has no duplicate check, so a collision there
// would stomp the earlier caller's callbacks outright.
func DeriveRequestTrackerKey(source, destination wire.NodeID, route string, payload []byte) wire.TrackerKey {
	salt := uuid.New()
	var key wire.TrackerKey
	binary.BigEndian.PutUint64(key[:8], xxhash.Sum64(saltedTrackerKeyInput(0x01, salt, source, destination, route, payload)))
	binary.BigEndian.PutUint64(key[8:], xxhash.Sum64(saltedTrackerKeyInput(0x02, salt, source, destination, route, payload)))
	return key
}

func saltedTrackerKeyInput(domain byte, salt uuid.UUID, source, destination wire.NodeID, route string, payload []byte) []byte {
	buf := make([]byte, 0, 1+len(salt)+len(source)+len(destination)+len(route)+len(payload))
	buf = append(buf, domain)
	buf = append(buf, salt[:]...)
	buf = append(buf, source...)
	buf = append(buf, destination...)
	buf = append(buf, route...)
	buf = append(buf, payload...)
	return buf
}

// Response is what a Deferred tracker's on_response continuation receives
// once its matching Awaitable(Response, key) arrives (§4.7).
type Response struct {
	Key        wire.TrackerKey
	Source     wire.NodeID
	Payload    []byte
	Protocol   wire.Protocol
	StatusCode uint16
	Remaining  int
}

// AggregatedEntry is one responder's contribution to an Aggregated
// tracker's completed response, ordered by Responder's natural byte
// ordering when the tracker completes (§4.7 "Ordering").
type AggregatedEntry struct {
	Responder  wire.NodeID
	Payload    []byte
	StatusCode uint16
	TimedOut   bool
}

// Package bootstrap implements the two thin collaborators §6 groups
// under "bootstrap": a JSON bootstrap-cache file read once at startup
// (§6 "Bootstrap file format"), and the type-indexed service locator
// (§6 "Service locator") the Router and other wiring consult during
// initialization. Neither has a core invariant of its own — the core
// only depends on the Router's ServiceProvider interface; the Tracking
// Service does not read the cache.
package bootstrap

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/brypt-community/brypt-node/internal/wire"
)

// Entry is one bootstrap record for a protocol (§6: "{identifier?,
// entry, location?}").
type Entry struct {
	// Identifier is the peer's hex-encoded node identifier, when known in
	// advance (a peer discovered purely by address has none yet).
	Identifier string `json:"identifier,omitempty"`
	// Entry is the dial string for this protocol (e.g. "host:port").
	Entry string `json:"entry"`
	// Location is an optional human-readable label (datacenter, region).
	Location string `json:"location,omitempty"`
}

// Cache is a JSON object keyed by protocol name, each value an array of
// Entry records (§6 "Bootstrap file format").
type Cache map[string][]Entry

// ErrNotLoaded is returned by accessors called before Load succeeds.
var ErrNotLoaded = fmt.Errorf("bootstrap: cache not loaded")

// Service owns the bootstrap cache: loaded once at startup per §6, then
// read by the node wiring layer and edited by the bryptd bootstrap
// subcommands. The Tracking Service (C7) does not consult it; aggregated
// fan-outs take their responder set from the peer registry instead.
type Service struct {
	path string

	mu    sync.RWMutex
	cache Cache
}

// NewService returns a Service that will read/write path.
func NewService(path string) *Service {
	return &Service{path: path}
}

// Load reads the cache file once. A missing file is treated as an empty
// cache rather than an error, since a fresh node has bootstrapped nothing
// yet.
func (s *Service) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.mu.Lock()
		s.cache = Cache{}
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("bootstrap: read cache file: %w", err)
	}

	cache := Cache{}
	if err := json.Unmarshal(data, &cache); err != nil {
		return fmt.Errorf("bootstrap: parse cache file: %w", err)
	}

	s.mu.Lock()
	s.cache = cache
	s.mu.Unlock()
	return nil
}

// Save writes the current cache back to path, e.g. after discovering new
// peers during a run.
func (s *Service) Save() error {
	s.mu.RLock()
	cache := s.cache
	s.mu.RUnlock()
	if cache == nil {
		return ErrNotLoaded
	}

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("bootstrap: marshal cache: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("bootstrap: write cache file: %w", err)
	}
	return nil
}

// EntriesFor returns every known entry for protocol, or nil if the cache
// holds none.
func (s *Service) EntriesFor(protocol string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache[protocol]
}

// Upsert adds or replaces entry under protocol, keyed by its dial string,
// for the node wiring layer to record newly bootstrapped peers.
func (s *Service) Upsert(protocol string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		s.cache = Cache{}
	}
	entries := s.cache[protocol]
	for i, existing := range entries {
		if existing.Entry == entry.Entry {
			entries[i] = entry
			s.cache[protocol] = entries
			return
		}
	}
	s.cache[protocol] = append(entries, entry)
}

// KnownIdentifiers returns every entry across every protocol that
// advertises a node identifier, decoded to wire.NodeID. Identifiers that
// fail to decode are skipped.
func (s *Service) KnownIdentifiers() []wire.NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []wire.NodeID
	for _, entries := range s.cache {
		for _, e := range entries {
			if e.Identifier == "" {
				continue
			}
			id, err := wire.ParseNodeID(e.Identifier)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids
}

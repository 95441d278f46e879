package await

import (
	"sort"
	"sync"
	"time"

	"github.com/brypt-community/brypt-node/internal/metrics"
	"github.com/brypt-community/brypt-node/internal/wire"
)

// deferredTracker expects exactly one responder.
type deferredTracker struct {
	onResponse func(Response)
	onError    func(error)
	deadline   time.Time
	ready      bool
	expired    bool
	response   Response
}

// aggregatedTracker expects a reply from every identifier in expected,
// or runs out the clock and completes with whatever arrived.
type aggregatedTracker struct {
	requester  wire.NodeID
	expected   map[string]wire.NodeID
	collected  map[string]AggregatedEntry
	deadline   time.Time
	ready      bool
	expired    bool
	onComplete func(requester wire.NodeID, entries []AggregatedEntry)
}

// DeferOptions describes an Aggregated tracker's fan-out (§4.7). Sending
// the notice to each destination and delivering the final aggregated
// response back to Requester are both the caller's responsibility — the
// service only tracks arrivals and reports completion through OnComplete,
// since the concrete ability to send a parcel lives with the peer
// registry (internal/peer), which itself depends on this package for
// request(); await importing back into peer would cycle.
type DeferOptions struct {
	Requester          wire.NodeID
	NoticeSource       wire.NodeID
	NoticeDestination  wire.NodeID
	NoticeRoute        string
	NoticePayload      []byte
	ExpectedResponders []wire.NodeID
	Deadline           time.Duration
	OnComplete         func(requester wire.NodeID, entries []AggregatedEntry)
}

// Service is the awaitable tracking service (C7). It is safe for
// concurrent use; StageRequest/Defer/HandleResponse are typically called
// from endpoint or route-handler goroutines while Execute runs on the
// cooperative scheduler thread.
type Service struct {
	mu         sync.Mutex
	deferred   map[wire.TrackerKey]*deferredTracker
	aggregated map[wire.TrackerKey]*aggregatedTracker
	readyQueue []wire.TrackerKey
	now        func() time.Time
}

// NewService returns an empty tracking service.
func NewService() *Service {
	return newServiceWithClock(time.Now)
}

func newServiceWithClock(now func() time.Time) *Service {
	return &Service{
		deferred:   make(map[wire.TrackerKey]*deferredTracker),
		aggregated: make(map[wire.TrackerKey]*aggregatedTracker),
		now:        now,
	}
}

// StageRequest stamps builder with an Awaitable(Request, key) extension,
// validates it, and stores onResponse/onError against the derived key.
// The caller sends the returned parcel itself (typically via a peer
// proxy's schedule_send).
func (s *Service) StageRequest(builder *wire.ApplicationBuilder, deadline time.Duration, onResponse func(Response), onError func(error)) (*wire.ApplicationParcel, wire.TrackerKey, error) {
	preview := builder.Build()
	key := DeriveRequestTrackerKey(preview.Header.Source, preview.Header.Destination.ID, preview.Route, preview.Payload)

	parcel, ok := builder.WithExtension(wire.NewAwaitableExtension(wire.AwaitableRequest, key)).ValidatedBuild()
	if !ok {
		return nil, wire.TrackerKey{}, ErrBuilderInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.deferred[key] = &deferredTracker{
		onResponse: onResponse,
		onError:    onError,
		deadline:   s.now().Add(deadline),
	}
	metrics.TrackersCreated.WithLabelValues("deferred").Inc()
	metrics.TrackersActive.Inc()
	return parcel, key, nil
}

// Defer registers an Aggregated tracker for a fan-out route (§4.7),
// returning its key.
func (s *Service) Defer(opts DeferOptions) (wire.TrackerKey, error) {
	key := DeriveRequestTrackerKey(opts.NoticeSource, opts.NoticeDestination, opts.NoticeRoute, opts.NoticePayload)

	expected := make(map[string]wire.NodeID, len(opts.ExpectedResponders))
	for _, id := range opts.ExpectedResponders {
		expected[id.Key()] = id.Clone()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.aggregated[key]; exists {
		return wire.TrackerKey{}, ErrDuplicateTracker
	}

	s.aggregated[key] = &aggregatedTracker{
		requester:  opts.Requester,
		expected:   expected,
		collected:  make(map[string]AggregatedEntry),
		deadline:   s.now().Add(opts.Deadline),
		onComplete: opts.OnComplete,
	}
	metrics.TrackersCreated.WithLabelValues("aggregated").Inc()
	metrics.TrackersActive.Inc()
	return key, nil
}

// HandleResponse feeds an incoming Awaitable(Response, key) into whichever
// tracker it matches. It reports false if no live tracker claims the key.
func (s *Service) HandleResponse(resp Response) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tracker, ok := s.deferred[resp.Key]; ok && !tracker.ready {
		tracker.ready = true
		tracker.response = resp
		s.readyQueue = append(s.readyQueue, resp.Key)
		return true
	}

	if tracker, ok := s.aggregated[resp.Key]; ok && !tracker.ready {
		sourceKey := resp.Source.Key()
		if _, expected := tracker.expected[sourceKey]; expected {
			tracker.collected[sourceKey] = AggregatedEntry{
				Responder:  resp.Source,
				Payload:    resp.Payload,
				StatusCode: resp.StatusCode,
			}
			delete(tracker.expected, sourceKey)
		}
		if len(tracker.expected) == 0 {
			tracker.ready = true
			s.readyQueue = append(s.readyQueue, resp.Key)
		}
		return true
	}

	return false
}

// Waiting reports the number of trackers that have not yet reached Ready.
func (s *Service) Waiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, t := range s.deferred {
		if !t.ready {
			count++
		}
	}
	for _, t := range s.aggregated {
		if !t.ready {
			count++
		}
	}
	return count
}

// Ready reports the number of trackers currently queued for delivery.
func (s *Service) Ready() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.readyQueue)
}

// Execute sweeps expired trackers into Ready (never dropping them
// silently) and then drains the Ready queue in arrival order, invoking
// each tracker's continuation. It returns the number of trackers
// completed, for the scheduler delegate's task count.
func (s *Service) Execute() int {
	s.mu.Lock()
	now := s.now()
	for key, t := range s.deferred {
		if !t.ready && now.After(t.deadline) {
			t.ready = true
			t.expired = true
			t.response = Response{Key: key}
			s.readyQueue = append(s.readyQueue, key)
		}
	}
	for key, t := range s.aggregated {
		if !t.ready && now.After(t.deadline) {
			t.ready = true
			t.expired = true
			s.readyQueue = append(s.readyQueue, key)
		}
	}

	queue := s.readyQueue
	s.readyQueue = nil
	s.mu.Unlock()

	completed := 0
	for _, key := range queue {
		s.mu.Lock()
		deferredTracker, isDeferred := s.deferred[key]
		if isDeferred {
			delete(s.deferred, key)
		}
		aggregatedT, isAggregated := s.aggregated[key]
		if isAggregated {
			delete(s.aggregated, key)
		}
		s.mu.Unlock()

		switch {
		case isDeferred:
			if deferredTracker.onResponse != nil {
				deferredTracker.onResponse(deferredTracker.response)
			}
			metrics.TrackersCompleted.WithLabelValues(outcomeLabel(deferredTracker.expired)).Inc()
			metrics.TrackersActive.Dec()
			completed++
		case isAggregated:
			completeAggregated(aggregatedT)
			metrics.TrackersCompleted.WithLabelValues(outcomeLabel(aggregatedT.expired)).Inc()
			metrics.TrackersActive.Dec()
			completed++
		}
	}
	return completed
}

func outcomeLabel(expired bool) string {
	if expired {
		return "expired"
	}
	return "fulfilled"
}

func completeAggregated(t *aggregatedTracker) {
	for id := range t.expected {
		t.collected[id] = AggregatedEntry{Responder: t.expected[id], TimedOut: true}
	}

	ids := make([]string, 0, len(t.collected))
	for id := range t.collected {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]AggregatedEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, t.collected[id])
	}

	if t.onComplete != nil {
		t.onComplete(t.requester, entries)
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Grounded on the teacher's internal/metrics/handshake.go and message.go:
// CounterVec/HistogramVec per component, registered against a private
// Registry rather than the global default.
var (
	// ParcelsEncoded counts successful header+pack encodes by parcel kind.
	ParcelsEncoded = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wire",
			Name:      "parcels_encoded_total",
			Help:      "Total number of parcels encoded to the wire format.",
		},
		[]string{"kind"}, // platform, application
	)

	// ParcelsDecoded counts successful decodes by parcel kind.
	ParcelsDecoded = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wire",
			Name:      "parcels_decoded_total",
			Help:      "Total number of parcels decoded from the wire format.",
		},
		[]string{"kind"},
	)

	// ParcelsRejected counts parcels whose Encode or Decode failed, by
	// reason. A builder's validated_build rejection is not counted here.
	ParcelsRejected = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wire",
			Name:      "parcels_rejected_total",
			Help:      "Total number of parcels rejected during decode/validation.",
		},
		[]string{"reason"},
	)
)

// HandshakeMetrics, grounded on internal/metrics/handshake.go.
var (
	HandshakesInitiated = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshakes",
			Name:      "initiated_total",
			Help:      "Total number of handshakes initiated, by exchange role.",
		},
		[]string{"role"}, // initiator, acceptor
	)

	HandshakesCompleted = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshakes",
			Name:      "completed_total",
			Help:      "Total number of handshakes reaching a terminal state.",
		},
		[]string{"status"}, // ready, failure
	)

	HandshakeDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "handshakes",
			Name:      "duration_seconds",
			Help:      "Time from Prepare() to a terminal state.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)

// Tracker metrics, grounded on internal/metrics/session.go's shape
// (created/active/expired/closed counters + duration histogram).
var (
	TrackersCreated = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trackers",
			Name:      "created_total",
			Help:      "Total number of trackers registered, by kind.",
		},
		[]string{"kind"}, // deferred, aggregated
	)

	TrackersCompleted = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trackers",
			Name:      "completed_total",
			Help:      "Total number of trackers completed, by outcome.",
		},
		[]string{"outcome"}, // fulfilled, expired, cancelled
	)

	TrackersActive = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trackers",
			Name:      "active",
			Help:      "Current number of pending or ready trackers.",
		},
	)
)

// Route metrics, grounded on internal/metrics/message.go.
var (
	RoutesDispatched = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "routes",
			Name:      "dispatched_total",
			Help:      "Total number of parcels dispatched to a handler, by route.",
		},
		[]string{"route", "outcome"}, // outcome: success, handler_failure, unknown_route
	)
)

package chainsync

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	prometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "chainsync"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Whether or not the node is downloading. 1 if yes, 0 if no.
	Syncing metrics.Gauge

	// Number of header range requests dispatched.
	HeaderRequests metrics.Counter

	// Number of block body requests dispatched.
	BodyRequests metrics.Counter

	// Number of headers received and handed to the work queue.
	HeadersFetched metrics.Counter

	// Number of blocks accepted by the work queue.
	BlocksFetched metrics.Counter

	// Number of header validation failures.
	ValidationFailures metrics.Counter

	// Number of peers dropped for failed or invalid responses.
	PeerDrops metrics.Counter
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		Syncing: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "syncing",
			Help:      "Whether or not the node is downloading. 1 if yes, 0 if no.",
		}, labels).With(labelsAndValues...),
		HeaderRequests: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "header_requests",
			Help:      "Number of header range requests dispatched.",
		}, labels).With(labelsAndValues...),
		BodyRequests: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "body_requests",
			Help:      "Number of block body requests dispatched.",
		}, labels).With(labelsAndValues...),
		HeadersFetched: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "headers_fetched",
			Help:      "Number of headers received and handed to the work queue.",
		}, labels).With(labelsAndValues...),
		BlocksFetched: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "blocks_fetched",
			Help:      "Number of blocks accepted by the work queue.",
		}, labels).With(labelsAndValues...),
		ValidationFailures: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "validation_failures",
			Help:      "Number of header validation failures.",
		}, labels).With(labelsAndValues...),
		PeerDrops: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "peer_drops",
			Help:      "Number of peers dropped for failed or invalid responses.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Syncing:            discard.NewGauge(),
		HeaderRequests:     discard.NewCounter(),
		BodyRequests:       discard.NewCounter(),
		HeadersFetched:     discard.NewCounter(),
		BlocksFetched:      discard.NewCounter(),
		ValidationFailures: discard.NewCounter(),
		PeerDrops:          discard.NewCounter(),
	}
}

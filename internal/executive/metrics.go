package executive

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"

	prometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "executive"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Height of the last finalized block.
	Height metrics.Gauge

	// Number of extrinsics included in the last block.
	NumExtrinsics metrics.Gauge
	// Weight used by the last block.
	BlockWeight metrics.Gauge
	// Encoded length of the last block's extrinsics.
	BlockLength metrics.Histogram

	// Extrinsics rejected before inclusion, by reason.
	RejectedExtrinsics metrics.Counter
	// Included extrinsics whose call failed.
	FailedExtrinsics metrics.Counter
	// Fees deducted from senders.
	FeesCollected metrics.Counter

	// Time spent applying one extrinsic.
	ApplyDuration metrics.Histogram
	// Blocks rejected on import.
	ImportFailures metrics.Counter
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
		Height: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "height",
			Help:      "Height of the last finalized block.",
		}, labels).With(labelsAndValues...),
		NumExtrinsics: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "num_extrinsics",
			Help:      "Number of extrinsics in the last block.",
		}, labels).With(labelsAndValues...),
		BlockWeight: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "block_weight",
			Help:      "Weight used by the last block.",
		}, labels).With(labelsAndValues...),
		BlockLength: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "block_length_bytes",
			Help:      "Encoded length of the block's extrinsics.",
			Buckets:   stdprometheus.ExponentialBuckets(256, 4, 8),
		}, labels).With(labelsAndValues...),
		RejectedExtrinsics: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "rejected_extrinsics",
			Help:      "Extrinsics rejected before inclusion.",
		}, append(labels, "reason")).With(labelsAndValues...),
		FailedExtrinsics: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "failed_extrinsics",
			Help:      "Included extrinsics whose call returned an error.",
		}, labels).With(labelsAndValues...),
		FeesCollected: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "fees_collected",
			Help:      "Transaction fees deducted from senders.",
		}, labels).With(labelsAndValues...),
		ApplyDuration: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "apply_duration_seconds",
			Help:      "Time spent applying one extrinsic.",
			Buckets:   stdprometheus.ExponentialBuckets(0.00001, 4, 10),
		}, labels).With(labelsAndValues...),
		ImportFailures: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "import_failures",
			Help:      "Blocks rejected on import.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Height:             discard.NewGauge(),
		NumExtrinsics:      discard.NewGauge(),
		BlockWeight:        discard.NewGauge(),
		BlockLength:        discard.NewHistogram(),
		RejectedExtrinsics: discard.NewCounter(),
		FailedExtrinsics:   discard.NewCounter(),
		FeesCollected:      discard.NewCounter(),
		ApplyDuration:      discard.NewHistogram(),
		ImportFailures:     discard.NewCounter(),
	}
}

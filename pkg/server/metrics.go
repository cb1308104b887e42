package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the server's prometheus instruments. Each Server owns its
// own registry so multiple servers can coexist in one process.
type Metrics struct {
	Commits        prometheus.Counter
	CommitErrors   prometheus.Counter
	DuplicateKeys  prometheus.Counter
	PatchesSent    prometheus.Counter
	FrameBytes     prometheus.Counter
	FramesReplayed prometheus.Counter
	BaselineSends  prometheus.Counter
	SubmitRejected prometheus.Counter
	SlowDrops      prometheus.Counter
	Subscribers    prometheus.Gauge
	CommitSeconds  prometheus.Histogram
	BatchSize      prometheus.Histogram
}

func newMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Commits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Committed reconciliation batches.",
		}),
		CommitErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commit_errors_total",
			Help:      "Commits aborted or degraded.",
		}),
		DuplicateKeys: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_keys_total",
			Help:      "Commits where duplicate sibling keys forced a replace fallback.",
		}),
		PatchesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "patches_sent_total",
			Help:      "Individual patches broadcast to subscribers.",
		}),
		FrameBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_bytes_total",
			Help:      "Encoded patch frame bytes broadcast.",
		}),
		FramesReplayed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_replayed_total",
			Help:      "History frames replayed for resyncs.",
		}),
		BaselineSends: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "baseline_sends_total",
			Help:      "Full-tree Hello frames sent (connects and deep resyncs).",
		}),
		SubmitRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submits_rejected_total",
			Help:      "Tree submissions rejected before batching.",
		}),
		SlowDrops: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slow_subscriber_drops_total",
			Help:      "Subscribers disconnected for falling behind.",
		}),
		Subscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Currently connected subscribers.",
		}),
		CommitSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "commit_duration_seconds",
			Help:      "Diff plus apply duration per commit.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		BatchSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "patch_batch_size",
			Help:      "Patches per committed batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

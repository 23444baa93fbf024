// Package metrics exposes Prometheus instrumentation for the commit
// and recovery engines, in the same promauto builder shape as the
// teacher's cluster collector: a constructor taking an optional
// registerer and namespace, building every metric up front.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds every counter and gauge this module emits. A nil
// *Collector is a valid, no-op receiver for every method below, so
// instrumentation can be wired in optionally without branching at
// every call site.
type Collector struct {
	commitsTotal     *prometheus.CounterVec
	rollbacksTotal   prometheus.Counter
	lockWaitSeconds  prometheus.Histogram
	fsckClassified   *prometheus.CounterVec
	fsckReapplied    prometheus.Counter
	contentionSkips  prometheus.Counter
	lingerOutstanding prometheus.Gauge
}

// New creates a Collector registered on reg (prometheus.DefaultRegisterer
// if nil), with metric names prefixed by namespace ("jio" if empty).
func New(reg prometheus.Registerer, namespace string) *Collector {
	if namespace == "" {
		namespace = "jio"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	builder := promauto.With(reg)
	return &Collector{
		commitsTotal: builder.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Transaction commit attempts, partitioned by outcome.",
		}, []string{"outcome"}),
		rollbacksTotal: builder.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollbacks_total",
			Help:      "Transactions rolled back.",
		}),
		lockWaitSeconds: builder.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lock_wait_seconds",
			Help:      "Time spent blocked acquiring data-file range locks during commit.",
			Buckets:   prometheus.DefBuckets,
		}),
		fsckClassified: builder.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fsck_classified_total",
			Help:      "Transaction files classified by fsck, partitioned by classification.",
		}, []string{"class"}),
		fsckReapplied: builder.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fsck_reapplied_total",
			Help:      "Transaction files successfully re-applied by fsck.",
		}),
		contentionSkips: builder.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovery_contention_skips_total",
			Help:      "Transaction files skipped by fsck because another process held them.",
		}),
		lingerOutstanding: builder.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "linger_outstanding",
			Help:      "Committed transactions whose journal file is held by linger mode, not yet jsynced.",
		}),
	}
}

// CommitOutcome labels a finished commit attempt for CommitsTotal.
type CommitOutcome string

const (
	CommitSucceeded CommitOutcome = "committed"
	CommitFailed    CommitOutcome = "failed"
	CommitCrashed   CommitOutcome = "simulated_crash"
)

func (c *Collector) CommitsTotal(outcome CommitOutcome) {
	if c == nil {
		return
	}
	c.commitsTotal.WithLabelValues(string(outcome)).Inc()
}

func (c *Collector) RollbacksTotal() {
	if c == nil {
		return
	}
	c.rollbacksTotal.Inc()
}

func (c *Collector) ObserveLockWaitSeconds(seconds float64) {
	if c == nil {
		return
	}
	c.lockWaitSeconds.Observe(seconds)
}

// FsckClass labels one fsck classification outcome.
type FsckClass string

const (
	ClassInvalid    FsckClass = "invalid"
	ClassInProgress FsckClass = "in_progress"
	ClassBroken     FsckClass = "broken"
	ClassCorrupt    FsckClass = "corrupt"
	ClassApplyError FsckClass = "apply_error"
	ClassReapplied  FsckClass = "reapplied"
)

func (c *Collector) FsckClassified(class FsckClass) {
	if c == nil {
		return
	}
	c.fsckClassified.WithLabelValues(string(class)).Inc()
}

func (c *Collector) FsckReapplied() {
	if c == nil {
		return
	}
	c.fsckReapplied.Inc()
}

func (c *Collector) ContentionSkip() {
	if c == nil {
		return
	}
	c.contentionSkips.Inc()
}

func (c *Collector) SetLingerOutstanding(n int) {
	if c == nil {
		return
	}
	c.lingerOutstanding.Set(float64(n))
}

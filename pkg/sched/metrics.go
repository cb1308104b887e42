package sched

import (
	"sync/atomic"
	"time"
)

// Stats is a snapshot of scheduler activity.
type Stats struct {
	UpdatesRequested int64 // RequestUpdate calls accepted
	UpdatesCoalesced int64 // Requests superseded within a batch
	Commits          int64 // Successful commits
	CommitErrors     int64 // Commits aborted by apply/diff failure
	DuplicateKeys    int64 // Commits that hit duplicate-key fallback
	PatchesApplied   int64 // Total patches applied

	CommitP50 time.Duration // Median commit duration
	CommitP99 time.Duration

	CollectedAt time.Time
}

// Collector accumulates scheduler metrics. All methods are safe for
// concurrent use; counters are atomics, the duration buffer is guarded
// by a spinlock since samples are tiny and frequent.
type Collector struct {
	updatesRequested atomic.Int64
	updatesCoalesced atomic.Int64
	commits          atomic.Int64
	commitErrors     atomic.Int64
	duplicateKeys    atomic.Int64
	patchesApplied   atomic.Int64

	durations  []int64 // nanoseconds
	durationMu atomic.Int32
}

// NewCollector creates a Collector.
func NewCollector() *Collector {
	return &Collector{
		durations: make([]int64, 0, 1000),
	}
}

// RecordRequest records an accepted update request.
func (c *Collector) RecordRequest() {
	c.updatesRequested.Add(1)
}

// RecordCoalesced records n requests superseded by a later one in the
// same batch.
func (c *Collector) RecordCoalesced(n int) {
	if n > 0 {
		c.updatesCoalesced.Add(int64(n))
	}
}

// RecordCommit records a successful commit.
func (c *Collector) RecordCommit(patches int, d time.Duration) {
	c.commits.Add(1)
	c.patchesApplied.Add(int64(patches))
	c.recordDuration(d)
}

// RecordCommitError records an aborted commit.
func (c *Collector) RecordCommitError() {
	c.commitErrors.Add(1)
}

// RecordDuplicateKeys records a commit that fell back to subtree
// replacement because of duplicate sibling keys.
func (c *Collector) RecordDuplicateKeys() {
	c.duplicateKeys.Add(1)
}

func (c *Collector) recordDuration(d time.Duration) {
	for !c.durationMu.CompareAndSwap(0, 1) {
		// Spin
	}
	defer c.durationMu.Store(0)

	if len(c.durations) >= 1000 {
		c.durations = c.durations[500:] // Drop oldest half
	}
	c.durations = append(c.durations, int64(d))
}

// Snapshot returns current metrics.
func (c *Collector) Snapshot() Stats {
	p50, p99 := c.durationPercentiles()
	return Stats{
		UpdatesRequested: c.updatesRequested.Load(),
		UpdatesCoalesced: c.updatesCoalesced.Load(),
		Commits:          c.commits.Load(),
		CommitErrors:     c.commitErrors.Load(),
		DuplicateKeys:    c.duplicateKeys.Load(),
		PatchesApplied:   c.patchesApplied.Load(),
		CommitP50:        p50,
		CommitP99:        p99,
		CollectedAt:      time.Now(),
	}
}

func (c *Collector) durationPercentiles() (p50, p99 time.Duration) {
	for !c.durationMu.CompareAndSwap(0, 1) {
		// Spin
	}
	defer c.durationMu.Store(0)

	n := len(c.durations)
	if n == 0 {
		return 0, 0
	}

	sorted := make([]int64, n)
	copy(sorted, c.durations)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if sorted[i] > sorted[j] {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}

	return time.Duration(sorted[n/2]), time.Duration(sorted[(n*99)/100])
}

package sched

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/weftdom/weft/pkg/vdom"
)

// State is the scheduler's phase in its commit cycle.
type State uint8

const (
	StateIdle       State = iota // No pending work
	StateBatching                // Updates queued, waiting for the tick boundary
	StateCommitting              // Diff+apply pass in progress
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateBatching:
		return "Batching"
	case StateCommitting:
		return "Committing"
	default:
		return "Unknown"
	}
}

// ErrClosed is returned by RequestUpdate after the scheduler shut down.
var ErrClosed = errors.New("sched: scheduler closed")

// DefaultTickInterval is the batching window when none is configured.
const DefaultTickInterval = 16 * time.Millisecond

// Hooks are callbacks invoked at commit state transitions. All hooks run
// on the scheduler goroutine; they must not call back into the scheduler.
type Hooks struct {
	// PreCommit runs after patches are computed, before they are applied.
	PreCommit func(next *vdom.VNode, patches []vdom.Patch)

	// PostCommit runs after a successful commit with a snapshot of the
	// new live tree and the patches that produced it.
	PostCommit func(root *vdom.VNode, patches []vdom.Patch)

	// CommitError runs when a commit is aborted or degraded. The prior
	// committed tree remains authoritative for aborts.
	CommitError func(err error)
}

// Config configures a Scheduler.
type Config struct {
	// TickInterval is the batching window. Updates arriving within one
	// tick coalesce into a single diff+apply pass.
	TickInterval time.Duration

	// MaxDepth bounds submitted trees (0 = vdom.DefaultMaxDepth).
	MaxDepth int

	// Logger for structured logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics receives scheduler counters. Optional.
	Metrics *Collector

	Hooks Hooks

	// Ticks overrides the internal ticker; used by tests to drive the
	// loop deterministically.
	Ticks <-chan time.Time
}

// Scheduler coalesces tree submissions and commits one batch at a time.
//
// The committed tree is owned exclusively by the scheduler: the differ
// and applier only touch it inside a commit, and commits run one at a
// time on the Run goroutine. A submission arriving while a commit is in
// flight starts a fresh batching phase immediately after it.
type Scheduler struct {
	mu        sync.Mutex
	state     State
	pending   *vdom.VNode
	coalesced int
	closed    bool

	tree      *vdom.Tree
	committed *vdom.VNode

	cfg     Config
	logger  *slog.Logger
	metrics *Collector
	tracer  trace.Tracer

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Scheduler. Call Run to start its loop.
func New(cfg Config) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cfg:     cfg,
		tree:    vdom.NewTree(nil),
		logger:  logger.With("component", "sched"),
		metrics: cfg.Metrics,
		tracer:  otel.Tracer("weft/sched"),
		done:    make(chan struct{}),
	}
}

// RequestUpdate submits a new target tree. Submissions within one tick
// are coalesced: only the latest is diffed, earlier ones are discarded.
// The tree must not be mutated after submission.
//
// Structural problems (cycles, excessive depth) fail fast here, before
// the tree enters a batch.
func (s *Scheduler) RequestUpdate(tree *vdom.VNode) error {
	if err := vdom.Validate(tree, s.cfg.MaxDepth); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if s.pending != nil {
		s.coalesced++
		if s.metrics != nil {
			s.metrics.RecordCoalesced(1)
		}
	}
	s.pending = tree
	if s.state == StateIdle {
		s.state = StateBatching
	}
	if s.metrics != nil {
		s.metrics.RecordRequest()
	}
	return nil
}

// Run drives the scheduler until ctx is cancelled or Close is called.
// One diff+apply pass runs per tick that found pending work; the pass
// runs to completion before the next tick is observed.
func (s *Scheduler) Run(ctx context.Context) {
	ticks := s.cfg.Ticks
	if ticks == nil {
		ticker := time.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	s.logger.Info("scheduler started", "tick", s.cfg.TickInterval)
	for {
		select {
		case <-ticks:
			s.flush(ctx)

		case <-ctx.Done():
			s.Close()
			return

		case <-s.done:
			return
		}
	}
}

// Close stops the scheduler. Pending updates are discarded.
func (s *Scheduler) Close() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.pending = nil
		s.mu.Unlock()
		close(s.done)
		s.logger.Info("scheduler stopped")
	})
}

// State returns the current phase.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Committed returns a snapshot of the committed tree, nil before the
// first commit.
func (s *Scheduler) Committed() *vdom.VNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Root()
}

// flush runs one commit pass if a batch is pending.
func (s *Scheduler) flush(ctx context.Context) {
	s.mu.Lock()
	if s.pending == nil || s.closed {
		s.mu.Unlock()
		return
	}
	next := s.pending
	s.pending = nil
	s.coalesced = 0
	s.state = StateCommitting
	s.mu.Unlock()

	s.commit(ctx, next)

	s.mu.Lock()
	if s.pending != nil {
		s.state = StateBatching
	} else {
		s.state = StateIdle
	}
	s.mu.Unlock()
}

// commit diffs the latest submitted tree against the committed tree and
// applies the patches. A failed apply aborts the commit: the prior
// committed tree stays authoritative and the submitted tree is dropped.
func (s *Scheduler) commit(ctx context.Context, next *vdom.VNode) {
	start := time.Now()
	_, span := s.tracer.Start(ctx, "weft.commit")
	defer span.End()

	patches, err := vdom.Diff(s.committed, next)
	if err != nil {
		if !errors.Is(err, vdom.ErrDuplicateKey) {
			s.abort(span, err)
			return
		}
		// Duplicate keys degrade to subtree replacement; the patches are
		// still a correct edit script. Surface the error and continue.
		s.logger.Warn("duplicate keys, subtree replaced", "error", err)
		if s.metrics != nil {
			s.metrics.RecordDuplicateKeys()
		}
		if s.cfg.Hooks.CommitError != nil {
			s.cfg.Hooks.CommitError(err)
		}
	}

	if s.cfg.Hooks.PreCommit != nil {
		s.cfg.Hooks.PreCommit(next, patches)
	}

	if err := s.tree.Apply(patches); err != nil {
		s.abort(span, err)
		return
	}
	s.committed = next

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordCommit(len(patches), elapsed)
	}
	span.SetAttributes(
		attribute.Int("weft.patch_count", len(patches)),
		attribute.Int64("weft.commit_us", elapsed.Microseconds()),
	)
	span.SetStatus(codes.Ok, "")

	if s.cfg.Hooks.PostCommit != nil {
		s.cfg.Hooks.PostCommit(s.tree.Root(), patches)
	}

	s.logger.Debug("committed",
		"patches", len(patches),
		"duration", elapsed)
}

func (s *Scheduler) abort(span trace.Span, err error) {
	s.logger.Error("commit aborted, keeping prior tree", "error", err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if s.metrics != nil {
		s.metrics.RecordCommitError()
	}
	if s.cfg.Hooks.CommitError != nil {
		s.cfg.Hooks.CommitError(err)
	}
}

package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/weftdom/weft/pkg/vdom"
)

// testScheduler wires a scheduler to a manual tick channel so tests can
// drive batching deterministically.
type testScheduler struct {
	*Scheduler
	ticks   chan time.Time
	commits chan []vdom.Patch
	cancel  context.CancelFunc
}

func newTestScheduler(t *testing.T, hooks Hooks) *testScheduler {
	t.Helper()

	ts := &testScheduler{
		ticks:   make(chan time.Time),
		commits: make(chan []vdom.Patch, 16),
	}

	userPost := hooks.PostCommit
	hooks.PostCommit = func(root *vdom.VNode, patches []vdom.Patch) {
		if userPost != nil {
			userPost(root, patches)
		}
		ts.commits <- patches
	}

	ts.Scheduler = New(Config{
		Ticks:   ts.ticks,
		Metrics: NewCollector(),
		Hooks:   hooks,
	})

	ctx, cancel := context.WithCancel(context.Background())
	ts.cancel = cancel
	go ts.Run(ctx)
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})

	return ts
}

// tick fires one tick and waits for the resulting commit.
func (ts *testScheduler) tick(t *testing.T) []vdom.Patch {
	t.Helper()
	ts.ticks <- time.Time{}
	select {
	case patches := <-ts.commits:
		return patches
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for commit")
		return nil
	}
}

// tickNoCommit fires one tick and asserts no commit happens.
func (ts *testScheduler) tickNoCommit(t *testing.T) {
	t.Helper()
	ts.ticks <- time.Time{}
	select {
	case <-ts.commits:
		t.Fatal("unexpected commit")
	case <-time.After(50 * time.Millisecond):
	}
}

func waitForState(t *testing.T, s *Scheduler, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", s.State(), want)
}

func TestFirstCommitEstablishesBaseline(t *testing.T) {
	ts := newTestScheduler(t, Hooks{})

	tree := vdom.El("div", "hello")
	if err := ts.RequestUpdate(tree); err != nil {
		t.Fatalf("request: %v", err)
	}

	patches := ts.tick(t)
	if len(patches) != 1 || patches[0].Op != vdom.OpReplace {
		t.Fatalf("first commit should be a root Replace, got %+v", patches)
	}
	if !vdom.Equal(ts.Committed(), tree) {
		t.Errorf("committed tree does not match submission")
	}
}

func TestCoalescingCommitsOnlyLatest(t *testing.T) {
	ts := newTestScheduler(t, Hooks{})

	if err := ts.RequestUpdate(vdom.El("div", "v1")); err != nil {
		t.Fatal(err)
	}
	if err := ts.RequestUpdate(vdom.El("div", "v2")); err != nil {
		t.Fatal(err)
	}
	final := vdom.El("div", "v3")
	if err := ts.RequestUpdate(final); err != nil {
		t.Fatal(err)
	}

	ts.tick(t)
	if !vdom.Equal(ts.Committed(), final) {
		t.Errorf("committed tree is not the latest submission")
	}

	// A second tick with nothing pending must not commit again.
	ts.tickNoCommit(t)

	stats := ts.Scheduler.metrics.Snapshot()
	if stats.Commits != 1 {
		t.Errorf("Commits = %d, want 1", stats.Commits)
	}
	if stats.UpdatesRequested != 3 {
		t.Errorf("UpdatesRequested = %d, want 3", stats.UpdatesRequested)
	}
	if stats.UpdatesCoalesced != 2 {
		t.Errorf("UpdatesCoalesced = %d, want 2", stats.UpdatesCoalesced)
	}
}

func TestStateTransitions(t *testing.T) {
	ts := newTestScheduler(t, Hooks{})

	if got := ts.State(); got != StateIdle {
		t.Fatalf("initial state = %v, want Idle", got)
	}

	if err := ts.RequestUpdate(vdom.El("div")); err != nil {
		t.Fatal(err)
	}
	if got := ts.State(); got != StateBatching {
		t.Fatalf("state after request = %v, want Batching", got)
	}

	ts.tick(t)
	waitForState(t, ts.Scheduler, StateIdle)
}

func TestUpdateDuringCommitStartsFreshBatch(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{})
	var once atomic.Bool

	ts := newTestScheduler(t, Hooks{
		PreCommit: func(*vdom.VNode, []vdom.Patch) {
			if once.CompareAndSwap(false, true) {
				close(entered)
				<-gate
			}
		},
	})

	if err := ts.RequestUpdate(vdom.El("div", "first")); err != nil {
		t.Fatal(err)
	}
	go func() { ts.ticks <- time.Time{} }()

	// Submit while the first commit is blocked mid-flight.
	<-entered
	second := vdom.El("div", "second")
	if err := ts.RequestUpdate(second); err != nil {
		t.Fatal(err)
	}
	close(gate)
	<-ts.commits

	// The commit finished with a submission pending, so a fresh batching
	// phase starts immediately.
	waitForState(t, ts.Scheduler, StateBatching)

	ts.tick(t)
	if !vdom.Equal(ts.Committed(), second) {
		t.Errorf("second submission was not committed on the next tick")
	}
}

func TestDuplicateKeysDegradeButCommit(t *testing.T) {
	var hookErr error
	ts := newTestScheduler(t, Hooks{
		CommitError: func(err error) { hookErr = err },
	})

	if err := ts.RequestUpdate(vdom.El("ul", vdom.El("li", "seed"))); err != nil {
		t.Fatal(err)
	}
	ts.tick(t)

	dup := vdom.El("ul",
		vdom.El("li", vdom.A("key", "x"), "one"),
		vdom.El("li", vdom.A("key", "x"), "two"),
	)
	if err := ts.RequestUpdate(dup); err != nil {
		t.Fatal(err)
	}
	ts.tick(t)

	if !errors.Is(hookErr, vdom.ErrDuplicateKey) {
		t.Errorf("CommitError hook got %v, want DuplicateKeyError", hookErr)
	}
	if !vdom.Equal(ts.Committed(), dup) {
		t.Errorf("duplicate-key fallback should still commit via Replace")
	}
	if got := ts.Scheduler.metrics.Snapshot().DuplicateKeys; got != 1 {
		t.Errorf("DuplicateKeys = %d, want 1", got)
	}
}

func TestRequestUpdateRejectsCyclicTree(t *testing.T) {
	ts := newTestScheduler(t, Hooks{})

	cyclic := vdom.El("div")
	cyclic.Children = append(cyclic.Children, cyclic)

	if err := ts.RequestUpdate(cyclic); !errors.Is(err, vdom.ErrStructural) {
		t.Fatalf("err = %v, want StructuralError", err)
	}
	if got := ts.State(); got != StateIdle {
		t.Errorf("rejected update must not enter a batch, state = %v", got)
	}
}

func TestRequestUpdateAfterClose(t *testing.T) {
	ts := newTestScheduler(t, Hooks{})
	ts.Close()

	if err := ts.RequestUpdate(vdom.El("div")); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestIncrementalCommitEmitsMinimalPatches(t *testing.T) {
	ts := newTestScheduler(t, Hooks{})

	if err := ts.RequestUpdate(vdom.El("ul", vdom.Text("a"), vdom.Text("b"))); err != nil {
		t.Fatal(err)
	}
	ts.tick(t)

	if err := ts.RequestUpdate(vdom.El("ul", vdom.Text("a"), vdom.Text("c"))); err != nil {
		t.Fatal(err)
	}
	patches := ts.tick(t)

	if len(patches) != 1 || patches[0].Op != vdom.OpUpdateText || patches[0].Text != "c" {
		t.Errorf("incremental commit patches = %+v, want single UpdateText c", patches)
	}
}

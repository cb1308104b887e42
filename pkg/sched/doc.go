// Package sched batches tree submissions and commits them one pass at a
// time.
//
// Callers submit trees with RequestUpdate; submissions arriving within
// one tick coalesce and only the latest is committed. Each commit diffs
// the submitted tree against the committed baseline, applies the
// patches to the live tree, and promotes the submission to the new
// baseline. The cycle is Idle → Batching → Committing → Idle, with a
// fresh batching phase starting immediately when a submission arrives
// mid-commit.
//
// All diff/apply work for a batch runs to completion on the Run
// goroutine before the next batch starts; there is no cancellation of
// an in-flight commit. A failed commit keeps the prior committed tree
// authoritative.
package sched

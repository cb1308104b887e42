package vdom

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks. The concrete error values carry
// positional detail; these sentinels classify them.
var (
	ErrStructural          = errors.New("vdom: structural error")
	ErrDuplicateKey        = errors.New("vdom: duplicate key")
	ErrInternalConsistency = errors.New("vdom: internal consistency error")
)

// StructuralError reports a malformed tree: a cyclic child reference or
// nesting beyond the configured depth guard. Returned at diff time,
// never silently dropped.
type StructuralError struct {
	Reason string
	Path   []int // Path from the root to the offending node
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	return fmt.Sprintf("vdom: structural error at %s: %s", FormatPath(e.Path), e.Reason)
}

// Is reports whether the target matches the ErrStructural sentinel.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

// DuplicateKeyError reports two siblings sharing a reconciliation key.
// Diffing falls back to replacing the whole parent subtree; the error is
// still surfaced so the caller can fix the tree.
type DuplicateKeyError struct {
	Key  string
	Path []int // Path from the root to the parent of the duplicates
}

// Error implements the error interface.
func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("vdom: duplicate key %q among children of %s", e.Key, FormatPath(e.Path))
}

// Is reports whether the target matches the ErrDuplicateKey sentinel.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// InternalConsistencyError reports a patch referencing a path or index
// that does not exist in the live tree. It should never occur when the
// differ and applier agree on tree shape; it is fatal to the commit that
// produced it.
type InternalConsistencyError struct {
	Op     PatchOp
	Path   []int
	Index  int
	Reason string
}

// Error implements the error interface.
func (e *InternalConsistencyError) Error() string {
	return fmt.Sprintf("vdom: inconsistent patch %s at %s index %d: %s",
		e.Op, FormatPath(e.Path), e.Index, e.Reason)
}

// Is reports whether the target matches the ErrInternalConsistency sentinel.
func (e *InternalConsistencyError) Is(target error) bool {
	return target == ErrInternalConsistency
}

// FormatPath renders a child-index path as "/0/2/1". The root is "/".
func FormatPath(path []int) string {
	if len(path) == 0 {
		return "/"
	}
	s := ""
	for _, i := range path {
		s += fmt.Sprintf("/%d", i)
	}
	return s
}

package vdom

import (
	"errors"
	"sort"
)

// Diff compares two trees and returns the ordered patch sequence that
// transforms prev into next. Both trees are validated first; a
// StructuralError aborts the diff with no patches.
//
// Duplicate sibling keys do not abort the whole diff: the affected
// subtree falls back to a single Replace and the DuplicateKeyError is
// returned alongside the (still applicable) patches.
func Diff(prev, next *VNode) ([]Patch, error) {
	if err := Validate(prev, 0); err != nil {
		return nil, err
	}
	if err := Validate(next, 0); err != nil {
		return nil, err
	}

	d := &differ{}
	d.diff(prev, next, nil)
	return d.patches, errors.Join(d.keyErrs...)
}

type differ struct {
	patches []Patch
	keyErrs []error
}

func (d *differ) emit(p Patch) {
	d.patches = append(d.patches, p)
}

// diff compares the nodes at path and appends patches. path addresses
// the node in the live tree at the time its patches apply: ancestors are
// settled before descendants, and sibling structural edits are ordered
// so that earlier indices stay valid.
func (d *differ) diff(prev, next *VNode, path []int) {
	if prev == nil && next == nil {
		return
	}

	// Presence, kind, or key change: replace the whole subtree. A key
	// names a node's identity, so a different key is a different node
	// even under the same tag. Child comparison is skipped, bounding the
	// cost at the subtree size.
	if prev == nil || next == nil || prev.Kind != next.Kind || prev.Key != next.Key {
		d.emit(Patch{Op: OpReplace, Path: clonePath(path), Node: next})
		return
	}

	switch prev.Kind {
	case KindText:
		if prev.Text != next.Text {
			d.emit(Patch{Op: OpUpdateText, Path: clonePath(path), Text: next.Text})
		}
	case KindElement:
		if prev.Tag != next.Tag {
			d.emit(Patch{Op: OpReplace, Path: clonePath(path), Node: next})
			return
		}
		if changes := diffAttrs(prev.Attrs, next.Attrs); !changes.IsEmpty() {
			d.emit(Patch{Op: OpUpdateAttrs, Path: clonePath(path), Attrs: changes})
		}
		d.diffChildren(prev, next, path)
	}
}

// diffAttrs computes the attribute delta between two maps. Removed keys
// are sorted so the delta applies deterministically.
func diffAttrs(prev, next map[string]string) *AttrChanges {
	changes := &AttrChanges{}

	for key, prevVal := range prev {
		nextVal, exists := next[key]
		if !exists {
			changes.Removed = append(changes.Removed, key)
		} else if nextVal != prevVal {
			if changes.Changed == nil {
				changes.Changed = make(map[string]string)
			}
			changes.Changed[key] = nextVal
		}
	}
	for key, nextVal := range next {
		if _, exists := prev[key]; !exists {
			if changes.Added == nil {
				changes.Added = make(map[string]string)
			}
			changes.Added[key] = nextVal
		}
	}

	sort.Strings(changes.Removed)
	return changes
}

// diffChildren reconciles the child lists of two matching elements.
// Keyed children match by key regardless of position; unkeyed children
// match the same-ordinal unkeyed child on the other side, which reduces
// to plain positional matching when no child is keyed.
func (d *differ) diffChildren(prev, next *VNode, path []int) {
	prevCh := prev.Children
	nextCh := next.Children

	prevKeys, err := siblingKeys(prevCh, path)
	if err == nil {
		_, err = siblingKeys(nextCh, path)
	}
	if err != nil {
		// Duplicate keys make matching ambiguous. Rebuild the subtree and
		// surface the error.
		d.keyErrs = append(d.keyErrs, err)
		d.emit(Patch{Op: OpReplace, Path: clonePath(path), Node: next})
		return
	}

	// Single pass over next: resolve each child to an old index via the
	// key map (keyed) or the unkeyed ordinal (unkeyed), or mark it new.
	const newChild = -1
	match := make([]int, len(nextCh))
	matched := make(map[int]bool, len(prevCh))

	prevUnkeyed := make([]int, 0, len(prevCh))
	for i, c := range prevCh {
		if childKey(c) == "" {
			prevUnkeyed = append(prevUnkeyed, i)
		}
	}

	unkeyedOrd := 0
	for j, c := range nextCh {
		key := childKey(c)
		if key != "" {
			if o, ok := prevKeys[key]; ok {
				match[j] = o
				matched[o] = true
			} else {
				match[j] = newChild
			}
			continue
		}
		if unkeyedOrd < len(prevUnkeyed) {
			o := prevUnkeyed[unkeyedOrd]
			match[j] = o
			matched[o] = true
		} else {
			match[j] = newChild
		}
		unkeyedOrd++
	}

	// Remove unmatched old children, highest index first so the lower
	// live indices stay valid.
	work := make([]int, 0, len(prevCh))
	for i := range prevCh {
		work = append(work, i)
	}
	for i := len(prevCh) - 1; i >= 0; i-- {
		if !matched[i] {
			d.emit(Patch{Op: OpRemoveChild, Path: clonePath(path), Index: i})
			work = append(work[:i], work[i+1:]...)
		}
	}

	// Walk next left to right. After step j, live positions 0..j are
	// final, so later structural edits never disturb earlier paths.
	for j := 0; j < len(nextCh); j++ {
		o := match[j]
		if o == newChild {
			d.emit(Patch{Op: OpInsertChild, Path: clonePath(path), Index: j, Node: nextCh[j]})
			work = append(work, 0)
			copy(work[j+1:], work[j:])
			work[j] = newChild
			continue
		}

		pos := j
		for ; pos < len(work); pos++ {
			if work[pos] == o {
				break
			}
		}
		if pos != j {
			d.emit(Patch{Op: OpMoveChild, Path: clonePath(path), FromIndex: pos, ToIndex: j})
			copy(work[j+1:pos+1], work[j:pos])
			work[j] = o
		}

		d.diff(prevCh[o], nextCh[j], append(path, j))
	}
}

// siblingKeys builds the key→index map for a child list, failing on the
// first duplicate.
func siblingKeys(children []*VNode, path []int) (map[string]int, error) {
	keys := make(map[string]int)
	for i, c := range children {
		key := childKey(c)
		if key == "" {
			continue
		}
		if _, dup := keys[key]; dup {
			return nil, &DuplicateKeyError{Key: key, Path: clonePath(path)}
		}
		keys[key] = i
	}
	return keys, nil
}

func childKey(node *VNode) string {
	if node == nil {
		return ""
	}
	return node.Key
}

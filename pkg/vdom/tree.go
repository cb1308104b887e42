package vdom

import "fmt"

// Tree is the mutable target a patch sequence applies to. It owns a
// private copy of its nodes; callers never see aliased, mutable state.
//
// Apply is transactional: patches are staged on a working copy and the
// live root is swapped only when the whole sequence applied cleanly, so
// a failed commit leaves the previous state untouched.
type Tree struct {
	root *VNode
}

// NewTree creates a tree initialized from root. The root is deep-copied.
func NewTree(root *VNode) *Tree {
	return &Tree{root: Clone(root)}
}

// Root returns a deep copy of the current tree state.
func (t *Tree) Root() *VNode {
	return Clone(t.root)
}

// Apply applies the patch sequence strictly in order. Path and index
// fields refer to the live tree as earlier patches leave it. Any patch
// referencing a missing path or out-of-bounds index aborts the whole
// sequence with an InternalConsistencyError and the tree is unchanged.
func (t *Tree) Apply(patches []Patch) error {
	if len(patches) == 0 {
		return nil
	}

	staged := Clone(t.root)
	for i := range patches {
		next, err := applyPatch(staged, &patches[i])
		if err != nil {
			return err
		}
		staged = next
	}

	t.root = staged
	return nil
}

// applyPatch applies a single patch and returns the (possibly replaced)
// root.
func applyPatch(root *VNode, p *Patch) (*VNode, error) {
	// Replacing the root is the one patch that does not resolve a parent
	// in the existing tree.
	if p.Op == OpReplace && len(p.Path) == 0 {
		return Clone(p.Node), nil
	}

	target, err := resolve(root, p.Path, p)
	if err != nil {
		return nil, err
	}

	switch p.Op {
	case OpReplace:
		parent, err := resolve(root, p.Path[:len(p.Path)-1], p)
		if err != nil {
			return nil, err
		}
		parent.Children[p.Path[len(p.Path)-1]] = Clone(p.Node)

	case OpUpdateText:
		if target.Kind != KindText {
			return nil, &InternalConsistencyError{Op: p.Op, Path: p.Path, Reason: "target is not a text node"}
		}
		target.Text = p.Text

	case OpUpdateAttrs:
		if target.Kind != KindElement {
			return nil, &InternalConsistencyError{Op: p.Op, Path: p.Path, Reason: "target is not an element"}
		}
		applyAttrs(target, p.Attrs)

	case OpInsertChild:
		if p.Index < 0 || p.Index > len(target.Children) {
			return nil, outOfBounds(p, p.Index, len(target.Children))
		}
		target.Children = append(target.Children, nil)
		copy(target.Children[p.Index+1:], target.Children[p.Index:])
		target.Children[p.Index] = Clone(p.Node)

	case OpRemoveChild:
		if p.Index < 0 || p.Index >= len(target.Children) {
			return nil, outOfBounds(p, p.Index, len(target.Children))
		}
		target.Children = append(target.Children[:p.Index], target.Children[p.Index+1:]...)

	case OpMoveChild:
		n := len(target.Children)
		if p.FromIndex < 0 || p.FromIndex >= n {
			return nil, outOfBounds(p, p.FromIndex, n)
		}
		if p.ToIndex < 0 || p.ToIndex >= n {
			return nil, outOfBounds(p, p.ToIndex, n)
		}
		moved := target.Children[p.FromIndex]
		rest := append(target.Children[:p.FromIndex], target.Children[p.FromIndex+1:]...)
		rest = append(rest, nil)
		copy(rest[p.ToIndex+1:], rest[p.ToIndex:])
		rest[p.ToIndex] = moved
		target.Children = rest

	default:
		return nil, &InternalConsistencyError{Op: p.Op, Path: p.Path, Reason: "unknown patch op"}
	}

	return root, nil
}

// applyAttrs applies an attribute delta deterministically: removals
// first, then added and changed keys. The delta's key sets are disjoint
// by construction, so map iteration here cannot race with ordering.
func applyAttrs(target *VNode, changes *AttrChanges) {
	if changes.IsEmpty() {
		return
	}
	for _, key := range changes.Removed {
		delete(target.Attrs, key)
	}
	if target.Attrs == nil && (len(changes.Added) > 0 || len(changes.Changed) > 0) {
		target.Attrs = make(map[string]string, len(changes.Added)+len(changes.Changed))
	}
	for key, val := range changes.Added {
		target.Attrs[key] = val
	}
	for key, val := range changes.Changed {
		target.Attrs[key] = val
	}
}

// resolve walks a child-index path from the root.
func resolve(root *VNode, path []int, p *Patch) (*VNode, error) {
	node := root
	for depth, idx := range path {
		if node == nil {
			return nil, &InternalConsistencyError{Op: p.Op, Path: p.Path, Reason: "path through nil node"}
		}
		if idx < 0 || idx >= len(node.Children) {
			return nil, &InternalConsistencyError{
				Op:     p.Op,
				Path:   p.Path[:depth+1],
				Index:  idx,
				Reason: "path index out of bounds",
			}
		}
		node = node.Children[idx]
	}
	if node == nil {
		return nil, &InternalConsistencyError{Op: p.Op, Path: p.Path, Reason: "path resolves to nil node"}
	}
	return node, nil
}

func outOfBounds(p *Patch, idx, n int) error {
	return &InternalConsistencyError{
		Op:     p.Op,
		Path:   p.Path,
		Index:  idx,
		Reason: fmt.Sprintf("child index out of bounds for %d children", n),
	}
}

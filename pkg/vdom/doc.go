// Package vdom implements weft's virtual tree core: the immutable node
// model, the differ, and the patch applier.
//
// # Core Types
//
// VNode is the immutable description of one element or text leaf. Trees
// are built with the El/Text helpers and never mutated after
// construction; an update is a brand-new tree.
//
// # Diffing
//
// Diff compares two trees and produces an ordered []Patch. Keyed
// children match by key regardless of position (producing MoveChild
// patches), unkeyed children match positionally, and a kind, tag or key
// mismatch replaces the whole subtree without descending into it.
// Matching is a single pass over each child list using a key→index map.
//
// # Applying
//
// Tree is the mutable target handle. Tree.Apply consumes a patch
// sequence strictly in order; path and index fields address the live
// tree as earlier patches leave it. Application is transactional: a
// patch referencing a missing index aborts the sequence with an
// InternalConsistencyError and leaves the tree untouched.
package vdom

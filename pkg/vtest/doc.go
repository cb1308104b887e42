// Package vtest provides testing helpers for weft trees.
//
// Generator produces pseudo-random trees and tree mutations from a
// fixed seed, which keeps property-style tests (diff/apply round trips)
// reproducible. Assertions compare trees structurally and print a
// compact rendering on failure.
//
//	gen := vtest.NewGenerator(42)
//	a := gen.Tree()
//	b := gen.Mutate(a)
//	patches, err := vdom.Diff(a, b)
package vtest

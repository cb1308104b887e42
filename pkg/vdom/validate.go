package vdom

// DefaultMaxDepth is the depth guard applied by Validate. Recursion
// depth during diffing equals tree depth, so trees nested beyond this
// are rejected up front instead of risking stack exhaustion.
const DefaultMaxDepth = 4096

// Validate checks a tree for structural problems before it is diffed:
// cyclic child references and nesting beyond maxDepth. A nil root is
// valid (the empty tree). maxDepth <= 0 selects DefaultMaxDepth.
func Validate(root *VNode, maxDepth int) error {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	seen := make(map[*VNode]struct{})
	return validate(root, nil, 0, maxDepth, seen)
}

func validate(node *VNode, path []int, depth, maxDepth int, seen map[*VNode]struct{}) error {
	if node == nil {
		return nil
	}
	if depth > maxDepth {
		return &StructuralError{
			Reason: "tree exceeds maximum depth",
			Path:   clonePath(path),
		}
	}
	if _, ok := seen[node]; ok {
		return &StructuralError{
			Reason: "cyclic child reference",
			Path:   clonePath(path),
		}
	}
	if node.Kind == KindText && len(node.Children) > 0 {
		return &StructuralError{
			Reason: "text node with children",
			Path:   clonePath(path),
		}
	}

	seen[node] = struct{}{}
	for i, child := range node.Children {
		if err := validate(child, append(path, i), depth+1, maxDepth, seen); err != nil {
			return err
		}
	}
	// A node may legitimately appear twice in different branches as long
	// as it is not its own ancestor, so unmark on the way out.
	delete(seen, node)

	return nil
}

func clonePath(path []int) []int {
	if len(path) == 0 {
		return nil
	}
	out := make([]int, len(path))
	copy(out, path)
	return out
}

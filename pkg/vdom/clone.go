package vdom

// Clone returns a deep copy of the tree. The applier clones incoming
// nodes so the live tree never aliases caller-owned (immutable) values.
func Clone(node *VNode) *VNode {
	if node == nil {
		return nil
	}
	out := &VNode{
		Kind: node.Kind,
		Tag:  node.Tag,
		Key:  node.Key,
		Text: node.Text,
	}
	if len(node.Attrs) > 0 {
		out.Attrs = make(map[string]string, len(node.Attrs))
		for k, v := range node.Attrs {
			out.Attrs[k] = v
		}
	}
	if len(node.Children) > 0 {
		out.Children = make([]*VNode, len(node.Children))
		for i, child := range node.Children {
			out.Children[i] = Clone(child)
		}
	}
	return out
}

// Equal reports structural equality of two trees: same kinds, tags,
// keys, text, attributes and child sequences.
func Equal(a, b *VNode) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind != b.Kind || a.Tag != b.Tag || a.Key != b.Key || a.Text != b.Text {
		return false
	}
	if len(a.Attrs) != len(b.Attrs) {
		return false
	}
	for k, v := range a.Attrs {
		if bv, ok := b.Attrs[k]; !ok || bv != v {
			return false
		}
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

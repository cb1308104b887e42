package vdom

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement VKind = iota // <div>, <li>, etc.
	KindText                 // Plain text leaf
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// VNode is one node of a virtual tree. A VNode is immutable once
// constructed: updates build new VNode values and are reconciled against
// the previous tree by Diff. The only code that mutates nodes in place is
// the Tree applier, and it works on its own private copies.
type VNode struct {
	Kind     VKind             // Node type
	Tag      string            // Element tag name (e.g., "div")
	Attrs    map[string]string // Element attributes
	Children []*VNode          // Ordered child nodes
	Key      string            // Reconciliation key, "" if absent
	Text     string            // For KindText
}

// IsText returns true for text leaves.
func (v *VNode) IsText() bool {
	return v != nil && v.Kind == KindText
}

// IsElement returns true for element nodes.
func (v *VNode) IsElement() bool {
	return v != nil && v.Kind == KindElement
}

// Attr represents a single attribute passed to element builders.
type Attr struct {
	Key   string
	Value string
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

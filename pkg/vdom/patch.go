package vdom

// PatchOp is the type of patch operation.
type PatchOp uint8

const (
	OpReplace     PatchOp = 0x01 // Replace the node at Path with Node
	OpUpdateText  PatchOp = 0x02 // Set the text value of the node at Path
	OpUpdateAttrs PatchOp = 0x03 // Apply attribute changes to the element at Path
	OpInsertChild PatchOp = 0x04 // Insert Node at Index under the element at Path
	OpRemoveChild PatchOp = 0x05 // Remove the child at Index under the element at Path
	OpMoveChild   PatchOp = 0x06 // Move a child of the element at Path from FromIndex to ToIndex
)

// String returns the string representation of the PatchOp.
func (op PatchOp) String() string {
	switch op {
	case OpReplace:
		return "Replace"
	case OpUpdateText:
		return "UpdateText"
	case OpUpdateAttrs:
		return "UpdateAttrs"
	case OpInsertChild:
		return "InsertChild"
	case OpRemoveChild:
		return "RemoveChild"
	case OpMoveChild:
		return "MoveChild"
	default:
		return "Unknown"
	}
}

// AttrChanges is the attribute delta carried by an UpdateAttrs patch.
// Application order is deterministic: removals first (sorted), then
// added and changed keys (sorted).
type AttrChanges struct {
	Added   map[string]string
	Changed map[string]string
	Removed []string
}

// IsEmpty returns true if the delta contains no changes.
func (c *AttrChanges) IsEmpty() bool {
	return c == nil || (len(c.Added) == 0 && len(c.Changed) == 0 && len(c.Removed) == 0)
}

// Patch is one atomic edit transforming the live tree toward the target
// tree. Patches are ordered: Path and child indices refer to the live
// tree state at application time, assuming all earlier patches in the
// sequence have already been applied.
type Patch struct {
	Op   PatchOp
	Path []int // Child-index path from the root to the target node

	Node      *VNode       // Replace, InsertChild
	Text      string       // UpdateText
	Attrs     *AttrChanges // UpdateAttrs
	Index     int          // InsertChild, RemoveChild
	FromIndex int          // MoveChild
	ToIndex   int          // MoveChild: final index after the splice
}

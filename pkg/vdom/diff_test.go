package vdom

import (
	"errors"
	"testing"
)

func TestDiffIdenticalTrees(t *testing.T) {
	tree := El("div", Class("card"),
		El("ul",
			El("li", Key("a"), "alpha"),
			El("li", Key("b"), "beta"),
		),
	)

	patches, err := Diff(tree, Clone(tree))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patches) != 0 {
		t.Errorf("expected 0 patches for identical trees, got %d", len(patches))
	}
}

func TestDiffBothNil(t *testing.T) {
	patches, err := Diff(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patches) != 0 {
		t.Errorf("expected 0 patches, got %d", len(patches))
	}
}

func TestDiffTextChange(t *testing.T) {
	prev := Text("Hello")
	next := Text("World")

	patches, err := Diff(prev, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patches) != 1 {
		t.Fatalf("expected 1 patch, got %d", len(patches))
	}
	if patches[0].Op != OpUpdateText {
		t.Errorf("Op = %v, want UpdateText", patches[0].Op)
	}
	if patches[0].Text != "World" {
		t.Errorf("Text = %q, want World", patches[0].Text)
	}
}

func TestDiffTagChangeReplacesSubtree(t *testing.T) {
	prev := El("div", El("p", "deep"), El("p", "tree"))
	next := El("span")

	patches, err := Diff(prev, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patches) != 1 {
		t.Fatalf("expected single Replace, got %d patches", len(patches))
	}
	if patches[0].Op != OpReplace {
		t.Errorf("Op = %v, want Replace", patches[0].Op)
	}
	if patches[0].Node != next {
		t.Errorf("Replace should carry the new node")
	}
	if len(patches[0].Path) != 0 {
		t.Errorf("Path = %v, want root", patches[0].Path)
	}
}

func TestDiffKindChangeReplaces(t *testing.T) {
	prev := Text("Hello")
	next := El("div", "Hello")

	patches, err := Diff(prev, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patches) != 1 || patches[0].Op != OpReplace {
		t.Fatalf("expected single Replace, got %v", patches)
	}
}

func TestDiffKeyChangeReplaces(t *testing.T) {
	// Same tag, different identity. Matching in place would leave the
	// applied tree without the new key.
	prev := El("div", Key("k1"), El("p", "body"))
	next := El("div", Key("k2"), El("p", "body"))

	patches, err := Diff(prev, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patches) != 1 || patches[0].Op != OpReplace {
		t.Fatalf("expected single Replace, got %v", patches)
	}
	if len(patches[0].Path) != 0 {
		t.Errorf("Path = %v, want root", patches[0].Path)
	}

	tree := NewTree(prev)
	if err := tree.Apply(patches); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !Equal(tree.Root(), next) {
		t.Errorf("applied tree lost the key change")
	}
}

func TestDiffKeyAddedAtRootReplaces(t *testing.T) {
	prev := El("div", "body")
	next := El("div", Key("k"), "body")

	patches, err := Diff(prev, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patches) != 1 || patches[0].Op != OpReplace {
		t.Fatalf("expected single Replace, got %v", patches)
	}
}

func TestDiffKeyedTextChangeReplaces(t *testing.T) {
	prev := &VNode{Kind: KindText, Text: "a", Key: "t1"}
	next := &VNode{Kind: KindText, Text: "b", Key: "t2"}

	patches, err := Diff(prev, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// UpdateText would drop the key change; identity change replaces.
	if len(patches) != 1 || patches[0].Op != OpReplace {
		t.Fatalf("expected single Replace, got %v", patches)
	}

	tree := NewTree(prev)
	if err := tree.Apply(patches); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !Equal(tree.Root(), next) {
		t.Errorf("applied tree = %+v, want %+v", tree.Root(), next)
	}
}

func TestDiffAttributeDelta(t *testing.T) {
	prev := El("div", A("class", "old"), A("title", "keep"), A("id", "x"))
	next := El("div", A("class", "new"), A("title", "keep"), A("data-role", "nav"))

	patches, err := Diff(prev, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patches) != 1 {
		t.Fatalf("expected 1 patch, got %d", len(patches))
	}
	p := patches[0]
	if p.Op != OpUpdateAttrs {
		t.Fatalf("Op = %v, want UpdateAttrs", p.Op)
	}
	if got := p.Attrs.Changed["class"]; got != "new" {
		t.Errorf("Changed[class] = %q, want new", got)
	}
	if got := p.Attrs.Added["data-role"]; got != "nav" {
		t.Errorf("Added[data-role] = %q, want nav", got)
	}
	if len(p.Attrs.Removed) != 1 || p.Attrs.Removed[0] != "id" {
		t.Errorf("Removed = %v, want [id]", p.Attrs.Removed)
	}
	if _, ok := p.Attrs.Changed["title"]; ok {
		t.Errorf("unchanged attribute should not appear in delta")
	}
}

func TestDiffChildTextChange(t *testing.T) {
	prev := El("ul", Text("a"), Text("b"))
	next := El("ul", Text("a"), Text("c"))

	patches, err := Diff(prev, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patches) != 1 {
		t.Fatalf("expected 1 patch, got %d", len(patches))
	}
	p := patches[0]
	if p.Op != OpUpdateText || p.Text != "c" {
		t.Errorf("patch = %+v, want UpdateText c", p)
	}
	if len(p.Path) != 1 || p.Path[0] != 1 {
		t.Errorf("Path = %v, want [1]", p.Path)
	}
}

func TestDiffSingleLeafChangeInLargeTree(t *testing.T) {
	build := func(leaf string) *VNode {
		return El("div",
			El("section",
				El("ul",
					El("li", "one"),
					El("li", "two"),
					El("li", Text(leaf)),
				),
			),
			El("section", El("p", "stable")),
		)
	}

	patches, err := Diff(build("x"), build("y"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patches) != 1 {
		t.Fatalf("expected exactly 1 patch regardless of tree size, got %d", len(patches))
	}
	if patches[0].Op != OpUpdateText || patches[0].Text != "y" {
		t.Errorf("patch = %+v, want UpdateText y", patches[0])
	}
}

func TestDiffKeyedSwapYieldsSingleMove(t *testing.T) {
	prev := El("ul",
		El("li", Key(1), "A"),
		El("li", Key(2), "B"),
	)
	next := El("ul",
		El("li", Key(2), "B"),
		El("li", Key(1), "A"),
	)

	patches, err := Diff(prev, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patches) != 1 {
		t.Fatalf("expected 1 patch, got %d: %+v", len(patches), patches)
	}
	p := patches[0]
	if p.Op != OpMoveChild {
		t.Fatalf("Op = %v, want MoveChild", p.Op)
	}
	if p.FromIndex != 1 || p.ToIndex != 0 {
		t.Errorf("move = %d->%d, want 1->0", p.FromIndex, p.ToIndex)
	}
}

func TestDiffKeyedReorderOnlyMoves(t *testing.T) {
	item := func(k string) *VNode { return El("li", A("key", k), Text(k)) }
	prev := El("ul", item("a"), item("b"), item("c"), item("d"))
	next := El("ul", item("d"), item("b"), item("a"), item("c"))

	patches, err := Diff(prev, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patches) == 0 {
		t.Fatal("expected move patches")
	}
	for _, p := range patches {
		if p.Op != OpMoveChild {
			t.Errorf("reorder of identical keyed items emitted %v, want only MoveChild", p.Op)
		}
	}
}

func TestDiffKeyedInsertAndRemove(t *testing.T) {
	item := func(k string) *VNode { return El("li", A("key", k), Text(k)) }
	prev := El("ul", item("a"), item("b"), item("c"))
	next := El("ul", item("a"), item("x"), item("c"))

	patches, err := Diff(prev, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var removes, inserts int
	for _, p := range patches {
		switch p.Op {
		case OpRemoveChild:
			removes++
			if p.Index != 1 {
				t.Errorf("RemoveChild index = %d, want 1", p.Index)
			}
		case OpInsertChild:
			inserts++
			if p.Index != 1 {
				t.Errorf("InsertChild index = %d, want 1", p.Index)
			}
		default:
			t.Errorf("unexpected op %v", p.Op)
		}
	}
	if removes != 1 || inserts != 1 {
		t.Errorf("removes=%d inserts=%d, want 1 and 1", removes, inserts)
	}
}

func TestDiffUnkeyedGrowAndShrink(t *testing.T) {
	prev := El("ul", Text("a"), Text("b"))
	next := El("ul", Text("a"), Text("b"), Text("c"), Text("d"))

	patches, err := Diff(prev, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patches) != 2 {
		t.Fatalf("expected 2 inserts, got %+v", patches)
	}
	for i, p := range patches {
		if p.Op != OpInsertChild || p.Index != i+2 {
			t.Errorf("patch %d = %+v, want InsertChild at %d", i, p, i+2)
		}
	}

	patches, err = Diff(next, prev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patches) != 2 {
		t.Fatalf("expected 2 removes, got %+v", patches)
	}
	if patches[0].Index != 3 || patches[1].Index != 2 {
		t.Errorf("removals must come highest index first, got %+v", patches)
	}
}

func TestDiffDuplicateKeysFallBackToReplace(t *testing.T) {
	prev := El("ul",
		El("li", A("key", "dup"), "one"),
		El("li", A("key", "dup"), "two"),
	)
	next := El("ul", El("li", A("key", "dup"), "one"))

	patches, err := Diff(prev, next)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("err = %v, want DuplicateKeyError", err)
	}
	var dup *DuplicateKeyError
	if !errors.As(err, &dup) || dup.Key != "dup" {
		t.Errorf("error detail = %+v, want key dup", dup)
	}

	// The fallback patches must still rebuild the subtree.
	if len(patches) != 1 || patches[0].Op != OpReplace {
		t.Fatalf("expected Replace fallback, got %+v", patches)
	}
}

func TestDiffCyclicTreeFails(t *testing.T) {
	cyclic := El("div")
	cyclic.Children = append(cyclic.Children, cyclic)

	_, err := Diff(cyclic, El("div"))
	if !errors.Is(err, ErrStructural) {
		t.Fatalf("err = %v, want StructuralError", err)
	}

	_, err = Diff(El("div"), cyclic)
	if !errors.Is(err, ErrStructural) {
		t.Fatalf("err = %v, want StructuralError for new tree too", err)
	}
}

func TestValidateDepthGuard(t *testing.T) {
	root := El("div")
	node := root
	for i := 0; i < 40; i++ {
		child := El("div")
		node.Children = []*VNode{child}
		node = child
	}

	if err := Validate(root, 0); err != nil {
		t.Fatalf("deep-but-bounded tree should validate: %v", err)
	}
	if err := Validate(root, 10); !errors.Is(err, ErrStructural) {
		t.Fatalf("err = %v, want StructuralError past depth guard", err)
	}
}

func TestDiffNilToTreeIsReplace(t *testing.T) {
	next := El("div", "hello")

	patches, err := Diff(nil, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patches) != 1 || patches[0].Op != OpReplace || len(patches[0].Path) != 0 {
		t.Fatalf("expected root Replace, got %+v", patches)
	}
}

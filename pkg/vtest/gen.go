package vtest

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/weftdom/weft/pkg/vdom"
)

// Element tags used by generated trees.
var genTags = []string{"div", "section", "ul", "li", "span", "p"}

// Attribute keys used by generated trees.
var genAttrKeys = []string{"class", "id", "title", "data-role"}

// Generator produces pseudo-random trees from a fixed seed.
type Generator struct {
	faker *gofakeit.Faker

	// MaxDepth bounds tree depth; MaxChildren bounds fan-out per node.
	MaxDepth    int
	MaxChildren int

	// Keyed makes generated child lists carry reconciliation keys.
	Keyed bool

	keySeq int
}

// NewGenerator creates a Generator with the given seed. The same seed
// always produces the same sequence of trees.
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		faker:       gofakeit.New(seed),
		MaxDepth:    4,
		MaxChildren: 5,
	}
}

// Tree generates a random element tree within the generator's bounds.
func (g *Generator) Tree() *vdom.VNode {
	return g.element(0)
}

func (g *Generator) element(depth int) *vdom.VNode {
	node := &vdom.VNode{
		Kind: vdom.KindElement,
		Tag:  genTags[g.faker.Number(0, len(genTags)-1)],
	}

	for _, key := range genAttrKeys {
		if g.faker.Bool() {
			if node.Attrs == nil {
				node.Attrs = make(map[string]string)
			}
			node.Attrs[key] = g.faker.Word()
		}
	}

	if depth >= g.MaxDepth {
		return node
	}

	n := g.faker.Number(0, g.MaxChildren)
	for i := 0; i < n; i++ {
		node.Children = append(node.Children, g.node(depth+1))
	}
	return node
}

func (g *Generator) node(depth int) *vdom.VNode {
	if g.faker.Bool() {
		return vdom.Text(g.faker.Word())
	}
	child := g.element(depth)
	if g.Keyed {
		g.keySeq++
		child.Key = fmt.Sprintf("k%d", g.keySeq)
	}
	return child
}

// Mutate returns a perturbed deep copy of root: between one and three
// random edits (text change, attribute flip, child insertion or
// removal, child list reversal, key reassignment). The input tree is
// never modified.
func (g *Generator) Mutate(root *vdom.VNode) *vdom.VNode {
	out := vdom.Clone(root)
	edits := g.faker.Number(1, 3)
	for i := 0; i < edits; i++ {
		nodes := collect(out)
		g.edit(nodes[g.faker.Number(0, len(nodes)-1)])
	}
	return out
}

func (g *Generator) edit(node *vdom.VNode) {
	if node.Kind == vdom.KindText {
		node.Text = g.faker.Word()
		return
	}

	switch g.faker.Number(0, 4) {
	case 0: // flip an attribute
		key := genAttrKeys[g.faker.Number(0, len(genAttrKeys)-1)]
		if node.Attrs == nil {
			node.Attrs = make(map[string]string)
		}
		if _, ok := node.Attrs[key]; ok && g.faker.Bool() {
			delete(node.Attrs, key)
		} else {
			node.Attrs[key] = g.faker.Word()
		}
	case 1: // append a child
		node.Children = append(node.Children, g.node(g.MaxDepth))
	case 2: // drop the last child
		if n := len(node.Children); n > 0 {
			node.Children = node.Children[:n-1]
		}
	case 3: // reverse the children
		for i, j := 0, len(node.Children)-1; i < j; i, j = i+1, j-1 {
			node.Children[i], node.Children[j] = node.Children[j], node.Children[i]
		}
	case 4: // reassign the node's key; fresh keys never collide
		g.keySeq++
		node.Key = fmt.Sprintf("k%d", g.keySeq)
	}
}

// collect gathers every node in the tree, root first.
func collect(root *vdom.VNode) []*vdom.VNode {
	nodes := []*vdom.VNode{root}
	for _, child := range root.Children {
		nodes = append(nodes, collect(child)...)
	}
	return nodes
}

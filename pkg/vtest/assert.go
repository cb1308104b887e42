package vtest

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/weftdom/weft/pkg/vdom"
)

// RequireEqual fails the test if the two trees are not structurally
// equal, printing both renderings.
func RequireEqual(t testing.TB, want, got *vdom.VNode) {
	t.Helper()
	if !vdom.Equal(want, got) {
		t.Fatalf("trees differ\nwant: %s\ngot:  %s", Dump(want), Dump(got))
	}
}

// Dump renders a tree as a compact one-line s-expression, attributes in
// sorted order. Useful in failure messages.
func Dump(node *vdom.VNode) string {
	if node == nil {
		return "nil"
	}
	if node.Kind == vdom.KindText {
		return fmt.Sprintf("%q", node.Text)
	}

	var b strings.Builder
	b.WriteString("(")
	b.WriteString(node.Tag)
	if node.Key != "" {
		fmt.Fprintf(&b, " key=%s", node.Key)
	}
	keys := make([]string, 0, len(node.Attrs))
	for k := range node.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%q", k, node.Attrs[k])
	}
	for _, child := range node.Children {
		b.WriteString(" ")
		b.WriteString(Dump(child))
	}
	b.WriteString(")")
	return b.String()
}

package vdom

import "fmt"

// Text creates a text node.
func Text(content string) *VNode {
	return &VNode{
		Kind: KindText,
		Text: content,
	}
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *VNode {
	return Text(fmt.Sprintf(format, args...))
}

// El creates an element node with the given tag and arguments.
// Arguments can be: nil, Attr, []Attr, *VNode, []*VNode, or string
// (shorthand for a text child). Nil arguments are skipped so builders
// compose with conditional helpers.
func El(tag string, args ...any) *VNode {
	node := &VNode{
		Kind:     KindElement,
		Tag:      tag,
		Children: make([]*VNode, 0, len(args)),
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case Attr:
			node.setAttr(v)
		case []Attr:
			for _, a := range v {
				node.setAttr(a)
			}
		case *VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}
		case []*VNode:
			for _, c := range v {
				if c != nil {
					node.Children = append(node.Children, c)
				}
			}
		case string:
			node.Children = append(node.Children, Text(v))
		default:
			panic(fmt.Sprintf("vdom: El(%q): unsupported argument type %T", tag, arg))
		}
	}

	return node
}

func (v *VNode) setAttr(a Attr) {
	if a.Key == "" {
		return
	}
	if a.Key == "key" {
		v.Key = a.Value
		return
	}
	if v.Attrs == nil {
		v.Attrs = make(map[string]string)
	}
	v.Attrs[a.Key] = a.Value
}

// A creates a single attribute.
func A(key, value string) Attr {
	return Attr{Key: key, Value: value}
}

// Key creates a reconciliation key attribute. Keyed siblings are matched
// by key regardless of position, enabling moves instead of rebuilds.
func Key(key any) Attr {
	return Attr{Key: "key", Value: fmt.Sprintf("%v", key)}
}

// Class creates a class attribute.
func Class(value string) Attr {
	return Attr{Key: "class", Value: value}
}

// ID creates an id attribute.
func ID(value string) Attr {
	return Attr{Key: "id", Value: value}
}

// If returns the node if condition is true, nil otherwise.
func If(condition bool, node *VNode) *VNode {
	if condition {
		return node
	}
	return nil
}

// Range maps a slice to VNodes. Nil results are dropped.
func Range[T any](items []T, fn func(item T, index int) *VNode) []*VNode {
	result := make([]*VNode, 0, len(items))
	for i, item := range items {
		if node := fn(item, i); node != nil {
			result = append(result, node)
		}
	}
	return result
}

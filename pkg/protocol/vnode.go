package protocol

import (
	"fmt"
	"sort"

	"github.com/weftdom/weft/pkg/vdom"
)

// nullMarker encodes a nil node.
const nullMarker = 0xFF

// EncodeVNode encodes a tree using the provided encoder. Attributes are
// written in sorted key order so the same tree always encodes to the
// same bytes.
func EncodeVNode(e *Encoder, node *vdom.VNode) {
	if node == nil {
		e.WriteByte(nullMarker)
		return
	}

	e.WriteByte(byte(node.Kind))

	switch node.Kind {
	case vdom.KindElement:
		e.WriteString(node.Tag)
		e.WriteString(node.Key)

		e.WriteUvarint(uint64(len(node.Attrs)))
		for _, k := range sortedKeys(node.Attrs) {
			e.WriteString(k)
			e.WriteString(node.Attrs[k])
		}

		e.WriteUvarint(uint64(len(node.Children)))
		for _, child := range node.Children {
			EncodeVNode(e, child)
		}

	case vdom.KindText:
		e.WriteString(node.Text)
	}
}

// DecodeVNode decodes a tree, enforcing MaxNodeDepth.
func DecodeVNode(d *Decoder) (*vdom.VNode, error) {
	return decodeVNode(d, 0)
}

func decodeVNode(d *Decoder, depth int) (*vdom.VNode, error) {
	if depth > MaxNodeDepth {
		return nil, ErrMaxDepthExceeded
	}

	kindByte, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	if kindByte == nullMarker {
		return nil, nil
	}

	node := &vdom.VNode{Kind: vdom.VKind(kindByte)}

	switch node.Kind {
	case vdom.KindElement:
		if node.Tag, err = d.ReadString(); err != nil {
			return nil, err
		}
		if node.Key, err = d.ReadString(); err != nil {
			return nil, err
		}

		attrCount, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		if attrCount > 0 {
			node.Attrs = make(map[string]string, attrCount)
			for i := 0; i < attrCount; i++ {
				key, err := d.ReadString()
				if err != nil {
					return nil, err
				}
				value, err := d.ReadString()
				if err != nil {
					return nil, err
				}
				node.Attrs[key] = value
			}
		}

		childCount, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		if childCount > 0 {
			node.Children = make([]*vdom.VNode, childCount)
			for i := 0; i < childCount; i++ {
				child, err := decodeVNode(d, depth+1)
				if err != nil {
					return nil, err
				}
				node.Children[i] = child
			}
		}

	case vdom.KindText:
		if node.Text, err = d.ReadString(); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("protocol: unknown node kind 0x%02x", kindByte)
	}

	return node, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

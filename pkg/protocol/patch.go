package protocol

import (
	"fmt"

	"github.com/weftdom/weft/pkg/vdom"
)

// PatchesFrame is one commit's patch sequence with its sequence number.
// Renderers apply frames in sequence order; a gap means missed frames
// and triggers a resync.
type PatchesFrame struct {
	Seq     uint64
	Patches []vdom.Patch
}

// EncodePatches encodes a PatchesFrame payload.
func EncodePatches(pf *PatchesFrame) []byte {
	e := NewEncoder()
	e.WriteUint64(pf.Seq)
	e.WriteUvarint(uint64(len(pf.Patches)))
	for i := range pf.Patches {
		encodePatch(e, &pf.Patches[i])
	}
	return e.Bytes()
}

// DecodePatches decodes a PatchesFrame payload.
func DecodePatches(payload []byte) (*PatchesFrame, error) {
	d := NewDecoder(payload)

	seq, err := d.ReadUint64()
	if err != nil {
		return nil, err
	}

	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}

	pf := &PatchesFrame{Seq: seq, Patches: make([]vdom.Patch, count)}
	for i := 0; i < count; i++ {
		if err := decodePatch(d, &pf.Patches[i]); err != nil {
			return nil, err
		}
	}
	if !d.EOF() {
		return nil, ErrTrailingData
	}
	return pf, nil
}

func encodePatch(e *Encoder, p *vdom.Patch) {
	e.WriteByte(byte(p.Op))

	e.WriteUvarint(uint64(len(p.Path)))
	for _, idx := range p.Path {
		e.WriteUvarint(uint64(idx))
	}

	switch p.Op {
	case vdom.OpReplace:
		EncodeVNode(e, p.Node)

	case vdom.OpUpdateText:
		e.WriteString(p.Text)

	case vdom.OpUpdateAttrs:
		writeAttrMap(e, p.Attrs.Added)
		writeAttrMap(e, p.Attrs.Changed)
		e.WriteUvarint(uint64(len(p.Attrs.Removed)))
		for _, k := range p.Attrs.Removed {
			e.WriteString(k)
		}

	case vdom.OpInsertChild:
		e.WriteUvarint(uint64(p.Index))
		EncodeVNode(e, p.Node)

	case vdom.OpRemoveChild:
		e.WriteUvarint(uint64(p.Index))

	case vdom.OpMoveChild:
		e.WriteUvarint(uint64(p.FromIndex))
		e.WriteUvarint(uint64(p.ToIndex))
	}
}

func writeAttrMap(e *Encoder, m map[string]string) {
	e.WriteUvarint(uint64(len(m)))
	for _, k := range sortedKeys(m) {
		e.WriteString(k)
		e.WriteString(m[k])
	}
}

func decodePatch(d *Decoder, p *vdom.Patch) error {
	opByte, err := d.ReadByte()
	if err != nil {
		return err
	}
	p.Op = vdom.PatchOp(opByte)

	pathLen, err := d.ReadCollectionCount()
	if err != nil {
		return err
	}
	if pathLen > 0 {
		p.Path = make([]int, pathLen)
		for i := 0; i < pathLen; i++ {
			idx, err := d.ReadUvarint()
			if err != nil {
				return err
			}
			p.Path[i] = int(idx)
		}
	}

	switch p.Op {
	case vdom.OpReplace:
		if p.Node, err = DecodeVNode(d); err != nil {
			return err
		}

	case vdom.OpUpdateText:
		if p.Text, err = d.ReadString(); err != nil {
			return err
		}

	case vdom.OpUpdateAttrs:
		p.Attrs = &vdom.AttrChanges{}
		if p.Attrs.Added, err = readAttrMap(d); err != nil {
			return err
		}
		if p.Attrs.Changed, err = readAttrMap(d); err != nil {
			return err
		}
		n, err := d.ReadCollectionCount()
		if err != nil {
			return err
		}
		if n > 0 {
			p.Attrs.Removed = make([]string, n)
			for i := 0; i < n; i++ {
				if p.Attrs.Removed[i], err = d.ReadString(); err != nil {
					return err
				}
			}
		}

	case vdom.OpInsertChild:
		idx, err := d.ReadUvarint()
		if err != nil {
			return err
		}
		p.Index = int(idx)
		if p.Node, err = DecodeVNode(d); err != nil {
			return err
		}

	case vdom.OpRemoveChild:
		idx, err := d.ReadUvarint()
		if err != nil {
			return err
		}
		p.Index = int(idx)

	case vdom.OpMoveChild:
		from, err := d.ReadUvarint()
		if err != nil {
			return err
		}
		to, err := d.ReadUvarint()
		if err != nil {
			return err
		}
		p.FromIndex = int(from)
		p.ToIndex = int(to)

	default:
		return fmt.Errorf("protocol: unknown patch op 0x%02x", opByte)
	}

	return nil
}

func readAttrMap(d *Decoder) (map[string]string, error) {
	n, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	m := make(map[string]string, n)
	for i := 0; i < n; i++ {
		k, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

package protocol

import (
	"errors"
	"io"

	"github.com/weftdom/weft/pkg/vdom"
)

// FrameHeaderSize is the size of the frame header in bytes.
const FrameHeaderSize = 6

// MaxPayloadSize caps a single frame payload.
const MaxPayloadSize = MaxAllocation

// FrameType identifies the type of frame.
type FrameType uint8

const (
	FrameHello   FrameType = 0x00 // Server → renderer: baseline tree
	FrameSubmit  FrameType = 0x01 // Caller → server: new target tree
	FramePatches FrameType = 0x02 // Server → renderer: commit patches
	FrameControl FrameType = 0x03 // Ping/pong, resync
	FrameError   FrameType = 0x04 // Error report
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameHello:
		return "Hello"
	case FrameSubmit:
		return "Submit"
	case FramePatches:
		return "Patches"
	case FrameControl:
		return "Control"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// FrameFlags are optional flags for frame processing.
type FrameFlags uint8

const (
	FlagResync FrameFlags = 0x01 // Frame was replayed from history
)

// Has returns true if the flags contain the specified flag.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

// Frame is a typed payload with a 6-byte header (type, flags, 4-byte
// big-endian payload length).
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// NewFrame creates a frame.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode encodes the frame to bytes including the header.
func (f *Frame) Encode() []byte {
	length := len(f.Payload)
	buf := make([]byte, FrameHeaderSize+length)
	buf[0] = byte(f.Type)
	buf[1] = byte(f.Flags)
	buf[2] = byte(length >> 24)
	buf[3] = byte(length >> 16)
	buf[4] = byte(length >> 8)
	buf[5] = byte(length)
	copy(buf[FrameHeaderSize:], f.Payload)
	return buf
}

// DecodeFrame decodes a frame. The input must contain the full header
// and payload; trailing bytes are rejected.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, io.ErrUnexpectedEOF
	}

	ft := FrameType(data[0])
	if ft > FrameError {
		return nil, ErrInvalidFrameType
	}

	length := int(data[2])<<24 | int(data[3])<<16 | int(data[4])<<8 | int(data[5])
	if length > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	if len(data) != FrameHeaderSize+length {
		if len(data) < FrameHeaderSize+length {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, ErrTrailingData
	}

	return &Frame{
		Type:    ft,
		Flags:   FrameFlags(data[1]),
		Payload: data[FrameHeaderSize : FrameHeaderSize+length],
	}, nil
}

// HelloFrame is the first frame a renderer receives: the committed tree
// and the last patch sequence number, so the renderer starts from the
// current baseline.
type HelloFrame struct {
	Seq  uint64
	Root *vdom.VNode
}

// EncodeHello encodes a HelloFrame payload.
func EncodeHello(h *HelloFrame) []byte {
	e := NewEncoder()
	e.WriteUint64(h.Seq)
	EncodeVNode(e, h.Root)
	return e.Bytes()
}

// DecodeHello decodes a HelloFrame payload.
func DecodeHello(payload []byte) (*HelloFrame, error) {
	d := NewDecoder(payload)
	seq, err := d.ReadUint64()
	if err != nil {
		return nil, err
	}
	root, err := DecodeVNode(d)
	if err != nil {
		return nil, err
	}
	if !d.EOF() {
		return nil, ErrTrailingData
	}
	return &HelloFrame{Seq: seq, Root: root}, nil
}

// SubmitFrame carries a new target tree from a caller.
type SubmitFrame struct {
	Root *vdom.VNode
}

// EncodeSubmit encodes a SubmitFrame payload.
func EncodeSubmit(s *SubmitFrame) []byte {
	e := NewEncoder()
	EncodeVNode(e, s.Root)
	return e.Bytes()
}

// DecodeSubmit decodes a SubmitFrame payload.
func DecodeSubmit(payload []byte) (*SubmitFrame, error) {
	d := NewDecoder(payload)
	root, err := DecodeVNode(d)
	if err != nil {
		return nil, err
	}
	if !d.EOF() {
		return nil, ErrTrailingData
	}
	return &SubmitFrame{Root: root}, nil
}

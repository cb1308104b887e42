package protocol

import "fmt"

// ControlType identifies a control message inside a FrameControl.
type ControlType uint8

const (
	ControlPing   ControlType = 0x01 // Liveness probe, carries a timestamp
	ControlPong   ControlType = 0x02 // Ping response, echoes the timestamp
	ControlResync ControlType = 0x03 // Renderer asks for frames after a sequence
)

// String returns the string representation of the control type.
func (ct ControlType) String() string {
	switch ct {
	case ControlPing:
		return "Ping"
	case ControlPong:
		return "Pong"
	case ControlResync:
		return "Resync"
	default:
		return "Unknown"
	}
}

// Control is a decoded control message. Value is the ping/pong
// timestamp or the resync's last received sequence.
type Control struct {
	Type  ControlType
	Value uint64
}

// EncodeControl encodes a control payload.
func EncodeControl(c *Control) []byte {
	e := NewEncoder()
	e.WriteByte(byte(c.Type))
	e.WriteUint64(c.Value)
	return e.Bytes()
}

// DecodeControl decodes a control payload.
func DecodeControl(payload []byte) (*Control, error) {
	d := NewDecoder(payload)
	t, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	ct := ControlType(t)
	if ct < ControlPing || ct > ControlResync {
		return nil, fmt.Errorf("protocol: unknown control type 0x%02x", t)
	}
	v, err := d.ReadUint64()
	if err != nil {
		return nil, err
	}
	return &Control{Type: ct, Value: v}, nil
}

// ErrorCode classifies error frames.
type ErrorCode uint16

const (
	ErrCodeInvalidFrame ErrorCode = 1 // Malformed frame or payload
	ErrCodeInvalidTree  ErrorCode = 2 // Submitted tree failed validation
	ErrCodeDuplicateKey ErrorCode = 3 // Duplicate sibling keys in submission
	ErrCodeResyncTooOld ErrorCode = 4 // Requested sequence fell out of history
	ErrCodeInternal     ErrorCode = 5 // Server-side failure
	ErrCodeRateLimited  ErrorCode = 6 // Submission rejected by backpressure
)

// ErrorFrame reports a failure to the peer.
type ErrorFrame struct {
	Code    ErrorCode
	Message string
}

// EncodeError encodes an error payload.
func EncodeError(ef *ErrorFrame) []byte {
	e := NewEncoder()
	e.WriteUvarint(uint64(ef.Code))
	e.WriteString(ef.Message)
	return e.Bytes()
}

// DecodeError decodes an error payload.
func DecodeError(payload []byte) (*ErrorFrame, error) {
	d := NewDecoder(payload)
	code, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	msg, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	return &ErrorFrame{Code: ErrorCode(code), Message: msg}, nil
}

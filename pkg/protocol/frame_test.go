package protocol

import (
	"errors"
	"io"
	"testing"

	"github.com/weftdom/weft/pkg/vdom"
)

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0x04}
	f := NewFrame(FramePatches, payload)
	f.Flags = FlagResync

	decoded, err := DecodeFrame(f.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type != FramePatches {
		t.Errorf("Type = %v, want Patches", decoded.Type)
	}
	if !decoded.Flags.Has(FlagResync) {
		t.Errorf("FlagResync lost in the round trip")
	}
	if string(decoded.Payload) != string(payload) {
		t.Errorf("payload mismatch")
	}
}

func TestFrameEmptyPayload(t *testing.T) {
	f := NewFrame(FrameControl, nil)
	wire := f.Encode()
	if len(wire) != FrameHeaderSize {
		t.Errorf("empty frame = %d bytes, want %d", len(wire), FrameHeaderSize)
	}
	decoded, err := DecodeFrame(wire)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Payload) != 0 {
		t.Errorf("empty payload grew to %d bytes", len(decoded.Payload))
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"truncated header", []byte{0x02, 0x00, 0x00}, io.ErrUnexpectedEOF},
		{"unknown type", []byte{0x09, 0x00, 0x00, 0x00, 0x00, 0x00}, ErrInvalidFrameType},
		{"truncated payload", []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x05, 0xAA}, io.ErrUnexpectedEOF},
		{"trailing bytes", []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01, 0xAA, 0xBB}, ErrTrailingData},
		{"oversized length", []byte{0x02, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}, ErrFrameTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFrame(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHelloRoundTrip(t *testing.T) {
	h := &HelloFrame{
		Seq:  7,
		Root: vdom.El("div", vdom.A("class", "app"), vdom.Text("hi")),
	}

	decoded, err := DecodeHello(EncodeHello(h))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Seq != 7 {
		t.Errorf("Seq = %d, want 7", decoded.Seq)
	}
	if !vdom.Equal(decoded.Root, h.Root) {
		t.Errorf("root tree changed across the round trip")
	}
}

func TestSubmitRoundTrip(t *testing.T) {
	s := &SubmitFrame{Root: vdom.El("ul",
		vdom.El("li", vdom.A("key", "x"), "one"),
		vdom.El("li", vdom.A("key", "y"), "two"),
	)}

	decoded, err := DecodeSubmit(EncodeSubmit(s))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !vdom.Equal(decoded.Root, s.Root) {
		t.Errorf("root tree changed across the round trip")
	}
}

func TestControlRoundTrip(t *testing.T) {
	for _, ct := range []ControlType{ControlPing, ControlPong, ControlResync} {
		c := &Control{Type: ct, Value: 123456789}
		decoded, err := DecodeControl(EncodeControl(c))
		if err != nil {
			t.Fatalf("%v: decode: %v", ct, err)
		}
		if decoded.Type != ct || decoded.Value != 123456789 {
			t.Errorf("%v: got %+v", ct, decoded)
		}
	}
}

func TestControlUnknownType(t *testing.T) {
	payload := EncodeControl(&Control{Type: ControlPing, Value: 1})
	payload[0] = 0x7F
	if _, err := DecodeControl(payload); err == nil {
		t.Fatal("unknown control type must not decode")
	}
}

func TestErrorFrameRoundTrip(t *testing.T) {
	ef := &ErrorFrame{Code: ErrCodeDuplicateKey, Message: "duplicate key \"row-3\""}
	decoded, err := DecodeError(EncodeError(ef))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Code != ErrCodeDuplicateKey || decoded.Message != ef.Message {
		t.Errorf("got %+v, want %+v", decoded, ef)
	}
}

func TestFrameTypeString(t *testing.T) {
	if got := FramePatches.String(); got != "Patches" {
		t.Errorf("String() = %q", got)
	}
	if got := FrameType(0x42).String(); got != "Unknown" {
		t.Errorf("String() = %q for unknown type", got)
	}
}

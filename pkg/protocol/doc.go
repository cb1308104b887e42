// Package protocol implements weft's binary wire format: how submitted
// trees reach the scheduler and how patch sequences reach renderers.
//
// # Design Goals
//
//   - Minimal size: varints and length-prefixed strings, no reflection
//   - Deterministic: attributes are always encoded in sorted key order
//   - Hardened: allocation, collection and depth limits on decode
//   - Resumable: patch frames carry sequence numbers for replay
//
// # Wire Format
//
// All messages are framed with a 6-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (4 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameHello (0x00): server → renderer, baseline tree + sequence
//   - FrameSubmit (0x01): caller → server, a new target tree
//   - FramePatches (0x02): server → renderer, one commit's patches
//   - FrameControl (0x03): ping/pong, resync requests
//   - FrameError (0x04): error reports
package protocol

package server

import "sync"

type historyEntry struct {
	seq   uint64
	frame []byte
}

// PatchHistory is a thread-safe ring buffer of sent patch frames. It
// keeps a sliding window of the most recent commits so a renderer that
// missed frames can be caught up without a full baseline resend. When
// the window is full the oldest frame is overwritten.
type PatchHistory struct {
	mu     sync.RWMutex
	ring   []historyEntry
	head   int // next write position
	count  int
	minSeq uint64
	maxSeq uint64
}

// NewPatchHistory creates a history holding up to capacity frames.
func NewPatchHistory(capacity int) *PatchHistory {
	if capacity <= 0 {
		capacity = 128
	}
	return &PatchHistory{ring: make([]historyEntry, capacity)}
}

// Add records an encoded frame under seq. The bytes are copied; callers
// may reuse their buffer. Sequences must be added in increasing order.
func (h *PatchHistory) Add(seq uint64, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cp := make([]byte, len(frame))
	copy(cp, frame)

	h.ring[h.head] = historyEntry{seq: seq, frame: cp}
	h.head = (h.head + 1) % len(h.ring)
	if h.count < len(h.ring) {
		h.count++
	}

	h.maxSeq = seq
	if h.count == 1 {
		h.minSeq = seq
	} else {
		// Oldest entry sits at head once the ring has wrapped.
		oldest := (h.head - h.count + len(h.ring)) % len(h.ring)
		h.minSeq = h.ring[oldest].seq
	}
}

// After returns the frames for every sequence in (lastSeq, maxSeq], in
// order. A caught-up caller gets an empty non-nil slice; nil means the
// range is not fully covered by the window and the caller must resend a
// full baseline.
func (h *PatchHistory) After(lastSeq uint64) [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if lastSeq == h.maxSeq {
		return [][]byte{}
	}
	if h.count == 0 || lastSeq > h.maxSeq {
		return nil
	}
	if lastSeq+1 < h.minSeq {
		return nil // window has moved past the requested range
	}

	frames := make([][]byte, 0, h.maxSeq-lastSeq)
	for i := 0; i < h.count; i++ {
		idx := (h.head - h.count + i + len(h.ring)) % len(h.ring)
		if h.ring[idx].seq > lastSeq {
			frames = append(frames, h.ring[idx].frame)
		}
	}
	return frames
}

// CanRecover reports whether After(lastSeq) would succeed.
func (h *PatchHistory) CanRecover(lastSeq uint64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count > 0 && lastSeq < h.maxSeq && lastSeq+1 >= h.minSeq
}

// MinSeq returns the oldest recoverable sequence.
func (h *PatchHistory) MinSeq() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.minSeq
}

// MaxSeq returns the newest recorded sequence.
func (h *PatchHistory) MaxSeq() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.maxSeq
}

// Len returns the number of frames currently held.
func (h *PatchHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

package surface

// Snapshot is an immutable capture of the physical buffer.
type Snapshot struct {
	width  int
	height int
	pix    []byte // RGBA, 4 bytes per pixel, row-major
}

// newSnapshot copies pix so later drawing cannot alias the capture.
func newSnapshot(width, height int, pix []byte) Snapshot {
	buf := make([]byte, len(pix))
	copy(buf, pix)
	return Snapshot{width: width, height: height, pix: buf}
}

// Width returns the physical width the snapshot was taken at.
func (s Snapshot) Width() int { return s.width }

// Height returns the physical height the snapshot was taken at.
func (s Snapshot) Height() int { return s.height }

// History is a bounded FIFO of snapshots. Pushing onto a full history evicts
// the oldest entry.
type History struct {
	entries  []Snapshot
	capacity int
}

// NewHistory creates a history holding at most capacity snapshots.
// A capacity below one is raised to one.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		entries:  make([]Snapshot, 0, capacity),
		capacity: capacity,
	}
}

// Push appends s, evicting the oldest snapshot when the history is full.
func (h *History) Push(s Snapshot) {
	if len(h.entries) == h.capacity {
		copy(h.entries, h.entries[1:])
		h.entries[len(h.entries)-1] = Snapshot{}
		h.entries = h.entries[:len(h.entries)-1]
	}
	h.entries = append(h.entries, s)
}

// Pop removes and returns the most recent snapshot.
func (h *History) Pop() (Snapshot, bool) {
	if len(h.entries) == 0 {
		return Snapshot{}, false
	}
	last := h.entries[len(h.entries)-1]
	h.entries[len(h.entries)-1] = Snapshot{}
	h.entries = h.entries[:len(h.entries)-1]
	return last, true
}

// Len returns the number of stored snapshots.
func (h *History) Len() int { return len(h.entries) }

// Cap returns the maximum number of stored snapshots.
func (h *History) Cap() int { return h.capacity }

// Reset drops every snapshot.
func (h *History) Reset() {
	clear(h.entries)
	h.entries = h.entries[:0]
}

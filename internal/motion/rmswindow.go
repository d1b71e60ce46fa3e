package motion

import "math"

// The running sum of squares is maintained incrementally (add on insert,
// subtract on evict), which accumulates floating-point error over long
// uptimes. Recomputing it from the buffer every recomputeEvery evictions
// bounds the drift; at 100 Hz that is roughly every 41 s.
const recomputeEvery = 4096

// RMSWindow maintains the root-mean-square of the most recent W values —
// a fixed sample count, not a time window. The buffer is allocated once
// and mutated via insert-and-evict-oldest.
type RMSWindow struct {
	buf       []float64
	sumSq     float64
	count     int
	next      int
	evictions int
}

// NewRMSWindow creates a window of the given capacity.
func NewRMSWindow(size int) *RMSWindow {
	if size < 1 {
		size = 1
	}
	return &RMSWindow{buf: make([]float64, size)}
}

// Push inserts a value, evicting the oldest once at capacity, and returns
// the RMS over the occupied slots. The divisor is floored at 1 so the
// first call can never divide by zero.
func (w *RMSWindow) Push(v float64) float64 {
	if w.count == len(w.buf) {
		old := w.buf[w.next]
		w.sumSq -= old * old
		w.evictions++
	} else {
		w.count++
	}
	w.buf[w.next] = v
	w.sumSq += v * v
	w.next = (w.next + 1) % len(w.buf)

	// Rebuild after the insert so the evicted slot is already gone.
	if w.evictions >= recomputeEvery {
		w.evictions = 0
		w.recompute()
	}
	return w.Value()
}

// Value returns the RMS over the currently occupied slots.
func (w *RMSWindow) Value() float64 {
	n := w.count
	if n < 1 {
		n = 1
	}
	s := w.sumSq
	if s < 0 {
		// Incremental update can drift a hair below zero.
		s = 0
	}
	return math.Sqrt(s / float64(n))
}

// Len returns the number of occupied slots.
func (w *RMSWindow) Len() int { return w.count }

// Cap returns the window capacity W.
func (w *RMSWindow) Cap() int { return len(w.buf) }

// recompute rebuilds the sum from the buffer; only ever called at
// capacity, where every slot is occupied.
func (w *RMSWindow) recompute() {
	var s float64
	for _, v := range w.buf {
		s += v * v
	}
	w.sumSq = s
}

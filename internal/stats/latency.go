package stats

// LatencyWindow keeps the last N latency observations (ms) and reports
// min/mean/max over them.
type LatencyWindow struct {
	buf   []float64
	count int
	next  int
}

// NewLatencyWindow creates a window holding up to size observations.
func NewLatencyWindow(size int) *LatencyWindow {
	if size < 1 {
		size = 1
	}
	return &LatencyWindow{buf: make([]float64, size)}
}

// Observe records one latency measurement in milliseconds.
func (l *LatencyWindow) Observe(ms float64) {
	l.buf[l.next] = ms
	l.next = (l.next + 1) % len(l.buf)
	if l.count < len(l.buf) {
		l.count++
	}
}

// Count returns the number of retained observations.
func (l *LatencyWindow) Count() int { return l.count }

// Summary returns min, mean and max over the retained observations.
// With no observations all three are zero.
func (l *LatencyWindow) Summary() (min, mean, max float64) {
	if l.count == 0 {
		return 0, 0, 0
	}
	min = l.buf[0]
	max = l.buf[0]
	var sum float64
	for i := 0; i < l.count; i++ {
		v := l.buf[i]
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	return min, sum / float64(l.count), max
}

package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateEstimatorSteadyStream(t *testing.T) {
	r := NewRateEstimator(100, 0.2)

	// 10 ms spacing = 100 Hz.
	for ms := int64(0); ms <= 1000; ms += 10 {
		r.Observe(ms)
	}
	assert.InDelta(t, 100, r.Hz(), 0.5)
}

func TestRateEstimatorSeedsWithNominal(t *testing.T) {
	r := NewRateEstimator(100, 0.2)
	assert.InDelta(t, 100, r.Hz(), 1e-9)

	// First delta replaces the seed rather than blending with it.
	r.Observe(0)
	r.Observe(20)
	assert.InDelta(t, 50, r.Hz(), 1e-9)
}

func TestRateEstimatorIgnoresDuplicates(t *testing.T) {
	r := NewRateEstimator(100, 0.2)
	r.Observe(0)
	r.Observe(10)
	got := r.Hz()

	// A republished record carries the same device ms; it must not
	// distort the estimate.
	r.Observe(10)
	assert.Equal(t, got, r.Hz())
}

func TestLatencyWindowSummary(t *testing.T) {
	l := NewLatencyWindow(10)
	for _, v := range []float64{5, 15, 10} {
		l.Observe(v)
	}

	min, mean, max := l.Summary()
	assert.InDelta(t, 5, min, 1e-9)
	assert.InDelta(t, 10, mean, 1e-9)
	assert.InDelta(t, 15, max, 1e-9)
}

func TestLatencyWindowEvicts(t *testing.T) {
	l := NewLatencyWindow(3)
	for _, v := range []float64{100, 1, 2, 3} {
		l.Observe(v)
	}

	_, _, max := l.Summary()
	assert.InDelta(t, 3, max, 1e-9, "the 100 ms outlier must have been evicted")
	assert.Equal(t, 3, l.Count())
}

func TestLatencyWindowEmpty(t *testing.T) {
	l := NewLatencyWindow(4)
	min, mean, max := l.Summary()
	assert.Zero(t, min)
	assert.Zero(t, mean)
	assert.Zero(t, max)
}

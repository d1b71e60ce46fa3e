package motion

import "math"

// HighPass is a single-pole discrete-time high-pass filter. It removes the
// slowly varying gravity/tilt component from the acceleration magnitude,
// leaving only rapid motion transients.
type HighPass struct {
	alpha   float64
	prevIn  float64
	prevOut float64
}

// NewHighPass computes the fixed filter coefficient for the given cutoff
// frequency and sample rate:
//
//	RC    = 1/(2π·fc)
//	alpha = RC/(RC + dt), dt = 1/fs
//
// The coefficient never changes at runtime.
func NewHighPass(cutoffHz, sampleRateHz float64) *HighPass {
	rc := 1.0 / (2.0 * math.Pi * cutoffHz)
	dt := 1.0 / sampleRateHz
	return &HighPass{alpha: rc / (rc + dt)}
}

// Alpha returns the filter coefficient.
func (f *HighPass) Alpha() float64 { return f.alpha }

// Update feeds one magnitude sample through the filter and returns the
// high-pass output. Both state terms start at zero, so the very first
// output is attenuated relative to steady state; that transient is
// expected and not corrected.
func (f *HighPass) Update(m float64) float64 {
	hp := f.alpha * (f.prevOut + m - f.prevIn)
	f.prevOut = hp
	f.prevIn = m
	return hp
}

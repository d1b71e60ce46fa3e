// Package calib computes classification thresholds from labeled RMS
// samples collected during a calibration session: for each pair of
// adjacent activity classes it picks the boundary that minimizes the
// overlap error between them.
package calib

import (
	"fmt"
	"math"
	"sort"

	"github.com/relabs-tech/vibration_monitor/internal/motion"
)

// MinSamplesPerClass is the minimum number of clean RMS samples required
// in every class before thresholds can be computed.
const MinSamplesPerClass = 30

// Minimum separation (g) enforced between adjacent thresholds.
const minSeparation = 0.005

// Collector accumulates labeled RMS samples per activity class.
type Collector struct {
	classes map[motion.Label][]float64
}

// NewCollector returns an empty collector covering all five classes.
func NewCollector() *Collector {
	return &Collector{classes: map[motion.Label][]float64{
		motion.LabelCalm:   nil,
		motion.LabelStruct: nil,
		motion.LabelFoot:   nil,
		motion.LabelPlay:   nil,
		motion.LabelJump:   nil,
	}}
}

// Add records one RMS sample under the given class label.
func (c *Collector) Add(label motion.Label, rms float64) error {
	if _, ok := c.classes[label]; !ok {
		return fmt.Errorf("unknown calibration class %q", label)
	}
	c.classes[label] = append(c.classes[label], rms)
	return nil
}

// Count returns the number of samples collected for a class.
func (c *Collector) Count(label motion.Label) int {
	return len(c.classes[label])
}

// Clear discards all collected samples.
func (c *Collector) Clear() {
	for k := range c.classes {
		c.classes[k] = nil
	}
}

// Compute derives thresholds from the collected samples. All five classes
// need at least MinSamplesPerClass clean samples; adjacent classes that
// overlap completely still yield a boundary (the least-bad one), and the
// ordering clamp below keeps the result usable.
func (c *Collector) Compute() (motion.Thresholds, error) {
	calm := cleanRMS(c.classes[motion.LabelCalm])
	strct := cleanRMS(c.classes[motion.LabelStruct])
	foot := cleanRMS(c.classes[motion.LabelFoot])
	play := cleanRMS(c.classes[motion.LabelPlay])
	jump := cleanRMS(c.classes[motion.LabelJump])

	for _, cl := range []struct {
		label motion.Label
		vals  []float64
	}{
		{motion.LabelCalm, calm},
		{motion.LabelStruct, strct},
		{motion.LabelFoot, foot},
		{motion.LabelPlay, play},
		{motion.LabelJump, jump},
	} {
		if len(cl.vals) < MinSamplesPerClass {
			return motion.Thresholds{}, fmt.Errorf(
				"class %s has %d clean samples, need at least %d",
				cl.label, len(cl.vals), MinSamplesPerClass)
		}
	}

	thStruct := boundary(calm, strct)
	thFoot := boundary(strct, foot)
	thKid := boundary(foot, play)
	thJump := boundary(play, jump)

	// Force ascending order with a minimum separation, then clamp to the
	// usable g ranges.
	thStruct = clamp(thStruct, 0.001, 0.6)
	thFoot = clamp(math.Max(thFoot, thStruct+minSeparation), 0.001, 0.6)
	thKid = clamp(math.Max(thKid, thFoot+minSeparation), 0.001, 0.6)
	thJump = clamp(math.Max(thJump, thKid+minSeparation), 0.001, 1.0)

	th := motion.Thresholds{Struct: thStruct, Foot: thFoot, Kid: thKid, Jump: thJump}
	if err := th.Validate(); err != nil {
		return motion.Thresholds{}, fmt.Errorf("classes overlap too much: %w", err)
	}
	return th, nil
}

// cleanRMS drops NaN/Inf values and clamps the rest to [0,1].
func cleanRMS(in []float64) []float64 {
	out := make([]float64, 0, len(in))
	for _, v := range in {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, clamp(v, 0, 1))
	}
	return out
}

// boundary picks the threshold t between a lower and a higher class that
// minimizes the overlap error: lower-class samples above t (which would
// classify upward, since bounds are closed below) plus higher-class
// samples at or below t. Candidates are the midpoints between adjacent
// distinct values plus a sentinel on each side.
func boundary(lower, higher []float64) float64 {
	a := append([]float64(nil), lower...)
	b := append([]float64(nil), higher...)
	sort.Float64s(a)
	sort.Float64s(b)

	merged := make([]float64, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	sort.Float64s(merged)

	uniq := merged[:0]
	for i, v := range merged {
		if i == 0 || math.Abs(v-uniq[len(uniq)-1]) > 1e-12 {
			uniq = append(uniq, v)
		}
	}

	nA, nB := len(a), len(b)
	cumA := make([]int, len(uniq))
	cumB := make([]int, len(uniq))
	iA, iB := 0, 0
	for i, v := range uniq {
		for iA < nA && a[iA] <= v {
			iA++
		}
		for iB < nB && b[iB] <= v {
			iB++
		}
		cumA[i] = iA
		cumB[i] = iB
	}

	bestErr := math.Inf(1)
	bestT := uniq[0]
	for i := -1; i < len(uniq); i++ {
		var t float64
		var aLE, bLE int
		switch {
		case i == -1:
			t = uniq[0] - 1e-6
		case i == len(uniq)-1:
			t = uniq[i] + 1e-6
			aLE, bLE = cumA[i], cumB[i]
		default:
			t = 0.5 * (uniq[i] + uniq[i+1])
			aLE, bLE = cumA[i], cumB[i]
		}
		err := float64((nA - aLE) + bLE)
		if err < bestErr {
			bestErr = err
			bestT = t
		}
	}
	return bestT
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

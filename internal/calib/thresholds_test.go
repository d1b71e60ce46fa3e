package calib

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/vibration_monitor/internal/motion"
)

// fill adds n values evenly spread over [lo, hi].
func fill(t *testing.T, c *Collector, label motion.Label, lo, hi float64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		v := lo + (hi-lo)*float64(i)/float64(n-1)
		require.NoError(t, c.Add(label, v))
	}
}

func TestComputeSeparatedClasses(t *testing.T) {
	c := NewCollector()
	fill(t, c, motion.LabelCalm, 0.000, 0.010, 40)
	fill(t, c, motion.LabelStruct, 0.040, 0.060, 40)
	fill(t, c, motion.LabelFoot, 0.110, 0.150, 40)
	fill(t, c, motion.LabelPlay, 0.220, 0.280, 40)
	fill(t, c, motion.LabelJump, 0.400, 0.550, 40)

	th, err := c.Compute()
	require.NoError(t, err)
	require.NoError(t, th.Validate())

	// Each boundary must fall in the gap between its two classes.
	assert.Greater(t, th.Struct, 0.010)
	assert.Less(t, th.Struct, 0.040)
	assert.Greater(t, th.Foot, 0.060)
	assert.Less(t, th.Foot, 0.110)
	assert.Greater(t, th.Kid, 0.150)
	assert.Less(t, th.Kid, 0.220)
	assert.Greater(t, th.Jump, 0.280)
	assert.Less(t, th.Jump, 0.400)
}

func TestComputeNeedsMinimumSamples(t *testing.T) {
	c := NewCollector()
	fill(t, c, motion.LabelCalm, 0, 0.01, 40)
	fill(t, c, motion.LabelStruct, 0.04, 0.06, 40)
	fill(t, c, motion.LabelFoot, 0.11, 0.15, 40)
	fill(t, c, motion.LabelPlay, 0.22, 0.28, 40)
	fill(t, c, motion.LabelJump, 0.4, 0.55, MinSamplesPerClass-1)

	_, err := c.Compute()
	assert.ErrorContains(t, err, "JUMP")
}

func TestComputeDropsDirtySamples(t *testing.T) {
	c := NewCollector()
	fill(t, c, motion.LabelCalm, 0, 0.01, 40)
	// NaN/Inf must not count toward the per-class minimum.
	require.NoError(t, c.Add(motion.LabelCalm, math.NaN()))
	require.NoError(t, c.Add(motion.LabelCalm, math.Inf(1)))
	fill(t, c, motion.LabelStruct, 0.04, 0.06, 40)
	fill(t, c, motion.LabelFoot, 0.11, 0.15, 40)
	fill(t, c, motion.LabelPlay, 0.22, 0.28, 40)
	fill(t, c, motion.LabelJump, 0.4, 0.55, 40)

	th, err := c.Compute()
	require.NoError(t, err)
	assert.NoError(t, th.Validate())
}

func TestComputeEnforcesSeparation(t *testing.T) {
	c := NewCollector()
	// FOOT and PLAY fully overlap; the ordering clamp must still produce
	// strictly ascending thresholds.
	fill(t, c, motion.LabelCalm, 0.000, 0.010, 40)
	fill(t, c, motion.LabelStruct, 0.040, 0.060, 40)
	fill(t, c, motion.LabelFoot, 0.100, 0.200, 40)
	fill(t, c, motion.LabelPlay, 0.100, 0.200, 40)
	fill(t, c, motion.LabelJump, 0.400, 0.550, 40)

	th, err := c.Compute()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, th.Kid, th.Foot+minSeparation-1e-12)
}

func TestBoundaryOnOverlap(t *testing.T) {
	lower := []float64{0.01, 0.02, 0.03, 0.04}
	higher := []float64{0.03, 0.04, 0.05, 0.06}

	tBest := boundary(lower, higher)
	// Best split misclassifies the two overlapping points on one side.
	assert.Greater(t, tBest, 0.01)
	assert.Less(t, tBest, 0.06)
}

func TestCollectorClear(t *testing.T) {
	c := NewCollector()
	require.NoError(t, c.Add(motion.LabelCalm, 0.01))
	require.Equal(t, 1, c.Count(motion.LabelCalm))

	c.Clear()
	assert.Equal(t, 0, c.Count(motion.LabelCalm))
}

func TestCollectorUnknownClass(t *testing.T) {
	c := NewCollector()
	assert.Error(t, c.Add(motion.Label("SPRINT"), 0.1))
}

func TestThresholdsFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.txt")
	want := motion.Thresholds{Struct: 0.031, Foot: 0.095, Kid: 0.21, Jump: 0.36}

	require.NoError(t, SaveThresholds(path, want))
	got, err := LoadThresholds(path)
	require.NoError(t, err)

	assert.InDelta(t, want.Struct, got.Struct, 1e-6)
	assert.InDelta(t, want.Foot, got.Foot, 1e-6)
	assert.InDelta(t, want.Kid, got.Kid, 1e-6)
	assert.InDelta(t, want.Jump, got.Jump, 1e-6)
}

func TestLoadThresholdsMissingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.txt")
	require.NoError(t, SaveThresholds(path, motion.DefaultThresholds()))

	// Corrupt: rewrite with one key dropped.
	partial := "TH_STRUCT=0.03\nTH_FOOT=0.10\nTH_KID=0.20\n"
	require.NoError(t, os.WriteFile(path, []byte(partial), 0o644))

	_, err := LoadThresholds(path)
	assert.ErrorContains(t, err, "TH_JUMP")
}

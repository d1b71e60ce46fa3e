package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyBands(t *testing.T) {
	th := DefaultThresholds()

	cases := []struct {
		rms  float64
		want Label
	}{
		{0.0, LabelCalm},
		{0.029, LabelCalm},
		{0.05, LabelStruct},
		{0.15, LabelFoot},
		{0.25, LabelPlay},
		{0.50, LabelJump},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, th.Classify(c.rms), "rms=%g", c.rms)
	}
}

func TestClassifyClosedLowerBounds(t *testing.T) {
	th := DefaultThresholds()

	// A value exactly on a threshold belongs to the class above it.
	assert.Equal(t, LabelStruct, th.Classify(0.03))
	assert.Equal(t, LabelFoot, th.Classify(0.10))
	assert.Equal(t, LabelPlay, th.Classify(0.20))
	assert.Equal(t, LabelJump, th.Classify(0.35))
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())

	bad := Thresholds{Struct: 0.1, Foot: 0.1, Kid: 0.2, Jump: 0.3}
	assert.Error(t, bad.Validate())
}

package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighPassCoefficient(t *testing.T) {
	f := NewHighPass(0.5, 100)

	rc := 1.0 / (2.0 * math.Pi * 0.5)
	want := rc / (rc + 0.01)
	assert.InDelta(t, want, f.Alpha(), 1e-12)
}

func TestHighPassDCRejection(t *testing.T) {
	f := NewHighPass(0.5, 100)

	var hp float64
	for i := 0; i < 5000; i++ {
		hp = f.Update(1.0)
	}
	assert.InDelta(t, 0, hp, 1e-6, "constant input must decay to zero")
}

func TestHighPassFirstTickAttenuated(t *testing.T) {
	f := NewHighPass(0.5, 100)

	// prevIn and prevOut both start at zero, so the first output is
	// alpha * m, not zero.
	hp := f.Update(1.0)
	assert.InDelta(t, f.Alpha(), hp, 1e-12)
}

func TestHighPassPassesTransients(t *testing.T) {
	f := NewHighPass(0.5, 100)

	// Settle on a 1 g baseline, then step.
	for i := 0; i < 5000; i++ {
		f.Update(1.0)
	}
	hp := f.Update(1.5)
	assert.InDelta(t, 0.5*f.Alpha(), hp, 1e-3, "a step should pass nearly unattenuated")
}

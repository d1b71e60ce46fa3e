package motion

import "fmt"

// Label is a discrete classification of motion intensity.
type Label string

const (
	LabelCalm   Label = "CALM"
	LabelStruct Label = "STRUCT"
	LabelFoot   Label = "FOOT"
	LabelPlay   Label = "PLAY"
	LabelJump   Label = "JUMP"
)

// Thresholds are the four ascending RMS boundaries (g) separating the
// activity classes.
type Thresholds struct {
	Struct float64
	Foot   float64
	Kid    float64
	Jump   float64
}

// DefaultThresholds returns the reference thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Struct: 0.03, Foot: 0.10, Kid: 0.20, Jump: 0.35}
}

// Validate checks that the thresholds are strictly ascending.
func (t Thresholds) Validate() error {
	if !(t.Struct < t.Foot && t.Foot < t.Kid && t.Kid < t.Jump) {
		return fmt.Errorf("thresholds must be strictly ascending: struct=%g foot=%g kid=%g jump=%g",
			t.Struct, t.Foot, t.Kid, t.Jump)
	}
	return nil
}

// Classify maps an RMS value to an activity label, evaluated
// highest-threshold-first with closed lower bounds. There is no
// hysteresis: a value sitting on a boundary may flip labels between
// ticks; the RMS window already damps the input.
func (t Thresholds) Classify(rms float64) Label {
	switch {
	case rms >= t.Jump:
		return LabelJump
	case rms >= t.Kid:
		return LabelPlay
	case rms >= t.Foot:
		return LabelFoot
	case rms >= t.Struct:
		return LabelStruct
	default:
		return LabelCalm
	}
}

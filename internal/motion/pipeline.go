// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"math"
	"time"

	"github.com/relabs-tech/vibration_monitor/internal/accel"
)

// Output is the telemetry record produced once per sample tick. The JSON
// field names are the wire contract on the telemetry topic.
type Output struct {
	MS    int64   `json:"ms"` // milliseconds since pipeline start
	Ax    float64 `json:"ax"`
	Ay    float64 `json:"ay"`
	Az    float64 `json:"az"`
	Mag   float64 `json:"mag"`
	HPAbs float64 `json:"hp_abs"`
	RMS   float64 `json:"rms"`
	Label Label   `json:"label"`
}

// Config holds the load-time pipeline constants.
type Config struct {
	SampleRateHz float64
	CutoffHz     float64
	WindowSize   int
	Thresholds   Thresholds
}

// Pipeline owns all per-tick filter and window state. It is single-owner
// and single-threaded by contract: exactly one control loop calls
// ProcessTick, so no locking is needed.
type Pipeline struct {
	hp    *HighPass
	rms   *RMSWindow
	th    Thresholds
	start time.Time
}

// New creates a pipeline. State is initialized once and never reset
// during normal operation.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		hp:    NewHighPass(cfg.CutoffHz, cfg.SampleRateHz),
		rms:   NewRMSWindow(cfg.WindowSize),
		th:    cfg.Thresholds,
		start: time.Now(),
	}
}

// ProcessTick consumes one sample, updates filter and window state, and
// returns the output record. The caller owns the record; the pipeline
// keeps no reference to past outputs beyond what the RMS window retains.
func (p *Pipeline) ProcessTick(s accel.Sample) Output {
	mag := math.Sqrt(s.Ax*s.Ax + s.Ay*s.Ay + s.Az*s.Az)
	hpAbs := math.Abs(p.hp.Update(mag))
	rms := p.rms.Push(hpAbs)

	return Output{
		MS:    s.T.Sub(p.start).Milliseconds(),
		Ax:    s.Ax,
		Ay:    s.Ay,
		Az:    s.Az,
		Mag:   mag,
		HPAbs: hpAbs,
		RMS:   rms,
		Label: p.th.Classify(rms),
	}
}

// Thresholds returns the active classification thresholds.
func (p *Pipeline) Thresholds() Thresholds { return p.th }

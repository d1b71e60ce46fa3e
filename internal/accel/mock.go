// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package accel

import (
	"math"
	"time"
)

type mockSource struct {
	start time.Time
}

// NewMockSource creates a synthetic source: a 1 g resting baseline with a
// vibration burst every ten seconds whose amplitude sweeps the classifier
// bands, so downstream tooling can be exercised without hardware.
func NewMockSource() Source {
	return &mockSource{start: time.Now()}
}

func (m *mockSource) Read() (Sample, error) {
	now := time.Now()
	elapsed := now.Sub(m.start).Seconds()

	// 2 s burst at the start of every 10 s window; amplitude cycles
	// through 0.05, 0.15, 0.30, 0.50 g.
	var burst float64
	if math.Mod(elapsed, 10) < 2 {
		cycle := int(elapsed/10) % 4
		amp := []float64{0.05, 0.15, 0.30, 0.50}[cycle]
		burst = amp * math.Sin(2*math.Pi*8*elapsed)
	}

	return Sample{
		T:  now,
		Ax: 0.01 * math.Sin(elapsed*0.5),
		Ay: 0.01 * math.Cos(elapsed*0.3),
		Az: 1 + burst,
	}, nil
}

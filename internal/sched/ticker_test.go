package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerFixedIncrement(t *testing.T) {
	start := time.Unix(0, 0)
	tk := NewTicker(start, 10*time.Millisecond)

	assert.False(t, tk.Due(start.Add(9*time.Millisecond)))
	assert.True(t, tk.Due(start.Add(10*time.Millisecond)))
	// Next due is previous due + period, not now + period.
	assert.Equal(t, start.Add(20*time.Millisecond), tk.Next())
}

func TestTickerLateFiresNotSkipped(t *testing.T) {
	start := time.Unix(0, 0)
	tk := NewTicker(start, 10*time.Millisecond)

	// Check arrives 25 ms late: the overdue tick fires now, the backlog
	// fires on subsequent checks, one per check.
	now := start.Add(35 * time.Millisecond)
	assert.True(t, tk.Due(now))
	assert.True(t, tk.Due(now))
	assert.True(t, tk.Due(now))
	assert.False(t, tk.Due(now))
}

// Drift-free property: over 1000 simulated ticks with variable per-pass
// processing delay, the fired count matches elapsed/period within ±1.
func TestTickerNoDriftUnderJitter(t *testing.T) {
	const period = 10 * time.Millisecond
	start := time.Unix(0, 0)
	tk := NewTicker(start, period)

	now := start
	fired := 0
	// Uneven but deterministic pass delays between 1 and 8 ms.
	for i := 0; fired < 1000; i++ {
		now = now.Add(time.Duration(1+i*7%8) * time.Millisecond)
		if tk.Due(now) {
			fired++
		}
	}

	elapsed := now.Sub(start)
	want := int(elapsed / period)
	require.InDelta(t, want, fired, 1)
}

// Decoupled rates: with a 10 ms sample tick and a 50 ms publish tick,
// exactly one publish fires per 5 sample ticks.
func TestTickerDecoupledRates(t *testing.T) {
	start := time.Unix(0, 0)
	sample := NewTicker(start, 10*time.Millisecond)
	publish := NewTicker(start, 50*time.Millisecond)

	samples, publishes := 0, 0
	now := start
	for i := 0; i < 1000; i++ {
		now = now.Add(time.Millisecond)
		if sample.Due(now) {
			samples++
		}
		if publish.Due(now) {
			publishes++
		}
	}

	require.Equal(t, 100, samples)
	require.Equal(t, 20, publishes)
	assert.Equal(t, samples/5, publishes)
}

// Package stats tracks telemetry link quality for the consumer tools:
// the effective message rate estimated from device timestamps, and the
// device-to-local latency over a sliding window.
package stats

// RateEstimator derives an exponentially weighted message rate (Hz) from
// the device millisecond counter embedded in each record.
type RateEstimator struct {
	alpha  float64
	rate   float64
	lastMS int64
	seen   bool
}

// NewRateEstimator seeds the estimate with the nominal sample rate so the
// display is sensible before enough messages have arrived.
func NewRateEstimator(nominalHz, alpha float64) *RateEstimator {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.2
	}
	return &RateEstimator{alpha: alpha, rate: nominalHz, lastMS: -1}
}

// Observe feeds one device timestamp. Non-increasing timestamps (device
// restart, duplicate publish) are ignored.
func (r *RateEstimator) Observe(deviceMS int64) {
	if r.lastMS >= 0 && deviceMS > r.lastMS {
		inst := 1000.0 / float64(deviceMS-r.lastMS)
		if !r.seen {
			r.rate = inst
			r.seen = true
		} else {
			r.rate += r.alpha * (inst - r.rate)
		}
	}
	if deviceMS > r.lastMS {
		r.lastMS = deviceMS
	}
}

// Hz returns the current rate estimate.
func (r *RateEstimator) Hz() float64 { return r.rate }

package pipeline

import "time"

// shakeWindow is the size of the gyro-magnitude history.
const shakeWindow = 25

// shakeDetector watches the recent gyro magnitudes for a sustained shake.
// It is owned by the decision task and never shared.
type shakeDetector struct {
	buf   [shakeWindow]float32
	idx   int
	count int

	threshold   float32
	needed      int
	cooldown    time.Duration
	lastTrigger time.Time
}

func newShakeDetector(threshold float32, needed int, cooldown time.Duration) *shakeDetector {
	return &shakeDetector{threshold: threshold, needed: needed, cooldown: cooldown}
}

// Add appends one gyro magnitude to the history.
func (d *shakeDetector) Add(mag float32) {
	d.buf[d.idx] = mag
	d.idx = (d.idx + 1) % shakeWindow
	if d.count < shakeWindow {
		d.count++
	}
}

// Triggered reports whether the history constitutes a shake: a full window,
// at least `needed` magnitudes above the threshold, and the cooldown elapsed
// since the previous trigger. A trigger arms the cooldown.
func (d *shakeDetector) Triggered(now time.Time) bool {
	if d.count < shakeWindow {
		return false
	}
	above := 0
	for _, m := range d.buf {
		if m > d.threshold {
			above++
		}
	}
	if above < d.needed {
		return false
	}
	if !d.lastTrigger.IsZero() && now.Sub(d.lastTrigger) < d.cooldown {
		return false
	}
	d.lastTrigger = now
	return true
}

// CooldownRemaining returns how long until the next trigger is possible.
func (d *shakeDetector) CooldownRemaining(now time.Time) time.Duration {
	if d.lastTrigger.IsZero() {
		return 0
	}
	left := d.cooldown - now.Sub(d.lastTrigger)
	if left < 0 {
		return 0
	}
	return left
}

package pipeline

import (
	"testing"
	"time"
)

func TestShakeDetectorRequiresFullWindow(t *testing.T) {
	d := newShakeDetector(3.5, 18, 1500*time.Millisecond)
	now := time.Unix(100, 0)

	for i := 0; i < shakeWindow-1; i++ {
		d.Add(10)
	}
	if d.Triggered(now) {
		t.Fatal("triggered before the history filled")
	}
	d.Add(10)
	if !d.Triggered(now) {
		t.Fatal("expected trigger with a full window of qualifying samples")
	}
}

func TestShakeDetectorCountThreshold(t *testing.T) {
	d := newShakeDetector(3.5, 18, 1500*time.Millisecond)
	now := time.Unix(100, 0)

	// 17 qualifying magnitudes: never triggers.
	for i := 0; i < 17; i++ {
		d.Add(5)
	}
	for i := 0; i < shakeWindow-17; i++ {
		d.Add(1)
	}
	if d.Triggered(now) {
		t.Fatal("triggered with only 17 qualifying samples")
	}

	// One more pushes it to 18.
	d.Add(5)
	if !d.Triggered(now) {
		t.Fatal("expected trigger with 18 qualifying samples")
	}
}

func TestShakeDetectorCooldown(t *testing.T) {
	d := newShakeDetector(3.5, 18, 1500*time.Millisecond)
	now := time.Unix(100, 0)

	for i := 0; i < shakeWindow; i++ {
		d.Add(10)
	}
	if !d.Triggered(now) {
		t.Fatal("expected initial trigger")
	}

	// Still shaking, but inside the cooldown.
	now = now.Add(time.Second)
	if d.Triggered(now) {
		t.Fatal("triggered inside cooldown")
	}
	if left := d.CooldownRemaining(now); left != 500*time.Millisecond {
		t.Fatalf("CooldownRemaining = %v, want 500ms", left)
	}

	// Cooldown elapsed: exactly one more trigger.
	now = now.Add(500 * time.Millisecond)
	if !d.Triggered(now) {
		t.Fatal("expected trigger after cooldown")
	}
	if d.Triggered(now) {
		t.Fatal("double trigger at the same instant")
	}
}

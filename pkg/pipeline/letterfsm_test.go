package pipeline

import (
	"testing"
	"time"

	"github.com/signbridge/glovepipe/pkg/infer"
)

func decision(tok infer.Token, conf float32, classIndex int) infer.Decision {
	return infer.Decision{Token: tok, Confidence: conf, ClassIndex: classIndex}
}

func TestLetterFSMSingleCommitPerHold(t *testing.T) {
	m := newLetterFSM(0.85, 200*time.Millisecond)
	now := time.Unix(100, 0)

	if commit, _, _ := m.Advance(decision('H', 0.9, 7), now); commit {
		t.Fatal("commit on first sighting")
	}
	if m.state != stateHeld {
		t.Fatalf("state = %v, want held", m.state)
	}

	// Same token, hold not yet elapsed.
	now = now.Add(100 * time.Millisecond)
	if commit, _, _ := m.Advance(decision('H', 0.92, 7), now); commit {
		t.Fatal("commit before hold elapsed")
	}

	// Hold elapsed: exactly one commit.
	now = now.Add(100 * time.Millisecond)
	commit, tok, classIndex := m.Advance(decision('H', 0.95, 7), now)
	if !commit {
		t.Fatal("expected commit after hold elapsed")
	}
	if tok != 'H' || classIndex != 7 {
		t.Fatalf("commit = (%c, %d), want (H, 7)", tok, classIndex)
	}
	if m.state != stateWaitNeutral {
		t.Fatalf("state = %v, want wait-neutral", m.state)
	}

	// Continued repetition must not commit again.
	for i := 0; i < 10; i++ {
		now = now.Add(50 * time.Millisecond)
		if commit, _, _ := m.Advance(decision('H', 0.95, 7), now); commit {
			t.Fatal("second commit in the same hold episode")
		}
	}

	// Neutral releases; a fresh hold can commit again.
	now = now.Add(50 * time.Millisecond)
	m.Advance(decision(infer.TokenNeutral, 0, -1), now)
	if m.state != stateNeutral {
		t.Fatalf("state = %v, want neutral after release", m.state)
	}
	m.Advance(decision('H', 0.9, 7), now)
	now = now.Add(200 * time.Millisecond)
	if commit, _, _ := m.Advance(decision('H', 0.9, 7), now); !commit {
		t.Fatal("expected commit in second episode")
	}
}

func TestLetterFSMLowConfidenceIsNeutral(t *testing.T) {
	m := newLetterFSM(0.85, 200*time.Millisecond)
	now := time.Unix(100, 0)

	// Below the floor: never leaves neutral.
	m.Advance(decision('H', 0.84, 7), now)
	if m.state != stateNeutral {
		t.Fatalf("state = %v, want neutral for low confidence", m.state)
	}

	// A low-confidence differing token mid-hold resets to neutral.
	m.Advance(decision('H', 0.9, 7), now)
	now = now.Add(50 * time.Millisecond)
	m.Advance(decision('K', 0.2, 3), now)
	if m.state != stateNeutral {
		t.Fatalf("state = %v, want neutral after low-confidence frame", m.state)
	}
}

func TestLetterFSMDifferentTokenIgnoredMidHold(t *testing.T) {
	m := newLetterFSM(0.85, 200*time.Millisecond)
	now := time.Unix(100, 0)

	m.Advance(decision('H', 0.9, 7), now)

	// A confident different token neither resets nor switches the hold.
	now = now.Add(50 * time.Millisecond)
	if commit, _, _ := m.Advance(decision('K', 0.95, 3), now); commit {
		t.Fatal("unexpected commit for differing token")
	}
	if m.state != stateHeld || m.held != 'H' {
		t.Fatalf("hold disturbed: state=%v held=%c", m.state, m.held)
	}

	// The original hold still completes.
	now = now.Add(160 * time.Millisecond)
	commit, tok, _ := m.Advance(decision('H', 0.9, 7), now)
	if !commit || tok != 'H' {
		t.Fatalf("commit = (%v, %c), want (true, H)", commit, tok)
	}
}

func TestLetterFSMNeutralAbortsHold(t *testing.T) {
	m := newLetterFSM(0.85, 200*time.Millisecond)
	now := time.Unix(100, 0)

	m.Advance(decision('H', 0.9, 7), now)
	now = now.Add(100 * time.Millisecond)
	m.Advance(decision(infer.TokenNeutral, 0, -1), now)
	if m.state != stateNeutral {
		t.Fatalf("state = %v, want neutral after abort", m.state)
	}

	// Even a long-past hold start must not commit after the abort.
	now = now.Add(time.Second)
	if commit, _, _ := m.Advance(decision('H', 0.9, 7), now); commit {
		t.Fatal("commit immediately after re-entering hold")
	}
}

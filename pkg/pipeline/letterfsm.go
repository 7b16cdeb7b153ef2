package pipeline

import (
	"time"

	"github.com/signbridge/glovepipe/pkg/infer"
)

// letterState is the hysteresis state of the commit machine.
type letterState int

const (
	// stateNeutral: no gesture in progress.
	stateNeutral letterState = iota
	// stateHeld: a non-neutral token is being held, not yet long enough.
	stateHeld
	// stateWaitNeutral: a commit happened; wait for a neutral frame before
	// accepting another gesture. Enforces one commit per hold episode.
	stateWaitNeutral
)

// letterFSM rejects classifier jitter by requiring the same token to persist
// for the hold duration before committing it. Owned by the decision task.
type letterFSM struct {
	state     letterState
	held      infer.Token
	holdStart time.Time

	confidenceFloor float32
	holdFor         time.Duration
}

func newLetterFSM(confidenceFloor float32, holdFor time.Duration) *letterFSM {
	return &letterFSM{confidenceFloor: confidenceFloor, holdFor: holdFor}
}

// neutral reports whether a decision counts as "no gesture": the neutral
// sentinel, or any token below the confidence floor.
func (m *letterFSM) neutral(d infer.Decision) bool {
	return d.Token == infer.TokenNeutral || d.Confidence < m.confidenceFloor
}

// Advance consumes one decision. When the held token has persisted long
// enough it returns commit=true exactly once for the episode, together with
// the token and the decision's class index.
//
// A different non-neutral token arriving mid-hold is deliberately ignored:
// the hold either completes or a neutral frame resets it.
func (m *letterFSM) Advance(d infer.Decision, now time.Time) (commit bool, tok infer.Token, classIndex int) {
	isNeutral := m.neutral(d)

	switch m.state {
	case stateNeutral:
		if !isNeutral {
			m.held = d.Token
			m.holdStart = now
			m.state = stateHeld
		}
	case stateHeld:
		if d.Token == m.held {
			if now.Sub(m.holdStart) >= m.holdFor {
				m.state = stateWaitNeutral
				return true, m.held, d.ClassIndex
			}
		} else if isNeutral {
			m.state = stateNeutral
		}
	case stateWaitNeutral:
		if isNeutral {
			m.state = stateNeutral
		}
	}
	return false, 0, -1
}

// Package infer defines the contract between the pipeline and the gesture
// classifier: the token alphabet, the per-inference decision record, and the
// Classifier interface the dispatcher drives. The inference engine itself is
// an external collaborator.
package infer

import (
	"time"

	"github.com/signbridge/glovepipe/pkg/sensor"
)

// Token is the decoded unit from the classifier: a letter, or one of the
// control sentinels below.
type Token rune

// Control sentinels. Neutral marks "no gesture"; Space and Backspace are
// gestures that edit the text buffer rather than append a letter.
const (
	TokenNeutral   Token = 0x01
	TokenBackspace Token = '\b'
	TokenSpace     Token = ' '
)

// Control labels used by word-level classes. A resolved word label equal to
// one of these is treated as a control token, never appended as text.
const (
	LabelNeutral   = "NEUTRAL"
	LabelBackspace = "BACKSPACE"
	LabelSpace     = "SPACE"
)

// IsControlLabel reports whether label names a control class rather than a
// speakable word.
func IsControlLabel(label string) bool {
	switch label {
	case LabelNeutral, LabelBackspace, LabelSpace:
		return true
	}
	return false
}

// Decision is one classifier verdict. Produced once per completed inference,
// immutable, consumed once by the decision task.
type Decision struct {
	Token      Token
	Confidence float32
	Timestamp  time.Time
	ClassIndex int
}

// Neutral returns a decision carrying the neutral sentinel with zero
// confidence, used when the classifier is unavailable or failed.
func Neutral(now time.Time) Decision {
	return Decision{Token: TokenNeutral, Confidence: 0, Timestamp: now, ClassIndex: -1}
}

// Classifier is the inference collaborator.
type Classifier interface {
	// Ready reports whether the engine has loaded its model.
	Ready() bool
	// Classify runs inference over one window and returns the decoded
	// token, its confidence in [0,1], and the class index.
	Classify(w sensor.Window) (Token, float32, int, error)
	// LabelForIndex resolves a class index to its full label, or "" when
	// the index has no word-level label.
	LabelForIndex(index int) string
}

// DisplayLabel resolves a human-readable label for a committed token, falling
// back to the control names when the classifier has none.
func DisplayLabel(c Classifier, tok Token, classIndex int) string {
	if c != nil && classIndex >= 0 {
		if label := c.LabelForIndex(classIndex); label != "" {
			return label
		}
	}
	switch tok {
	case TokenBackspace:
		return LabelBackspace
	case TokenSpace:
		return LabelSpace
	case TokenNeutral:
		return LabelNeutral
	}
	return string(rune(tok))
}

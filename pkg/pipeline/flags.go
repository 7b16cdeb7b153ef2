package pipeline

import (
	"sync/atomic"
	"time"
)

// Flags is the shared cross-task state. Every field is an atomic scalar with
// a single writing task; no mutex is needed.
//
// Writer discipline:
//   - SpeechInProgress: speech and playback tasks (never concurrently, by
//     the in-progress arbitration itself).
//   - SpeechEnabled: decision task, on operator command.
//   - last-speech-done timestamp and last-spoken word: speech and playback
//     tasks.
//   - debug toggles: decision task, on operator command.
//
// All other tasks only read.
type Flags struct {
	// SpeechInProgress is true from speech-request dequeue until playback
	// teardown completes. The sampler suppresses inertial reads while set,
	// and the decision task refuses to queue a second request.
	SpeechInProgress atomic.Bool

	// SpeechEnabled gates the shake-to-speak path.
	SpeechEnabled atomic.Bool

	// Debug toggles, flipped by the operator console.
	DebugIMU       atomic.Bool
	DebugFingers   atomic.Bool
	DebugNet       atomic.Bool
	DebugShake     atomic.Bool
	DebugInference atomic.Bool

	speechDoneMS atomic.Int64
	lastWord     atomic.Pointer[string]
}

// SetSpeechDone stamps the completion time of the last speech session.
func (f *Flags) SetSpeechDone(t time.Time) {
	f.speechDoneMS.Store(t.UnixMilli())
}

// SpeechDone returns the completion time of the last speech session and
// whether one has completed yet.
func (f *Flags) SpeechDone() (time.Time, bool) {
	ms := f.speechDoneMS.Load()
	if ms == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// SetLastWord records the word most recently handed to playback.
func (f *Flags) SetLastWord(word string) {
	f.lastWord.Store(&word)
}

// LastWord returns the word most recently handed to playback, or "".
func (f *Flags) LastWord() string {
	if p := f.lastWord.Load(); p != nil {
		return *p
	}
	return ""
}

// toggle flips b and returns the new value.
func toggle(b *atomic.Bool) bool {
	for {
		old := b.Load()
		if b.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

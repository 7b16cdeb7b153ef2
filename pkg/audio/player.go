// Package audio holds the playback collaborator contract and a malgo-backed
// implementation that streams WAV files to the default output device.
//
// The pipeline drives a Player with a poll loop: start a file, then call
// Loop repeatedly while Running reports true, then Stop. The loop shape
// keeps the calling task cooperative instead of parking it inside the audio
// layer.
package audio

import "time"

// Player is the audio playback collaborator.
type Player interface {
	// Ready reports whether the output device initialized.
	Ready() bool
	// PlayFile begins playback of the named file. Returns false if
	// playback could not start.
	PlayFile(path string) bool
	// Running reports whether playback is still in progress.
	Running() bool
	// Loop services playback. Must be called repeatedly while Running.
	Loop()
	// Stop ends playback and releases per-file resources.
	Stop()
}

// RunToCompletion drives p's poll loop until playback finishes, sleeping
// poll between iterations. It does not call Stop; the caller owns teardown.
func RunToCompletion(p Player, poll time.Duration, sleep func(time.Duration)) {
	if sleep == nil {
		sleep = time.Sleep
	}
	for p.Running() {
		p.Loop()
		sleep(poll)
	}
}

// Null is a Player that is never ready. Used when the host has no audio
// output; the pipeline degrades to text-only operation.
var Null Player = nullPlayer{}

type nullPlayer struct{}

func (nullPlayer) Ready() bool            { return false }
func (nullPlayer) PlayFile(string) bool   { return false }
func (nullPlayer) Running() bool          { return false }
func (nullPlayer) Loop()                  {}
func (nullPlayer) Stop()                  {}

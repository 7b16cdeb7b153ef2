package pipeline

import (
	"context"
	"log/slog"

	"github.com/signbridge/glovepipe/pkg/audio"
	"github.com/signbridge/glovepipe/pkg/perf"
)

// runPlayback consumes direct file-playback jobs. It mirrors the speech
// task's arbitration and teardown without the network and cache steps; it is
// the entry point for producers outside the speech pipeline (the startup
// chime, future cues).
func (p *Pipeline) runPlayback(ctx context.Context) {
	log := p.log.With("task", "playback")
	log.Info("starting")

	for {
		var path string
		select {
		case <-ctx.Done():
			log.Info("stopping")
			return
		case path = <-p.audioJobs:
		}

		p.flags.SpeechInProgress.Store(true)

		if !p.player.Ready() {
			log.Warn("audio not ready, dropping job", "file", path)
			p.flags.SpeechInProgress.Store(false)
			continue
		}

		log.Info("playing", "file", path)
		p.playAndCleanup(path, log)
	}
}

// playAndCleanup runs one playback session and then, regardless of whether
// playback started, restores the system: stop the player, reinitialize the
// sensor bus the speaker disrupted, clear the in-progress flag, and stamp
// the completion time.
func (p *Pipeline) playAndCleanup(path string, log *slog.Logger) {
	if p.player.PlayFile(path) {
		p.prof.Start(perf.SpeechPlayback)
		audio.RunToCompletion(p.player, p.cfg.PlaybackPoll, p.sleep)
		p.prof.End(perf.SpeechPlayback)
		log.Info("playback complete", "file", path)
	} else {
		log.Error("playback failed to start", "file", path)
	}

	p.player.Stop()
	if err := p.bus.Reinit(); err != nil {
		log.Error("bus reinit failed", "error", err)
	}
	p.flags.SpeechInProgress.Store(false)
	p.flags.SetSpeechDone(p.now())
}

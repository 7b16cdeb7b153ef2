package pipeline

import (
	"context"
	"strings"

	"github.com/signbridge/glovepipe/pkg/perf"
)

// runSpeech consumes speech requests: cache hit plays immediately; a miss
// connects the network link, streams synthesis into the cache, and tears the
// link down before playback. The network and audio subsystems are mutually
// exclusive on this hardware.
//
// No failure path retries: the relevant state is rolled back and the next
// trigger starts fresh.
func (p *Pipeline) runSpeech(ctx context.Context) {
	log := p.log.With("task", "speech")
	log.Info("starting")

	for {
		var req string
		select {
		case <-ctx.Done():
			log.Info("stopping")
			return
		case req = <-p.speechReqs:
		}

		p.flags.SpeechInProgress.Store(true)
		text := strings.TrimSpace(req)
		p.flags.SetLastWord(text)

		path, hit, err := p.cache.Resolve(ctx, text)
		if err != nil {
			log.Error("cache probe failed", "text", text, "error", err)
			p.flags.SpeechInProgress.Store(false)
			continue
		}

		if !hit {
			if !p.player.Ready() {
				log.Warn("audio not ready, dropping request", "text", text)
				p.flags.SpeechInProgress.Store(false)
				continue
			}

			cctx, cancel := context.WithTimeout(ctx, p.cfg.ConnectTimeout)
			err := p.link.Connect(cctx)
			cancel()
			if err != nil {
				log.Error("link connect failed", "error", err)
				p.link.Disconnect()
				p.flags.SpeechInProgress.Store(false)
				continue
			}
			if p.flags.DebugNet.Load() {
				log.Info("link up, fetching", "text", text)
			}

			p.prof.Start(perf.SpeechFetch)
			fctx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
			path, err = p.cache.Fetch(fctx, text, p.cfg.Locale)
			cancel()
			p.prof.End(perf.SpeechFetch)
			if err != nil {
				log.Error("speech fetch failed", "text", text, "error", err)
				p.link.Disconnect()
				p.flags.SpeechInProgress.Store(false)
				continue
			}
			log.Info("fetched", "text", text, "file", path)

			// Link down before the speaker comes up.
			p.link.Disconnect()
		}

		p.playAndCleanup(path, log)
	}
}

package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/signbridge/glovepipe/pkg/infer"
	"github.com/signbridge/glovepipe/pkg/perf"
	"github.com/signbridge/glovepipe/pkg/sensor"
)

// runDispatcher wakes on window publication, runs one inference, and
// publishes the decision. Inference is the bottleneck stage; the single-slot
// window channel means a slow model skips straight to the newest window
// instead of working through a backlog.
func (p *Pipeline) runDispatcher(ctx context.Context) {
	log := p.log.With("task", "dispatcher")
	log.Info("starting")

	var lastDebug time.Time
	lastDebugClass := -2

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping")
			return
		case <-p.wake:
		}

		win, ok := p.takeWindow()
		if !ok {
			continue
		}

		p.prof.Start(perf.Inference)
		d := p.classify(win, log)
		p.prof.End(perf.Inference)

		if p.flags.DebugInference.Load() {
			now := p.now()
			if d.ClassIndex != lastDebugClass || now.Sub(lastDebug) >= 100*time.Millisecond {
				lastDebug = now
				lastDebugClass = d.ClassIndex
				log.Info("decision",
					"label", infer.DisplayLabel(p.classifier, d.Token, d.ClassIndex),
					"confidence", d.Confidence,
					"low", d.Confidence < p.cfg.ConfidenceFloor)
			}
		}

		// Decisions are transient; a drop just delays the next
		// hysteresis cycle.
		select {
		case p.decisions <- d:
		default:
		}
	}
}

// takeWindow performs at most one non-blocking take of the latest published
// window.
func (p *Pipeline) takeWindow() (w sensor.Window, ok bool) {
	select {
	case w = <-p.window:
		return w, true
	default:
		return w, false
	}
}

// classify maps every classifier failure mode to a neutral decision so the
// state machine downstream never sees an error. No retries: the next window
// starts fresh.
func (p *Pipeline) classify(w sensor.Window, log *slog.Logger) infer.Decision {
	now := p.now()
	if p.classifier == nil || !p.classifier.Ready() {
		return infer.Neutral(now)
	}
	tok, conf, classIndex, err := p.classifier.Classify(w)
	if err != nil {
		log.Warn("classification failed", "error", err)
		return infer.Neutral(now)
	}
	return infer.Decision{Token: tok, Confidence: conf, Timestamp: now, ClassIndex: classIndex}
}

package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/signbridge/glovepipe/pkg/console"
	"github.com/signbridge/glovepipe/pkg/infer"
	"github.com/signbridge/glovepipe/pkg/perf"
	"github.com/signbridge/glovepipe/pkg/sensor"
)

// logicState is the decision task's private state: the two state machines,
// the output text buffer, and the commit debounce bookkeeping.
type logicState struct {
	shake *shakeDetector
	fsm   *letterFSM

	text          strings.Builder
	lastCommitted infer.Token
	lastCommitAt  time.Time
	lastShakeLog  time.Time
}

// runLogic services both state machines opportunistically each iteration:
// a short bounded wait on the sample channel, a non-blocking poll of the
// decision channel, and a non-blocking poll of the operator commands.
func (p *Pipeline) runLogic(ctx context.Context) {
	log := p.log.With("task", "logic")
	log.Info("starting")

	st := &logicState{
		shake:         newShakeDetector(p.cfg.ShakeThreshold, p.cfg.ShakeCount, p.cfg.ShakeCooldown),
		fsm:           newLetterFSM(p.cfg.ConfidenceFloor, p.cfg.HoldDuration),
		lastCommitted: infer.TokenNeutral,
	}

	wait := time.NewTimer(p.cfg.SampleWait)
	defer wait.Stop()

	for {
		wait.Reset(p.cfg.SampleWait)
		select {
		case <-ctx.Done():
			log.Info("stopping")
			return
		case s := <-p.samples:
			p.handleSample(st, s)
		case <-wait.C:
		}

		select {
		case d := <-p.decisions:
			if commit, tok, classIndex := st.fsm.Advance(d, p.now()); commit {
				p.prof.Start(perf.LetterCommit)
				p.commit(st, tok, classIndex)
				p.prof.End(perf.LetterCommit)
			}
		default:
		}

		if p.commands != nil {
			select {
			case cmd := <-p.commands:
				p.handleCommand(ctx, st, cmd)
			default:
			}
		}

		p.sleep(p.cfg.LogicIdle)
	}
}

// handleSample feeds the shake detector and, on a trigger, hands the text
// buffer to the speech queue.
func (p *Pipeline) handleSample(st *logicState, s sensor.Sample) {
	log := p.log.With("task", "logic")
	now := p.now()

	if s.IMUValid {
		p.prof.Start(perf.ShakeDetect)
		mag := sensor.GyroMagnitude(s)
		st.shake.Add(mag)
		p.prof.End(perf.ShakeDetect)
		if p.flags.DebugShake.Load() && now.Sub(st.lastShakeLog) >= time.Second {
			st.lastShakeLog = now
			log.Info("shake", "magnitude", mag, "cooldown", st.shake.CooldownRemaining(now))
		}
	}

	fired := st.shake.Triggered(now)
	if !fired {
		return
	}

	if !p.flags.SpeechEnabled.Load() {
		if p.flags.DebugShake.Load() {
			log.Info("shake detected but speech disabled")
		}
		return
	}
	if st.text.Len() == 0 {
		if p.flags.DebugShake.Load() {
			log.Info("shake ignored, buffer empty")
		}
		return
	}
	if p.flags.SpeechInProgress.Load() {
		log.Info("speech in progress, not queueing")
		return
	}

	// On a full queue the buffer is retained for the next attempt.
	if p.EnqueueSpeech(st.text.String()) {
		log.Info("queued speech", "text", st.text.String())
		st.text.Reset()
	} else {
		log.Warn("speech queue full, keeping buffer")
	}
}

// commit applies a held token to the text buffer. A resolved word-level
// label replaces the whole buffer; letters and spaces append; backspace
// trims. Repeat suppression keeps the word just spoken from instantly
// reappearing, and a short debounce rejects double commits of one gesture.
func (p *Pipeline) commit(st *logicState, tok infer.Token, classIndex int) {
	if tok == infer.TokenNeutral {
		return
	}
	log := p.log.With("task", "logic")
	now := p.now()

	var label string
	if p.classifier != nil && classIndex >= 0 {
		label = p.classifier.LabelForIndex(classIndex)
	}

	if done, ok := p.flags.SpeechDone(); ok && now.Sub(done) < p.cfg.SpeechCooldown {
		if label != "" && label == p.flags.LastWord() {
			return
		}
	}

	if tok != infer.TokenBackspace {
		if tok == st.lastCommitted && now.Sub(st.lastCommitAt) < p.cfg.CommitDebounce {
			return
		}
	}
	st.lastCommitAt = now

	switch {
	case tok == infer.TokenBackspace:
		if st.text.Len() > 0 {
			trimmed := st.text.String()
			trimmed = trimmed[:len(trimmed)-1]
			st.text.Reset()
			st.text.WriteString(trimmed)
		}
		st.lastCommitted = infer.TokenNeutral
	case label != "" && !infer.IsControlLabel(label):
		// Word-level classification overrides character accumulation.
		st.text.Reset()
		st.text.WriteString(label)
		st.text.WriteByte(' ')
		st.lastCommitted = tok
	case tok == infer.TokenSpace:
		st.text.WriteByte(' ')
		st.lastCommitted = tok
	default:
		st.text.WriteRune(rune(tok))
		st.lastCommitted = tok
	}

	if p.sessions == nil || !p.sessions.Active() {
		log.Info("committed",
			"label", infer.DisplayLabel(p.classifier, tok, classIndex),
			"buffer", st.text.String())
	}
}

// handleCommand applies one operator command. The console itself never
// touches pipeline internals; everything routes through here on the decision
// task.
func (p *Pipeline) handleCommand(ctx context.Context, st *logicState, cmd Command) {
	log := p.log.With("task", "logic")
	switch cmd.Kind {
	case console.ToggleIMUDebug:
		log.Info("imu debug", "enabled", toggle(&p.flags.DebugIMU))
	case console.ToggleFingerDebug:
		log.Info("finger debug", "enabled", toggle(&p.flags.DebugFingers))
	case console.ToggleNetDebug:
		log.Info("network debug", "enabled", toggle(&p.flags.DebugNet))
	case console.ToggleShakeDebug:
		log.Info("shake debug", "enabled", toggle(&p.flags.DebugShake))
	case console.ToggleInferenceDebug:
		log.Info("inference debug", "enabled", toggle(&p.flags.DebugInference))
	case console.ToggleSpeech:
		log.Info("speech output", "enabled", toggle(&p.flags.SpeechEnabled))
	case console.InitInference:
		if p.classifier == nil {
			log.Warn("no classifier wired")
		} else if p.classifier.Ready() {
			log.Info("classifier already ready")
		} else {
			log.Warn("classifier not ready; it initializes on its own schedule")
		}
	case console.Status:
		p.printStatus(st)
	case console.ClearCache:
		n, err := p.cache.Clear(ctx)
		if err != nil {
			log.Error("cache clear failed", "error", err)
		} else {
			log.Info("cache cleared", "files", n)
		}
	case console.CalibrateFlex:
		if p.flex == nil {
			log.Warn("no flex sensors wired")
		} else if err := p.flex.Calibrate(); err != nil {
			log.Error("flex calibration failed", "error", err)
		}
	case console.CalibrateIMU:
		if p.imu == nil {
			log.Warn("no imu wired")
		} else if err := p.imu.Calibrate(); err != nil {
			log.Error("imu calibration failed", "error", err)
		}
	case console.ShowNormalized:
		if p.flex == nil {
			log.Warn("no flex sensors wired")
		} else if !p.flex.Calibrated() {
			log.Warn("flex sensors not calibrated; run calibration first")
		} else {
			log.Info("flex", "normalized", p.flex.NormalizedValues())
		}
	case console.SetPerson:
		if p.sessions != nil {
			p.sessions.SetPersonID(cmd.Arg)
			log.Info("person id set", "person", cmd.Arg)
		}
	case console.SetLabel:
		if p.sessions != nil {
			p.sessions.SetLabel(cmd.Arg)
			log.Info("label set", "label", cmd.Arg)
		}
	case console.StartLogging:
		if p.sessions != nil {
			if err := p.sessions.Start(ctx); err != nil {
				log.Error("logging start failed", "error", err)
			}
		}
	case console.StopLogging:
		if p.sessions != nil {
			if err := p.sessions.Stop(); err != nil {
				log.Error("logging stop failed", "error", err)
			}
		}
	case console.Quiet:
		p.flags.DebugIMU.Store(false)
		p.flags.DebugFingers.Store(false)
		p.flags.DebugNet.Store(false)
		p.flags.DebugShake.Store(false)
		p.flags.DebugInference.Store(false)
		log.Info("quiet mode")
	case console.Verbose:
		p.flags.DebugIMU.Store(true)
		p.flags.DebugFingers.Store(true)
		p.flags.DebugNet.Store(true)
		p.flags.DebugShake.Store(true)
		p.flags.DebugInference.Store(true)
		log.Info("verbose mode")
	case console.ProfilerStart:
		p.prof.Reset()
		p.prof.Enable()
		log.Info("profiler enabled")
	case console.ProfilerStop:
		p.prof.Disable()
		if err := p.prof.Report(p.statusW); err != nil {
			log.Error("profiler report failed", "error", err)
		}
	case console.ProfilerReport:
		if err := p.prof.Report(p.statusW); err != nil {
			log.Error("profiler report failed", "error", err)
		}
	case console.PlayChime:
		if p.cfg.ChimeFile == "" {
			log.Warn("no chime file configured")
		} else if !p.EnqueuePlayback(p.cfg.ChimeFile) {
			log.Warn("playback queue full")
		}
	}
}

// printStatus writes a subsystem summary to the console output.
func (p *Pipeline) printStatus(st *logicState) {
	fmt.Fprintf(p.statusW, "fingers: %v\n", p.flex != nil)
	fmt.Fprintf(p.statusW, "imu: %v\n", p.imu != nil)
	fmt.Fprintf(p.statusW, "classifier ready: %v\n", p.classifier != nil && p.classifier.Ready())
	fmt.Fprintf(p.statusW, "audio ready: %v\n", p.player.Ready())
	fmt.Fprintf(p.statusW, "speech enabled: %v\n", p.flags.SpeechEnabled.Load())
	fmt.Fprintf(p.statusW, "speech in progress: %v\n", p.flags.SpeechInProgress.Load())
	fmt.Fprintf(p.statusW, "buffer: %q\n", st.text.String())
	if p.sessions != nil {
		fmt.Fprintf(p.statusW, "logging: %v\n", p.sessions.Active())
	}
}

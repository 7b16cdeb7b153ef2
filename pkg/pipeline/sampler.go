package pipeline

import (
	"context"
	"time"

	"github.com/signbridge/glovepipe/pkg/perf"
	"github.com/signbridge/glovepipe/pkg/sensor"
)

// runSampler is the highest-rate task: every tick it assembles one sample,
// forwards it downstream, and maintains the rolling classifier window.
//
// Ordering: sample production happens-before window publication
// happens-before the dispatcher wake-up.
func (p *Pipeline) runSampler(ctx context.Context) {
	log := p.log.With("task", "sampler")
	log.Info("starting", "period", p.cfg.SamplePeriod)

	ticker := time.NewTicker(p.cfg.SamplePeriod)
	defer ticker.Stop()

	var rolling [sensor.WindowSize]sensor.Sample
	idx := 0
	primed := false
	var lastIMUDebug time.Time

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping")
			return
		case <-ticker.C:
		}

		p.prof.Start(perf.SensorRead)
		s := sensor.Sample{TimestampMS: p.elapsedMS()}

		if p.flex != nil {
			p.prof.Start(perf.FingerUpdate)
			p.flex.UpdateAll()
			s.Flex = p.flex.NormalizedValues()
			s.FingersValid = true
			p.prof.End(perf.FingerUpdate)
		}

		// Inertial reads are skipped during playback: the audio subsystem
		// and the sensor bus contend for the same transport.
		if p.imu != nil && !p.flags.SpeechInProgress.Load() {
			p.prof.Start(perf.IMUUpdate)
			if err := p.imu.Update(); err != nil {
				log.Debug("imu read failed", "error", err)
			} else {
				s.Accel = p.imu.Accel()
				s.Gyro = p.imu.Gyro()
				if p.imu.Calibrated() {
					s.AccelNorm, s.GyroNorm = p.imu.NormalizedReadings()
				} else {
					sensor.NormalizeFallback(&s)
				}
				s.IMUValid = true
			}
			p.prof.End(perf.IMUUpdate)
		}
		p.prof.End(perf.SensorRead)

		p.rec.Record(s)

		// Bounded queue, drop on full: pacing beats completeness.
		select {
		case p.samples <- s:
		default:
		}

		rolling[idx] = s
		idx = (idx + 1) % sensor.WindowSize
		if !primed && idx == 0 {
			primed = true
		}

		if primed {
			p.prof.Start(perf.WindowBuild)
			var w sensor.Window
			for i := range w {
				w[i] = rolling[(idx+i)%sensor.WindowSize]
			}
			p.publishWindow(w)
			p.prof.End(perf.WindowBuild)
		}

		if p.flags.DebugIMU.Load() && s.IMUValid {
			if now := p.now(); now.Sub(lastIMUDebug) >= 500*time.Millisecond {
				lastIMUDebug = now
				log.Info("imu", "accel", s.Accel, "gyro", s.Gyro)
			}
		}
	}
}

// publishWindow replaces the single-slot window channel's content and pokes
// the dispatcher. The slot always holds the newest complete window; the
// wake-up is coalesced so a slow dispatcher sees one pending notification at
// most.
func (p *Pipeline) publishWindow(w sensor.Window) {
	select {
	case <-p.window:
	default:
	}
	select {
	case p.window <- w:
	default:
	}
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

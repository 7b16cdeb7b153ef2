// Package perf is a lightweight marker-based timing profiler for the
// pipeline's hot paths. Each task brackets a phase with Start/End; the
// profiler keeps a bounded ring of timing events and computes per-marker
// statistics on demand. Disabled profilers cost one atomic load per call.
package perf

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Marker identifies one profiled phase.
type Marker int

// Profiled phases.
const (
	SensorRead Marker = iota
	IMUUpdate
	FingerUpdate
	WindowBuild
	Inference
	LetterCommit
	ShakeDetect
	SpeechFetch
	SpeechPlayback
	markerCount
)

var markerNames = [markerCount]string{
	SensorRead:     "sensor_read",
	IMUUpdate:      "imu_update",
	FingerUpdate:   "finger_update",
	WindowBuild:    "window_build",
	Inference:      "inference",
	LetterCommit:   "letter_commit",
	ShakeDetect:    "shake_detect",
	SpeechFetch:    "speech_fetch",
	SpeechPlayback: "speech_playback",
}

// String returns the marker's report name.
func (m Marker) String() string {
	if m < 0 || m >= markerCount {
		return "unknown"
	}
	return markerNames[m]
}

// maxEvents bounds the event ring; old events are overwritten.
const maxEvents = 1000

// Stats summarizes the recorded durations for one marker.
type Stats struct {
	Name   string
	Count  int
	Min    time.Duration
	Max    time.Duration
	Avg    time.Duration
	Median time.Duration
}

type event struct {
	marker Marker
	dur    time.Duration
}

// Profiler records phase durations into a fixed ring. Safe for concurrent
// use from multiple tasks as long as each marker is driven by one task at a
// time, which holds for the pipeline's marker assignment.
type Profiler struct {
	enabled atomic.Bool

	mu      sync.Mutex
	events  [maxEvents]event
	next    int
	count   int
	starts  [markerCount]time.Time
	started [markerCount]bool
}

// New creates a disabled profiler.
func New() *Profiler { return &Profiler{} }

// Enable turns event recording on.
func (p *Profiler) Enable() { p.enabled.Store(true) }

// Disable turns event recording off. Recorded events are kept.
func (p *Profiler) Disable() { p.enabled.Store(false) }

// Enabled reports whether recording is on.
func (p *Profiler) Enabled() bool { return p.enabled.Load() }

// Reset discards all recorded events and open markers.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next = 0
	p.count = 0
	p.started = [markerCount]bool{}
}

// Start marks the beginning of a phase.
func (p *Profiler) Start(m Marker) {
	if !p.enabled.Load() || m < 0 || m >= markerCount {
		return
	}
	p.mu.Lock()
	p.starts[m] = time.Now()
	p.started[m] = true
	p.mu.Unlock()
}

// End marks the end of a phase and records its duration. An End without a
// matching Start is ignored.
func (p *Profiler) End(m Marker) {
	if !p.enabled.Load() || m < 0 || m >= markerCount {
		return
	}
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started[m] {
		return
	}
	p.started[m] = false
	p.events[p.next] = event{marker: m, dur: now.Sub(p.starts[m])}
	p.next = (p.next + 1) % maxEvents
	if p.count < maxEvents {
		p.count++
	}
}

// StatsFor computes statistics for one marker over the retained events.
func (p *Profiler) StatsFor(m Marker) Stats {
	p.mu.Lock()
	var durs []time.Duration
	for i := 0; i < p.count; i++ {
		if p.events[i].marker == m {
			durs = append(durs, p.events[i].dur)
		}
	}
	p.mu.Unlock()

	s := Stats{Name: m.String(), Count: len(durs)}
	if len(durs) == 0 {
		return s
	}
	sort.Slice(durs, func(i, j int) bool { return durs[i] < durs[j] })
	s.Min = durs[0]
	s.Max = durs[len(durs)-1]
	s.Median = durs[len(durs)/2]
	var total time.Duration
	for _, d := range durs {
		total += d
	}
	s.Avg = total / time.Duration(len(durs))
	return s
}

// Report writes a stats table for every marker with at least one event.
func (p *Profiler) Report(w io.Writer) error {
	for m := Marker(0); m < markerCount; m++ {
		s := p.StatsFor(m)
		if s.Count == 0 {
			continue
		}
		_, err := fmt.Fprintf(w, "%-16s n=%-5d min=%-10s avg=%-10s med=%-10s max=%s\n",
			s.Name, s.Count, s.Min, s.Avg, s.Median, s.Max)
		if err != nil {
			return err
		}
	}
	return nil
}

// Package pipeline is the real-time core: five cooperating tasks connected by
// bounded channels turn raw glove samples into recognized text and spoken
// audio.
//
//	sampler    - fixed 20 ms tick, builds samples, maintains the rolling
//	             window, feeds the recorder
//	dispatcher - wakes on window publication, runs inference, publishes
//	             letter decisions
//	logic      - shake detection, letter hysteresis and commit, text buffer,
//	             speech queueing, operator commands
//	speech     - resolves requests against the cache, fetches over the
//	             network when needed, plays back
//	playback   - direct file playback jobs with the same teardown discipline
//
// Data flows strictly downstream through the channels; the only shared state
// is the atomic Flags set. Backpressure policy is drop-on-full everywhere:
// the pipeline prefers staying on pace over completeness.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/signbridge/glovepipe/pkg/audio"
	"github.com/signbridge/glovepipe/pkg/console"
	"github.com/signbridge/glovepipe/pkg/infer"
	"github.com/signbridge/glovepipe/pkg/perf"
	"github.com/signbridge/glovepipe/pkg/recorder"
	"github.com/signbridge/glovepipe/pkg/sensor"
	"github.com/signbridge/glovepipe/pkg/tts"
)

// SessionRecorder is the recorder surface the operator console drives.
// *recorder.Logger implements it.
type SessionRecorder interface {
	recorder.Recorder
	SetPersonID(string)
	SetLabel(string)
	Start(context.Context) error
	Stop() error
	Active() bool
}

// Options wires the pipeline to its collaborators. Sensor and classifier
// collaborators may be nil: the pipeline then runs in the corresponding
// degraded mode rather than failing.
type Options struct {
	Flex       sensor.FlexReader // nil: no finger data
	IMU        sensor.IMU        // nil: no inertial data
	Bus        sensor.Bus        // nil: no bus recovery needed
	Classifier infer.Classifier  // nil: decisions are never produced
	Recorder   recorder.Recorder // nil: samples are not recorded
	Sessions   SessionRecorder   // nil: console logging commands are inert
	Cache      *tts.Cache        // required
	Link       tts.Link          // nil: treated as always-on
	Player     audio.Player      // nil: audio degraded off
	Profiler   *perf.Profiler    // nil: profiling disabled
	StatusW    io.Writer         // console status output; default os.Stdout
}

// Pipeline owns the inter-task channels and the task loops.
type Pipeline struct {
	cfg   Config
	flags Flags

	flex       sensor.FlexReader
	imu        sensor.IMU
	bus        sensor.Bus
	classifier infer.Classifier
	rec        recorder.Recorder
	sessions   SessionRecorder
	cache      *tts.Cache
	link       tts.Link
	player     audio.Player
	prof       *perf.Profiler
	statusW    io.Writer

	samples    chan sensor.Sample
	window     chan sensor.Window
	wake       chan struct{}
	decisions  chan infer.Decision
	speechReqs chan string
	audioJobs  chan string

	commands <-chan Command

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(time.Duration)
	start time.Time

	log *slog.Logger
}

// Command is operator console input; see pkg/console.
type Command = console.Command

// New allocates the pipeline backbone. Failure here is fatal to bring-up:
// there is no degraded mode without the channels.
func New(cfg Config, opts Options) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if opts.Cache == nil {
		return nil, fmt.Errorf("pipeline: speech cache is required")
	}
	p := &Pipeline{
		cfg:        cfg,
		flex:       opts.Flex,
		imu:        opts.IMU,
		bus:        opts.Bus,
		classifier: opts.Classifier,
		rec:        opts.Recorder,
		sessions:   opts.Sessions,
		cache:      opts.Cache,
		link:       opts.Link,
		player:     opts.Player,
		prof:       opts.Profiler,
		statusW:    opts.StatusW,

		samples:    make(chan sensor.Sample, cfg.SampleQueue),
		window:     make(chan sensor.Window, 1),
		wake:       make(chan struct{}, 1),
		decisions:  make(chan infer.Decision, cfg.DecisionQueue),
		speechReqs: make(chan string, cfg.SpeechQueue),
		audioJobs:  make(chan string, cfg.AudioQueue),

		now:   time.Now,
		sleep: time.Sleep,
		log:   slog.Default(),
	}
	if p.bus == nil {
		p.bus = sensor.NopBus{}
	}
	if p.rec == nil {
		p.rec = recorder.Discard
	}
	if p.link == nil {
		p.link = tts.StaticLink{}
	}
	if p.player == nil {
		p.player = audio.Null
	}
	if p.prof == nil {
		p.prof = perf.New()
	}
	if p.statusW == nil {
		p.statusW = os.Stdout
	}
	p.start = p.now()
	return p, nil
}

// SetCommands attaches the operator command stream consumed by the decision
// task.
func (p *Pipeline) SetCommands(ch <-chan Command) {
	p.commands = ch
}

// Flags exposes the shared cross-task flags.
func (p *Pipeline) Flags() *Flags {
	return &p.flags
}

// Profiler exposes the pipeline's profiler.
func (p *Pipeline) Profiler() *perf.Profiler {
	return p.prof
}

// EnqueueSpeech queues text for the speech task without blocking. Returns
// false when the queue is full.
func (p *Pipeline) EnqueueSpeech(text string) bool {
	select {
	case p.speechReqs <- text:
		return true
	default:
		return false
	}
}

// EnqueuePlayback queues a file path for the direct playback task without
// blocking. Returns false when the queue is full.
func (p *Pipeline) EnqueuePlayback(path string) bool {
	select {
	case p.audioJobs <- path:
		return true
	default:
		return false
	}
}

// Run starts the five task goroutines and blocks until ctx is cancelled and
// every task has returned.
func (p *Pipeline) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, task := range []func(context.Context){
		p.runSampler,
		p.runDispatcher,
		p.runLogic,
		p.runSpeech,
		p.runPlayback,
	} {
		wg.Add(1)
		go func(f func(context.Context)) {
			defer wg.Done()
			f(ctx)
		}(task)
	}
	wg.Wait()
}

// elapsedMS is the sample timestamp clock: milliseconds since pipeline start.
func (p *Pipeline) elapsedMS() uint32 {
	return uint32(p.now().Sub(p.start) / time.Millisecond)
}

package pipeline

import (
	"fmt"
	"time"
)

// Config holds the pipeline's tunables. The defaults reproduce the device's
// production timing; tests shrink the durations to keep runs fast.
type Config struct {
	// SamplePeriod is the sensor tick interval.
	SamplePeriod time.Duration `yaml:"sample_period"`

	// SampleQueue is the depth of the sample channel feeding the decision
	// task. A full queue drops the newest sample.
	SampleQueue int `yaml:"sample_queue"`

	// DecisionQueue is the depth of the letter-decision channel.
	DecisionQueue int `yaml:"decision_queue"`

	// SpeechQueue is the depth of the speech-request channel.
	SpeechQueue int `yaml:"speech_queue"`

	// AudioQueue is the depth of the direct playback-job channel.
	AudioQueue int `yaml:"audio_queue"`

	// ConfidenceFloor is the minimum classifier confidence; decisions
	// below it are treated as neutral.
	ConfidenceFloor float32 `yaml:"confidence_floor"`

	// HoldDuration is how long the same token must persist before it
	// commits.
	HoldDuration time.Duration `yaml:"hold_duration"`

	// CommitDebounce is the minimum gap between commits of the same token.
	CommitDebounce time.Duration `yaml:"commit_debounce"`

	// ShakeThreshold is the gyro magnitude (rad/s) counted as shaking.
	ShakeThreshold float32 `yaml:"shake_threshold"`

	// ShakeCount is how many of the last ShakeWindow magnitudes must
	// exceed the threshold to trigger.
	ShakeCount int `yaml:"shake_count"`

	// ShakeCooldown is the minimum gap between shake triggers.
	ShakeCooldown time.Duration `yaml:"shake_cooldown"`

	// SpeechCooldown is the window after playback during which committing
	// the word just spoken is suppressed.
	SpeechCooldown time.Duration `yaml:"speech_cooldown"`

	// ConnectTimeout bounds the network link connect attempt.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// FetchTimeout bounds one speech synthesis call.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// Locale is the synthesis locale.
	Locale string `yaml:"locale"`

	// SampleWait bounds the decision task's wait for a sample each
	// iteration.
	SampleWait time.Duration `yaml:"sample_wait"`

	// LogicIdle is the decision task's per-iteration idle sleep.
	LogicIdle time.Duration `yaml:"logic_idle"`

	// PlaybackPoll is the audio poll-loop interval.
	PlaybackPoll time.Duration `yaml:"playback_poll"`

	// ChimeFile is an optional audio file played via the direct playback
	// queue on operator request.
	ChimeFile string `yaml:"chime_file"`
}

// Default returns the production configuration.
func Default() Config {
	return Config{
		SamplePeriod:    20 * time.Millisecond,
		SampleQueue:     20,
		DecisionQueue:   10,
		SpeechQueue:     3,
		AudioQueue:      3,
		ConfidenceFloor: 0.85,
		HoldDuration:    200 * time.Millisecond,
		CommitDebounce:  200 * time.Millisecond,
		ShakeThreshold:  3.5,
		ShakeCount:      18,
		ShakeCooldown:   1500 * time.Millisecond,
		SpeechCooldown:  1500 * time.Millisecond,
		ConnectTimeout:  15 * time.Second,
		FetchTimeout:    30 * time.Second,
		Locale:          "en-US",
		SampleWait:      5 * time.Millisecond,
		LogicIdle:       5 * time.Millisecond,
		PlaybackPoll:    10 * time.Millisecond,
	}
}

// validate rejects configurations that cannot form a working pipeline.
func (c Config) validate() error {
	if c.SamplePeriod <= 0 {
		return fmt.Errorf("pipeline: sample period must be positive")
	}
	if c.SampleQueue <= 0 || c.DecisionQueue <= 0 || c.SpeechQueue <= 0 || c.AudioQueue <= 0 {
		return fmt.Errorf("pipeline: queue depths must be positive")
	}
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor > 1 {
		return fmt.Errorf("pipeline: confidence floor must be in [0,1]")
	}
	if c.ShakeCount <= 0 || c.ShakeCount > shakeWindow {
		return fmt.Errorf("pipeline: shake count must be in [1,%d]", shakeWindow)
	}
	return nil
}

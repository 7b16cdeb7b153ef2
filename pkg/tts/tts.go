// Package tts resolves speech requests to playable audio files. A request is
// served from the on-device cache when possible; otherwise the text is
// synthesized by a cloud service over a streaming connection and the audio is
// written straight into the cache.
//
// The network session itself is a collaborator (Link) because the device's
// radio contends with the audio subsystem: the speech task connects, fetches,
// and disconnects before playback begins.
package tts

import (
	"context"
	"errors"
	"io"
)

// Sentinel errors.
var (
	// ErrNotConnected is returned by a synthesizer invoked without an
	// established link.
	ErrNotConnected = errors.New("tts: link not connected")

	// ErrServiceFailed is returned when the speech service answered with a
	// non-success result.
	ErrServiceFailed = errors.New("tts: service failed")
)

// Synthesizer turns text into audio bytes, streaming them into w as they
// arrive. The audio format is fixed by the service configuration.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, locale string, w io.Writer) error
}

// SynthesizeFunc is a function that implements Synthesizer.
type SynthesizeFunc func(ctx context.Context, text, locale string, w io.Writer) error

// Synthesize implements the Synthesizer interface.
func (f SynthesizeFunc) Synthesize(ctx context.Context, text, locale string, w io.Writer) error {
	return f(ctx, text, locale, w)
}

// Link is the network session collaborator. Connect is time-bounded by the
// caller's context; Disconnect must leave no dangling session and is safe to
// call on a link that never connected.
type Link interface {
	Connect(ctx context.Context) error
	Disconnect()
}

// StaticLink is a Link for hosts with always-on networking.
type StaticLink struct{}

func (StaticLink) Connect(context.Context) error { return nil }
func (StaticLink) Disconnect()                   {}

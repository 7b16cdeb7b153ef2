package audio

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// Device is a Player backed by the host's default output device via malgo.
// One file plays at a time; the pipeline's speech arbitration guarantees no
// concurrent PlayFile calls.
type Device struct {
	log *slog.Logger

	ctx   *malgo.AllocatedContext
	ready bool

	mu     sync.Mutex
	dev    *malgo.Device
	src    *wavReader
	closed atomic.Bool
	done   atomic.Bool
}

var _ Player = (*Device)(nil)

// NewDevice initializes the audio backend. A failed init returns a Device
// that reports not ready rather than an error, so a host without audio
// degrades instead of failing bring-up.
func NewDevice() *Device {
	d := &Device{log: slog.With("task", "audio")}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		d.log.Warn("audio backend unavailable", "error", err)
		return d
	}
	d.ctx = ctx
	d.ready = true
	return d
}

// Ready reports whether the output backend initialized.
func (d *Device) Ready() bool { return d.ready }

// PlayFile starts playback of a 16-bit PCM WAV file.
func (d *Device) PlayFile(path string) bool {
	if !d.ready {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dev != nil {
		// Previous session not torn down; refuse rather than overlap.
		d.log.Warn("playback already active", "path", path)
		return false
	}

	src, err := openWAV(path)
	if err != nil {
		d.log.Error("open failed", "path", path, "error", err)
		return false
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = uint32(src.channels)
	cfg.SampleRate = uint32(src.sampleRate)
	cfg.Alsa.NoMMap = 1

	d.done.Store(false)
	onFrames := func(out, _ []byte, frameCount uint32) {
		n, err := io.ReadFull(src, out)
		if err != nil {
			for i := n; i < len(out); i++ {
				out[i] = 0
			}
			d.done.Store(true)
		}
	}

	dev, err := malgo.InitDevice(d.ctx.Context, cfg, malgo.DeviceCallbacks{Data: onFrames})
	if err != nil {
		d.log.Error("device init failed", "path", path, "error", err)
		src.Close()
		return false
	}
	if err := dev.Start(); err != nil {
		d.log.Error("device start failed", "path", path, "error", err)
		dev.Uninit()
		src.Close()
		return false
	}
	d.dev = dev
	d.src = src
	return true
}

// Running reports whether the current file still has audio to play.
func (d *Device) Running() bool {
	d.mu.Lock()
	active := d.dev != nil
	d.mu.Unlock()
	return active && !d.done.Load()
}

// Loop services playback. The device callback pulls data on its own thread,
// so there is no per-iteration work; Loop exists to keep the caller's poll
// loop shape uniform across Player implementations.
func (d *Device) Loop() {}

// Stop ends playback and releases the per-file device and reader.
func (d *Device) Stop() {
	d.mu.Lock()
	dev, src := d.dev, d.src
	d.dev, d.src = nil, nil
	d.mu.Unlock()
	if dev != nil {
		dev.Uninit()
	}
	if src != nil {
		src.Close()
	}
}

// Close releases the audio backend.
func (d *Device) Close() {
	if d.closed.Swap(true) {
		return
	}
	d.Stop()
	if d.ctx != nil {
		_ = d.ctx.Uninit()
		d.ctx.Free()
	}
}

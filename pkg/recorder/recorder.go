// Package recorder captures labeled training samples. The sampler hands it
// every sample it produces; the recorder writes rows only while a session is
// active (logging enabled with both a person id and a gesture label set).
//
// Session configuration is written by the operator console and read on the
// sampling path, so it sits behind a mutex with short critical sections.
// Rows are msgpack-encoded into one file per session.
package recorder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/signbridge/glovepipe/pkg/sensor"
	"github.com/signbridge/glovepipe/pkg/storage"
)

// Recorder receives every produced sample, fire-and-forget.
type Recorder interface {
	Record(sensor.Sample)
}

// Discard is a Recorder that drops everything.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(sensor.Sample) {}

// Row is one recorded training sample. Field order mirrors the training
// pipeline's expected column order.
type Row struct {
	PersonID  string     `msgpack:"person_id"`
	Label     string     `msgpack:"label"`
	Timestamp uint32     `msgpack:"timestamp"`
	Flex      [5]float32 `msgpack:"flex"`
	AccelNorm [3]float32 `msgpack:"accel_norm"`
	GyroNorm  [3]float32 `msgpack:"gyro_norm"`
}

// Logger is a Recorder writing msgpack session files into a FileStore.
type Logger struct {
	store storage.FileStore
	log   *slog.Logger

	mu        sync.Mutex
	enabled   bool
	personID  string
	label     string
	sessionID string
	w         io.WriteCloser
	enc       *msgpack.Encoder
	rows      int
}

// NewLogger creates a Logger that writes sessions under the given store.
func NewLogger(store storage.FileStore) *Logger {
	return &Logger{store: store, log: slog.With("task", "recorder")}
}

// SetPersonID sets the subject identifier for subsequent rows.
func (l *Logger) SetPersonID(id string) {
	l.mu.Lock()
	l.personID = id
	l.mu.Unlock()
}

// SetLabel sets the gesture label for subsequent rows.
func (l *Logger) SetLabel(label string) {
	l.mu.Lock()
	l.label = label
	l.mu.Unlock()
}

// Active reports whether a session is currently recording.
func (l *Logger) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// Start begins a new session. It fails unless both person id and label are
// set. Starting while already active is a no-op.
func (l *Logger) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.enabled {
		return nil
	}
	if l.personID == "" || l.label == "" {
		return fmt.Errorf("recorder: person id and label required before logging")
	}
	id := uuid.NewString()
	w, err := l.store.Write(ctx, "sessions/"+id+".msgpack")
	if err != nil {
		return fmt.Errorf("recorder: open session file: %w", err)
	}
	l.sessionID = id
	l.w = w
	l.enc = msgpack.NewEncoder(w)
	l.rows = 0
	l.enabled = true
	l.log.Info("session started", "session", id, "person", l.personID, "label", l.label)
	return nil
}

// Stop ends the current session and flushes the file. Stopping while
// inactive is a no-op.
func (l *Logger) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return nil
	}
	l.enabled = false
	err := l.w.Close()
	l.log.Info("session stopped", "session", l.sessionID, "rows", l.rows)
	l.w = nil
	l.enc = nil
	if err != nil {
		return fmt.Errorf("recorder: close session file: %w", err)
	}
	return nil
}

// Record writes one row if a session is active. Encode failures end the
// session rather than stall the sampling tick.
func (l *Logger) Record(s sensor.Sample) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return
	}
	row := Row{
		PersonID:  l.personID,
		Label:     l.label,
		Timestamp: s.TimestampMS,
		Flex:      s.Flex,
		AccelNorm: s.AccelNorm,
		GyroNorm:  s.GyroNorm,
	}
	if err := l.enc.Encode(&row); err != nil {
		l.log.Error("encode failed, stopping session", "session", l.sessionID, "error", err)
		l.enabled = false
		_ = l.w.Close()
		l.w = nil
		l.enc = nil
		return
	}
	l.rows++
}

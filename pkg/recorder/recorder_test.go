package recorder

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/signbridge/glovepipe/pkg/sensor"
	"github.com/signbridge/glovepipe/pkg/storage"
)

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return NewLogger(store), dir
}

func sessionFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(dir, "sessions"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, filepath.Join(dir, "sessions", e.Name()))
	}
	return names
}

func TestStartRequiresPersonAndLabel(t *testing.T) {
	l, _ := newTestLogger(t)
	ctx := context.Background()

	if err := l.Start(ctx); err == nil {
		t.Fatal("Start succeeded with nothing configured")
	}
	l.SetPersonID("P1")
	if err := l.Start(ctx); err == nil {
		t.Fatal("Start succeeded without a label")
	}
	l.SetLabel("A")
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !l.Active() {
		t.Fatal("not active after Start")
	}
	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestRecordInactiveIsNoop(t *testing.T) {
	l, dir := newTestLogger(t)
	l.Record(sensor.Sample{TimestampMS: 1})
	if files := sessionFiles(t, dir); len(files) != 0 {
		t.Fatalf("inactive recorder created files: %v", files)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	l, dir := newTestLogger(t)
	ctx := context.Background()

	l.SetPersonID("P2")
	l.SetLabel("HELLO")
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Starting again while active is a no-op, not a second file.
	if err := l.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	for i := uint32(0); i < 3; i++ {
		l.Record(sensor.Sample{
			TimestampMS: i * 20,
			Flex:        [5]float32{0.1, 0.2, 0.3, 0.4, 0.5},
			AccelNorm:   [3]float32{1, 2, 3},
			GyroNorm:    [3]float32{4, 5, 6},
		})
	}
	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	// Stopping again is fine.
	if err := l.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	// Records after Stop go nowhere.
	l.Record(sensor.Sample{TimestampMS: 999})

	files := sessionFiles(t, dir)
	if len(files) != 1 {
		t.Fatalf("session files = %v, want exactly one", files)
	}

	f, err := os.Open(files[0])
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	defer f.Close()
	dec := msgpack.NewDecoder(f)
	var rows []Row
	for {
		var r Row
		if err := dec.Decode(&r); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			t.Fatalf("decode: %v", err)
		}
		rows = append(rows, r)
	}
	if len(rows) != 3 {
		t.Fatalf("decoded %d rows, want 3", len(rows))
	}
	for i, r := range rows {
		if r.PersonID != "P2" || r.Label != "HELLO" {
			t.Fatalf("row %d = %+v", i, r)
		}
		if r.Timestamp != uint32(i)*20 {
			t.Fatalf("row %d timestamp = %d", i, r.Timestamp)
		}
	}
	if rows[0].GyroNorm != [3]float32{4, 5, 6} {
		t.Fatalf("gyro = %v", rows[0].GyroNorm)
	}
}

func TestDistinctSessionsGetDistinctFiles(t *testing.T) {
	l, dir := newTestLogger(t)
	ctx := context.Background()

	l.SetPersonID("P1")
	l.SetLabel("A")
	for i := 0; i < 2; i++ {
		if err := l.Start(ctx); err != nil {
			t.Fatalf("Start %d: %v", i, err)
		}
		l.Record(sensor.Sample{})
		if err := l.Stop(); err != nil {
			t.Fatalf("Stop %d: %v", i, err)
		}
	}
	if files := sessionFiles(t, dir); len(files) != 2 {
		t.Fatalf("session files = %v, want two", files)
	}
}

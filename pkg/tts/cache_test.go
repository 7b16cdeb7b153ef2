package tts

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/signbridge/glovepipe/pkg/kv"
	"github.com/signbridge/glovepipe/pkg/storage"
)

func testStore(t *testing.T) *storage.Local {
	t.Helper()
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return store
}

func TestFilenameDeterministic(t *testing.T) {
	a := Filename("HELLO WORLD")
	b := Filename("  HELLO WORLD ")
	if a != b {
		t.Fatalf("trimmed variants map to different files: %q vs %q", a, b)
	}
	if !strings.HasSuffix(a, CacheExt) {
		t.Fatalf("filename %q lacks extension %q", a, CacheExt)
	}
	if !strings.HasPrefix(a, "hello_world-") {
		t.Fatalf("filename %q lacks the expected slug", a)
	}
}

func TestFilenameDistinctAfterSanitization(t *testing.T) {
	// Both sanitize to the same slug; the hash must keep them apart.
	a := Filename("A!B")
	b := Filename("A?B")
	if a == b {
		t.Fatalf("distinct phrases collided on %q", a)
	}
}

func TestFilenameDegenerateText(t *testing.T) {
	name := Filename("!!!")
	if !strings.HasPrefix(name, "utterance-") {
		t.Fatalf("degenerate text produced %q", name)
	}
}

func TestCacheMissThenFetchThenHit(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	index := kv.NewMemory()
	synthCalls := 0
	synth := SynthesizeFunc(func(ctx context.Context, text, locale string, w io.Writer) error {
		synthCalls++
		_, err := w.Write([]byte("pcm:" + text))
		return err
	})
	c := NewCache(store, index, synth)

	if _, hit, err := c.Resolve(ctx, "HELLO"); err != nil || hit {
		t.Fatalf("Resolve before fetch: hit=%v err=%v", hit, err)
	}

	path, err := c.Fetch(ctx, "HELLO ", "en-US")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if synthCalls != 1 {
		t.Fatalf("synthesizer calls = %d, want 1", synthCalls)
	}

	got, hit, err := c.Resolve(ctx, "HELLO")
	if err != nil || !hit {
		t.Fatalf("Resolve after fetch: hit=%v err=%v", hit, err)
	}
	if got != path {
		t.Fatalf("Resolve path %q != Fetch path %q", got, path)
	}

	// Trimmed text must land on the same index entry, now at two hits.
	raw, err := index.Get(ctx, "tts/"+Filename("HELLO"))
	if err != nil {
		t.Fatalf("index entry missing: %v", err)
	}
	var entry indexEntry
	if err := msgpack.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("bad index entry: %v", err)
	}
	if entry.Text != "HELLO" || entry.Hits != 2 {
		t.Fatalf("entry = %+v, want text HELLO with 2 hits", entry)
	}
}

func TestCacheFetchFailureRemovesPartial(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	synth := SynthesizeFunc(func(ctx context.Context, text, locale string, w io.Writer) error {
		w.Write([]byte("truncated"))
		return errors.New("stream interrupted")
	})
	c := NewCache(store, kv.NewMemory(), synth)

	if _, err := c.Fetch(ctx, "HELLO", "en-US"); err == nil {
		t.Fatal("Fetch succeeded despite synthesis failure")
	}
	exists, err := store.Exists(ctx, Filename("HELLO"))
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatal("partial file left in cache")
	}
	if _, hit, _ := c.Resolve(ctx, "HELLO"); hit {
		t.Fatal("failed fetch still resolves as a hit")
	}
}

func TestCacheClear(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	index := kv.NewMemory()
	synth := SynthesizeFunc(func(ctx context.Context, text, locale string, w io.Writer) error {
		_, err := w.Write([]byte("pcm"))
		return err
	})
	c := NewCache(store, index, synth)

	for _, text := range []string{"HELLO", "WORLD", "YES"} {
		if _, err := c.Fetch(ctx, text, "en-US"); err != nil {
			t.Fatalf("Fetch %q: %v", text, err)
		}
	}

	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Fatalf("Clear removed %d files, want 3", n)
	}
	if _, hit, _ := c.Resolve(ctx, "HELLO"); hit {
		t.Fatal("entry survived Clear")
	}
	for e, err := range index.List(ctx, "tts/") {
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		t.Fatalf("index entry %q survived Clear", e.Key)
	}
}

package tts

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/signbridge/glovepipe/pkg/kv"
	"github.com/signbridge/glovepipe/pkg/storage"
)

// CacheExt is the extension of cached audio files.
const CacheExt = ".wav"

const indexPrefix = "tts/"

// indexEntry is the per-utterance index record.
type indexEntry struct {
	Text      string    `msgpack:"text"`
	File      string    `msgpack:"file"`
	CreatedAt time.Time `msgpack:"created_at"`
	Hits      int       `msgpack:"hits"`
}

// Cache maps utterance text to cached audio files. Filenames are derived
// deterministically from the trimmed text, so the same phrase always resolves
// to the same file.
type Cache struct {
	store storage.FileStore
	index kv.Store
	synth Synthesizer
	log   *slog.Logger
}

// NewCache creates a Cache over the given file store and index.
func NewCache(store storage.FileStore, index kv.Store, synth Synthesizer) *Cache {
	return &Cache{
		store: store,
		index: index,
		synth: synth,
		log:   slog.With("task", "tts-cache"),
	}
}

// Filename derives the cache filename for an utterance. The text is trimmed,
// lowercased, and reduced to a short safe slug plus a hash so that distinct
// phrases never collide on sanitization.
func Filename(text string) string {
	trimmed := strings.TrimSpace(text)
	h := fnv.New32a()
	h.Write([]byte(trimmed))

	var slug strings.Builder
	for _, r := range strings.ToLower(trimmed) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			slug.WriteRune(r)
		case r == ' ':
			slug.WriteRune('_')
		}
		if slug.Len() >= 24 {
			break
		}
	}
	if slug.Len() == 0 {
		slug.WriteString("utterance")
	}
	return fmt.Sprintf("%s-%08x%s", slug.String(), h.Sum32(), CacheExt)
}

// Resolve reports whether the utterance is already cached and returns the
// absolute path of its audio file. A hit bumps the index hit counter.
func (c *Cache) Resolve(ctx context.Context, text string) (path string, hit bool, err error) {
	name := Filename(text)
	exists, err := c.store.Exists(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("tts: cache probe: %w", err)
	}
	if !exists {
		return c.store.Abs(name), false, nil
	}
	c.touch(ctx, text, name)
	return c.store.Abs(name), true, nil
}

// Fetch synthesizes the utterance and streams it into the cache, returning
// the absolute path of the new file. On any failure the partial file is
// removed and the error returned; the caller decides whether to retry.
func (c *Cache) Fetch(ctx context.Context, text, locale string) (string, error) {
	name := Filename(text)
	w, err := c.store.Write(ctx, name)
	if err != nil {
		return "", fmt.Errorf("tts: open cache file: %w", err)
	}

	if err := c.synth.Synthesize(ctx, strings.TrimSpace(text), locale, w); err != nil {
		w.Close()
		if derr := c.store.Delete(ctx, name); derr != nil {
			c.log.Warn("partial file not removed", "file", name, "error", derr)
		}
		return "", err
	}
	if err := w.Close(); err != nil {
		_ = c.store.Delete(ctx, name)
		return "", fmt.Errorf("tts: flush cache file: %w", err)
	}

	entry := indexEntry{Text: strings.TrimSpace(text), File: name, CreatedAt: time.Now(), Hits: 1}
	if raw, err := msgpack.Marshal(&entry); err == nil {
		if err := c.index.Set(ctx, indexPrefix+name, raw); err != nil {
			c.log.Warn("index insert failed", "file", name, "error", err)
		}
	}
	return c.store.Abs(name), nil
}

// Clear removes every cached audio file and its index entries, returning the
// number of files removed.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	removed, err := c.store.ClearExtension(ctx, CacheExt)
	if err != nil {
		return removed, fmt.Errorf("tts: clear cache: %w", err)
	}
	var keys []string
	for e, err := range c.index.List(ctx, indexPrefix) {
		if err != nil {
			return removed, fmt.Errorf("tts: scan index: %w", err)
		}
		keys = append(keys, e.Key)
	}
	for _, k := range keys {
		if err := c.index.Delete(ctx, k); err != nil {
			return removed, fmt.Errorf("tts: drop index entry: %w", err)
		}
	}
	return removed, nil
}

// touch increments the hit counter for a cached utterance. Index failures
// are logged and ignored; the index is bookkeeping, not correctness.
func (c *Cache) touch(ctx context.Context, text, name string) {
	key := indexPrefix + name
	entry := indexEntry{Text: strings.TrimSpace(text), File: name, CreatedAt: time.Now()}
	if raw, err := c.index.Get(ctx, key); err == nil {
		if err := msgpack.Unmarshal(raw, &entry); err != nil {
			c.log.Warn("bad index entry", "file", name, "error", err)
		}
	}
	entry.Hits++
	if raw, err := msgpack.Marshal(&entry); err == nil {
		if err := c.index.Set(ctx, key, raw); err != nil {
			c.log.Warn("index update failed", "file", name, "error", err)
		}
	}
}

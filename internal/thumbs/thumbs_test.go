package thumbs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/drake/vidwall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testItem(path string) domain.VideoItem {
	return domain.VideoItem{
		ID:      "a",
		Name:    "clip",
		Path:    path,
		Size:    2048,
		ModTime: 1700000000,
	}
}

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := NewGenerator(Config{
		CacheDir:  t.TempDir(),
		PerSecond: 10000,
	}, testLogger())
	require.NoError(t, err)
	return g
}

// fakeExtract pretends to be ffmpeg/ffprobe: it writes a JPEG-sized blob to
// the output path and records the invocation.
func fakeExtract(calls *[][]string) func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, append([]string{name}, args...))
		if name == "ffprobe" {
			return []byte("120.5\n"), nil
		}
		out := args[len(args)-1]
		return nil, os.WriteFile(out, []byte("jpeg-bytes"), 0644)
	}
}

func TestThumbnailExtractsAndCaches(t *testing.T) {
	g := newTestGenerator(t)
	var calls [][]string
	g.runCmd = fakeExtract(&calls)

	item := testItem("/library/beach/clip.mp4")
	path, err := g.Thumbnail(context.Background(), item)
	require.NoError(t, err)
	assert.FileExists(t, path)
	require.Len(t, calls, 2, "one probe plus one extraction")
	assert.Equal(t, "ffprobe", calls[0][0])
	assert.Equal(t, "ffmpeg", calls[1][0])

	// Second call hits the cache without spawning anything
	again, err := g.Thumbnail(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	assert.Len(t, calls, 2)
}

func TestThumbnailSkipsProbeWithKnownDuration(t *testing.T) {
	g := newTestGenerator(t)
	var calls [][]string
	g.runCmd = fakeExtract(&calls)

	item := testItem("/library/clip.mp4")
	item.Duration = 200

	_, err := g.Thumbnail(context.Background(), item)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "ffmpeg", calls[0][0])
	assert.Contains(t, calls[0], "20.00", "seek lands at 10% of duration")
}

func TestThumbnailEmptyOutputIsNoFrame(t *testing.T) {
	g := newTestGenerator(t)
	g.runCmd = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if name == "ffprobe" {
			return []byte("10\n"), nil
		}
		return nil, os.WriteFile(args[len(args)-1], nil, 0644)
	}

	_, err := g.Thumbnail(context.Background(), testItem("/library/blank.mp4"))
	require.ErrorIs(t, err, domain.ErrNoFrame)
	assert.Equal(t, domain.ErrorKindPermanent, g.Classify(err))

	// The failed attempt must not leave a partial file behind
	entries, readErr := os.ReadDir(g.cfg.CacheDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestClassify(t *testing.T) {
	g := newTestGenerator(t)

	decodeErr := fmt.Errorf("%w: clip: %w", domain.ErrThumbnailFailed, &exec.ExitError{})
	assert.Equal(t, domain.ErrorKindPermanent, g.Classify(decodeErr))

	ioErr := fmt.Errorf("%w: clip: %w", domain.ErrThumbnailFailed, errors.New("spawn failed"))
	assert.Equal(t, domain.ErrorKindTransient, g.Classify(ioErr))

	assert.Equal(t, domain.ErrorKindTransient, g.Classify(context.DeadlineExceeded))
}

func TestCacheKeyTracksContentIdentity(t *testing.T) {
	a := testItem("/library/clip.mp4")
	b := a
	assert.Equal(t, cacheKey(a), cacheKey(b))

	b.ModTime++
	assert.NotEqual(t, cacheKey(a), cacheKey(b), "touched file gets a new key")

	c := a
	c.Size++
	assert.NotEqual(t, cacheKey(a), cacheKey(c))
}

func TestSeekPoint(t *testing.T) {
	assert.Equal(t, 20.0, seekPoint(200))
	assert.Equal(t, 1.0, seekPoint(5), "floor at one second")
	assert.Equal(t, 30.0, seekPoint(3600), "cap at thirty seconds")
	assert.Equal(t, 0.0, seekPoint(1.5), "very short clips seek to start")
	assert.Equal(t, 1.0, seekPoint(0), "unknown duration defaults near start")
}

func TestPruneEvictsOldestFirst(t *testing.T) {
	dir := t.TempDir()
	g, err := NewGenerator(Config{CacheDir: dir, MaxCacheBytes: 25}, testLogger())
	require.NoError(t, err)

	old := filepath.Join(dir, "old.jpg")
	fresh := filepath.Join(dir, "fresh.jpg")
	require.NoError(t, os.WriteFile(old, make([]byte, 20), 0644))
	require.NoError(t, os.WriteFile(fresh, make([]byte, 20), 0644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	require.NoError(t, g.Prune())
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}

func TestPruneDisabledWithoutLimit(t *testing.T) {
	dir := t.TempDir()
	g, err := NewGenerator(Config{CacheDir: dir}, testLogger())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), make([]byte, 1000), 0644))
	require.NoError(t, g.Prune())
	assert.FileExists(t, filepath.Join(dir, "a.jpg"))
}

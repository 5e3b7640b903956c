package thumbs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/drake/vidwall/internal/domain"
)

// Config holds thumbnail generation tunables.
type Config struct {
	// CacheDir is where extracted frames are stored
	CacheDir string
	// MaxCacheBytes bounds the cache directory; 0 disables pruning
	MaxCacheBytes int64
	// Width of generated thumbnails (height follows the aspect ratio)
	Width int
	// PerSecond limits extraction starts; ffmpeg spawns are expensive
	PerSecond float64
	// Timeout bounds a single extraction
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Width <= 0 {
		c.Width = 1280
	}
	if c.PerSecond <= 0 {
		c.PerSecond = 4
	}
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	return c
}

// Generator extracts preview frames with ffmpeg and caches them as JPEG
// files keyed by content identity, so an edited or replaced video gets a
// fresh thumbnail while an untouched one never pays extraction twice.
// It implements domain.ThumbnailProvider.
type Generator struct {
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger

	runCmd func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewGenerator creates a thumbnail generator writing into cfg.CacheDir.
func NewGenerator(cfg Config, logger *slog.Logger) (*Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		return nil, err
	}
	return &Generator{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.PerSecond), 1),
		logger:  logger,
		runCmd:  runCommand,
	}, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Thumbnail returns the cached thumbnail path for item, extracting a frame
// first if the cache misses. Safe for concurrent use; concurrent extraction
// of the same item wastes one ffmpeg run but converges on the same file.
func (g *Generator) Thumbnail(ctx context.Context, item domain.VideoItem) (string, error) {
	out := filepath.Join(g.cfg.CacheDir, cacheKey(item)+".jpg")
	if info, err := os.Stat(out); err == nil && info.Size() > 0 {
		return out, nil
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	duration := item.Duration
	if duration <= 0 {
		duration = g.probeDuration(ctx, item.Path)
	}

	// Write to a temp name first so a killed ffmpeg never leaves a
	// truncated file that later reads as a valid cache hit.
	tmp := out + ".partial"
	args := []string{
		"-y", "-v", "error",
		"-ss", formatSeconds(seekPoint(duration)),
		"-i", item.Path,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", g.cfg.Width),
		"-q:v", "3",
		"-f", "mjpeg",
		tmp,
	}
	if _, err := g.runCmd(ctx, "ffmpeg", args...); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: %s: %v", domain.ErrThumbnailFailed, item.Name, err)
	}
	if info, err := os.Stat(tmp); err != nil || info.Size() == 0 {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: %s", domain.ErrNoFrame, item.Name)
	}
	if err := os.Rename(tmp, out); err != nil {
		os.Remove(tmp)
		return "", err
	}

	g.logger.Debug("thumbnail extracted", "item", item.Name, "path", out)
	return out, nil
}

// Classify maps a Thumbnail error to its retry class. Decode failures are
// tied to the file and will not heal on their own; everything else is
// treated as transient load pressure.
func (g *Generator) Classify(err error) domain.ErrorKind {
	switch {
	case errors.Is(err, domain.ErrNoFrame):
		return domain.ErrorKindPermanent
	case errors.Is(err, domain.ErrThumbnailFailed):
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return domain.ErrorKindPermanent
		}
		return domain.ErrorKindTransient
	default:
		return domain.ErrorKindTransient
	}
}

// Prune deletes the oldest cache files until the directory fits under
// MaxCacheBytes again. Access order approximates by mtime.
func (g *Generator) Prune() error {
	if g.cfg.MaxCacheBytes <= 0 {
		return nil
	}

	entries, err := os.ReadDir(g.cfg.CacheDir)
	if err != nil {
		return err
	}

	type cacheFile struct {
		path    string
		size    int64
		modTime time.Time
	}
	var files []cacheFile
	var total int64
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, cacheFile{
			path:    filepath.Join(g.cfg.CacheDir, entry.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
		total += info.Size()
	}
	if total <= g.cfg.MaxCacheBytes {
		return nil
	}

	for i := 1; i < len(files); i++ {
		j := i
		for j > 0 && files[j].modTime.Before(files[j-1].modTime) {
			files[j], files[j-1] = files[j-1], files[j]
			j--
		}
	}

	for _, f := range files {
		if total <= g.cfg.MaxCacheBytes {
			break
		}
		if err := os.Remove(f.path); err != nil {
			g.logger.Warn("failed to prune thumbnail", "path", f.path, "error", err)
			continue
		}
		total -= f.size
	}
	g.logger.Info("thumbnail cache pruned", "size", total)
	return nil
}

// probeDuration asks ffprobe for the container duration. Returns 0 when the
// probe fails; seekPoint degrades to the near-start default.
func (g *Generator) probeDuration(ctx context.Context, path string) float64 {
	out, err := g.runCmd(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0
	}
	return d
}

// seekPoint picks the extraction timestamp: 10% into the video, at least
// one second in to skip fade-ins and studio cards, never past the end and
// capped at 30s so long files stay cheap to seek.
func seekPoint(duration float64) float64 {
	ts := duration * 0.1
	if ts < 1.0 {
		ts = 1.0
	}
	if ts > 30.0 {
		ts = 30.0
	}
	if duration > 2.0 && ts > duration-1.0 {
		ts = duration - 1.0
	}
	if duration > 0 && duration <= 2.0 {
		ts = 0
	}
	return ts
}

func formatSeconds(ts float64) string {
	return strconv.FormatFloat(ts, 'f', 2, 64)
}

// cacheKey hashes the content identity of an item. Path, size and mtime
// together change whenever the file does.
func cacheKey(item domain.VideoItem) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d", item.Path, item.Size, item.ModTime)
	return hex.EncodeToString(h.Sum(nil)[:12])
}

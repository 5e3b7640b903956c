package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/drake/vidwall/internal/domain"
)

// videoExtensions are the container formats the grid knows how to preview.
var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".m4v":  {},
	".mkv":  {},
	".mov":  {},
	".avi":  {},
	".webm": {},
}

// Scanner discovers video files under a library root. It implements
// domain.CatalogSource; each Catalog call is one full rescan producing a
// fresh generation.
type Scanner struct {
	root   string
	logger *slog.Logger
}

// New creates a scanner rooted at dir.
func New(root string, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{root: root, logger: logger}
}

// Catalog walks the library root and returns every video file found.
// Dot-directories are skipped. Item IDs derive from the path relative to the
// root, so they are stable across rescans and across machines sharing a
// library layout.
func (s *Scanner) Catalog(ctx context.Context) ([]domain.VideoItem, error) {
	if _, err := os.Stat(s.root); err != nil {
		return nil, domain.ErrScanRootMissing
	}

	var items []domain.VideoItem
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != s.root {
				return fs.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if _, ok := videoExtensions[ext]; !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.logger.Warn("skipping unstattable file", "path", path, "error", err)
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return nil
		}

		items = append(items, domain.VideoItem{
			ID:      itemID(rel),
			Name:    strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
			Path:    path,
			Folder:  topFolder(rel),
			Size:    info.Size(),
			ModTime: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("library scanned", "root", s.root, "count", len(items))
	return items, nil
}

// itemID hashes the root-relative path into a short stable identifier.
// Slashes are normalized so the same library yields the same IDs regardless
// of platform.
func itemID(rel string) string {
	sum := sha256.Sum256([]byte(filepath.ToSlash(rel)))
	return hex.EncodeToString(sum[:8])
}

// topFolder returns the first path segment of the root-relative path, or ""
// for files living directly in the root.
func topFolder(rel string) string {
	rel = filepath.ToSlash(rel)
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		return rel[:i]
	}
	return ""
}

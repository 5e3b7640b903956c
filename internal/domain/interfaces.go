package domain

import "context"

// CatalogSource produces full catalog generations. A returned slice is
// exclusively owned by the caller; the source never mutates it afterwards.
type CatalogSource interface {
	// Catalog scans and returns the ordered item list for a new generation.
	Catalog(ctx context.Context) ([]VideoItem, error)
}

// MetadataStore persists the mutable per-item flags and session preferences
// across runs. Implementations must be safe for concurrent use.
type MetadataStore interface {
	// ApplyFlags overlays persisted favorite/hidden/tag state onto freshly
	// scanned items, in place.
	ApplyFlags(items []VideoItem)

	SetFavorite(id string, favorite bool) error
	SetHidden(id string, hidden bool) error
	SetTags(id string, tags []string) error

	// Session returns the last persisted view state, if any.
	Session() (SessionPrefs, bool)
	SaveSession(prefs SessionPrefs) error

	Close() error
}

// SessionPrefs is the view state restored on startup.
type SessionPrefs struct {
	Folder    string   `json:"folder"`
	FolderSet bool     `json:"folder_set"`
	View      ViewMode `json:"view"`
	Sort      SortMode `json:"sort"`
	Seed      int64    `json:"seed"`
}

// ThumbnailProvider materializes a preview image for an item, returning the
// local path of the cached thumbnail. Extraction is the expensive external
// load the admission engine gates.
type ThumbnailProvider interface {
	Thumbnail(ctx context.Context, item VideoItem) (string, error)

	// Classify maps a Thumbnail error to its retry class.
	Classify(err error) ErrorKind
}

package domain

import "fmt"

// VideoItem represents one discoverable video in the catalog.
// All fields except the flags are immutable for the lifetime of a
// catalog generation; Favorite, Hidden and Tags update in place.
type VideoItem struct {
	ID       string  // Stable identifier derived from the file path
	Name     string  // Display name (file name without extension)
	Path     string  // Absolute file path
	Folder   string  // Top-level folder under the scan root ("" = ungrouped)
	Size     int64   // File size in bytes
	ModTime  int64   // Unix timestamp of last modification
	Duration float64 // Runtime in seconds (0 if unknown)

	// Technical metadata (populated when a probe is available)
	Width  int
	Height int
	Codec  string

	// Mutable flags
	Favorite bool
	Hidden   bool
	Tags     []string
}

// Resolution returns a human-readable resolution string based on video height
func (v VideoItem) Resolution() string {
	switch {
	case v.Height >= 2160:
		return "4K"
	case v.Height >= 1080:
		return "1080p"
	case v.Height >= 720:
		return "720p"
	case v.Height > 0:
		return fmt.Sprintf("%dp", v.Height)
	default:
		return ""
	}
}

// HasTag reports whether the item carries the given tag.
func (v VideoItem) HasTag(tag string) bool {
	for _, t := range v.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ViewMode selects which slice of the catalog is browsable. The modes are
// strictly mutually exclusive: favorites and hidden are views, not
// independently composable toggles.
type ViewMode int

const (
	// ViewDefault shows everything except hidden items
	ViewDefault ViewMode = iota
	// ViewFavorites shows favorite items only (hidden still excluded)
	ViewFavorites
	// ViewHidden shows hidden items only
	ViewHidden
	// ViewAll shows everything, hidden included
	ViewAll
)

func (m ViewMode) String() string {
	switch m {
	case ViewFavorites:
		return "favorites"
	case ViewHidden:
		return "hidden"
	case ViewAll:
		return "all"
	default:
		return "default"
	}
}

// TagMode controls how multiple active tags combine.
type TagMode int

const (
	// TagModeAll requires every active tag on an item (AND)
	TagModeAll TagMode = iota
	// TagModeAny requires at least one active tag (OR)
	TagModeAny
)

// FilterCriteria is an immutable description of the active predicate set.
type FilterCriteria struct {
	Folder    string   // Exact folder match, only when FolderSet
	FolderSet bool     // Distinguishes "no folder filter" from the "" folder
	View      ViewMode // Mutually exclusive view mode
	Tags      []string // Active tag set (empty = no tag filter)
	TagMode   TagMode  // AND/OR combination for Tags
	NameQuery string   // Fuzzy name filter ("" = off)
}

// DependsOnFavorites reports whether a favorite-flag change can alter
// the filtered result under these criteria.
func (c FilterCriteria) DependsOnFavorites() bool {
	return c.View == ViewFavorites
}

// DependsOnHidden reports whether a hidden-flag change can alter the
// filtered result under these criteria. ViewAll ignores the flag.
func (c FilterCriteria) DependsOnHidden() bool {
	return c.View != ViewAll
}

// DependsOnTags reports whether a tag change can alter the filtered result.
func (c FilterCriteria) DependsOnTags() bool {
	return len(c.Tags) > 0
}

// SortMode identifies the active ordering.
type SortMode int

const (
	// SortFolder orders by folder ascending, then recency descending
	SortFolder SortMode = iota
	// SortRecency orders by recency descending
	SortRecency
	// SortShuffle is a seeded random permutation
	SortShuffle
)

func (m SortMode) String() string {
	switch m {
	case SortRecency:
		return "recency"
	case SortShuffle:
		return "shuffle"
	default:
		return "folder"
	}
}

// SortSpec pairs a sort mode with the shuffle seed. The seed is fixed when
// shuffle is activated and survives re-filtering; only an explicit reshuffle
// intent replaces it.
type SortSpec struct {
	Mode SortMode
	Seed int64
}

// ViewportState describes the scroll position and layout of the grid
// surface. All extents share the scroll offset's units.
type ViewportState struct {
	ScrollOffset    float64 // Distance scrolled from the top
	ViewportExtent  float64 // Height of the visible surface
	ItemExtent      float64 // Height of one grid row
	Columns         int     // Items per row
	AdmissionBuffer float64 // Zone in which items become load-eligible
	RetentionBuffer float64 // Larger zone in which active items stay loaded
}

// Range is a half-open index range [Start, End) over the filtered sequence.
type Range struct {
	Start int
	End   int
}

// Len returns the number of indices covered.
func (r Range) Len() int {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Empty reports whether the range covers nothing.
func (r Range) Empty() bool { return r.End <= r.Start }

// Contains reports whether i falls inside the range.
func (r Range) Contains(i int) bool { return i >= r.Start && i < r.End }

// GridStats is the diagnostic counter snapshot exposed to the shell.
type GridStats struct {
	TotalItems    int    // Catalog size
	FilteredItems int    // Items matching the active criteria
	RenderedItems int    // Items currently represented in the presentation tree
	VisibleItems  int    // Items inside the viewport proper
	ActiveLoads   int    // Items holding a loaded media resource
	PendingLoads  int    // Items with an in-flight load
	FailedItems   int    // Items in a (terminal or retrying) failed state
	Generation    uint64 // Current catalog generation
}

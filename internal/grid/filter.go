package grid

import (
	"github.com/drake/vidwall/internal/domain"
	"github.com/drake/vidwall/internal/search"
)

// FilterEngine computes the ordered subset of a catalog matching the active
// criteria. Membership sets for favorites, hidden and tags are rebuilt once
// per catalog generation and patched on flag changes, so Apply is a single
// O(n) pass regardless of the predicate mix.
type FilterEngine struct {
	favorites map[string]struct{}
	hidden    map[string]struct{}
	tagged    map[string]map[string]struct{} // tag -> item ids
}

// NewFilterEngine creates an empty filter engine.
func NewFilterEngine() *FilterEngine {
	return &FilterEngine{
		favorites: make(map[string]struct{}),
		hidden:    make(map[string]struct{}),
		tagged:    make(map[string]map[string]struct{}),
	}
}

// Rebuild replaces the membership sets from a fresh catalog.
func (f *FilterEngine) Rebuild(items []domain.VideoItem) {
	f.favorites = make(map[string]struct{})
	f.hidden = make(map[string]struct{})
	f.tagged = make(map[string]map[string]struct{})
	for _, item := range items {
		if item.Favorite {
			f.favorites[item.ID] = struct{}{}
		}
		if item.Hidden {
			f.hidden[item.ID] = struct{}{}
		}
		for _, tag := range item.Tags {
			f.addTag(item.ID, tag)
		}
	}
}

// SetFavorite patches the favorites set for a single item.
func (f *FilterEngine) SetFavorite(id string, favorite bool) {
	if favorite {
		f.favorites[id] = struct{}{}
	} else {
		delete(f.favorites, id)
	}
}

// SetHidden patches the hidden set for a single item.
func (f *FilterEngine) SetHidden(id string, hidden bool) {
	if hidden {
		f.hidden[id] = struct{}{}
	} else {
		delete(f.hidden, id)
	}
}

// SetTags replaces the tag memberships for a single item.
func (f *FilterEngine) SetTags(id string, tags []string) {
	for _, ids := range f.tagged {
		delete(ids, id)
	}
	for _, tag := range tags {
		f.addTag(id, tag)
	}
}

func (f *FilterEngine) addTag(id, tag string) {
	ids, ok := f.tagged[tag]
	if !ok {
		ids = make(map[string]struct{})
		f.tagged[tag] = ids
	}
	ids[id] = struct{}{}
}

// Apply returns the indices of items matching the criteria, preserving
// catalog order. An empty result is a valid outcome, not an error.
func (f *FilterEngine) Apply(items []domain.VideoItem, c domain.FilterCriteria) []int {
	matched := make([]int, 0, len(items))
	for i := range items {
		if f.matches(&items[i], c) {
			matched = append(matched, i)
		}
	}
	return matched
}

func (f *FilterEngine) matches(item *domain.VideoItem, c domain.FilterCriteria) bool {
	if c.FolderSet && item.Folder != c.Folder {
		return false
	}

	_, hidden := f.hidden[item.ID]
	switch c.View {
	case domain.ViewFavorites:
		if _, fav := f.favorites[item.ID]; !fav {
			return false
		}
		if hidden {
			return false
		}
	case domain.ViewHidden:
		if !hidden {
			return false
		}
	case domain.ViewAll:
		// Hidden flag ignored
	default:
		if hidden {
			return false
		}
	}

	if len(c.Tags) > 0 && !f.matchesTags(item.ID, c) {
		return false
	}

	if c.NameQuery != "" && !search.Matches(c.NameQuery, item.Name) {
		return false
	}

	return true
}

func (f *FilterEngine) matchesTags(id string, c domain.FilterCriteria) bool {
	if c.TagMode == domain.TagModeAny {
		for _, tag := range c.Tags {
			if _, ok := f.tagged[tag][id]; ok {
				return true
			}
		}
		return false
	}
	for _, tag := range c.Tags {
		if _, ok := f.tagged[tag][id]; !ok {
			return false
		}
	}
	return true
}

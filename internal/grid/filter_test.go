package grid

import (
	"testing"

	"github.com/drake/vidwall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItem(id, folder string, modTime int64) domain.VideoItem {
	return domain.VideoItem{
		ID:      id,
		Name:    "video " + id,
		Path:    "/library/" + folder + "/" + id + ".mp4",
		Folder:  folder,
		Size:    1024,
		ModTime: modTime,
	}
}

func testCatalog() []domain.VideoItem {
	items := []domain.VideoItem{
		testItem("a", "beach", 100),
		testItem("b", "beach", 200),
		testItem("c", "city", 300),
		testItem("d", "", 400),
		testItem("e", "city", 500),
	}
	items[0].Favorite = true
	items[2].Favorite = true
	items[2].Hidden = true
	items[3].Hidden = true
	items[1].Tags = []string{"sunset", "4k"}
	items[4].Tags = []string{"sunset"}
	return items
}

func newTestFilter(items []domain.VideoItem) *FilterEngine {
	f := NewFilterEngine()
	f.Rebuild(items)
	return f
}

func ids(items []domain.VideoItem, indices []int) []string {
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = items[idx].ID
	}
	return out
}

func TestFilterDefaultExcludesHidden(t *testing.T) {
	items := testCatalog()
	f := newTestFilter(items)

	got := f.Apply(items, domain.FilterCriteria{})
	assert.Equal(t, []string{"a", "b", "e"}, ids(items, got))
}

func TestFilterPreservesCatalogOrderAndIsIdempotent(t *testing.T) {
	items := testCatalog()
	f := newTestFilter(items)
	c := domain.FilterCriteria{View: domain.ViewAll}

	first := f.Apply(items, c)
	second := f.Apply(items, c)
	assert.Equal(t, first, second)
	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1], first[i], "catalog order must be preserved")
	}
}

func TestFilterFolder(t *testing.T) {
	items := testCatalog()
	f := newTestFilter(items)

	got := f.Apply(items, domain.FilterCriteria{Folder: "beach", FolderSet: true})
	assert.Equal(t, []string{"a", "b"}, ids(items, got))

	// The empty folder is a real group, distinct from "no folder filter"
	got = f.Apply(items, domain.FilterCriteria{Folder: "", FolderSet: true, View: domain.ViewAll})
	assert.Equal(t, []string{"d"}, ids(items, got))
}

func TestFilterViewModesAreMutuallyExclusive(t *testing.T) {
	items := testCatalog()
	f := newTestFilter(items)

	// Favorites view: favorite AND not hidden ("c" is a hidden favorite)
	got := f.Apply(items, domain.FilterCriteria{View: domain.ViewFavorites})
	assert.Equal(t, []string{"a"}, ids(items, got))

	// Hidden view: hidden only
	got = f.Apply(items, domain.FilterCriteria{View: domain.ViewHidden})
	assert.Equal(t, []string{"c", "d"}, ids(items, got))

	// All view: everything
	got = f.Apply(items, domain.FilterCriteria{View: domain.ViewAll})
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(items, got))
}

func TestFilterTags(t *testing.T) {
	items := testCatalog()
	f := newTestFilter(items)

	all := domain.FilterCriteria{Tags: []string{"sunset", "4k"}, TagMode: domain.TagModeAll}
	got := f.Apply(items, all)
	assert.Equal(t, []string{"b"}, ids(items, got))

	any := domain.FilterCriteria{Tags: []string{"sunset", "4k"}, TagMode: domain.TagModeAny}
	got = f.Apply(items, any)
	assert.Equal(t, []string{"b", "e"}, ids(items, got))
}

func TestFilterNameQuery(t *testing.T) {
	items := []domain.VideoItem{
		{ID: "1", Name: "Beach Sunset Timelapse"},
		{ID: "2", Name: "City Drive"},
	}
	f := newTestFilter(items)

	got := f.Apply(items, domain.FilterCriteria{NameQuery: "sunset"})
	assert.Equal(t, []string{"1"}, ids(items, got))
}

func TestFilterEmptyResultIsNotAnError(t *testing.T) {
	items := testCatalog()
	f := newTestFilter(items)

	got := f.Apply(items, domain.FilterCriteria{Folder: "nope", FolderSet: true})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterFlagPatches(t *testing.T) {
	items := testCatalog()
	f := newTestFilter(items)

	f.SetFavorite("b", true)
	got := f.Apply(items, domain.FilterCriteria{View: domain.ViewFavorites})
	assert.Equal(t, []string{"a", "b"}, ids(items, got))

	f.SetHidden("a", true)
	got = f.Apply(items, domain.FilterCriteria{View: domain.ViewFavorites})
	assert.Equal(t, []string{"b"}, ids(items, got))

	f.SetTags("a", []string{"sunset"})
	got = f.Apply(items, domain.FilterCriteria{View: domain.ViewAll, Tags: []string{"sunset"}, TagMode: domain.TagModeAny})
	assert.Equal(t, []string{"a", "b", "e"}, ids(items, got))
}

package store

import (
	"testing"

	"github.com/drake/vidwall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *MetaStore {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFlagsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.SetFavorite("a", true))
	require.NoError(t, s.SetHidden("b", true))
	require.NoError(t, s.SetTags("c", []string{"sunset", "4k"}))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	items := []domain.VideoItem{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	s.ApplyFlags(items)

	assert.True(t, items[0].Favorite)
	assert.True(t, items[1].Hidden)
	assert.Equal(t, []string{"sunset", "4k"}, items[2].Tags)
	assert.False(t, items[3].Favorite)
	assert.False(t, items[3].Hidden)
	assert.Empty(t, items[3].Tags)
}

func TestClearingFlagRemovesRecord(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SetFavorite("a", true))
	require.NoError(t, s.SetFavorite("a", false))
	require.NoError(t, s.SetTags("a", []string{"x"}))
	require.NoError(t, s.SetTags("a", nil))

	items := []domain.VideoItem{{ID: "a"}}
	s.ApplyFlags(items)
	assert.False(t, items[0].Favorite)
	assert.Empty(t, items[0].Tags)
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	_, ok := s.Session()
	assert.False(t, ok, "fresh store has no session")

	want := domain.SessionPrefs{
		Folder:    "beach",
		FolderSet: true,
		View:      domain.ViewFavorites,
		Sort:      domain.SortShuffle,
		Seed:      42,
	}
	require.NoError(t, s.SaveSession(want))

	got, ok := s.Session()
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestMemoryOnlyMode(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SetFavorite("a", true))
	items := []domain.VideoItem{{ID: "a"}}
	s.ApplyFlags(items)
	assert.True(t, items[0].Favorite)
}

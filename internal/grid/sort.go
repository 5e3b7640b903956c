package grid

import (
	"math/rand"
	"sort"

	"github.com/drake/vidwall/internal/domain"
)

// SortIndices orders the filtered indices in place according to spec.
// Ties always break on item ID so repeated invocations are reproducible.
//
// Shuffle is deterministic for a given (id-set, seed) pair regardless of the
// incoming index order: indices are canonicalized by ID before the seeded
// permutation is applied, so re-filtering under the same seed never reorders
// the surviving items relative to each other.
func SortIndices(items []domain.VideoItem, indices []int, spec domain.SortSpec) {
	switch spec.Mode {
	case domain.SortRecency:
		sort.SliceStable(indices, func(a, b int) bool {
			ia, ib := &items[indices[a]], &items[indices[b]]
			if ia.ModTime != ib.ModTime {
				return ia.ModTime > ib.ModTime
			}
			return ia.ID < ib.ID
		})

	case domain.SortShuffle:
		// Canonical order first, then a seeded Fisher-Yates pass.
		sort.Slice(indices, func(a, b int) bool {
			return items[indices[a]].ID < items[indices[b]].ID
		})
		rng := rand.New(rand.NewSource(spec.Seed))
		for i := len(indices) - 1; i > 0; i-- {
			j := rng.Intn(i + 1)
			indices[i], indices[j] = indices[j], indices[i]
		}

	default: // SortFolder
		sort.SliceStable(indices, func(a, b int) bool {
			ia, ib := &items[indices[a]], &items[indices[b]]
			if ia.Folder != ib.Folder {
				// Ungrouped items sort last
				if ia.Folder == "" {
					return false
				}
				if ib.Folder == "" {
					return true
				}
				return ia.Folder < ib.Folder
			}
			if ia.ModTime != ib.ModTime {
				return ia.ModTime > ib.ModTime
			}
			return ia.ID < ib.ID
		})
	}
}

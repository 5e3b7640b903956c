package grid

import (
	"math"

	"github.com/drake/vidwall/internal/domain"
)

// Viewport range math. All three ranges are pure functions of the viewport
// state and the filtered item count; they hold for any scroll position and
// are cheap enough to recompute on every scroll event.
//
// A pixel band [lo, hi) maps to rows [floor(lo/itemExtent), floor(hi/itemExtent))
// and then to item indices via the column count, clamped to [0, count).

// VisibleRange returns the index range covered by the viewport proper.
func VisibleRange(v domain.ViewportState, count int) domain.Range {
	return rangeForBand(v, count, v.ScrollOffset, v.ScrollOffset+v.ViewportExtent)
}

// AdmissionRange widens the viewport by the admission buffer on both ends.
// Items inside it are eligible to start loading.
func AdmissionRange(v domain.ViewportState, count int) domain.Range {
	return rangeForBand(v, count,
		v.ScrollOffset-v.AdmissionBuffer,
		v.ScrollOffset+v.ViewportExtent+v.AdmissionBuffer)
}

// RetentionRange widens the viewport by the retention buffer on both ends.
// Already-active items inside it keep their resources; the rendered set
// covers this range so back-and-forth scrolling does not thrash.
func RetentionRange(v domain.ViewportState, count int) domain.Range {
	return rangeForBand(v, count,
		v.ScrollOffset-v.RetentionBuffer,
		v.ScrollOffset+v.ViewportExtent+v.RetentionBuffer)
}

func rangeForBand(v domain.ViewportState, count int, lo, hi float64) domain.Range {
	if count <= 0 || v.Columns <= 0 || v.ItemExtent <= 0 || hi <= lo {
		return domain.Range{}
	}

	startRow := int(math.Floor(lo / v.ItemExtent))
	if startRow < 0 {
		startRow = 0
	}
	endRow := int(math.Floor(hi / v.ItemExtent))

	start := startRow * v.Columns
	end := endRow * v.Columns
	if start > count {
		start = count
	}
	if end > count {
		end = count
	}
	if end < start {
		end = start
	}
	return domain.Range{Start: start, End: end}
}

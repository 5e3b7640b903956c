package grid

import (
	"time"

	"github.com/drake/vidwall/internal/domain"
)

// Recovery audit: a single periodic pass over the visible range that repairs
// stuck loads. One shared tick replaces per-item retry timers; an item that
// left scope is simply not visited on the next pass.

// Audit scans the items in the visible range and repairs two stuck
// conditions: an idle item that should be loading, and an in-flight load
// whose elapsed time exceeds stuckTimeout. Restarting a stuck load counts
// as a retry against maxAttempts. Returns attach and detach requests.
func (a *Admission) Audit(seq []string, visible, admit domain.Range, gen uint64, stuckTimeout time.Duration) (loads, unloads []string) {
	admitSet := rangeSet(seq, admit)
	now := a.now()

	for i := visible.Start; i < visible.End && i < len(seq); i++ {
		id := seq[i]
		e, ok := a.entries[id]
		if !ok {
			// Visible items always lie inside the retention range; a missing
			// entry means a sync was skipped. Recreate and admit below.
			e = a.ensure(id, gen)
		}

		switch e.phase {
		case domain.PhaseIdle:
			if !e.terminal && !now.Before(e.nextRetry) {
				loads, unloads = a.tryStart(e, admitSet, gen, loads, unloads)
			}

		case domain.PhaseLoading:
			if now.Sub(e.startedAt) <= stuckTimeout {
				continue
			}
			// Clear the stale attempt and re-enter loading, counted as a retry.
			a.loading--
			e.attempts++
			if e.attempts >= a.maxAttempts {
				e.phase = domain.PhaseFailed
				e.terminal = true
				a.logger.Warn("stuck load exhausted attempts", "id", id, "attempts", e.attempts)
				continue
			}
			a.logger.Debug("restarting stuck load", "id", id, "attempt", e.attempts+1)
			e.phase = domain.PhaseIdle
			loads, unloads = a.tryStart(e, admitSet, gen, loads, unloads)

		case domain.PhaseFailed:
			if !e.terminal && !now.Before(e.nextRetry) {
				e.phase = domain.PhaseIdle
				loads, unloads = a.tryStart(e, admitSet, gen, loads, unloads)
			}
		}
	}
	return loads, unloads
}

package grid

import (
	"container/list"
	"log/slog"
	"time"

	"github.com/drake/vidwall/internal/domain"
)

// Admission enforces the hard cap on concurrently held media resources.
// Both in-flight loads and active items count against MaxActive, so the
// platform never sees more than MaxActive simultaneous decoder attachments
// even before the first completion arrives.
//
// Recency is tracked with a map plus doubly linked list: O(1) touch and O(1)
// eviction-candidate lookup at the front.
type Admission struct {
	maxActive   int
	maxAttempts int
	baseDelay   time.Duration

	entries map[string]*loadEntry
	lru     *list.List // PhaseActive entries, front = least recently used
	loading int

	logger *slog.Logger
	strict bool
	now    func() time.Time
}

type loadEntry struct {
	id         string
	phase      domain.LoadPhase
	attempts   int
	terminal   bool
	gen        uint64
	startedAt  time.Time
	lastAccess time.Time
	nextRetry  time.Time
	elem       *list.Element // non-nil iff phase == PhaseActive
}

// NewAdmission creates an admission manager. maxActive should sit well below
// the platform's true ceiling: resource teardown is not instantaneous, so
// this is a safe steady-state count under churn, not the hardware maximum.
func NewAdmission(maxActive, maxAttempts int, baseDelay time.Duration, logger *slog.Logger) *Admission {
	if logger == nil {
		logger = slog.Default()
	}
	return &Admission{
		maxActive:   maxActive,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		entries:     make(map[string]*loadEntry),
		lru:         list.New(),
		logger:      logger,
		now:         time.Now,
	}
}

// SetStrict makes invariant violations panic instead of being absorbed.
// Intended for development builds and tests.
func (a *Admission) SetStrict(strict bool) { a.strict = strict }

// Sync realigns load state with the current ranges over the sequence.
// Entries leaving the retention range are destroyed (their resources
// released); items inside the admission range are admitted as capacity
// allows. Returned slices are ids to attach and detach, in order.
func (a *Admission) Sync(seq []string, admit, retain domain.Range, gen uint64) (loads, unloads []string) {
	retainSet := rangeSet(seq, retain)
	admitSet := rangeSet(seq, admit)

	// Destroy state for everything outside the retention buffer.
	for id, e := range a.entries {
		if _, keep := retainSet[id]; keep {
			continue
		}
		if a.release(e) {
			unloads = append(unloads, id)
		}
		delete(a.entries, id)
	}

	now := a.now()
	for i := admit.Start; i < admit.End && i < len(seq); i++ {
		id := seq[i]
		e := a.ensure(id, gen)
		switch e.phase {
		case domain.PhaseActive:
			a.touch(e, now)
		case domain.PhaseIdle:
			if !e.terminal && !now.Before(e.nextRetry) {
				loads, unloads = a.tryStart(e, admitSet, gen, loads, unloads)
			}
		}
	}
	return loads, unloads
}

// MarkLoaded records a successful load completion. Returns false when the
// completion is no longer relevant (stale generation, item left scope, or
// no load in flight); such completions are silently discarded.
func (a *Admission) MarkLoaded(id string, gen uint64) bool {
	e, ok := a.entries[id]
	if !ok || e.phase != domain.PhaseLoading || e.gen != gen {
		a.logger.Debug("dropping irrelevant load completion", "id", id, "gen", gen)
		return false
	}
	a.loading--
	e.phase = domain.PhaseActive
	e.attempts = 0
	e.terminal = false
	e.lastAccess = a.now()
	e.elem = a.lru.PushBack(e)
	return true
}

// MarkFailed records a failed load completion. Transient failures schedule a
// backoff retry; permanent classifications and exhausted attempts go
// terminal and wait for a manual retry.
func (a *Admission) MarkFailed(id string, gen uint64, kind domain.ErrorKind) bool {
	e, ok := a.entries[id]
	if !ok || e.phase != domain.PhaseLoading || e.gen != gen {
		a.logger.Debug("dropping irrelevant load failure", "id", id, "gen", gen)
		return false
	}
	a.loading--
	e.attempts++
	e.phase = domain.PhaseFailed
	switch {
	case kind == domain.ErrorKindPermanent:
		e.terminal = true
		a.logger.Warn("load failed permanently", "id", id, "attempts", e.attempts)
	case e.attempts >= a.maxAttempts:
		e.terminal = true
		a.logger.Warn("load attempts exhausted", "id", id, "attempts", e.attempts)
	default:
		e.nextRetry = a.now().Add(retryDelay(a.baseDelay, e.attempts))
	}
	return true
}

// ManualRetry resets a terminally failed item so the next sync or recovery
// pass can admit it again.
func (a *Admission) ManualRetry(id string) bool {
	e, ok := a.entries[id]
	if !ok || !e.terminal {
		return false
	}
	e.terminal = false
	e.attempts = 0
	e.phase = domain.PhaseIdle
	e.nextRetry = time.Time{}
	return true
}

// Status returns the load status for an id, if tracked.
func (a *Admission) Status(id string) (domain.LoadStatus, bool) {
	e, ok := a.entries[id]
	if !ok {
		return domain.LoadStatus{}, false
	}
	return domain.LoadStatus{Phase: e.phase, Attempts: e.attempts, Terminal: e.terminal}, true
}

// Counts returns the number of active, loading and failed entries.
func (a *Admission) Counts() (active, loading, failed int) {
	for _, e := range a.entries {
		if e.phase == domain.PhaseFailed {
			failed++
		}
	}
	return a.lru.Len(), a.loading, failed
}

// DropAll destroys every entry without emitting unloads. Used on catalog
// generation change, where the presentation tree is rebuilt wholesale.
func (a *Admission) DropAll() {
	a.entries = make(map[string]*loadEntry)
	a.lru.Init()
	a.loading = 0
}

func (a *Admission) ensure(id string, gen uint64) *loadEntry {
	if e, ok := a.entries[id]; ok {
		return e
	}
	e := &loadEntry{id: id, phase: domain.PhaseIdle, gen: gen}
	a.entries[id] = e
	return e
}

// tryStart admits e if capacity allows, evicting the least recently used
// active item outside the admission range when at the cap. When no evictable
// candidate exists the admission is deferred; the cap is never exceeded.
func (a *Admission) tryStart(e *loadEntry, admitSet map[string]struct{}, gen uint64, loads, unloads []string) ([]string, []string) {
	if a.lru.Len()+a.loading >= a.maxActive {
		victim := a.evictable(admitSet)
		if victim == nil {
			return loads, unloads
		}
		a.release(victim)
		victim.phase = domain.PhaseIdle
		unloads = append(unloads, victim.id)
	}
	e.phase = domain.PhaseLoading
	e.startedAt = a.now()
	e.gen = gen
	a.loading++
	return append(loads, e.id), unloads
}

// evictable returns the least recently used active entry outside the
// admission range, or nil when every active item is still in range.
func (a *Admission) evictable(admitSet map[string]struct{}) *loadEntry {
	for el := a.lru.Front(); el != nil; el = el.Next() {
		e := el.Value.(*loadEntry)
		if _, inRange := admitSet[e.id]; !inRange {
			return e
		}
	}
	return nil
}

// release frees whatever resource the entry holds. Returns true when the
// presentation layer must detach something.
func (a *Admission) release(e *loadEntry) bool {
	switch e.phase {
	case domain.PhaseActive:
		if e.elem == nil {
			a.violation("active entry missing lru element", e.id)
			return true
		}
		a.lru.Remove(e.elem)
		e.elem = nil
		return true
	case domain.PhaseLoading:
		a.loading--
		return true
	}
	return false
}

func (a *Admission) touch(e *loadEntry, now time.Time) {
	e.lastAccess = now
	if e.elem != nil {
		a.lru.MoveToBack(e.elem)
	}
}

func (a *Admission) violation(msg, id string) {
	if a.strict {
		panic("grid: invariant violation: " + msg + " (" + id + ")")
	}
	a.logger.Error("invariant violation", "msg", msg, "id", id)
}

func rangeSet(seq []string, r domain.Range) map[string]struct{} {
	set := make(map[string]struct{}, r.Len())
	for i := r.Start; i < r.End && i < len(seq); i++ {
		if i >= 0 {
			set[seq[i]] = struct{}{}
		}
	}
	return set
}

// retryDelay computes the exponential backoff before attempt+1:
// baseDelay doubled per prior failed attempt.
func retryDelay(base time.Duration, attempts int) time.Duration {
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
	}
	return d
}

package grid

import (
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/drake/vidwall/internal/domain"
)

// Config holds the engine tunables.
type Config struct {
	// MaxActive caps concurrently held media resources. Set it well below
	// the platform ceiling; teardown is not instantaneous.
	MaxActive int
	// MaxAttempts bounds automatic retries per item
	MaxAttempts int
	// BaseRetryDelay is the backoff base (doubled per failed attempt)
	BaseRetryDelay time.Duration
	// StuckTimeout is the elapsed time after which an in-flight load is
	// presumed lost and restarted
	StuckTimeout time.Duration
	// Strict makes invariant violations panic (development builds)
	Strict bool
}

func (c Config) withDefaults() Config {
	if c.MaxActive <= 0 {
		c.MaxActive = 12
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseRetryDelay <= 0 {
		c.BaseRetryDelay = time.Second
	}
	if c.StuckTimeout <= 0 {
		c.StuckTimeout = 15 * time.Second
	}
	return c
}

// Update is the result of one recomputation pass: the edit script for the
// presentation tree, the attach/detach requests for the load boundary, and
// a stats snapshot. Seq increases per pass so a consumer can drop results
// that were superseded while in transit.
type Update struct {
	Seq        uint64
	Generation uint64
	Ops        []domain.ReconcileOp
	Loads      []string
	Unloads    []string
	Stats      domain.GridStats
}

// Empty reports whether the update carries no work for the consumer.
func (u Update) Empty() bool {
	return len(u.Ops) == 0 && len(u.Loads) == 0 && len(u.Unloads) == 0
}

// Engine is the viewport virtualization and resource-admission core. All
// state is guarded by one mutex; every pass computes against a consistent
// snapshot, and catalog replacement bumps a generation counter that tags
// outbound load requests so late completions can be checked for relevance.
type Engine struct {
	mu  sync.Mutex
	cfg Config

	generation uint64
	items      []domain.VideoItem
	byID       map[string]int

	filter   *FilterEngine
	criteria domain.FilterCriteria
	sortSpec domain.SortSpec
	viewport domain.ViewportState

	seqIDs   []string // filtered/sorted ids, cached until inputs change
	seqDirty bool

	reconciler *Reconciler
	admission  *Admission

	seq    uint64
	logger *slog.Logger
	seedFn func() int64
}

// NewEngine creates an engine with an empty catalog.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	adm := NewAdmission(cfg.MaxActive, cfg.MaxAttempts, cfg.BaseRetryDelay, logger)
	adm.SetStrict(cfg.Strict)
	return &Engine{
		cfg:        cfg,
		byID:       make(map[string]int),
		filter:     NewFilterEngine(),
		reconciler: NewReconciler(),
		admission:  adm,
		logger:     logger,
		seedFn:     func() int64 { return rand.Int63() },
	}
}

// SetCatalog replaces the catalog wholesale as a new generation. All load
// state is destroyed; items rendered under the old generation fall out as
// Removes on the next refresh.
func (e *Engine) SetCatalog(items []domain.VideoItem) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	e.items = items
	e.byID = make(map[string]int, len(items))
	for i := range items {
		e.byID[items[i].ID] = i
	}
	e.filter.Rebuild(items)
	e.admission.DropAll()
	e.seqDirty = true
	e.logger.Info("catalog replaced", "generation", e.generation, "count", len(items))
}

// SetFilter replaces the active filter criteria.
func (e *Engine) SetFilter(c domain.FilterCriteria) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.criteria = c
	e.seqDirty = true
}

// SetSort switches sort mode. Entering shuffle fixes a seed if none exists
// yet; the seed then survives re-filtering until an explicit Reshuffle.
func (e *Engine) SetSort(mode domain.SortMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if mode == domain.SortShuffle && e.sortSpec.Seed == 0 {
		e.sortSpec.Seed = e.seedFn()
	}
	e.sortSpec.Mode = mode
	e.seqDirty = true
}

// SetSortSpec restores an exact sort spec (including seed), e.g. from a
// persisted session.
func (e *Engine) SetSortSpec(spec domain.SortSpec) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sortSpec = spec
	e.seqDirty = true
}

// Reshuffle generates a fresh shuffle seed and activates shuffle ordering.
func (e *Engine) Reshuffle() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sortSpec = domain.SortSpec{Mode: domain.SortShuffle, Seed: e.seedFn()}
	e.seqDirty = true
}

// SetViewport records the latest scroll/layout state (last value wins).
// A retention buffer below the admission buffer would reintroduce
// thrashing, so it is clamped up.
func (e *Engine) SetViewport(v domain.ViewportState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v.RetentionBuffer < v.AdmissionBuffer {
		v.RetentionBuffer = v.AdmissionBuffer
	}
	e.viewport = v
}

// SetFavorite updates an item's favorite flag in place. The cached
// filtered order is invalidated only when the active view depends on it.
func (e *Engine) SetFavorite(id string, favorite bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.byID[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	e.items[i].Favorite = favorite
	e.filter.SetFavorite(id, favorite)
	if e.criteria.DependsOnFavorites() {
		e.seqDirty = true
	}
	return nil
}

// SetHidden updates an item's hidden flag in place.
func (e *Engine) SetHidden(id string, hidden bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.byID[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	e.items[i].Hidden = hidden
	e.filter.SetHidden(id, hidden)
	if e.criteria.DependsOnHidden() {
		e.seqDirty = true
	}
	return nil
}

// SetTags replaces an item's tag set in place.
func (e *Engine) SetTags(id string, tags []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.byID[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	e.items[i].Tags = tags
	e.filter.SetTags(id, tags)
	if e.criteria.DependsOnTags() {
		e.seqDirty = true
	}
	return nil
}

// ManualRetry resets a terminally failed item's attempt counter.
func (e *Engine) ManualRetry(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.admission.ManualRetry(id)
}

// OnLoadSucceeded handles an asynchronous attach acknowledgement. Returns
// false when the completion was no longer relevant and was discarded.
func (e *Engine) OnLoadSucceeded(id string, gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		e.logger.Debug("dropping completion from stale generation", "id", id, "gen", gen)
		return false
	}
	return e.admission.MarkLoaded(id, gen)
}

// OnLoadFailed handles an asynchronous attach failure.
func (e *Engine) OnLoadFailed(id string, gen uint64, kind domain.ErrorKind) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		e.logger.Debug("dropping failure from stale generation", "id", id, "gen", gen)
		return false
	}
	return e.admission.MarkFailed(id, gen, kind)
}

// Refresh runs one full pass: filter, sort, range computation,
// reconciliation and admission. The returned Update is complete; applying
// it brings the presentation layer in line with the current state.
func (e *Engine) Refresh() Update {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rebuildSequenceLocked()
	count := len(e.seqIDs)
	visible := VisibleRange(e.viewport, count)
	admit := AdmissionRange(e.viewport, count)
	retain := RetentionRange(e.viewport, count)

	ops := e.reconciler.Reconcile(e.seqIDs, retain)
	loads, unloads := e.admission.Sync(e.seqIDs, admit, retain, e.generation)

	e.seq++
	return Update{
		Seq:        e.seq,
		Generation: e.generation,
		Ops:        ops,
		Loads:      loads,
		Unloads:    unloads,
		Stats:      e.statsLocked(visible),
	}
}

// Tick runs one recovery audit over the visible range, restarting stuck or
// failed loads whose backoff has elapsed.
func (e *Engine) Tick() Update {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rebuildSequenceLocked()
	count := len(e.seqIDs)
	visible := VisibleRange(e.viewport, count)
	admit := AdmissionRange(e.viewport, count)

	loads, unloads := e.admission.Audit(e.seqIDs, visible, admit, e.generation, e.cfg.StuckTimeout)

	e.seq++
	return Update{
		Seq:        e.seq,
		Generation: e.generation,
		Loads:      loads,
		Unloads:    unloads,
		Stats:      e.statsLocked(visible),
	}
}

// Stats returns a diagnostic snapshot without mutating anything else.
func (e *Engine) Stats() domain.GridStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rebuildSequenceLocked()
	return e.statsLocked(VisibleRange(e.viewport, len(e.seqIDs)))
}

// Status returns the load status for an id, if tracked.
func (e *Engine) Status(id string) (domain.LoadStatus, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.admission.Status(id)
}

// Item returns the catalog item for an id.
func (e *Engine) Item(id string) (domain.VideoItem, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.byID[id]
	if !ok {
		return domain.VideoItem{}, false
	}
	return e.items[i], true
}

// Generation returns the current catalog generation.
func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// Criteria returns the active filter criteria.
func (e *Engine) Criteria() domain.FilterCriteria {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.criteria
}

// SortSpec returns the active sort spec, including the shuffle seed.
func (e *Engine) SortSpec() domain.SortSpec {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sortSpec
}

// Viewport returns the last recorded viewport state.
func (e *Engine) Viewport() domain.ViewportState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewport
}

// Folders returns the distinct folder names in the catalog, sorted.
func (e *Engine) Folders() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	seen := make(map[string]struct{})
	for i := range e.items {
		if f := e.items[i].Folder; f != "" {
			seen[f] = struct{}{}
		}
	}
	folders := make([]string, 0, len(seen))
	for f := range seen {
		folders = append(folders, f)
	}
	sort.Strings(folders)
	return folders
}

func (e *Engine) rebuildSequenceLocked() {
	if !e.seqDirty && e.seqIDs != nil {
		return
	}
	indices := e.filter.Apply(e.items, e.criteria)
	SortIndices(e.items, indices, e.sortSpec)
	ids := make([]string, len(indices))
	for i, idx := range indices {
		ids[i] = e.items[idx].ID
	}
	e.seqIDs = ids
	e.seqDirty = false
}

func (e *Engine) statsLocked(visible domain.Range) domain.GridStats {
	active, loading, failed := e.admission.Counts()
	return domain.GridStats{
		TotalItems:    len(e.items),
		FilteredItems: len(e.seqIDs),
		RenderedItems: e.reconciler.RenderedCount(),
		VisibleItems:  visible.Len(),
		ActiveLoads:   active,
		PendingLoads:  loading,
		FailedItems:   failed,
		Generation:    e.generation,
	}
}

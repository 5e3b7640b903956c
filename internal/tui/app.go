package tui

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/vidwall/internal/adapter"
	"github.com/drake/vidwall/internal/domain"
	"github.com/drake/vidwall/internal/grid"
	"github.com/drake/vidwall/internal/search"
	"github.com/drake/vidwall/internal/tui/styles"
)

// Tile geometry in terminal cells. A tile is three content lines plus a
// rounded border.
const (
	tileRows    = 5
	minTileCols = 18
	chromeRows  = 2 // header + status bar
)

// tile is one rendered grid cell, mirroring the engine's rendered set.
type tile struct {
	index int
	thumb string // cached thumbnail path, empty until the load completes
}

// Model is the Bubble Tea application state. It owns the presentation tree:
// the engine decides what exists and what is loaded, the model renders it
// and runs the actual extractions.
type Model struct {
	engine   *grid.Engine
	loop     *grid.Loop
	thumbs   domain.ThumbnailProvider
	launcher *adapter.Launcher
	store    domain.MetadataStore
	source   domain.CatalogSource
	rescans  <-chan struct{}
	logger   *slog.Logger

	keys KeyMap

	tiles   map[string]*tile
	byIndex map[int]string

	cursor        int // absolute index into the filtered sequence
	scrollRow     int
	filteredCount int
	stats         domain.GridStats

	width   int
	height  int
	columns int // configured maximum, clamped to what fits

	// Buffer sizes in grid rows
	admissionRows int
	retentionRows int

	// Input overlays
	filterActive bool
	filterInput  textinput.Model
	pickerActive bool
	pickerInput  textinput.Model
	tagActive    bool
	tagInput     textinput.Model

	scanning  bool
	statusMsg string
	err       error
}

// Options wires the model's collaborators.
type Options struct {
	Engine   *grid.Engine
	Loop     *grid.Loop
	Thumbs   domain.ThumbnailProvider
	Launcher *adapter.Launcher
	Store    domain.MetadataStore
	Source   domain.CatalogSource
	Rescans  <-chan struct{}
	Columns  int
	// AdmissionRows and RetentionRows are extra grid rows preloaded and
	// retained past the viewport edge
	AdmissionRows int
	RetentionRows int
	Logger        *slog.Logger
}

// NewModel creates the application model.
func NewModel(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Columns <= 0 {
		opts.Columns = 4
	}
	if opts.AdmissionRows <= 0 {
		opts.AdmissionRows = 2
	}
	if opts.RetentionRows < opts.AdmissionRows {
		opts.RetentionRows = opts.AdmissionRows
	}

	filter := textinput.New()
	filter.Placeholder = "type to filter..."
	filter.Prompt = "/ "
	filter.PromptStyle = styles.FilterPromptStyle
	filter.TextStyle = styles.FilterStyle

	picker := textinput.New()
	picker.Placeholder = "folder name..."
	picker.Prompt = "folder: "
	picker.PromptStyle = styles.FilterPromptStyle

	tags := textinput.New()
	tags.Placeholder = "comma,separated,tags"
	tags.Prompt = "tags: "
	tags.PromptStyle = styles.FilterPromptStyle

	return Model{
		engine:        opts.Engine,
		loop:          opts.Loop,
		thumbs:        opts.Thumbs,
		launcher:      opts.Launcher,
		store:         opts.Store,
		source:        opts.Source,
		rescans:       opts.Rescans,
		logger:        opts.Logger,
		keys:          Keys,
		tiles:         make(map[string]*tile),
		byIndex:       make(map[int]string),
		columns:       opts.Columns,
		admissionRows: opts.AdmissionRows,
		retentionRows: opts.RetentionRows,
		filterInput:   filter,
		pickerInput:   picker,
		tagInput:      tags,
		scanning:      true,
	}
}

// Init starts the initial scan and the channel listeners.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		ListenUpdatesCmd(m.loop),
		ScanCmd(m.source, m.store),
	}
	if m.rescans != nil {
		cmds = append(cmds, WatchRescansCmd(m.rescans))
	}
	return tea.Batch(cmds...)
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pushViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EngineUpdateMsg:
		cmds := m.applyUpdate(msg.Update)
		cmds = append(cmds, ListenUpdatesCmd(m.loop))
		return m, tea.Batch(cmds...)

	case CatalogScannedMsg:
		m.scanning = false
		m.err = nil
		m.engine.SetCatalog(msg.Items)
		m.loop.Kick()
		return m, nil

	case RescanRequestedMsg:
		m.scanning = true
		return m, tea.Batch(ScanCmd(m.source, m.store), WatchRescansCmd(m.rescans))

	case ThumbReadyMsg:
		if m.engine.OnLoadSucceeded(msg.ID, msg.Generation) {
			if t, ok := m.tiles[msg.ID]; ok {
				t.thumb = msg.Path
			}
		}
		return m, nil

	case ThumbFailedMsg:
		if m.engine.OnLoadFailed(msg.ID, msg.Generation, msg.Kind) {
			m.logger.Warn("thumbnail failed", "id", msg.ID, "error", msg.Err)
		}
		return m, nil

	case PlaybackStartedMsg:
		m.statusMsg = "playing " + msg.Item.Name
		return m, nil

	case ErrMsg:
		m.scanning = false
		m.err = msg
		m.logger.Error("ui error", "context", msg.Context, "error", msg.Err)
		return m, nil
	}

	return m, nil
}

// applyUpdate folds one engine update into the presentation tree and starts
// the admitted extractions.
func (m *Model) applyUpdate(u grid.Update) []tea.Cmd {
	for _, op := range u.Ops {
		switch op.Kind {
		case domain.OpRemove:
			if t, ok := m.tiles[op.ID]; ok {
				if m.byIndex[t.index] == op.ID {
					delete(m.byIndex, t.index)
				}
				delete(m.tiles, op.ID)
			}
		case domain.OpMove:
			if t, ok := m.tiles[op.ID]; ok {
				if m.byIndex[t.index] == op.ID {
					delete(m.byIndex, t.index)
				}
				t.index = op.Index
				m.byIndex[op.Index] = op.ID
			}
		case domain.OpAdd:
			m.tiles[op.ID] = &tile{index: op.Index}
			m.byIndex[op.Index] = op.ID
		}
	}

	for _, id := range u.Unloads {
		if t, ok := m.tiles[id]; ok {
			t.thumb = ""
		}
	}

	m.stats = u.Stats
	m.filteredCount = u.Stats.FilteredItems
	if m.cursor >= m.filteredCount {
		m.cursor = m.filteredCount - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	var cmds []tea.Cmd
	for _, id := range u.Loads {
		item, ok := m.engine.Item(id)
		if !ok {
			continue
		}
		cmds = append(cmds, ExtractThumbCmd(m.thumbs, item, u.Generation))
	}
	return cmds
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filterActive {
		return m.handleFilterKey(msg)
	}
	if m.pickerActive {
		return m.handlePickerKey(msg)
	}
	if m.tagActive {
		return m.handleTagKey(msg)
	}

	keys := m.keys
	switch {
	case key.Matches(msg, keys.Quit):
		m.saveSession()
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		m.moveCursor(-m.effectiveColumns())
	case key.Matches(msg, keys.Down):
		m.moveCursor(m.effectiveColumns())
	case key.Matches(msg, keys.Left):
		m.moveCursor(-1)
	case key.Matches(msg, keys.Right):
		m.moveCursor(1)
	case key.Matches(msg, keys.HalfUp):
		m.moveCursor(-m.effectiveColumns() * max(1, m.visibleRows()/2))
	case key.Matches(msg, keys.HalfDown):
		m.moveCursor(m.effectiveColumns() * max(1, m.visibleRows()/2))
	case key.Matches(msg, keys.Home):
		m.cursor = 0
		m.followCursor()
	case key.Matches(msg, keys.End):
		m.cursor = m.filteredCount - 1
		m.followCursor()

	case key.Matches(msg, keys.Play):
		if item, ok := m.currentItem(); ok {
			return m, PlayItemCmd(m.launcher, item)
		}

	case key.Matches(msg, keys.Favorite):
		if item, ok := m.currentItem(); ok {
			m.toggleFavorite(item)
		}
	case key.Matches(msg, keys.Hide):
		if item, ok := m.currentItem(); ok {
			m.toggleHidden(item)
		}
	case key.Matches(msg, keys.Tag):
		if item, ok := m.currentItem(); ok {
			m.tagActive = true
			m.tagInput.SetValue(strings.Join(item.Tags, ","))
			m.tagInput.Focus()
			return m, textinput.Blink
		}

	case key.Matches(msg, keys.View):
		m.cycleView()
	case key.Matches(msg, keys.Sort):
		m.cycleSort()
	case key.Matches(msg, keys.Reshuffle):
		m.engine.Reshuffle()
		m.loop.Kick()

	case key.Matches(msg, keys.Filter):
		m.filterActive = true
		m.filterInput.SetValue(m.engine.Criteria().NameQuery)
		m.filterInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, keys.Folder):
		m.pickerActive = true
		m.pickerInput.SetValue("")
		m.pickerInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, keys.Retry):
		if item, ok := m.currentItem(); ok {
			if m.engine.ManualRetry(item.ID) {
				m.statusMsg = "retrying " + item.Name
				m.loop.Kick()
			}
		}

	case key.Matches(msg, keys.Rescan):
		m.scanning = true
		return m, ScanCmd(m.source, m.store)

	case key.Matches(msg, keys.Escape):
		m.clearTransientFilters()
	}

	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		if msg.String() == "esc" {
			m.filterInput.SetValue("")
		}
		m.filterActive = false
		m.filterInput.Blur()
		c := m.engine.Criteria()
		c.NameQuery = m.filterInput.Value()
		m.engine.SetFilter(c)
		m.resetScroll()
		m.loop.Kick()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)

	// Live filtering: every keystroke narrows the wall immediately
	c := m.engine.Criteria()
	c.NameQuery = m.filterInput.Value()
	m.engine.SetFilter(c)
	m.resetScroll()
	m.loop.Kick()
	return m, cmd
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.pickerActive = false
		m.pickerInput.Blur()
		return m, nil
	case "enter":
		m.pickerActive = false
		m.pickerInput.Blur()
		c := m.engine.Criteria()
		query := strings.TrimSpace(m.pickerInput.Value())
		if query == "" {
			c.Folder = ""
			c.FolderSet = false
		} else if folder, ok := m.bestFolderMatch(query); ok {
			c.Folder = folder
			c.FolderSet = true
		} else {
			m.statusMsg = "no folder matches " + query
			return m, nil
		}
		m.engine.SetFilter(c)
		m.resetScroll()
		m.loop.Kick()
		return m, nil
	}

	var cmd tea.Cmd
	m.pickerInput, cmd = m.pickerInput.Update(msg)
	return m, cmd
}

func (m Model) handleTagKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.tagActive = false
		m.tagInput.Blur()
		return m, nil
	case "enter":
		m.tagActive = false
		m.tagInput.Blur()
		if item, ok := m.currentItem(); ok {
			tags := splitTags(m.tagInput.Value())
			if err := m.engine.SetTags(item.ID, tags); err == nil {
				if err := m.store.SetTags(item.ID, tags); err != nil {
					m.logger.Warn("failed to persist tags", "id", item.ID, "error", err)
				}
				m.loop.Kick()
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.tagInput, cmd = m.tagInput.Update(msg)
	return m, cmd
}

// === State helpers ===

func (m *Model) currentItem() (domain.VideoItem, bool) {
	id, ok := m.byIndex[m.cursor]
	if !ok {
		return domain.VideoItem{}, false
	}
	return m.engine.Item(id)
}

func (m *Model) toggleFavorite(item domain.VideoItem) {
	fav := !item.Favorite
	if err := m.engine.SetFavorite(item.ID, fav); err != nil {
		return
	}
	if err := m.store.SetFavorite(item.ID, fav); err != nil {
		m.logger.Warn("failed to persist favorite", "id", item.ID, "error", err)
	}
	m.loop.Kick()
}

func (m *Model) toggleHidden(item domain.VideoItem) {
	hidden := !item.Hidden
	if err := m.engine.SetHidden(item.ID, hidden); err != nil {
		return
	}
	if err := m.store.SetHidden(item.ID, hidden); err != nil {
		m.logger.Warn("failed to persist hidden", "id", item.ID, "error", err)
	}
	m.loop.Kick()
}

func (m *Model) cycleView() {
	c := m.engine.Criteria()
	switch c.View {
	case domain.ViewDefault:
		c.View = domain.ViewFavorites
	case domain.ViewFavorites:
		c.View = domain.ViewHidden
	case domain.ViewHidden:
		c.View = domain.ViewAll
	default:
		c.View = domain.ViewDefault
	}
	m.engine.SetFilter(c)
	m.resetScroll()
	m.loop.Kick()
}

func (m *Model) cycleSort() {
	switch m.engine.SortSpec().Mode {
	case domain.SortFolder:
		m.engine.SetSort(domain.SortRecency)
	case domain.SortRecency:
		m.engine.SetSort(domain.SortShuffle)
	default:
		m.engine.SetSort(domain.SortFolder)
	}
	m.resetScroll()
	m.loop.Kick()
}

func (m *Model) bestFolderMatch(query string) (string, bool) {
	folders := m.engine.Folders()
	ranked := search.Rank(query, folders)
	if len(ranked) == 0 {
		return "", false
	}
	return folders[ranked[0].Index], true
}

func (m *Model) clearTransientFilters() {
	c := m.engine.Criteria()
	if c.NameQuery == "" && !c.FolderSet {
		return
	}
	c.NameQuery = ""
	c.Folder = ""
	c.FolderSet = false
	m.engine.SetFilter(c)
	m.resetScroll()
	m.loop.Kick()
}

func (m *Model) saveSession() {
	c := m.engine.Criteria()
	spec := m.engine.SortSpec()
	err := m.store.SaveSession(domain.SessionPrefs{
		Folder:    c.Folder,
		FolderSet: c.FolderSet,
		View:      c.View,
		Sort:      spec.Mode,
		Seed:      spec.Seed,
	})
	if err != nil {
		m.logger.Warn("failed to save session", "error", err)
	}
}

// === Viewport geometry ===

func (m *Model) effectiveColumns() int {
	if m.width <= 0 {
		return m.columns
	}
	fit := m.width / minTileCols
	if fit < 1 {
		fit = 1
	}
	if fit < m.columns {
		return fit
	}
	return m.columns
}

func (m *Model) visibleRows() int {
	rows := (m.height - chromeRows) / tileRows
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= m.filteredCount {
		m.cursor = m.filteredCount - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.followCursor()
}

// followCursor scrolls the minimum amount needed to keep the cursor row on
// screen, then republishes the viewport.
func (m *Model) followCursor() {
	cols := m.effectiveColumns()
	cursorRow := m.cursor / cols
	visRows := m.visibleRows()

	if cursorRow < m.scrollRow {
		m.scrollRow = cursorRow
	}
	if cursorRow >= m.scrollRow+visRows {
		m.scrollRow = cursorRow - visRows + 1
	}
	m.pushViewport()
}

func (m *Model) resetScroll() {
	m.cursor = 0
	m.scrollRow = 0
	m.pushViewport()
}

func (m *Model) pushViewport() {
	m.engine.SetViewport(domain.ViewportState{
		ScrollOffset:    float64(m.scrollRow * tileRows),
		ViewportExtent:  float64(m.visibleRows() * tileRows),
		ItemExtent:      tileRows,
		Columns:         m.effectiveColumns(),
		AdmissionBuffer: float64(m.admissionRows * tileRows),
		RetentionBuffer: float64(m.retentionRows * tileRows),
	})
	m.loop.Kick()
}

func splitTags(raw string) []string {
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

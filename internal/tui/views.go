package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/drake/vidwall/internal/domain"
	"github.com/drake/vidwall/internal/search"
	"github.com/drake/vidwall/internal/tui/styles"
)

// View renders the whole application.
func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.gridView())
	b.WriteString("\n")
	b.WriteString(m.statusView())
	return b.String()
}

func (m Model) headerView() string {
	c := m.engine.Criteria()

	parts := []string{
		styles.TitleStyle.Render("vidwall"),
		styles.SubtitleStyle.Render(fmt.Sprintf("%d videos, %d shown", m.stats.TotalItems, m.stats.FilteredItems)),
		styles.DimStyle.Render("view:" + c.View.String()),
		styles.DimStyle.Render("sort:" + m.engine.SortSpec().Mode.String()),
	}
	if c.FolderSet {
		parts = append(parts, styles.AccentStyle.Render("folder:"+c.Folder))
	}
	if c.NameQuery != "" {
		parts = append(parts, styles.AccentStyle.Render("/"+c.NameQuery))
	}
	if m.scanning {
		parts = append(parts, styles.AccentStyle.Render("scanning..."))
	}
	return strings.Join(parts, "  ")
}

func (m Model) gridView() string {
	if m.pickerActive {
		return m.pickerView()
	}
	if m.filteredCount == 0 {
		empty := "no videos match"
		if m.scanning {
			empty = "scanning library..."
		}
		return lipgloss.Place(m.width, m.gridHeight(), lipgloss.Center, lipgloss.Center,
			styles.DimStyle.Render(empty))
	}

	cols := m.effectiveColumns()
	visRows := m.visibleRows()
	tileWidth := m.width/cols - 2 // border

	var rows []string
	for row := m.scrollRow; row < m.scrollRow+visRows; row++ {
		var cells []string
		for col := 0; col < cols; col++ {
			idx := row*cols + col
			if idx >= m.filteredCount {
				break
			}
			cells = append(cells, m.tileView(idx, tileWidth))
		}
		if len(cells) == 0 {
			break
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n")
}

// tileView renders one grid cell: title, size and age, load state.
func (m Model) tileView(idx, width int) string {
	id, rendered := m.byIndex[idx]
	if !rendered {
		return styles.NormalTile.Width(width).Render(
			styles.DimStyle.Render(truncate("...", width)))
	}

	item, ok := m.engine.Item(id)
	if !ok {
		return styles.NormalTile.Width(width).Render("")
	}

	title := truncate(item.Name, width)
	meta := truncate(fmt.Sprintf("%s  %s",
		humanize.Bytes(uint64(item.Size)),
		humanize.Time(time.Unix(item.ModTime, 0))), width)

	status, _ := m.engine.Status(id)
	thumb := ""
	if t, ok := m.tiles[id]; ok {
		thumb = t.thumb
	}
	state := m.stateLine(item, status, thumb, width)

	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render(title),
		styles.SubtitleStyle.Render(meta),
		state,
	)

	tileStyle := styles.NormalTile
	switch {
	case idx == m.cursor:
		tileStyle = styles.SelectedTile
	case status.Phase == domain.PhaseFailed:
		tileStyle = styles.FailedTile
	}
	return tileStyle.Width(width).Render(body)
}

func (m Model) stateLine(item domain.VideoItem, status domain.LoadStatus, thumb string, width int) string {
	var glyph string
	switch status.Phase {
	case domain.PhaseLoading:
		glyph = styles.LoadingDot
	case domain.PhaseActive:
		glyph = styles.ReadyDot
		if thumb != "" {
			glyph += styles.DimStyle.Render(" " + truncate(filepath.Base(thumb), width-3))
		}
	case domain.PhaseFailed:
		if status.Terminal {
			glyph = styles.FailedDot + styles.ErrorStyle.Render(" press r")
		} else {
			glyph = styles.FailedDot + styles.DimStyle.Render(fmt.Sprintf(" retry %d", status.Attempts))
		}
	default:
		glyph = styles.IdleDot
	}

	marks := ""
	if item.Favorite {
		marks += " " + styles.FavMark
	}
	if item.Hidden {
		marks += " " + styles.HiddenMark
	}
	if len(item.Tags) > 0 {
		marks += " " + styles.DimStyle.Render(truncate(strings.Join(item.Tags, ","), width-4))
	}
	return glyph + marks
}

// pickerView lists folders ranked against the picker query.
func (m Model) pickerView() string {
	folders := m.engine.Folders()
	query := strings.TrimSpace(m.pickerInput.Value())

	var lines []string
	lines = append(lines, m.pickerInput.View(), "")

	shown := folders
	if query != "" {
		ranked := search.Rank(query, folders)
		shown = make([]string, 0, len(ranked))
		for _, r := range ranked {
			shown = append(shown, folders[r.Index])
		}
	}
	limit := m.gridHeight() - 4
	for i, folder := range shown {
		if i >= limit {
			lines = append(lines, styles.DimStyle.Render(fmt.Sprintf("... %d more", len(shown)-i)))
			break
		}
		if i == 0 && query != "" {
			lines = append(lines, styles.HighlightStyle.Render(folder))
		} else {
			lines = append(lines, styles.SubtitleStyle.Render(folder))
		}
	}
	if len(shown) == 0 {
		lines = append(lines, styles.DimStyle.Render("no matching folders"))
	}

	return lipgloss.Place(m.width, m.gridHeight(), lipgloss.Center, lipgloss.Center,
		styles.PickerStyle.Render(strings.Join(lines, "\n")))
}

func (m Model) statusView() string {
	if m.filterActive {
		return m.filterInput.View()
	}
	if m.tagActive {
		return m.tagInput.View()
	}
	if m.err != nil {
		return styles.ErrorStyle.Render(m.err.Error())
	}

	left := fmt.Sprintf("%d/%d loaded  %d loading  %d failed",
		m.stats.ActiveLoads,
		m.stats.RenderedItems,
		m.stats.PendingLoads,
		m.stats.FailedItems)
	if m.statusMsg != "" {
		left += "  " + m.statusMsg
	}

	hints := styles.DimStyle.Render("enter:play f:fav x:hide v:view s:sort /:filter q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(hints) - 2
	if gap < 1 {
		gap = 1
	}
	return styles.StatusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + hints)
}

func (m Model) gridHeight() int {
	return m.visibleRows() * tileRows
}

func truncate(s string, width int) string {
	if width <= 3 {
		width = 3
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

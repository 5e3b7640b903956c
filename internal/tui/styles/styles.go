package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Amber      = lipgloss.Color("#E5A00D")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
	Blue       = lipgloss.Color("#3B82F6")
)

// Tile borders
var (
	SelectedTile = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Amber)

	NormalTile = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SlateLight)

	FailedTile = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Red)
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Amber)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(Amber).
			Padding(0, 1)
)

// Load state glyphs
const (
	IdleChar    = "·"
	LoadingChar = "◌"
	ReadyChar   = "▣"
	FailedChar  = "✗"
	FavChar     = "★"
	HiddenChar  = "⊘"
)

var (
	LoadingDot = lipgloss.NewStyle().Foreground(Blue).Render(LoadingChar)
	ReadyDot   = lipgloss.NewStyle().Foreground(Green).Render(ReadyChar)
	FailedDot  = lipgloss.NewStyle().Foreground(Red).Render(FailedChar)
	IdleDot    = lipgloss.NewStyle().Foreground(DimGray).Render(IdleChar)
	FavMark    = lipgloss.NewStyle().Foreground(Amber).Render(FavChar)
	HiddenMark = lipgloss.NewStyle().Foreground(DimGray).Render(HiddenChar)
)

// Chrome styles
var (
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Background(SlateDark).
			Padding(0, 1)

	FilterPromptStyle = lipgloss.NewStyle().Foreground(Amber)
	FilterStyle       = lipgloss.NewStyle().Foreground(White)

	PickerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Amber).
			Padding(1, 2)
)

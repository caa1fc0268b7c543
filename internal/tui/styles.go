package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/binge/internal/model"
)

// Color palette
var (
	PriorityHigh   = lipgloss.Color("#FF6B6B")
	PriorityMedium = lipgloss.Color("#FFE66D")
	PriorityLow    = lipgloss.Color("#4ECDC4")

	Completed = lipgloss.Color("#95E1A3")

	Primary   = lipgloss.Color("#4ECDC4")
	Surface   = lipgloss.Color("#16213e")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
	Warning   = lipgloss.Color("#FFB347")
)

// projectColors maps the project palette to terminal colors
var projectColors = map[string]lipgloss.Color{
	"Pink":       "#FF6B9D",
	"Purple":     "#A66CFF",
	"Red":        "#FF6B6B",
	"Orange":     "#FFB347",
	"Gold":       "#FFD700",
	"Green":      "#95E1A3",
	"Teal":       "#4ECDC4",
	"Light Blue": "#7FC8F8",
	"Dark Blue":  "#3A6EA5",
	"Midnight":   "#5C6BC0",
	"Dark Gray":  "#666666",
	"Gray":       "#999999",
}

// Styles
var (
	TabStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 2)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			Underline(true).
			Padding(0, 2)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	SidebarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(Border).
			Padding(1, 1)

	ListStyle = lipgloss.NewStyle().
			Padding(1, 2)

	RowStyle = lipgloss.NewStyle().
			Padding(0, 1)

	RowSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	RowDoneStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Strikethrough(true).
			Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// colorFor returns the terminal color of a palette name
func colorFor(name string) lipgloss.Color {
	if c, ok := projectColors[name]; ok {
		return c
	}
	return projectColors[model.DefaultProjectColor]
}

// FormatPriority returns a colored priority marker
func FormatPriority(it model.Item) string {
	switch it.Rank() {
	case model.PriorityHigh:
		return lipgloss.NewStyle().Foreground(PriorityHigh).Bold(true).Render("▲▲")
	case model.PriorityMedium:
		return lipgloss.NewStyle().Foreground(PriorityMedium).Render("▲ ")
	default:
		return lipgloss.NewStyle().Foreground(PriorityLow).Render("· ")
	}
}

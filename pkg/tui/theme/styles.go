package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Warm base16 palette
var (
	ColorBase00 = lipgloss.Color("#1a1816") // Dark background
	ColorBase02 = lipgloss.Color("#36302a") // Selection background
	ColorBase03 = lipgloss.Color("#5c5044") // Comments, invisibles
	ColorBase05 = lipgloss.Color("#ab937b") // Default foreground

	ColorRed    = lipgloss.Color("#d95f5f")
	ColorOrange = lipgloss.Color("#eb8755")
	ColorYellow = lipgloss.Color("#f5b761")
	ColorGreen  = lipgloss.Color("#93b56b")
	ColorCyan   = lipgloss.Color("#61afaf")
	ColorBlue   = lipgloss.Color("#6b93b5")
	ColorPurple = lipgloss.Color("#976bb5")

	ColorBorder  = ColorBase03
	ColorSuccess = ColorGreen
	ColorWarning = ColorYellow
	ColorError   = ColorRed
	ColorInfo    = ColorCyan
	ColorMuted   = ColorBase03
)

// Styles holds the lipgloss styles used to paint conversation blocks.
type Styles struct {
	// Block bodies
	Text     lipgloss.Style
	Thinking lipgloss.Style
	Code     lipgloss.Style
	Tool     lipgloss.Style
	Media    lipgloss.Style
	Source   lipgloss.Style
	Error    lipgloss.Style

	// Block headers, one per status
	Streaming lipgloss.Style
	Completed lipgloss.Style
	Failed    lipgloss.Style
	Awaiting  lipgloss.Style

	// Role labels
	User      lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style

	Cursor lipgloss.Style
}

// DefaultStyles returns the default block styles.
func DefaultStyles() *Styles {
	return &Styles{
		Text: lipgloss.NewStyle().
			Foreground(ColorBase05),

		Thinking: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			Foreground(ColorMuted).
			Italic(true),

		Code: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorYellow).
			Padding(0, 1),

		Tool: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorInfo).
			Padding(0, 1),

		Media: lipgloss.NewStyle().
			Foreground(ColorPurple),

		Source: lipgloss.NewStyle().
			Foreground(ColorBlue).
			Underline(true),

		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),

		Streaming: lipgloss.NewStyle().
			Foreground(ColorOrange),

		Completed: lipgloss.NewStyle().
			Foreground(ColorSuccess),

		Failed: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),

		Awaiting: lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true),

		User: lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true),

		Assistant: lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true),

		System: lipgloss.NewStyle().
			Foreground(ColorPurple).
			Bold(true),

		Cursor: lipgloss.NewStyle().
			Foreground(ColorBase00).
			Background(ColorOrange),
	}
}

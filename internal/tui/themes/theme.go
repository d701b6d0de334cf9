package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Selected      lipgloss.Style
	Highlighted   lipgloss.Style
	TabActive     lipgloss.Style
	TabInactive   lipgloss.Style
	RoundedBox    lipgloss.Style
	StatusBar     lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusPending lipgloss.Style
	Label         lipgloss.Style
	Secondary     lipgloss.Color
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Foreground    lipgloss.Color
	Error         lipgloss.Color
	Success       lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	// Colors
	Primary:    lipgloss.Color("#7c3aed"),
	Secondary:  lipgloss.Color("#a78bfa"),
	Success:    lipgloss.Color("#10b981"),
	Error:      lipgloss.Color("#ef4444"),
	Foreground: lipgloss.Color("#fafafa"),
	Border:     lipgloss.Color("#404040"),
	Muted:      lipgloss.Color("#737373"),

	// Text styles
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Bold: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Label: lipgloss.NewStyle().
		Width(16).
		Foreground(lipgloss.Color("#a78bfa")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#7c3aed")).
		Foreground(lipgloss.Color("#fafafa")).
		Bold(true),
	Highlighted: lipgloss.NewStyle().
		Background(lipgloss.Color("#404040")).
		Foreground(lipgloss.Color("#fafafa")),

	// Tabs
	TabActive: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")).
		Background(lipgloss.Color("#7c3aed")).
		Padding(0, 1),
	TabInactive: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")).
		Padding(0, 1),

	// Component styles
	RoundedBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 1),
	StatusBar: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),

	// Status styles
	StatusSuccess: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981")).
		Bold(true),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true),
	StatusInfo: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3b82f6")).
		Bold(true),
	StatusPending: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")).
		Italic(true),
}

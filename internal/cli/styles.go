// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// AccentColor highlights titles, prompts and chart bars.
var AccentColor = lipgloss.Color("#2E9E6B")

var (
	mutedColor  = lipgloss.Color("#7A7A7A")
	borderColor = lipgloss.Color("#3A4A42")
)

// Shared text styles.
var (
	SubtitleStyle = lipgloss.NewStyle().Foreground(mutedColor).MarginBottom(1)
	InfoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FB7D9"))
	SubtleStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	BoldStyle     = lipgloss.NewStyle().Bold(true)

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(AccentColor).MarginBottom(1)
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(AccentColor)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "!"
	InfoIcon    = "·"
	MoneyIcon   = "💶"
	ChartIcon   = "📊"
	ImportIcon  = "📥"
)

// tone pairs a status icon with its color.
type tone struct {
	style lipgloss.Style
	icon  string
}

func (t tone) render(message string) string {
	return t.style.Render(t.icon + " " + message)
}

var (
	successTone = tone{icon: SuccessIcon, style: lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB68B"))}
	errorTone   = tone{icon: ErrorIcon, style: lipgloss.NewStyle().Foreground(lipgloss.Color("#E5534B"))}
	warningTone = tone{icon: WarningIcon, style: lipgloss.NewStyle().Foreground(lipgloss.Color("#D4A72C"))}
	infoTone    = tone{icon: InfoIcon, style: InfoStyle}
)

// FormatSuccess reports a completed change, e.g. "✓ Deleted transaction 4".
func FormatSuccess(message string) string { return successTone.render(message) }

// FormatError reports a failure that did not stop the command.
func FormatError(message string) string { return errorTone.render(message) }

// FormatWarning reports partial results.
func FormatWarning(message string) string { return warningTone.render(message) }

// FormatInfo reports a neutral outcome such as a declined confirmation.
func FormatInfo(message string) string { return infoTone.render(message) }

// FormatTitle renders a report heading.
func FormatTitle(title string) string {
	return titleStyle.Render(MoneyIcon + " " + title)
}

// FormatPrompt renders the question part of an interactive prompt.
func FormatPrompt(prompt string) string {
	return promptStyle.Render(prompt + " → ")
}

// RenderBox frames content under an icon and title.
func RenderBox(icon, title, content string) string {
	heading := titleStyle.UnsetMargins().Render(icon + " " + title)
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, heading, content))
}

package analytics

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/expense-flow/internal/model"
)

// Placeholders for missing values.
const (
	Placeholder = "---"
	NoData      = "No data available"
)

// FormatMoney renders v with two decimals. NaN and infinities render as 0.00.
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.00"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatAmount renders a with its currency, e.g. "12.50 EUR".
func FormatAmount(a model.Amount, currency string) string {
	if currency == "" {
		currency = model.DefaultCurrency
	}
	return a.String() + " " + currency
}

// BarStyle controls how RenderBars draws.
type BarStyle struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Bar   lipgloss.Style
	Value lipgloss.Style
	Empty lipgloss.Style
	Width int
}

// DefaultBarStyle is a plain style suitable for any terminal.
var DefaultBarStyle = BarStyle{
	Title: lipgloss.NewStyle().Bold(true),
	Label: lipgloss.NewStyle(),
	Bar:   lipgloss.NewStyle().Foreground(lipgloss.Color("#7c3aed")),
	Value: lipgloss.NewStyle().Foreground(lipgloss.Color("#a3a3a3")),
	Empty: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#737373")),
	Width: 30,
}

// RenderBars draws a horizontal bar chart of entries scaled to the largest
// total, or a placeholder when there is nothing to draw.
func RenderBars(title string, entries []model.SummaryEntry, style BarStyle) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(style.Title.Render(title))
		b.WriteString("\n")
	}

	if len(entries) == 0 {
		b.WriteString(style.Empty.Render(NoData))
		return b.String()
	}

	width := style.Width
	if width <= 0 {
		width = DefaultBarStyle.Width
	}

	labelWidth := 0
	peak := 0.0
	for _, e := range entries {
		labelWidth = max(labelWidth, lipgloss.Width(labelOf(e)))
		peak = max(peak, math.Abs(e.Total.Float64()))
	}

	for i, e := range entries {
		n := 0
		if peak > 0 {
			n = int(math.Round(math.Abs(e.Total.Float64()) / peak * float64(width)))
		}
		if n == 0 && !e.Total.IsZero() {
			n = 1
		}

		label := labelOf(e)
		pad := strings.Repeat(" ", labelWidth-lipgloss.Width(label))
		fmt.Fprintf(&b, "%s%s  %s %s",
			style.Label.Render(label), pad,
			style.Bar.Render(strings.Repeat("█", n)),
			style.Value.Render(e.Total.String()))
		if i < len(entries)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func labelOf(e model.SummaryEntry) string {
	if e.Label == "" {
		return Placeholder
	}
	return e.Label
}

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/expense-flow/internal/analytics"
	"github.com/Veraticus/expense-flow/internal/model"
	"github.com/Veraticus/expense-flow/internal/tui/themes"
)

// AnalyticsModel renders the spending dashboard.
type AnalyticsModel struct {
	theme     themes.Theme
	err       error
	dashboard analytics.Dashboard
	width     int
	loaded    bool
	loading   bool
}

// NewAnalytics creates an empty dashboard view.
func NewAnalytics(theme themes.Theme) AnalyticsModel {
	return AnalyticsModel{theme: theme, width: 100}
}

// SetLoading marks a reload in progress.
func (m *AnalyticsModel) SetLoading() {
	m.loading = true
}

// SetDashboard shows d, or err when the load failed as a whole.
func (m *AnalyticsModel) SetDashboard(d analytics.Dashboard, err error) {
	m.loading = false
	m.err = err
	if err == nil {
		m.dashboard = d
		m.loaded = true
	}
}

// Dashboard returns the data on screen.
func (m AnalyticsModel) Dashboard() analytics.Dashboard {
	return m.dashboard
}

// Resize updates the view width.
func (m *AnalyticsModel) Resize(width int) {
	m.width = width
}

// View renders the dashboard.
func (m AnalyticsModel) View() string {
	muted := lipgloss.NewStyle().Foreground(m.theme.Muted)
	if !m.loaded {
		if m.err != nil {
			return m.theme.StatusError.Render("Failed to load analytics: " + m.err.Error())
		}
		return muted.Italic(true).Render("Loading analytics...")
	}

	d := m.dashboard
	style := analytics.BarStyle{
		Title: m.theme.Bold,
		Label: m.theme.Normal,
		Bar:   lipgloss.NewStyle().Foreground(m.theme.Primary),
		Value: m.theme.Subtitle,
		Empty: muted.Italic(true),
		Width: max(min(m.width/3, 40), 10),
	}

	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		m.stat("Total", analytics.FormatAmount(d.Total, model.DefaultCurrency)),
		m.stat("Transactions", fmt.Sprintf("%d", d.Count)),
		m.stat("Top category", d.TopCategory()),
		m.stat("Top vendor", d.TopVendor()),
	)

	left := lipgloss.JoinVertical(lipgloss.Left,
		analytics.RenderBars("Spending by category", d.ByCategory, style),
		"",
		analytics.RenderBars("Spending by month", d.ByMonth, style),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		analytics.RenderBars("Top vendors", d.TopVendors, style),
		"",
		analytics.RenderBars("Top items", d.TopItems, style),
	)

	sections := []string{
		stats,
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right),
		"",
		m.theme.Bold.Render("Recent transactions"),
		m.recent(),
	}
	if len(d.Failed) > 0 {
		sections = append(sections, "", m.theme.StatusError.Render("Unavailable: "+strings.Join(d.Failed, ", ")))
	}
	if m.loading {
		sections = append(sections, muted.Italic(true).Render("Refreshing..."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m AnalyticsModel) stat(label, value string) string {
	return m.theme.RoundedBox.Render(
		m.theme.Subtitle.Render(label) + "\n" + m.theme.Bold.Render(value),
	)
}

func (m AnalyticsModel) recent() string {
	if len(m.dashboard.Recent) == 0 {
		return lipgloss.NewStyle().Foreground(m.theme.Muted).Italic(true).Render(analytics.NoData)
	}
	lines := make([]string, 0, len(m.dashboard.Recent))
	for _, tx := range m.dashboard.Recent {
		label := tx.Label()
		if label == "" {
			label = analytics.Placeholder
		}
		lines = append(lines, fmt.Sprintf("%s  %-30s %s",
			tx.Date.String(), label, analytics.FormatAmount(tx.Amount, tx.CurrencyOrDefault())))
	}
	return strings.Join(lines, "\n")
}

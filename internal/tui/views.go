package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/expense-flow/internal/ledger"
)

// View renders the program.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{m.renderHeader(), ""}

	switch m.screen {
	case ScreenAdd:
		sections = append(sections, m.addForm.View())
	case ScreenAnalytics:
		sections = append(sections, m.dashboard.View())
	default:
		sections = append(sections, m.renderTransactions(), m.renderStatusBar())
	}

	if toast := m.renderToast(); toast != "" {
		sections = append(sections, toast)
	}
	sections = append(sections, m.help.View(m.keymap))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the title and the screen tabs.
func (m Model) renderHeader() string {
	tabs := make([]string, 0, int(screenCount))
	for s := ScreenTransactions; s < screenCount; s++ {
		style := m.theme.TabInactive
		if s == m.screen {
			style = m.theme.TabActive
		}
		tabs = append(tabs, style.Render(s.String()))
	}
	title := m.theme.Title.Foreground(m.theme.Primary).Render("Expense Flow")
	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

// renderTransactions renders the transactions screen body.
func (m Model) renderTransactions() string {
	switch m.state {
	case StateEdit, StateBulkEdit:
		return m.editForm.View()
	case StatePrompt:
		return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), m.prompt.View())
	case StateConfirm:
		return lipgloss.JoinVertical(lipgloss.Left,
			m.list.View(),
			m.theme.StatusError.Render(m.confirmText+" (y/n)"))
	}
	return m.list.View()
}

// renderStatusBar renders paging, ordering, filters and selection.
func (m Model) renderStatusBar() string {
	s := m.snapshot
	q := s.Query

	parts := []string{
		fmt.Sprintf("Page %d/%d", q.Page+1, s.Pages()),
		fmt.Sprintf("sort %s %s", q.SortField, q.SortDir),
	}
	if filters := describeFilters(q); filters != "" {
		parts = append(parts, filters)
	}
	if n := m.ledger.Selection.Len(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if s.Loading {
		parts = append(parts, "loading...")
	}

	bar := m.theme.StatusBar.Render(strings.Join(parts, " · "))
	if s.Err != nil {
		bar += "\n" + m.theme.StatusError.Render("Error: "+s.Err.Error())
	}
	return bar
}

// renderToast renders the current notification, if any.
func (m Model) renderToast() string {
	if m.toast == nil {
		return ""
	}
	style := m.theme.StatusInfo
	switch m.toast.Level {
	case ledger.LevelSuccess:
		style = m.theme.StatusSuccess
	case ledger.LevelError:
		style = m.theme.StatusError
	}
	return style.Render(m.toast.Message)
}

func describeFilters(q ledger.Query) string {
	var parts []string
	if q.Keyword != "" {
		parts = append(parts, fmt.Sprintf("search %q", q.Keyword))
	}
	if q.Category != "" {
		parts = append(parts, "category "+q.Category)
	}
	if q.Vendor != "" {
		parts = append(parts, "vendor "+q.Vendor)
	}
	if q.Month != "" {
		parts = append(parts, "month "+q.Month)
	}
	return strings.Join(parts, ", ")
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

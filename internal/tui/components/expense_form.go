package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/expense-flow/internal/model"
	"github.com/Veraticus/expense-flow/internal/tui/themes"
)

// FormMode says what a submitted form is for.
type FormMode int

// Form modes.
const (
	FormAdd FormMode = iota
	FormEdit
	FormBulkEdit
)

func (m FormMode) String() string {
	switch m {
	case FormEdit:
		return "Edit transaction"
	case FormBulkEdit:
		return "Edit selected transactions"
	default:
		return "Add expense"
	}
}

// FormSubmittedMsg is sent when the user saves the form.
type FormSubmittedMsg struct {
	Values map[string]string
	Mode   FormMode
}

// FormCancelledMsg is sent when the user abandons the form.
type FormCancelledMsg struct {
	Mode FormMode
}

var fieldLabels = map[string]string{
	model.FieldDate:          "Date",
	model.FieldCategory:      "Category",
	model.FieldSubcategory:   "Subcategory",
	model.FieldItem:          "Item",
	model.FieldQuantity:      "Quantity",
	model.FieldUnit:          "Unit",
	model.FieldAmount:        "Amount",
	model.FieldCurrency:      "Currency",
	model.FieldPaymentMethod: "Payment method",
	model.FieldVendor:        "Vendor",
	model.FieldOwner:         "Owner",
	model.FieldNotes:         "Notes",
}

var formKeys = struct {
	prev, next, submit, cancel key.Binding
}{
	prev:   key.NewBinding(key.WithKeys("up", "shift+up")),
	next:   key.NewBinding(key.WithKeys("down", "enter")),
	submit: key.NewBinding(key.WithKeys("ctrl+s")),
	cancel: key.NewBinding(key.WithKeys("esc")),
}

// ExpenseFormModel is a column of text inputs, one per transaction field.
type ExpenseFormModel struct {
	theme  themes.Theme
	fields []string
	inputs []textinput.Model
	err    string
	mode   FormMode
	focus  int
}

// NewExpenseForm creates an empty form for mode.
func NewExpenseForm(theme themes.Theme, mode FormMode) ExpenseFormModel {
	fields := model.EditableFields
	inputs := make([]textinput.Model, len(fields))
	for i, field := range fields {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 120
		in.Width = 40
		in.ShowSuggestions = true
		in.KeyMap.AcceptSuggestion = key.NewBinding(key.WithKeys("ctrl+o"))
		switch field {
		case model.FieldDate:
			in.Placeholder = "YYYY-MM-DD"
		case model.FieldAmount:
			in.Placeholder = "0.00"
		}
		inputs[i] = in
	}
	return ExpenseFormModel{
		theme:  theme,
		fields: fields,
		inputs: inputs,
		mode:   mode,
	}
}

// Mode returns what the form is for.
func (m ExpenseFormModel) Mode() FormMode {
	return m.mode
}

// SetValues fills the inputs from values keyed by field name. Fields not in
// values are emptied.
func (m *ExpenseFormModel) SetValues(values map[string]string) {
	for i, field := range m.fields {
		m.inputs[i].SetValue(values[field])
	}
	m.err = ""
}

// Values returns the raw input of every field.
func (m ExpenseFormModel) Values() map[string]string {
	values := make(map[string]string, len(m.fields))
	for i, field := range m.fields {
		values[field] = m.inputs[i].Value()
	}
	return values
}

// SetSuggestions sets completion candidates for field.
func (m *ExpenseFormModel) SetSuggestions(field string, suggestions []string) {
	for i, f := range m.fields {
		if f == field {
			m.inputs[i].SetSuggestions(suggestions)
		}
	}
}

// SetError shows msg under the form. An empty msg clears it.
func (m *ExpenseFormModel) SetError(msg string) {
	m.err = msg
}

// Focus focuses the first field.
func (m *ExpenseFormModel) Focus() tea.Cmd {
	return m.focusField(0)
}

// FocusedField returns the name of the focused field.
func (m ExpenseFormModel) FocusedField() string {
	return m.fields[m.focus]
}

func (m *ExpenseFormModel) focusField(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (i + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focus].Focus()
}

// Update handles messages.
func (m ExpenseFormModel) Update(msg tea.Msg) (ExpenseFormModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, formKeys.submit):
			values, mode := m.Values(), m.mode
			return m, func() tea.Msg { return FormSubmittedMsg{Values: values, Mode: mode} }
		case key.Matches(keyMsg, formKeys.cancel):
			mode := m.mode
			return m, func() tea.Msg { return FormCancelledMsg{Mode: mode} }
		case key.Matches(keyMsg, formKeys.prev):
			return m, m.focusField(m.focus - 1)
		case key.Matches(keyMsg, formKeys.next):
			return m, m.focusField(m.focus + 1)
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// View renders the form.
func (m ExpenseFormModel) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render(m.mode.String()))
	b.WriteString("\n\n")

	for i, field := range m.fields {
		label := m.theme.Label.Render(fieldLabels[field])
		marker := "  "
		if i == m.focus {
			marker = lipgloss.NewStyle().Foreground(m.theme.Primary).Render("> ")
		}
		b.WriteString(marker + label + m.inputs[i].View() + "\n")
	}

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.StatusError.Render(m.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(m.theme.Muted).Render(
		"↑/↓ field · Ctrl+N/P suggestions · Ctrl+O accept · Ctrl+S save · Esc cancel"))
	return m.theme.RoundedBox.Render(b.String())
}

package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/expense-flow/internal/analytics"
	"github.com/Veraticus/expense-flow/internal/model"
	"github.com/Veraticus/expense-flow/internal/service"
	"github.com/Veraticus/expense-flow/internal/tui/themes"
)

// EmptyListMessage is shown instead of the table when the page has no rows.
const EmptyListMessage = "No transactions found"

type listColumn struct {
	field string
	title string
	width int
}

var listColumns = []listColumn{
	{title: "", width: 3},
	{field: "id", title: "ID", width: 6},
	{field: model.FieldDate, title: "Date", width: 10},
	{field: model.FieldCategory, title: "Category", width: 14},
	{field: model.FieldItem, title: "Item", width: 18},
	{field: model.FieldAmount, title: "Amount", width: 14},
	{field: model.FieldVendor, title: "Vendor", width: 16},
	{field: model.FieldPaymentMethod, title: "Payment", width: 12},
	{field: model.FieldOwner, title: "Owner", width: 10},
}

// TransactionListModel renders one page of transactions as a table with a
// selection mark per row.
type TransactionListModel struct {
	theme     themes.Theme
	records   []model.Transaction
	table     table.Model
	sortField string
	sortDir   service.SortDirection
	width     int
	height    int
}

// NewTransactionList creates an empty transaction list.
func NewTransactionList(theme themes.Theme) TransactionListModel {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(true)
	s.Selected = theme.Selected
	t.SetStyles(s)

	m := TransactionListModel{
		theme:  theme,
		table:  t,
		width:  100,
		height: 12,
	}
	m.updateColumns()
	return m
}

// SetRecords replaces the rows. isSelected decides the selection mark.
func (m *TransactionListModel) SetRecords(records []model.Transaction, isSelected func(id int64) bool) {
	m.records = records
	rows := make([]table.Row, 0, len(records))
	for _, tx := range records {
		rows = append(rows, table.Row{
			selectionMark(isSelected != nil && isSelected(tx.ID)),
			fmt.Sprintf("%d", tx.ID),
			tx.Date.String(),
			orPlaceholder(tx.Category),
			orPlaceholder(tx.Item),
			analytics.FormatAmount(tx.Amount, tx.CurrencyOrDefault()),
			orPlaceholder(tx.Vendor),
			orPlaceholder(tx.PaymentMethod),
			orPlaceholder(tx.Owner),
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// SetSort marks the sorted column in the header.
func (m *TransactionListModel) SetSort(field string, dir service.SortDirection) {
	m.sortField = field
	m.sortDir = dir
	m.updateColumns()
}

// Records returns the rows currently shown.
func (m TransactionListModel) Records() []model.Transaction {
	return m.records
}

// Current returns the transaction under the cursor.
func (m TransactionListModel) Current() (model.Transaction, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.records) {
		return model.Transaction{}, false
	}
	return m.records[i], true
}

// Cursor returns the cursor row.
func (m TransactionListModel) Cursor() int {
	return m.table.Cursor()
}

// MoveUp moves the cursor one row up.
func (m *TransactionListModel) MoveUp() {
	m.table.MoveUp(1)
}

// MoveDown moves the cursor one row down.
func (m *TransactionListModel) MoveDown() {
	m.table.MoveDown(1)
}

// Resize updates the list dimensions.
func (m *TransactionListModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(height-2, 3))
	m.updateColumns()
}

// View renders the list.
func (m TransactionListModel) View() string {
	if len(m.records) == 0 {
		return lipgloss.NewStyle().
			Foreground(m.theme.Muted).
			Italic(true).
			Padding(1, 2).
			Render(EmptyListMessage)
	}
	return m.table.View()
}

func (m *TransactionListModel) updateColumns() {
	total := 0
	for _, c := range listColumns {
		total += c.width + 2
	}
	// Spare width goes to the item column.
	extra := max(m.width-total, 0)

	columns := make([]table.Column, 0, len(listColumns))
	for _, c := range listColumns {
		title := c.title
		if c.field != "" && c.field == m.sortField {
			title += sortArrow(m.sortDir)
		}
		width := c.width
		if c.field == model.FieldItem {
			width += extra
		}
		columns = append(columns, table.Column{Title: title, Width: width})
	}
	m.table.SetColumns(columns)
}

func sortArrow(dir service.SortDirection) string {
	if dir == service.SortAsc {
		return " ▲"
	}
	return " ▼"
}

func selectionMark(selected bool) string {
	if selected {
		return "[x]"
	}
	return "[ ]"
}

func orPlaceholder(s string) string {
	if s == "" {
		return analytics.Placeholder
	}
	return s
}

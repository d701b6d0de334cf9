package tui

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/expense-flow/internal/analytics"
	"github.com/Veraticus/expense-flow/internal/ledger"
	"github.com/Veraticus/expense-flow/internal/model"
	"github.com/Veraticus/expense-flow/internal/service"
	"github.com/Veraticus/expense-flow/internal/tui/components"
	"github.com/Veraticus/expense-flow/internal/tui/themes"
)

// Screen is one of the top-level views cycled with Tab.
type Screen int

// Screens in Tab order.
const (
	ScreenTransactions Screen = iota
	ScreenAdd
	ScreenAnalytics
	screenCount
)

func (s Screen) String() string {
	switch s {
	case ScreenAdd:
		return "Add expense"
	case ScreenAnalytics:
		return "Analytics"
	default:
		return "Transactions"
	}
}

// State is what the transactions screen is waiting for.
type State int

// Transactions screen states.
const (
	StateBrowse State = iota
	StatePrompt
	StateConfirm
	StateEdit
	StateBulkEdit
)

type promptKind int

const (
	promptKeyword promptKind = iota
	promptCategory
	promptVendor
	promptMonth
)

type confirmKind int

const (
	confirmDelete confirmKind = iota
	confirmBulkDelete
)

// Model holds the main TUI state.
type Model struct {
	ctx         context.Context
	api         service.ExpenseAPI
	ledger      *ledger.Ledger
	loader      *analytics.Loader
	logger      *slog.Logger
	toast       *ledger.Notification
	theme       themes.Theme
	reference   model.ReferenceData
	snapshot    ledger.Snapshot
	config      Config
	keymap      KeyMap
	help        help.Model
	prompt      textinput.Model
	list        components.TransactionListModel
	addForm     components.ExpenseFormModel
	editForm    components.ExpenseFormModel
	dashboard   components.AnalyticsModel
	confirmText string
	confirmID   int64
	screen      Screen
	state       State
	promptKind  promptKind
	confirmKind confirmKind
	width       int
	height      int
	quitting    bool
}

// newModel creates a new model with the given configuration. The caller
// owns the returned model's ledger and must close it.
func newModel(ctx context.Context, cfg Config) Model {
	led := ledger.New(cfg.API, ledger.Options{
		Query:          cfg.Query,
		NotifyDuration: cfg.NotifyDuration,
	})

	prompt := textinput.New()
	prompt.CharLimit = 80

	m := Model{
		ctx:       ctx,
		api:       cfg.API,
		ledger:    led,
		loader:    analytics.NewLoader(cfg.API),
		logger:    slog.Default().With("component", "tui"),
		config:    cfg,
		keymap:    DefaultKeyMap(),
		help:      help.New(),
		theme:     cfg.Theme,
		prompt:    prompt,
		list:      components.NewTransactionList(cfg.Theme),
		addForm:   components.NewExpenseForm(cfg.Theme, components.FormAdd),
		editForm:  components.NewExpenseForm(cfg.Theme, components.FormEdit),
		dashboard: components.NewAnalytics(cfg.Theme),
		snapshot:  led.List.Snapshot(),
		width:     cfg.Width,
		height:    cfg.Height,
	}
	m.addForm.SetValues(components.ExpenseFormValues(model.NewExpenseForm(time.Now())))
	m.handleResize()
	m.syncList()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.refresh(),
		m.loadReference(),
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()
		return m, nil

	case listChangedMsg:
		m.syncList()
		return m, nil

	case notificationMsg:
		m.syncToast()
		return m, nil

	case opDoneMsg:
		cmd := m.handleOpDone(msg)
		return m, cmd

	case createdMsg:
		cmd := m.handleCreated(msg)
		return m, cmd

	case dashboardMsg:
		if msg.err != nil {
			m.logger.Warn("Failed to load analytics", "error", msg.err)
		}
		m.dashboard.SetDashboard(msg.dashboard, msg.err)
		return m, nil

	case referenceMsg:
		if msg.err != nil {
			m.logger.Warn("Failed to load reference data", "error", msg.err)
			return m, nil
		}
		m.reference = msg.data
		m.applySuggestions(&m.addForm)
		m.applySuggestions(&m.editForm)
		return m, nil

	case components.FormSubmittedMsg:
		cmd := m.handleFormSubmitted(msg)
		return m, cmd

	case components.FormCancelledMsg:
		m.handleFormCancelled(msg)
		return m, nil
	}

	cmd := m.forward(msg)
	return m, cmd
}

// forward passes non-key messages, such as cursor blinks, to the focused input.
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.state == StatePrompt:
		m.prompt, cmd = m.prompt.Update(msg)
	case m.state == StateEdit || m.state == StateBulkEdit:
		m.editForm, cmd = m.editForm.Update(msg)
	case m.screen == ScreenAdd:
		m.addForm, cmd = m.addForm.Update(msg)
	}
	return cmd
}

// handleKey routes a key press to whatever currently owns the keyboard.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state {
	case StatePrompt:
		cmd := m.handlePromptKey(msg)
		return m, cmd
	case StateConfirm:
		cmd := m.handleConfirmKey(msg)
		return m, cmd
	case StateEdit, StateBulkEdit:
		var cmd tea.Cmd
		m.editForm, cmd = m.editForm.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keymap.NextScreen):
		cmd := m.switchScreen(m.screen + 1)
		return m, cmd
	case key.Matches(msg, m.keymap.PrevScreen):
		cmd := m.switchScreen(m.screen - 1)
		return m, cmd
	}

	if m.screen == ScreenAdd {
		var cmd tea.Cmd
		m.addForm, cmd = m.addForm.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.screen == ScreenAnalytics {
		if key.Matches(msg, m.keymap.Refresh) {
			m.dashboard.SetLoading()
			return m, m.loadDashboard()
		}
		return m, nil
	}

	cmd := m.handleListKey(msg)
	return m, cmd
}

// handleListKey handles keys on the transactions screen while browsing.
func (m *Model) handleListKey(msg tea.KeyMsg) tea.Cmd {
	q := m.snapshot.Query

	switch {
	case key.Matches(msg, m.keymap.Up):
		m.list.MoveUp()
	case key.Matches(msg, m.keymap.Down):
		m.list.MoveDown()
	case key.Matches(msg, m.keymap.PrevPage):
		if q.Page > 0 {
			return m.prevPage()
		}
	case key.Matches(msg, m.keymap.NextPage):
		if q.Page < m.snapshot.Pages()-1 {
			return m.nextPage()
		}
	case key.Matches(msg, m.keymap.Sort):
		return m.sortBy(nextSortField(q.SortField))
	case key.Matches(msg, m.keymap.SortDirection):
		return m.sortBy(q.SortField)
	case key.Matches(msg, m.keymap.Search):
		return m.openPrompt(promptKeyword, "Search", q.Keyword)
	case key.Matches(msg, m.keymap.FilterCategory):
		return m.openPrompt(promptCategory, "Category", q.Category)
	case key.Matches(msg, m.keymap.FilterVendor):
		return m.openPrompt(promptVendor, "Vendor", q.Vendor)
	case key.Matches(msg, m.keymap.FilterMonth):
		return m.openPrompt(promptMonth, "Month (YYYY-MM)", q.Month)
	case key.Matches(msg, m.keymap.ClearFilters):
		if q.Filtered() {
			return m.applyFilter(ledger.ClearFilters())
		}
	case key.Matches(msg, m.keymap.ToggleSelect):
		if tx, ok := m.list.Current(); ok {
			m.ledger.Selection.Toggle(tx.ID)
			m.syncRows()
		}
	case key.Matches(msg, m.keymap.SelectAll):
		m.ledger.Selection.SelectAll(model.IDs(m.list.Records()))
		m.syncRows()
	case key.Matches(msg, m.keymap.DeselectAll):
		m.ledger.Selection.Clear()
		m.syncRows()
	case key.Matches(msg, m.keymap.Delete):
		if tx, ok := m.list.Current(); ok {
			label := tx.Label()
			if label == "" {
				label = "this transaction"
			}
			m.openConfirm(confirmDelete, tx.ID, "Delete "+label+"?")
		}
	case key.Matches(msg, m.keymap.BulkDelete):
		n := m.ledger.Selection.Len()
		if n == 0 {
			m.notify(ledger.LevelInfo, ledger.ErrEmptySelection.Error())
			return nil
		}
		m.openConfirm(confirmBulkDelete, 0, "Delete "+pluralize(n, "selected transaction")+"?")
	case key.Matches(msg, m.keymap.Edit):
		if tx, ok := m.list.Current(); ok {
			return m.beginEdit(tx)
		}
	case key.Matches(msg, m.keymap.BulkEdit):
		return m.beginBulkEdit()
	case key.Matches(msg, m.keymap.Refresh):
		return m.refresh()
	}
	return nil
}

func (m *Model) openPrompt(kind promptKind, label, value string) tea.Cmd {
	m.promptKind = kind
	m.prompt.Prompt = label + ": "
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	m.state = StatePrompt
	return m.prompt.Focus()
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.prompt.Value())
		kind := m.promptKind
		m.closePrompt()
		return m.filterFromPrompt(kind, value)
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return cmd
}

func (m *Model) closePrompt() {
	m.prompt.Blur()
	m.state = StateBrowse
}

func (m *Model) filterFromPrompt(kind promptKind, value string) tea.Cmd {
	switch kind {
	case promptCategory:
		return m.applyFilter(ledger.CategoryFilter(value))
	case promptVendor:
		return m.applyFilter(ledger.VendorFilter(value))
	case promptMonth:
		if value != "" {
			if _, err := time.Parse("2006-01", value); err != nil {
				m.notify(ledger.LevelError, "Month must be formatted as YYYY-MM")
				return nil
			}
		}
		return m.applyFilter(ledger.MonthFilter(value))
	default:
		return m.applyFilter(ledger.KeywordFilter(value))
	}
}

func (m *Model) openConfirm(kind confirmKind, id int64, text string) {
	m.confirmKind = kind
	m.confirmID = id
	m.confirmText = text
	m.state = StateConfirm
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Confirm):
		m.state = StateBrowse
		if m.confirmKind == confirmBulkDelete {
			return m.bulkDelete()
		}
		return m.deleteTransaction(m.confirmID)
	case key.Matches(msg, m.keymap.Deny):
		m.state = StateBrowse
	}
	return nil
}

func (m *Model) beginEdit(tx model.Transaction) tea.Cmd {
	m.ledger.Mutator.BeginEdit(tx)
	m.editForm = components.NewExpenseForm(m.theme, components.FormEdit)
	m.applySuggestions(&m.editForm)
	m.editForm.SetValues(components.FormValues(tx))
	m.state = StateEdit
	return m.editForm.Focus()
}

func (m *Model) beginBulkEdit() tea.Cmd {
	if err := m.ledger.Bulk.BeginBulkEdit(); err != nil {
		m.notify(ledger.LevelInfo, err.Error())
		return nil
	}
	m.editForm = components.NewExpenseForm(m.theme, components.FormBulkEdit)
	m.applySuggestions(&m.editForm)
	m.state = StateBulkEdit
	return m.editForm.Focus()
}

func (m *Model) handleFormSubmitted(msg components.FormSubmittedMsg) tea.Cmd {
	switch msg.Mode {
	case components.FormEdit:
		return m.submitEdit(msg.Values)
	case components.FormBulkEdit:
		return m.submitBulkEdit(msg.Values)
	default:
		return m.submitAdd(msg.Values)
	}
}

func (m *Model) submitAdd(values map[string]string) tea.Cmd {
	var form model.ExpenseForm
	for field, value := range values {
		if err := form.Set(field, value); err != nil {
			m.addForm.SetError(err.Error())
			return nil
		}
	}
	tx, err := form.Transaction()
	if err != nil {
		m.addForm.SetError(err.Error())
		return nil
	}
	m.addForm.SetError("")
	return m.createTransaction(tx)
}

// submitEdit stages every field that differs from the original, or that an
// earlier attempt staged, and saves.
func (m *Model) submitEdit(values map[string]string) tea.Cmd {
	session, ok := m.ledger.Mutator.Editing()
	if !ok {
		m.state = StateBrowse
		return nil
	}

	staged := session.Patch.Fields()
	var errs []error
	for _, field := range model.EditableFields {
		value := values[field]
		if value == model.FieldValue(session.Original, field) && !slices.Contains(staged, field) {
			continue
		}
		if err := m.ledger.Mutator.Set(field, value); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		m.editForm.SetError(errors.Join(errs...).Error())
		return nil
	}
	m.editForm.SetError("")
	return m.saveEdit()
}

// submitBulkEdit applies every non-empty field to all selected transactions.
func (m *Model) submitBulkEdit(values map[string]string) tea.Cmd {
	var errs []error
	for _, field := range model.EditableFields {
		value := strings.TrimSpace(values[field])
		if value == "" {
			continue
		}
		if err := m.ledger.Bulk.SetAll(field, value); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		m.editForm.SetError(errors.Join(errs...).Error())
		return nil
	}
	m.editForm.SetError("")
	return m.saveBulk()
}

func (m *Model) handleFormCancelled(msg components.FormCancelledMsg) {
	switch msg.Mode {
	case components.FormEdit:
		m.ledger.Mutator.CancelEdit()
		m.closeEditForm()
	case components.FormBulkEdit:
		m.ledger.Bulk.CancelBulkEdit()
		m.closeEditForm()
	default:
		m.addForm.SetValues(components.ExpenseFormValues(model.NewExpenseForm(time.Now())))
	}
}

func (m *Model) closeEditForm() {
	m.state = StateBrowse
	m.syncRows()
}

func (m *Model) handleOpDone(msg opDoneMsg) tea.Cmd {
	m.syncList()
	m.syncToast()

	if msg.err == nil {
		switch msg.op {
		case opSaveEdit, opSaveBulk:
			m.closeEditForm()
		}
		return nil
	}

	switch {
	case errors.Is(msg.err, ledger.ErrStaleResponse),
		errors.Is(msg.err, ledger.ErrDetached),
		errors.Is(msg.err, ledger.ErrPageOutOfRange):
		return nil
	}

	switch msg.op {
	case opSaveEdit, opSaveBulk:
		m.editForm.SetError(msg.err.Error())
	case opDelete, opBulkDelete:
		// The ledger has already reported the failure.
	default:
		m.notify(ledger.LevelError, "Failed to load transactions: "+msg.err.Error())
	}
	return nil
}

func (m *Model) handleCreated(msg createdMsg) tea.Cmd {
	if msg.err != nil {
		m.addForm.SetError(msg.err.Error())
		m.notify(ledger.LevelError, "Failed to add expense: "+msg.err.Error())
		return nil
	}

	var form model.ExpenseForm
	for field, value := range m.addForm.Values() {
		_ = form.Set(field, value)
	}
	form.ResetTransient()
	m.addForm.SetValues(components.ExpenseFormValues(form))
	m.notify(ledger.LevelSuccess, "Expense added")
	return m.refresh()
}

func (m *Model) switchScreen(s Screen) tea.Cmd {
	m.screen = (s + screenCount) % screenCount
	switch m.screen {
	case ScreenAdd:
		return m.addForm.Focus()
	case ScreenAnalytics:
		m.dashboard.SetLoading()
		return m.loadDashboard()
	}
	return nil
}

// syncList pulls the latest list state from the ledger.
func (m *Model) syncList() {
	m.snapshot = m.ledger.List.Snapshot()
	m.list.SetSort(m.snapshot.Query.SortField, m.snapshot.Query.SortDir)
	m.syncRows()
}

func (m *Model) syncRows() {
	m.list.SetRecords(m.snapshot.Records, m.ledger.Selection.Has)
}

func (m *Model) syncToast() {
	if n, ok := m.ledger.Notifier.Current(); ok {
		m.toast = &n
		return
	}
	m.toast = nil
}

func (m *Model) notify(level ledger.Level, msg string) {
	m.ledger.Notifier.Notify(level, msg)
	m.syncToast()
}

func (m *Model) applySuggestions(form *components.ExpenseFormModel) {
	r := m.reference
	form.SetSuggestions(model.FieldCategory, r.CategoryNames())
	var subcategories, items []string
	for _, category := range r.CategoryNames() {
		subcategories = append(subcategories, r.Subcategories(category)...)
	}
	for _, sub := range subcategories {
		items = append(items, r.Items(sub)...)
	}
	form.SetSuggestions(model.FieldSubcategory, subcategories)
	form.SetSuggestions(model.FieldItem, items)
	form.SetSuggestions(model.FieldUnit, r.Units)
	form.SetSuggestions(model.FieldPaymentMethod, r.PaymentMethods)
	form.SetSuggestions(model.FieldOwner, r.Owners)
}

// handleResize handles terminal resize.
func (m *Model) handleResize() {
	// Header, status bar, toast and help take about eight lines.
	m.list.Resize(m.width, max(m.height-8, 5))
	m.dashboard.Resize(m.width)
	m.help.Width = m.width
}

// nextSortField cycles through ledger.SortFields.
func nextSortField(current string) string {
	i := slices.Index(ledger.SortFields, current)
	return ledger.SortFields[(i+1)%len(ledger.SortFields)]
}

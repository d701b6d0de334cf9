package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding

	// Ordering and filters
	Sort           key.Binding
	SortDirection  key.Binding
	Search         key.Binding
	FilterCategory key.Binding
	FilterVendor   key.Binding
	FilterMonth    key.Binding
	ClearFilters   key.Binding

	// Selection
	ToggleSelect key.Binding
	SelectAll    key.Binding
	DeselectAll  key.Binding

	// Actions
	Delete     key.Binding
	BulkDelete key.Binding
	Edit       key.Binding
	BulkEdit   key.Binding
	Refresh    key.Binding
	Submit     key.Binding
	Cancel     key.Binding
	Confirm    key.Binding
	Deny       key.Binding

	// Application
	NextScreen key.Binding
	PrevScreen key.Binding
	Help       key.Binding
	Quit       key.Binding
	ForceQuit  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("←/h", "previous page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("→/l", "next page"),
		),

		// Ordering and filters
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort column"),
		),
		SortDirection: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "sort direction"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		FilterCategory: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "category filter"),
		),
		FilterVendor: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "vendor filter"),
		),
		FilterMonth: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "month filter"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear filters"),
		),

		// Selection
		ToggleSelect: key.NewBinding(
			key.WithKeys("x", " "),
			key.WithHelp("x/Space", "toggle selection"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("Ctrl+A", "select page"),
		),
		DeselectAll: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("Ctrl+D", "clear selection"),
		),

		// Actions
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		BulkDelete: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete selected"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e/Enter", "edit"),
		),
		BulkEdit: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "edit selected"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("Ctrl+S", "save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n/Esc", "cancel"),
		),

		// Application
		NextScreen: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next screen"),
		),
		PrevScreen: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("Shift+Tab", "previous screen"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "force quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.NextScreen, k.Edit, k.Delete, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevPage, k.NextPage},
		{k.Sort, k.SortDirection, k.Search, k.ClearFilters},
		{k.FilterCategory, k.FilterVendor, k.FilterMonth, k.Refresh},
		{k.ToggleSelect, k.SelectAll, k.DeselectAll, k.BulkDelete},
		{k.Edit, k.BulkEdit, k.Delete, k.Submit},
		{k.NextScreen, k.Help, k.Quit},
	}
}

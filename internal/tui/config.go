package tui

import (
	"time"

	"github.com/Veraticus/expense-flow/internal/ledger"
	"github.com/Veraticus/expense-flow/internal/service"
	"github.com/Veraticus/expense-flow/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	API            service.ExpenseAPI
	Theme          themes.Theme
	Query          ledger.Query
	NotifyDuration time.Duration
	RequestTimeout time.Duration
	Width          int
	Height         int
	AltScreen      bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:          themes.Default,
		Query:          ledger.DefaultQuery(),
		NotifyDuration: ledger.DefaultNotifyDuration,
		RequestTimeout: 30 * time.Second,
		Width:          100,
		Height:         30,
		AltScreen:      true,
	}
}

// WithAPI sets the backend the TUI reads and writes.
func WithAPI(api service.ExpenseAPI) Option {
	return func(c *Config) {
		c.API = api
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithQuery sets the initial page, sort and filters.
func WithQuery(q ledger.Query) Option {
	return func(c *Config) {
		c.Query = q
	}
}

// WithNotifyDuration sets how long notifications stay on screen.
func WithNotifyDuration(d time.Duration) Option {
	return func(c *Config) {
		c.NotifyDuration = d
	}
}

// WithRequestTimeout bounds each backend call made by the TUI.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// WithAltScreen controls whether the program takes over the whole terminal.
func WithAltScreen(enabled bool) Option {
	return func(c *Config) {
		c.AltScreen = enabled
	}
}

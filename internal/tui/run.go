package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/expense-flow/internal/ledger"
)

// Run starts the interactive browser and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.API == nil {
		return errors.New("API client is required")
	}

	m := newModel(ctx, cfg)
	defer m.ledger.Close()

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	p := tea.NewProgram(m, programOpts...)

	// Observers may fire from inside Update, where a blocking Send would
	// deadlock the event loop.
	m.ledger.List.Subscribe(func(ledger.Snapshot) {
		go p.Send(listChangedMsg{})
	})
	m.ledger.Notifier.OnChange(func(ledger.Notification, bool) {
		go p.Send(notificationMsg{})
	})

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

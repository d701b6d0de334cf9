package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/expense-flow/internal/ledger"
	"github.com/Veraticus/expense-flow/internal/model"
)

// withTimeout derives the context for one backend call.
func (m Model) withTimeout() (context.Context, context.CancelFunc) {
	if m.config.RequestTimeout <= 0 {
		return context.WithCancel(m.ctx)
	}
	return context.WithTimeout(m.ctx, m.config.RequestTimeout)
}

// ledgerOp runs fn against the ledger and reports completion as op.
func (m Model) ledgerOp(op string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.withTimeout()
		defer cancel()
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) refresh() tea.Cmd {
	return m.ledgerOp(opRefresh, m.ledger.List.Refresh)
}

func (m Model) nextPage() tea.Cmd {
	return m.ledgerOp(opPage, m.ledger.List.NextPage)
}

func (m Model) prevPage() tea.Cmd {
	return m.ledgerOp(opPage, m.ledger.List.PrevPage)
}

func (m Model) sortBy(field string) tea.Cmd {
	return m.ledgerOp(opSort, func(ctx context.Context) error {
		return m.ledger.List.SetSort(ctx, field)
	})
}

func (m Model) applyFilter(f ledger.Filter) tea.Cmd {
	return m.ledgerOp(opFilter, func(ctx context.Context) error {
		return m.ledger.List.SetFilter(ctx, f)
	})
}

func (m Model) deleteTransaction(id int64) tea.Cmd {
	return m.ledgerOp(opDelete, func(ctx context.Context) error {
		return m.ledger.Mutator.Delete(ctx, id)
	})
}

func (m Model) bulkDelete() tea.Cmd {
	return m.ledgerOp(opBulkDelete, m.ledger.Bulk.BulkDelete)
}

func (m Model) saveEdit() tea.Cmd {
	return m.ledgerOp(opSaveEdit, func(ctx context.Context) error {
		_, err := m.ledger.Mutator.SaveEdit(ctx)
		return err
	})
}

func (m Model) saveBulk() tea.Cmd {
	return m.ledgerOp(opSaveBulk, func(ctx context.Context) error {
		_, err := m.ledger.Bulk.SaveBulk(ctx)
		return err
	})
}

// createTransaction posts tx to the backend.
func (m Model) createTransaction(tx model.Transaction) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.withTimeout()
		defer cancel()
		created, err := m.api.Create(ctx, tx)
		return createdMsg{tx: created, err: err}
	}
}

// loadDashboard fetches every analytics series.
func (m Model) loadDashboard() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.withTimeout()
		defer cancel()
		d, err := m.loader.Load(ctx)
		return dashboardMsg{dashboard: d, err: err}
	}
}

// loadReference fetches the vocabularies used for form suggestions.
func (m Model) loadReference() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.withTimeout()
		defer cancel()
		data, err := m.api.ReferenceData(ctx)
		return referenceMsg{data: data, err: err}
	}
}

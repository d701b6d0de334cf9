package tui

import (
	"github.com/Veraticus/expense-flow/internal/analytics"
	"github.com/Veraticus/expense-flow/internal/model"
)

// Operation names carried by opDoneMsg.
const (
	opRefresh    = "refresh"
	opPage       = "page"
	opSort       = "sort"
	opFilter     = "filter"
	opDelete     = "delete"
	opBulkDelete = "bulk-delete"
	opSaveEdit   = "save-edit"
	opSaveBulk   = "save-bulk"
)

// listChangedMsg signals that the ledger list changed. The model reads the
// latest snapshot itself, so signals may arrive late or out of order.
type listChangedMsg struct{}

// notificationMsg signals that the notifier showed or dismissed a message.
type notificationMsg struct{}

// opDoneMsg reports the end of a ledger operation.
type opDoneMsg struct {
	err error
	op  string
}

// createdMsg reports the result of adding an expense.
type createdMsg struct {
	err error
	tx  model.Transaction
}

// dashboardMsg carries freshly loaded analytics.
type dashboardMsg struct {
	err       error
	dashboard analytics.Dashboard
}

// referenceMsg carries the vocabularies used for form suggestions.
type referenceMsg struct {
	err  error
	data model.ReferenceData
}

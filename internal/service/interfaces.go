// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/expense-flow/internal/model"
)

// SortDirection orders a paged query.
type SortDirection string

// Sort directions understood by the backend.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Toggle returns the opposite direction.
func (d SortDirection) Toggle() SortDirection {
	if d == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// PageQuery selects one slice of the ordered, filtered transaction set.
type PageQuery struct {
	SortField string
	SortDir   SortDirection
	Keyword   string
	Category  string
	Vendor    string
	Month     string // YYYY-MM
	Page      int
	Size      int
}

// Page is one slice of a paged query plus total-page metadata.
type Page struct {
	Content    []model.Transaction `json:"content"`
	TotalPages int                 `json:"totalPages"`
}

// TransactionAPI covers the transaction endpoints of the backend.
type TransactionAPI interface {
	ListAll(ctx context.Context) ([]model.Transaction, error)
	ListPaged(ctx context.Context, q PageQuery) (Page, error)
	Create(ctx context.Context, tx model.Transaction) (model.Transaction, error)
	Update(ctx context.Context, id int64, patch model.Patch) (model.Transaction, error)
	Delete(ctx context.Context, id int64) error
	BulkDelete(ctx context.Context, ids []int64) error
	BulkUpdate(ctx context.Context, patches []model.BulkPatch) ([]model.Transaction, error)
}

// SummaryAPI covers the read-only aggregate endpoints.
type SummaryAPI interface {
	SummaryByCategory(ctx context.Context) ([]model.SummaryEntry, error)
	SummaryByMonth(ctx context.Context) ([]model.SummaryEntry, error)
	TopVendors(ctx context.Context) ([]model.SummaryEntry, error)
	TopItems(ctx context.Context) ([]model.SummaryEntry, error)
}

// ExpenseAPI is the full contract of the expense backend.
type ExpenseAPI interface {
	TransactionAPI
	SummaryAPI
	ReferenceData(ctx context.Context) (model.ReferenceData, error)
}

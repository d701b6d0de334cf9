package ledger

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/expense-flow/internal/model"
	"github.com/Veraticus/expense-flow/internal/service"
)

// fakeAPI is an in-memory backend with server-side paging, filtering and sorting.
type fakeAPI struct {
	deleteErr     error
	updateErr     error
	bulkDeleteErr error
	bulkUpdateErr error
	listErr       error
	holds         map[int]chan struct{}
	records       []model.Transaction
	pagedCalls    []service.PageQuery
	bulkUpdates   [][]model.BulkPatch
	bulkDeletes   [][]int64
	deletes       []int64
	mu            sync.Mutex
}

func newFakeAPI(records ...model.Transaction) *fakeAPI {
	return &fakeAPI{records: records, holds: map[int]chan struct{}{}}
}

// seedTransactions returns n records with ids 1..n on consecutive days.
func seedTransactions(n int) []model.Transaction {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Transaction, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, model.Transaction{
			ID:       int64(i),
			Date:     model.NewDate(base.AddDate(0, 0, i-1)),
			Category: []string{"Groceries", "Transport", "Rent"}[i%3],
			Vendor:   fmt.Sprintf("Vendor %d", i%4),
			Item:     fmt.Sprintf("item-%d", i),
			Amount:   model.NewAmount(float64(i)),
		})
	}
	return out
}

func txWithIDs(ids ...int64) []model.Transaction {
	out := make([]model.Transaction, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Transaction{ID: id, Category: "Groceries", Amount: model.NewAmount(float64(id))})
	}
	return out
}

// hold makes the nth ListPaged call (1-based) block until the returned func is called.
func (f *fakeAPI) hold(call int) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.holds[call] = ch
	return func() { close(ch) }
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pagedCalls)
}

func (f *fakeAPI) ListAll(_ context.Context) ([]model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.records), nil
}

func (f *fakeAPI) ListPaged(ctx context.Context, q service.PageQuery) (service.Page, error) {
	f.mu.Lock()
	f.pagedCalls = append(f.pagedCalls, q)
	hold := f.holds[len(f.pagedCalls)]
	f.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return service.Page{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return service.Page{}, f.listErr
	}

	var matched []model.Transaction
	for _, t := range f.records {
		if !t.Matches(q.Keyword) {
			continue
		}
		if q.Category != "" && t.Category != q.Category {
			continue
		}
		if q.Vendor != "" && t.Vendor != q.Vendor {
			continue
		}
		if q.Month != "" && t.Date.Month() != q.Month {
			continue
		}
		matched = append(matched, t)
	}

	slices.SortStableFunc(matched, func(a, b model.Transaction) int {
		var c int
		switch q.SortField {
		case model.FieldAmount:
			c = a.Amount.Cmp(b.Amount)
		case model.FieldDate:
			c = a.Date.Compare(b.Date.Time)
		case model.FieldVendor:
			c = strings.Compare(a.Vendor, b.Vendor)
		default:
			c = int(a.ID - b.ID)
		}
		if q.SortDir == service.SortDesc {
			c = -c
		}
		return c
	})

	size := max(q.Size, 1)
	totalPages := (len(matched) + size - 1) / size
	start := min(q.Page*size, len(matched))
	end := min(start+size, len(matched))

	return service.Page{Content: slices.Clone(matched[start:end]), TotalPages: totalPages}, nil
}

func (f *fakeAPI) Create(_ context.Context, tx model.Transaction) (model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx.ID = int64(len(f.records) + 1000)
	f.records = append(f.records, tx)
	return tx, nil
}

func (f *fakeAPI) Update(_ context.Context, id int64, patch model.Patch) (model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return model.Transaction{}, f.updateErr
	}
	for i, t := range f.records {
		if t.ID == id {
			f.records[i] = patch.Apply(t)
			return f.records[i], nil
		}
	}
	return model.Transaction{}, fmt.Errorf("transaction %d not found", id)
}

func (f *fakeAPI) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.records = slices.DeleteFunc(f.records, func(t model.Transaction) bool { return t.ID == id })
	return nil
}

func (f *fakeAPI) BulkDelete(_ context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkDeletes = append(f.bulkDeletes, slices.Clone(ids))
	if f.bulkDeleteErr != nil {
		return f.bulkDeleteErr
	}
	f.records = slices.DeleteFunc(f.records, func(t model.Transaction) bool { return slices.Contains(ids, t.ID) })
	return nil
}

func (f *fakeAPI) BulkUpdate(_ context.Context, patches []model.BulkPatch) ([]model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkUpdates = append(f.bulkUpdates, slices.Clone(patches))
	if f.bulkUpdateErr != nil {
		return nil, f.bulkUpdateErr
	}
	var updated []model.Transaction
	for _, p := range patches {
		for i, t := range f.records {
			if t.ID == p.ID {
				f.records[i] = p.Apply(t)
				updated = append(updated, f.records[i])
			}
		}
	}
	return updated, nil
}

func newTestLedger(t *testing.T, api *fakeAPI, q Query) *Ledger {
	t.Helper()
	l := New(api, Options{Query: q, NotifyDuration: time.Minute})
	t.Cleanup(l.Close)
	return l
}

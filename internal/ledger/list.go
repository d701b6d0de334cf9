// Package ledger holds the client-side view state of the transaction list:
// the current page and query, optimistic mutations, selection, bulk edits
// and transient notifications.
//
// All state is guarded by mutexes. Backend calls block and may overlap; a
// response is applied only when it belongs to the most recent request of a
// list that is still open.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/Veraticus/expense-flow/internal/model"
	"github.com/Veraticus/expense-flow/internal/service"
)

// List state errors.
var (
	ErrPageOutOfRange   = errors.New("page out of range")
	ErrStaleResponse    = errors.New("stale response discarded")
	ErrDetached         = errors.New("list is closed")
	ErrUnknownSortField = errors.New("unknown sort field")
	ErrInvalidPageSize  = errors.New("page size must be positive")
)

// Defaults for a fresh list.
const (
	DefaultPageSize  = 5
	DefaultSortField = model.FieldDate
	DefaultSortDir   = service.SortDesc
)

// SortFields are the columns the backend can order by.
var SortFields = []string{
	"id", model.FieldDate, model.FieldCategory, model.FieldSubcategory, model.FieldItem,
	model.FieldAmount, model.FieldVendor, model.FieldPaymentMethod, model.FieldOwner,
}

// IsSortField reports whether field is in SortFields.
func IsSortField(field string) bool {
	return slices.Contains(SortFields, field)
}

// Query is the full description of the page being viewed.
type Query struct {
	SortField string
	SortDir   service.SortDirection
	Keyword   string
	Category  string
	Vendor    string
	Month     string
	Page      int
	PageSize  int
}

// DefaultQuery returns the first page sorted by date, newest first.
func DefaultQuery() Query {
	return Query{
		PageSize:  DefaultPageSize,
		SortField: DefaultSortField,
		SortDir:   DefaultSortDir,
	}
}

func (q Query) withDefaults() Query {
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.SortField == "" {
		q.SortField = DefaultSortField
	}
	if q.SortDir == "" {
		q.SortDir = DefaultSortDir
	}
	if q.Page < 0 {
		q.Page = 0
	}
	return q
}

func (q Query) pageQuery() service.PageQuery {
	return service.PageQuery{
		Page:      q.Page,
		Size:      q.PageSize,
		SortField: q.SortField,
		SortDir:   q.SortDir,
		Keyword:   q.Keyword,
		Category:  q.Category,
		Vendor:    q.Vendor,
		Month:     q.Month,
	}
}

// Filtered reports whether any filter is active.
func (q Query) Filtered() bool {
	return q.Keyword != "" || q.Category != "" || q.Vendor != "" || q.Month != ""
}

// Filter is a partial filter update. Nil fields are left unchanged; an
// empty string clears that filter.
type Filter struct {
	Keyword  *string
	Category *string
	Vendor   *string
	Month    *string
}

// KeywordFilter sets the keyword only.
func KeywordFilter(s string) Filter { return Filter{Keyword: &s} }

// CategoryFilter sets the category only.
func CategoryFilter(s string) Filter { return Filter{Category: &s} }

// VendorFilter sets the vendor only.
func VendorFilter(s string) Filter { return Filter{Vendor: &s} }

// MonthFilter sets the month (YYYY-MM) only.
func MonthFilter(s string) Filter { return Filter{Month: &s} }

// ClearFilters resets every filter.
func ClearFilters() Filter {
	empty := ""
	return Filter{Keyword: &empty, Category: &empty, Vendor: &empty, Month: &empty}
}

func (f Filter) apply(q Query) Query {
	if f.Keyword != nil {
		q.Keyword = *f.Keyword
	}
	if f.Category != nil {
		q.Category = *f.Category
	}
	if f.Vendor != nil {
		q.Vendor = *f.Vendor
	}
	if f.Month != nil {
		q.Month = *f.Month
	}
	return q
}

// Snapshot is a copy of the list state for rendering.
type Snapshot struct {
	Err        error
	Records    []model.Transaction
	Query      Query
	TotalPages int
	Loading    bool
}

// Pages returns the number of pages to display; an empty result still has one.
func (s Snapshot) Pages() int {
	return max(s.TotalPages, 1)
}

// List tracks the currently displayed page of transactions.
type List struct {
	api       service.TransactionAPI
	logger    *slog.Logger
	hidden    map[int64]struct{}
	lastErr   error
	records   []model.Transaction
	observers []func(Snapshot)
	query     Query

	totalPages int
	generation uint64
	mu         sync.Mutex
	loading    bool
	closed     bool
}

// NewList creates a list for q. Nothing is fetched until Refresh is called.
func NewList(api service.TransactionAPI, q Query) *List {
	return &List{
		api:    api,
		query:  q.withDefaults(),
		hidden: make(map[int64]struct{}),
		logger: slog.Default().With("component", "ledger"),
	}
}

// Subscribe registers fn to be called with a fresh snapshot whenever the
// list changes. fn runs outside the list lock.
func (l *List) Subscribe(fn func(Snapshot)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

// Snapshot returns a copy of the current state.
func (l *List) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *List) snapshotLocked() Snapshot {
	return Snapshot{
		Records:    slices.Clone(l.records),
		Query:      l.query,
		TotalPages: l.totalPages,
		Loading:    l.loading,
		Err:        l.lastErr,
	}
}

// Close detaches the list. Responses arriving afterwards are discarded.
func (l *List) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.observers = nil
}

// Load fetches the current query as given. A page past the end is rejected
// with ErrPageOutOfRange and the displayed records are left unchanged.
func (l *List) Load(ctx context.Context) error {
	return l.fetch(ctx, false)
}

// Refresh re-issues the current query after the page contents may have
// changed. An empty page past the end steps back to the last page.
func (l *List) Refresh(ctx context.Context) error {
	return l.fetch(ctx, true)
}

// SetFilter merges f into the query, returns to the first page and fetches.
func (l *List) SetFilter(ctx context.Context, f Filter) error {
	if err := l.update(func(q *Query) error {
		*q = f.apply(*q)
		q.Page = 0
		return nil
	}); err != nil {
		return err
	}
	return l.fetch(ctx, true)
}

// SetSort orders by field. Choosing the current field flips the direction;
// a new field starts ascending. The page is kept.
func (l *List) SetSort(ctx context.Context, field string) error {
	if !IsSortField(field) {
		return fmt.Errorf("%w: %q", ErrUnknownSortField, field)
	}
	if err := l.update(func(q *Query) error {
		if q.SortField == field {
			q.SortDir = q.SortDir.Toggle()
		} else {
			q.SortField = field
			q.SortDir = service.SortAsc
		}
		return nil
	}); err != nil {
		return err
	}
	return l.fetch(ctx, true)
}

// SetPage moves to page n. Pages outside [0, totalPages-1] are rejected
// without a fetch.
func (l *List) SetPage(ctx context.Context, n int) error {
	if err := l.update(func(q *Query) error {
		pages := max(l.totalPages, 1)
		if n < 0 || n >= pages {
			return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, n+1, pages)
		}
		q.Page = n
		return nil
	}); err != nil {
		return err
	}
	return l.fetch(ctx, true)
}

// NextPage moves forward one page.
func (l *List) NextPage(ctx context.Context) error {
	return l.SetPage(ctx, l.Snapshot().Query.Page+1)
}

// PrevPage moves back one page.
func (l *List) PrevPage(ctx context.Context) error {
	return l.SetPage(ctx, l.Snapshot().Query.Page-1)
}

// SetPageSize changes the page size and returns to the first page.
func (l *List) SetPageSize(ctx context.Context, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, n)
	}
	if err := l.update(func(q *Query) error {
		q.PageSize = n
		q.Page = 0
		return nil
	}); err != nil {
		return err
	}
	return l.fetch(ctx, true)
}

func (l *List) update(fn func(q *Query) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrDetached
	}
	q := l.query
	if err := fn(&q); err != nil {
		return err
	}
	l.query = q
	return nil
}

// fetch issues the current query. An empty page past the end moves to the
// last page and fetches once more when stepBack is set, and is an error
// otherwise.
func (l *List) fetch(ctx context.Context, stepBack bool) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrDetached
	}
	l.generation++
	gen := l.generation
	q := l.query
	l.loading = true
	l.mu.Unlock()

	page, err := l.api.ListPaged(ctx, q.pageQuery())

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrDetached
	}
	if gen != l.generation {
		l.mu.Unlock()
		l.logger.Debug("Discarding stale page", "generation", gen, "page", q.Page)
		return ErrStaleResponse
	}

	if err != nil {
		l.loading = false
		l.lastErr = err
		snap, observers := l.snapshotLocked(), slices.Clone(l.observers)
		l.mu.Unlock()
		l.logger.Warn("Failed to load transactions", "page", q.Page, "error", err)
		notify(observers, snap)
		return err
	}

	totalPages := max(page.TotalPages, 0)
	if len(page.Content) == 0 && q.Page > 0 && q.Page >= totalPages {
		l.totalPages = totalPages
		if stepBack {
			l.query.Page = max(totalPages-1, 0)
			l.mu.Unlock()
			l.logger.Debug("Page past the end, stepping back", "page", q.Page, "total_pages", totalPages)
			return l.fetch(ctx, false)
		}
		err := fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, q.Page+1, max(totalPages, 1))
		l.loading = false
		l.lastErr = err
		snap, observers := l.snapshotLocked(), slices.Clone(l.observers)
		l.mu.Unlock()
		notify(observers, snap)
		return err
	}

	l.records = l.visible(page.Content)
	l.totalPages = totalPages
	l.loading = false
	l.lastErr = nil
	snap, observers := l.snapshotLocked(), slices.Clone(l.observers)
	l.mu.Unlock()

	notify(observers, snap)
	return nil
}

func (l *List) visible(records []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, 0, len(records))
	for _, r := range records {
		if _, ok := l.hidden[r.ID]; ok {
			continue
		}
		out = append(out, r)
	}
	return out
}

// hide removes id from the page and keeps it out of pages applied until unhide.
func (l *List) hide(id int64) {
	l.mutate(func() {
		l.hidden[id] = struct{}{}
		l.records = slices.DeleteFunc(l.records, func(t model.Transaction) bool { return t.ID == id })
	})
}

func (l *List) unhide(id int64) {
	l.mu.Lock()
	delete(l.hidden, id)
	l.mu.Unlock()
}

// removeLocal drops rows from the current page without hiding them.
func (l *List) removeLocal(ids []int64) {
	l.mutate(func() {
		l.records = slices.DeleteFunc(l.records, func(t model.Transaction) bool {
			return slices.Contains(ids, t.ID)
		})
	})
}

// replaceLocal swaps rows on the current page for the given records by id.
// Records not on the page are ignored.
func (l *List) replaceLocal(updated []model.Transaction) {
	byID := make(map[int64]model.Transaction, len(updated))
	for _, t := range updated {
		byID[t.ID] = t
	}
	l.mutate(func() {
		for i, r := range l.records {
			if u, ok := byID[r.ID]; ok {
				l.records[i] = u
			}
		}
	})
}

func (l *List) mutate(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	fn()
	snap, observers := l.snapshotLocked(), slices.Clone(l.observers)
	l.mu.Unlock()
	notify(observers, snap)
}

func notify(observers []func(Snapshot), snap Snapshot) {
	for _, fn := range observers {
		fn(snap)
	}
}

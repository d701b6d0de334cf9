// Package analytics loads and renders the spending summaries shown on the
// analytics screen and by the summary command.
package analytics

import (
	"context"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/expense-flow/internal/model"
	"github.com/Veraticus/expense-flow/internal/service"
)

// RecentCount is how many transactions the dashboard lists as recent.
const RecentCount = 5

// Series names, used in logs and Dashboard.Failed.
const (
	SeriesCategory = "by-category"
	SeriesMonth    = "by-month"
	SeriesVendors  = "top-vendors"
	SeriesItems    = "top-items"
	SeriesList     = "transactions"
)

// Source is the slice of the backend the dashboard reads.
type Source interface {
	service.SummaryAPI
	ListAll(ctx context.Context) ([]model.Transaction, error)
}

// Dashboard is a point-in-time view of spending.
type Dashboard struct {
	ByCategory []model.SummaryEntry
	ByMonth    []model.SummaryEntry
	TopVendors []model.SummaryEntry
	TopItems   []model.SummaryEntry
	Recent     []model.Transaction
	Failed     []string
	Total      model.Amount
	Count      int
}

// TopCategory returns the leading category label, or Placeholder when there is none.
func (d Dashboard) TopCategory() string {
	return firstLabel(d.ByCategory)
}

// TopVendor returns the leading vendor label, or Placeholder when there is none.
func (d Dashboard) TopVendor() string {
	return firstLabel(d.TopVendors)
}

func firstLabel(entries []model.SummaryEntry) string {
	if len(entries) == 0 || entries[0].Label == "" {
		return Placeholder
	}
	return entries[0].Label
}

// Loader fetches every dashboard series concurrently.
type Loader struct {
	src    Source
	logger *slog.Logger
}

// NewLoader creates a loader reading from src.
func NewLoader(src Source) *Loader {
	return &Loader{
		src:    src,
		logger: slog.Default().With("component", "analytics"),
	}
}

// Load fetches all series. A series that fails to load is shown as empty
// and recorded in Dashboard.Failed; Load itself only fails when ctx is done.
func (l *Loader) Load(ctx context.Context) (Dashboard, error) {
	var (
		d    Dashboard
		all  []model.Transaction
		errs = make([]error, 5)
	)

	g, gctx := errgroup.WithContext(ctx)
	series := []struct {
		fetch func(context.Context) ([]model.SummaryEntry, error)
		dst   *[]model.SummaryEntry
		name  string
	}{
		{name: SeriesCategory, fetch: l.src.SummaryByCategory, dst: &d.ByCategory},
		{name: SeriesMonth, fetch: l.src.SummaryByMonth, dst: &d.ByMonth},
		{name: SeriesVendors, fetch: l.src.TopVendors, dst: &d.TopVendors},
		{name: SeriesItems, fetch: l.src.TopItems, dst: &d.TopItems},
	}

	for i, s := range series {
		g.Go(func() error {
			entries, err := s.fetch(gctx)
			if err != nil {
				errs[i] = err
				return nil
			}
			*s.dst = entries
			return nil
		})
	}
	g.Go(func() error {
		txns, err := l.src.ListAll(gctx)
		if err != nil {
			errs[4] = err
			return nil
		}
		all = txns
		return nil
	})

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Dashboard{}, err
	}

	names := []string{SeriesCategory, SeriesMonth, SeriesVendors, SeriesItems, SeriesList}
	for i, err := range errs {
		if err != nil {
			l.logger.Warn("Failed to load series, showing no data", "series", names[i], "error", err)
			d.Failed = append(d.Failed, names[i])
		}
	}

	d.Count = len(all)
	if errs[4] == nil {
		d.Total = model.Total(all)
	} else {
		d.Total = model.SeriesTotal(d.ByCategory)
	}
	d.Recent = MostRecent(all, RecentCount)

	return d, nil
}

// MostRecent returns up to n transactions, newest date first. Ties go to the higher id.
func MostRecent(txns []model.Transaction, n int) []model.Transaction {
	sorted := slices.Clone(txns)
	slices.SortStableFunc(sorted, func(a, b model.Transaction) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

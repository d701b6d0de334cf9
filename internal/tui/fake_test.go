package tui

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/expense-flow/internal/model"
	"github.com/Veraticus/expense-flow/internal/service"
)

// fakeAPI is an in-memory backend that pages records in stored order.
type fakeAPI struct {
	listErr     error
	createErr   error
	records     []model.Transaction
	queries     []service.PageQuery
	created     []model.Transaction
	updates     map[int64]model.Patch
	deletes     []int64
	bulkDeletes [][]int64
	bulkUpdates [][]model.BulkPatch
	nextID      int64
	mu          sync.Mutex
}

func newFakeAPI(n int) *fakeAPI {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f := &fakeAPI{updates: map[int64]model.Patch{}, nextID: int64(n) + 1}
	for i := 1; i <= n; i++ {
		f.records = append(f.records, model.Transaction{
			ID:            int64(i),
			Date:          model.NewDate(base.AddDate(0, 0, i-1)),
			Category:      "Groceries",
			Item:          fmt.Sprintf("item-%d", i),
			Vendor:        fmt.Sprintf("Vendor %d", i),
			PaymentMethod: "Card",
			Amount:        model.NewAmount(float64(i)),
		})
	}
	return f
}

func (f *fakeAPI) lastQuery(t *testing.T) service.PageQuery {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		t.Fatal("no paged query issued")
	}
	return f.queries[len(f.queries)-1]
}

func (f *fakeAPI) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeAPI) ListAll(_ context.Context) ([]model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.records), nil
}

func (f *fakeAPI) ListPaged(_ context.Context, q service.PageQuery) (service.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.listErr != nil {
		return service.Page{}, f.listErr
	}

	var matched []model.Transaction
	for _, r := range f.records {
		if r.Matches(q.Keyword) && (q.Category == "" || r.Category == q.Category) &&
			(q.Vendor == "" || r.Vendor == q.Vendor) && (q.Month == "" || r.Date.Month() == q.Month) {
			matched = append(matched, r)
		}
	}

	size := max(q.Size, 1)
	pages := (len(matched) + size - 1) / size
	start := min(q.Page*size, len(matched))
	end := min(start+size, len(matched))
	return service.Page{Content: slices.Clone(matched[start:end]), TotalPages: pages}, nil
}

func (f *fakeAPI) Create(_ context.Context, tx model.Transaction) (model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return model.Transaction{}, f.createErr
	}
	tx.ID = f.nextID
	f.nextID++
	f.created = append(f.created, tx)
	f.records = append(f.records, tx)
	return tx, nil
}

func (f *fakeAPI) Update(_ context.Context, id int64, patch model.Patch) (model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[id] = patch
	for i, r := range f.records {
		if r.ID == id {
			f.records[i] = patch.Apply(r)
			return f.records[i], nil
		}
	}
	return model.Transaction{}, fmt.Errorf("transaction %d not found", id)
}

func (f *fakeAPI) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	f.records = slices.DeleteFunc(f.records, func(r model.Transaction) bool { return r.ID == id })
	return nil
}

func (f *fakeAPI) BulkDelete(_ context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkDeletes = append(f.bulkDeletes, slices.Clone(ids))
	f.records = slices.DeleteFunc(f.records, func(r model.Transaction) bool { return slices.Contains(ids, r.ID) })
	return nil
}

func (f *fakeAPI) BulkUpdate(_ context.Context, patches []model.BulkPatch) ([]model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkUpdates = append(f.bulkUpdates, slices.Clone(patches))
	var out []model.Transaction
	for _, p := range patches {
		for i, r := range f.records {
			if r.ID == p.ID {
				f.records[i] = p.Patch.Apply(r)
				out = append(out, f.records[i])
			}
		}
	}
	return out, nil
}

func (f *fakeAPI) SummaryByCategory(_ context.Context) ([]model.SummaryEntry, error) {
	return []model.SummaryEntry{{Label: "Groceries", Total: model.NewAmount(42)}}, nil
}

func (f *fakeAPI) SummaryByMonth(_ context.Context) ([]model.SummaryEntry, error) {
	return []model.SummaryEntry{{Label: "2024-03", Total: model.NewAmount(42)}}, nil
}

func (f *fakeAPI) TopVendors(_ context.Context) ([]model.SummaryEntry, error) {
	return []model.SummaryEntry{{Label: "Vendor 7", Total: model.NewAmount(7)}}, nil
}

func (f *fakeAPI) TopItems(_ context.Context) ([]model.SummaryEntry, error) {
	return nil, nil
}

func (f *fakeAPI) ReferenceData(_ context.Context) (model.ReferenceData, error) {
	return model.ReferenceData{
		Categories:     map[string][]string{"Groceries": {"Food"}, "Travel": {"Train"}},
		PaymentMethods: []string{"Card", "Cash"},
	}, nil
}

// newTestModel builds a model over api and runs its initial load.
func newTestModel(t *testing.T, api *fakeAPI) Model {
	t.Helper()
	cfg := defaultConfig()
	for _, opt := range []Option{
		WithAPI(api),
		WithSize(140, 40),
		WithNotifyDuration(time.Minute),
		WithAltScreen(false),
	} {
		opt(&cfg)
	}
	m := newModel(context.Background(), cfg)
	t.Cleanup(m.ledger.Close)
	return drain(m, m.Init())
}

// drain runs cmd and every command it produces, feeding results back into
// the model. Commands that block, such as cursor blinks, are dropped.
func drain(m Model, cmd tea.Cmd) Model {
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 200; steps++ {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}

		msg := execute(next)
		switch msg := msg.(type) {
		case nil, tea.QuitMsg:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		}

		updated, out := m.Update(msg)
		m = updated.(Model)
		queue = append(queue, out)
	}
	return m
}

func execute(cmd tea.Cmd) tea.Msg {
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// press sends each key to the model and drains the resulting commands.
func press(m Model, keys ...string) Model {
	for _, k := range keys {
		updated, cmd := m.Update(keyMsg(k))
		m = drain(updated.(Model), cmd)
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	special := map[string]tea.KeyType{
		"up":        tea.KeyUp,
		"down":      tea.KeyDown,
		"left":      tea.KeyLeft,
		"right":     tea.KeyRight,
		"enter":     tea.KeyEnter,
		"esc":       tea.KeyEsc,
		"tab":       tea.KeyTab,
		"shift+tab": tea.KeyShiftTab,
		"ctrl+a":    tea.KeyCtrlA,
		"ctrl+c":    tea.KeyCtrlC,
		"ctrl+d":    tea.KeyCtrlD,
		"ctrl+s":    tea.KeyCtrlS,
		"ctrl+u":    tea.KeyCtrlU,
	}
	if t, ok := special[k]; ok {
		return tea.KeyMsg{Type: t}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

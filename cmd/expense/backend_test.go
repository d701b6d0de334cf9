package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/expense-flow/internal/model"
)

// fakeBackend serves the transaction endpoints from memory.
type fakeBackend struct {
	records   []model.Transaction
	requests  []string
	bodies    map[string]string
	reference model.ReferenceData
	nextID    int64
	mu        sync.Mutex
}

func newFakeBackend(n int) *fakeBackend {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	b := &fakeBackend{nextID: int64(n) + 1, bodies: map[string]string{}}
	for i := 1; i <= n; i++ {
		category := "Groceries"
		if i%2 == 0 {
			category = "Transport"
		}
		b.records = append(b.records, model.Transaction{
			ID:       int64(i),
			Date:     model.NewDate(base.AddDate(0, 0, i-1)),
			Category: category,
			Item:     fmt.Sprintf("item-%d", i),
			Vendor:   fmt.Sprintf("Vendor %d", i),
			Amount:   model.NewAmount(float64(i)),
		})
	}
	return b
}

func (b *fakeBackend) record(r *http.Request, body []byte) {
	key := r.Method + " " + r.URL.Path
	b.requests = append(b.requests, key)
	if len(body) > 0 {
		b.bodies[key] = string(body)
	}
}

func (b *fakeBackend) requested(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Contains(b.requests, key)
}

func (b *fakeBackend) body(key string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[key]
}

func (b *fakeBackend) ids() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.IDs(b.records)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/transactions", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, b.records)
	})

	mux.HandleFunc("GET /api/transactions/paged", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		size, _ := strconv.Atoi(q.Get("size"))
		size = max(size, 1)

		var matched []model.Transaction
		for _, tx := range b.records {
			if (q.Get("category") == "" || tx.Category == q.Get("category")) &&
				(q.Get("month") == "" || tx.Date.Month() == q.Get("month")) &&
				tx.Matches(q.Get("keyword")) {
				matched = append(matched, tx)
			}
		}
		if q.Get("sortDir") == "desc" {
			slices.Reverse(matched)
		}

		start := min(page*size, len(matched))
		end := min(start+size, len(matched))
		writeJSON(w, map[string]any{
			"content":    matched[start:end],
			"totalPages": (len(matched) + size - 1) / size,
		})
	})

	mux.HandleFunc("POST /api/transactions", func(w http.ResponseWriter, r *http.Request) {
		var tx model.Transaction
		if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		tx.ID = b.nextID
		b.nextID++
		b.records = append(b.records, tx)
		b.mu.Unlock()
		writeJSON(w, tx)
	})

	mux.HandleFunc("PUT /api/transactions/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		var patch model.Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, tx := range b.records {
			if tx.ID == id {
				b.records[i] = patch.Apply(tx)
				writeJSON(w, b.records[i])
				return
			}
		}
		http.Error(w, "Transaction not found", http.StatusNotFound)
	})

	mux.HandleFunc("DELETE /api/transactions/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		b.mu.Lock()
		defer b.mu.Unlock()
		b.records = slices.DeleteFunc(b.records, func(tx model.Transaction) bool { return tx.ID == id })
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("DELETE /api/transactions/bulk", func(w http.ResponseWriter, r *http.Request) {
		var ids []int64
		if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.records = slices.DeleteFunc(b.records, func(tx model.Transaction) bool { return slices.Contains(ids, tx.ID) })
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("PUT /api/transactions/bulk", func(w http.ResponseWriter, r *http.Request) {
		var patches []model.BulkPatch
		if err := json.NewDecoder(r.Body).Decode(&patches); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		updated := []model.Transaction{}
		for _, p := range patches {
			for i, tx := range b.records {
				if tx.ID == p.ID {
					b.records[i] = p.Patch.Apply(tx)
					updated = append(updated, b.records[i])
				}
			}
		}
		writeJSON(w, updated)
	})

	mux.HandleFunc("GET /api/reference-data", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, b.reference)
	})

	summary := func(entries ...map[string]any) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, entries) }
	}
	mux.HandleFunc("GET /api/transactions/summary/by-category", summary(
		map[string]any{"category": "Transport", "total": 12},
		map[string]any{"category": "Groceries", "total": 9},
	))
	mux.HandleFunc("GET /api/transactions/summary/by-month", summary(
		map[string]any{"month": "2024-03", "total": 21},
	))
	mux.HandleFunc("GET /api/transactions/summary/top-vendors", summary(
		map[string]any{"vendor": "Vendor 6", "total": 6},
	))
	mux.HandleFunc("GET /api/transactions/summary/top-items", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.record(r, body)
		b.mu.Unlock()
		r.Body = io.NopCloser(bytes.NewReader(body))
		mux.ServeHTTP(w, r)
	})
}

// startBackend serves b for the duration of the test and returns its URL.
func startBackend(t *testing.T, b *fakeBackend) string {
	t.Helper()
	server := httptest.NewServer(b.handler())
	t.Cleanup(server.Close)
	return server.URL
}

// cliResult is the captured output of one command run.
type cliResult struct {
	err    error
	stdout string
	stderr string
}

// runCLI executes the root command against baseURL with a fresh viper state
// and an isolated home directory.
func runCLI(t *testing.T, baseURL, stdin string, args ...string) cliResult {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	if baseURL != "" {
		args = append([]string{"--api-url", baseURL}, args...)
	}
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return cliResult{err: err, stdout: stdout.String(), stderr: stderr.String()}
}

func requireSuccess(t *testing.T, res cliResult) {
	t.Helper()
	require.NoError(t, res.err, "stdout:\n%s\nstderr:\n%s", res.stdout, res.stderr)
}

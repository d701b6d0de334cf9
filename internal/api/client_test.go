package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/expense-flow/internal/common"
	"github.com/Veraticus/expense-flow/internal/model"
	"github.com/Veraticus/expense-flow/internal/service"
)

type recorded struct {
	method string
	path   string
	query  map[string]string
	body   string
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *recorded) {
	t.Helper()

	rec := &recorded{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.body = string(body)
		rec.query = map[string]string{}
		for k := range r.URL.Query() {
			rec.query[k] = r.URL.Query().Get(k)
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return client, rec
}

func jsonResponse(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c, err = NewClient("http://example.test:9000/")
	require.NoError(t, err)
	assert.Equal(t, "http://example.test:9000", c.BaseURL())

	_, err = NewClient("ftp://example.test")
	assert.Error(t, err)
}

func TestClient_ListAll(t *testing.T) {
	client, rec := newTestClient(t, jsonResponse(`[
		{"id": 1, "date": "2024-01-05", "category": "Groceries", "amount": 12.5, "vendor": "Rewe"},
		{"id": 2, "date": [2024, 1, 6], "category": "Transport", "amount": "3.20"}
	]`))

	txns, err := client.ListAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/transactions", rec.path)
	require.Len(t, txns, 2)
	assert.Equal(t, int64(1), txns[0].ID)
	assert.Equal(t, "12.50", txns[0].Amount.String())
	assert.Equal(t, "2024-01-06", txns[1].Date.String())
	assert.Equal(t, "3.20", txns[1].Amount.String())
}

func TestClient_ListAllRejectsNonArray(t *testing.T) {
	for name, body := range map[string]string{
		"object": `{"content": []}`,
		"null":   `null`,
		"empty":  ``,
	} {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, jsonResponse(body))

			_, err := client.ListAll(context.Background())
			var decodeErr *DecodeError
			assert.ErrorAs(t, err, &decodeErr)
		})
	}
}

func TestClient_ListPaged(t *testing.T) {
	client, rec := newTestClient(t, jsonResponse(`{
		"content": [{"id": 7, "date": "2024-02-01", "category": "Rent", "amount": 900}],
		"totalPages": 3,
		"totalElements": 11
	}`))

	page, err := client.ListPaged(context.Background(), service.PageQuery{
		Page:      1,
		Size:      5,
		SortField: "amount",
		SortDir:   service.SortAsc,
		Keyword:   "rent",
		Month:     "2024-02",
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/transactions/paged", rec.path)
	assert.Equal(t, map[string]string{
		"page":    "1",
		"size":    "5",
		"sortBy":  "amount",
		"sortDir": "asc",
		"keyword": "rent",
		"month":   "2024-02",
	}, rec.query)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Content, 1)
	assert.Equal(t, int64(7), page.Content[0].ID)
}

func TestClient_ListPagedMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing content", body: `{"totalPages": 2}`},
		{name: "content not array", body: `{"content": {"id": 1}, "totalPages": 1}`},
		{name: "negative pages", body: `{"content": [], "totalPages": -1}`},
		{name: "top level array", body: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, jsonResponse(tt.body))

			_, err := client.ListPaged(context.Background(), service.PageQuery{Size: 5})
			var decodeErr *DecodeError
			assert.ErrorAs(t, err, &decodeErr)
		})
	}
}

func TestClient_ListPagedDefaultsTotalPages(t *testing.T) {
	client, _ := newTestClient(t, jsonResponse(`{"content": []}`))

	page, err := client.ListPaged(context.Background(), service.PageQuery{Size: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalPages)
	assert.Empty(t, page.Content)
}

func TestClient_CreateSendsFormRecord(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": 99, "date": "2024-01-05", "category": "Groceries", "amount": 12.5, "vendor": "Rewe", "currency": "EUR", "paymentMethod": "Card"}`)
	})

	form := model.NewExpenseForm(time.Now())
	form.Date = "2024-01-05"
	form.Amount = "12.50"
	form.Vendor = "Rewe"
	tx, err := form.Transaction()
	require.NoError(t, err)

	created, err := client.Create(context.Background(), tx)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/transactions", rec.path)
	assert.JSONEq(t, `{
		"date": "2024-01-05",
		"category": "Groceries",
		"amount": 12.50,
		"vendor": "Rewe",
		"currency": "EUR",
		"paymentMethod": "Card"
	}`, rec.body)
	assert.Equal(t, int64(99), created.ID)
}

func TestClient_UpdateSendsOnlyPatchFields(t *testing.T) {
	client, rec := newTestClient(t, jsonResponse(`{"id": 42, "date": "2024-01-05", "category": "Groceries", "amount": 20, "vendor": "Lidl"}`))

	var patch model.Patch
	require.NoError(t, patch.Set(model.FieldVendor, "Lidl"))
	require.NoError(t, patch.Set(model.FieldAmount, "20"))

	updated, err := client.Update(context.Background(), 42, patch)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/api/transactions/42", rec.path)
	assert.JSONEq(t, `{"vendor": "Lidl", "amount": 20.00}`, rec.body)
	assert.Equal(t, "Lidl", updated.Vendor)
}

func TestClient_DeleteAcceptsEmptyResponse(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Delete(context.Background(), 42))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/api/transactions/42", rec.path)
}

func TestClient_BulkDelete(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.BulkDelete(context.Background(), []int64{3, 5, 8}))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/api/transactions/bulk", rec.path)
	assert.JSONEq(t, `[3, 5, 8]`, rec.body)

	assert.Error(t, client.BulkDelete(context.Background(), nil))
}

func TestClient_BulkUpdate(t *testing.T) {
	client, rec := newTestClient(t, jsonResponse(`[
		{"id": 1, "date": "2024-01-01", "category": "Food", "amount": 1},
		{"id": 2, "date": "2024-01-02", "category": "Food", "amount": 2}
	]`))

	var p1 model.Patch
	require.NoError(t, p1.Set(model.FieldCategory, "Food"))
	patches := []model.BulkPatch{
		{ID: 1, Patch: p1},
		{ID: 2},
	}

	updated, err := client.BulkUpdate(context.Background(), patches)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/api/transactions/bulk", rec.path)
	assert.JSONEq(t, `[{"id": 1, "category": "Food"}, {"id": 2}]`, rec.body)
	assert.Equal(t, []int64{1, 2}, model.IDs(updated))
}

func TestClient_ReferenceData(t *testing.T) {
	client, rec := newTestClient(t, jsonResponse(`{
		"categories": {"Groceries": ["Dairy", "Bakery"]},
		"itemsBySubcategory": {"Dairy": ["Milk"]},
		"units": ["kg", "pcs"],
		"paymentMethods": ["Card", "Cash"],
		"owners": ["Sam"]
	}`))

	ref, err := client.ReferenceData(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/api/reference-data", rec.path)
	assert.Equal(t, []string{"Groceries"}, ref.CategoryNames())
	assert.Equal(t, []string{"Milk"}, ref.Items("Dairy"))
	assert.Equal(t, []string{"Card", "Cash"}, ref.PaymentMethods)
}

func TestClient_SummaryShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "tuples", body: `[["Groceries", 120.5], ["Rent", "900"]]`},
		{name: "label objects", body: `[{"label": "Groceries", "total": 120.5}, {"label": "Rent", "total": 900}]`},
		{name: "category objects", body: `[{"category": "Groceries", "amount": 120.5}, {"category": "Rent", "value": 900}]`},
		{name: "name objects", body: `[{"name": "Groceries", "value": "120.50"}, {"name": "Rent", "total": 900.0}]`},
	}

	want := []model.SummaryEntry{
		{Label: "Groceries", Total: model.NewAmount(120.5)},
		{Label: "Rent", Total: model.NewAmount(900)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, jsonResponse(tt.body))

			got, err := client.SummaryByCategory(context.Background())
			require.NoError(t, err)
			require.Len(t, got, len(want))
			for i := range want {
				assert.Equal(t, want[i].Label, got[i].Label)
				assert.Equal(t, want[i].Total.String(), got[i].Total.String())
			}
		})
	}
}

func TestClient_SummaryNonNumericTotalIsZero(t *testing.T) {
	client, _ := newTestClient(t, jsonResponse(
		`[["2024-01", "n/a"], {"month": "2024-02", "total": null}, ["2024-03", true], {"month": "2024-04", "total": "12.5"}]`))

	got, err := client.SummaryByMonth(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.True(t, got[0].Total.IsZero())
	assert.Equal(t, "2024-02", got[1].Label)
	assert.True(t, got[1].Total.IsZero())
	assert.True(t, got[2].Total.IsZero())
	assert.Equal(t, "12.50", got[3].Total.String())
}

func TestClient_SummaryMalformed(t *testing.T) {
	for name, body := range map[string]string{
		"object top level": `{"Groceries": 10}`,
		"short tuple":      `[["Groceries"]]`,
		"no label key":     `[{"total": 10}]`,
		"scalar element":   `[10]`,
	} {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, jsonResponse(body))

			_, err := client.TopVendors(context.Background())
			var decodeErr *DecodeError
			assert.ErrorAs(t, err, &decodeErr)
		})
	}
}

func TestClient_SummaryPaths(t *testing.T) {
	paths := map[string]func(*Client) error{}
	paths["/api/analytics/categories"] = func(c *Client) error { _, err := c.SummaryByCategory(context.Background()); return err }
	paths["/api/analytics/months"] = func(c *Client) error { _, err := c.SummaryByMonth(context.Background()); return err }
	paths["/api/analytics/vendors"] = func(c *Client) error { _, err := c.TopVendors(context.Background()); return err }
	paths["/api/analytics/items"] = func(c *Client) error { _, err := c.TopItems(context.Background()); return err }

	for want, call := range paths {
		t.Run(want, func(t *testing.T) {
			client, rec := newTestClient(t, jsonResponse(`[]`), WithSummaryPaths(AnalyticsSummaryPaths))
			require.NoError(t, call(client))
			assert.Equal(t, want, rec.path)
		})
	}
}

func TestSummaryPathsFor(t *testing.T) {
	p, err := SummaryPathsFor("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSummaryPaths, p)

	p, err = SummaryPathsFor("Analytics")
	require.NoError(t, err)
	assert.Equal(t, AnalyticsSummaryPaths, p)

	_, err = SummaryPathsFor("graphql")
	assert.Error(t, err)
}

func TestClient_HTTPErrorCarriesBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "transaction 42 not found", http.StatusNotFound)
	})

	err := client.Delete(context.Background(), 42)
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, "transaction 42 not found", err.Error())
	assert.True(t, IsNotFound(err))
	assert.False(t, common.IsRetryable(err))
}

func TestClient_HTTPErrorWithoutBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.ListAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, "HTTP 500", err.Error())
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewClient(url)
	require.NoError(t, err)

	_, err = client.ListAll(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.True(t, common.IsRetryable(err))
}

func TestClient_CancelledContextIsNotRetryable(t *testing.T) {
	client, _ := newTestClient(t, jsonResponse(`[]`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListAll(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, common.IsRetryable(err))
}

func TestClient_Timeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
		_ = json.NewEncoder(w).Encode([]int{})
	}, WithTimeout(20*time.Millisecond))

	_, err := client.ListAll(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
}

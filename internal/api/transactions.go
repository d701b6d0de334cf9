package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Veraticus/expense-flow/internal/model"
	"github.com/Veraticus/expense-flow/internal/service"
)

const (
	transactionsPath = "/api/transactions"
	pagedPath        = "/api/transactions/paged"
	bulkPath         = "/api/transactions/bulk"
)

// Compile-time check that Client satisfies the backend contract.
var _ service.ExpenseAPI = (*Client)(nil)

// ListAll fetches every transaction, unpaged.
func (c *Client) ListAll(ctx context.Context) ([]model.Transaction, error) {
	const op = "list transactions"

	var txns []model.Transaction
	raw, err := c.do(ctx, op, http.MethodGet, transactionsPath, nil, nil, &txns)
	if err != nil {
		return nil, err
	}
	if err := requireArray(op, raw); err != nil {
		return nil, err
	}
	return txns, nil
}

type pageWire struct {
	TotalPages *int            `json:"totalPages"`
	Content    json.RawMessage `json:"content"`
}

// ListPaged fetches one page of transactions matching q.
func (c *Client) ListPaged(ctx context.Context, q service.PageQuery) (service.Page, error) {
	const op = "list transactions page"

	var wire pageWire
	if _, err := c.do(ctx, op, http.MethodGet, pagedPath, pageParams(q), nil, &wire); err != nil {
		return service.Page{}, err
	}

	if err := requireArray(op, wire.Content); err != nil {
		return service.Page{}, err
	}

	var content []model.Transaction
	if err := json.Unmarshal(wire.Content, &content); err != nil {
		return service.Page{}, &DecodeError{Op: op, Err: err}
	}

	totalPages := 1
	if wire.TotalPages != nil {
		totalPages = *wire.TotalPages
	}
	if totalPages < 0 {
		return service.Page{}, &DecodeError{Op: op, Err: fmt.Errorf("negative totalPages %d", totalPages)}
	}

	return service.Page{Content: content, TotalPages: totalPages}, nil
}

func pageParams(q service.PageQuery) url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("size", strconv.Itoa(q.Size))
	if q.SortField != "" {
		params.Set("sortBy", q.SortField)
	}
	if q.SortDir != "" {
		params.Set("sortDir", string(q.SortDir))
	}
	if q.Keyword != "" {
		params.Set("keyword", q.Keyword)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Vendor != "" {
		params.Set("vendor", q.Vendor)
	}
	if q.Month != "" {
		params.Set("month", q.Month)
	}
	return params
}

// Create stores a new transaction. The returned record carries the server-assigned id.
func (c *Client) Create(ctx context.Context, tx model.Transaction) (model.Transaction, error) {
	const op = "create transaction"

	tx.ID = 0
	var created model.Transaction
	if _, err := c.do(ctx, op, http.MethodPost, transactionsPath, nil, tx, &created); err != nil {
		return model.Transaction{}, err
	}
	return created, nil
}

// Update applies patch to the transaction with the given id and returns the stored record.
func (c *Client) Update(ctx context.Context, id int64, patch model.Patch) (model.Transaction, error) {
	const op = "update transaction"

	var updated model.Transaction
	if _, err := c.do(ctx, op, http.MethodPut, transactionPath(id), nil, patch, &updated); err != nil {
		return model.Transaction{}, err
	}
	return updated, nil
}

// Delete removes one transaction. An empty 2xx response is success.
func (c *Client) Delete(ctx context.Context, id int64) error {
	_, err := c.do(ctx, "delete transaction", http.MethodDelete, transactionPath(id), nil, nil, nil)
	return err
}

// BulkDelete removes every transaction in ids with a single request.
func (c *Client) BulkDelete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return errors.New("bulk delete: no ids given")
	}
	_, err := c.do(ctx, "bulk delete transactions", http.MethodDelete, bulkPath, nil, ids, nil)
	return err
}

// BulkUpdate sends one {id, ...patch} entry per transaction and returns the updated records.
func (c *Client) BulkUpdate(ctx context.Context, patches []model.BulkPatch) ([]model.Transaction, error) {
	const op = "bulk update transactions"

	if len(patches) == 0 {
		return nil, errors.New("bulk update: no patches given")
	}

	var updated []model.Transaction
	raw, err := c.do(ctx, op, http.MethodPut, bulkPath, nil, patches, &updated)
	if err != nil {
		return nil, err
	}
	if err := requireArray(op, raw); err != nil {
		return nil, err
	}
	return updated, nil
}

func transactionPath(id int64) string {
	return transactionsPath + "/" + strconv.FormatInt(id, 10)
}

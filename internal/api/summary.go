package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Veraticus/expense-flow/internal/model"
)

// SummaryPaths names the four aggregate endpoints. Backends in the wild
// expose them under two different layouts.
type SummaryPaths struct {
	ByCategory string
	ByMonth    string
	TopVendors string
	TopItems   string
}

// Known summary layouts.
var (
	DefaultSummaryPaths = SummaryPaths{
		ByCategory: "/api/transactions/summary/by-category",
		ByMonth:    "/api/transactions/summary/by-month",
		TopVendors: "/api/transactions/summary/top-vendors",
		TopItems:   "/api/transactions/summary/top-items",
	}

	AnalyticsSummaryPaths = SummaryPaths{
		ByCategory: "/api/analytics/categories",
		ByMonth:    "/api/analytics/months",
		TopVendors: "/api/analytics/vendors",
		TopItems:   "/api/analytics/items",
	}
)

// SummaryPathsFor maps a configured style name to its endpoint layout.
func SummaryPathsFor(style string) (SummaryPaths, error) {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case "", "summary":
		return DefaultSummaryPaths, nil
	case "analytics":
		return AnalyticsSummaryPaths, nil
	default:
		return SummaryPaths{}, fmt.Errorf("unknown summary style %q (expected summary or analytics)", style)
	}
}

var (
	labelKeys = []string{"label", "name", "category", "vendor", "item", "month"}
	totalKeys = []string{"total", "value", "amount"}
)

// SummaryByCategory returns total spending per category.
func (c *Client) SummaryByCategory(ctx context.Context) ([]model.SummaryEntry, error) {
	return c.summarySeries(ctx, "summary by category", c.summary.ByCategory)
}

// SummaryByMonth returns total spending per month.
func (c *Client) SummaryByMonth(ctx context.Context) ([]model.SummaryEntry, error) {
	return c.summarySeries(ctx, "summary by month", c.summary.ByMonth)
}

// TopVendors returns the vendors with the highest spending.
func (c *Client) TopVendors(ctx context.Context) ([]model.SummaryEntry, error) {
	return c.summarySeries(ctx, "top vendors", c.summary.TopVendors)
}

// TopItems returns the items with the highest spending.
func (c *Client) TopItems(ctx context.Context) ([]model.SummaryEntry, error) {
	return c.summarySeries(ctx, "top items", c.summary.TopItems)
}

func (c *Client) summarySeries(ctx context.Context, op, path string) ([]model.SummaryEntry, error) {
	raw, err := c.do(ctx, op, http.MethodGet, path, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeSummary(op, raw)
}

// decodeSummary normalizes a summary body into entries. Each element may be
// a [label, total] tuple or an object carrying one of labelKeys and totalKeys.
func decodeSummary(op string, raw []byte) ([]model.SummaryEntry, error) {
	if err := requireArray(op, raw); err != nil {
		return nil, err
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}

	entries := make([]model.SummaryEntry, 0, len(elems))
	for i, elem := range elems {
		entry, err := decodeSummaryEntry(elem)
		if err != nil {
			return nil, &DecodeError{Op: op, Err: fmt.Errorf("entry %d: %w", i, err)}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func decodeSummaryEntry(elem json.RawMessage) (model.SummaryEntry, error) {
	trimmed := bytes.TrimSpace(elem)
	if len(trimmed) == 0 {
		return model.SummaryEntry{}, errors.New("empty element")
	}

	switch trimmed[0] {
	case '[':
		var pair []json.RawMessage
		if err := json.Unmarshal(trimmed, &pair); err != nil {
			return model.SummaryEntry{}, err
		}
		if len(pair) < 2 {
			return model.SummaryEntry{}, fmt.Errorf("tuple has %d elements, want 2", len(pair))
		}
		var total model.Amount
		if err := json.Unmarshal(pair[1], &total); err != nil {
			return model.SummaryEntry{}, fmt.Errorf("total: %w", err)
		}
		return model.SummaryEntry{Label: labelText(pair[0]), Total: total}, nil

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return model.SummaryEntry{}, err
		}
		label, ok := firstKey(obj, labelKeys)
		if !ok {
			return model.SummaryEntry{}, fmt.Errorf("object has no label field (one of %s)", strings.Join(labelKeys, ", "))
		}
		var total model.Amount
		if rawTotal, ok := firstKey(obj, totalKeys); ok {
			if err := json.Unmarshal(rawTotal, &total); err != nil {
				return model.SummaryEntry{}, fmt.Errorf("total: %w", err)
			}
		}
		return model.SummaryEntry{Label: labelText(label), Total: total}, nil

	default:
		return model.SummaryEntry{}, fmt.Errorf("expected tuple or object, got %s", preview(trimmed))
	}
}

func firstKey(obj map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// labelText renders a label value. Strings are unquoted; numbers and other
// scalars keep their JSON text; null becomes empty.
func labelText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}

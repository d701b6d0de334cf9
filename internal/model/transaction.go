// Package model defines the records exchanged with the expense backend.
package model

import "strings"

// DefaultCurrency is the only currency the backend currently supports.
const DefaultCurrency = "EUR"

// Transaction is a single recorded expense. The server owns the
// authoritative copy; clients only ever hold a cached one.
type Transaction struct {
	Date          Date     `json:"date"`
	Quantity      *float64 `json:"quantity,omitempty"`
	Category      string   `json:"category"`
	Subcategory   string   `json:"subcategory,omitempty"`
	Item          string   `json:"item,omitempty"`
	Unit          string   `json:"unit,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	PaymentMethod string   `json:"paymentMethod,omitempty"`
	Vendor        string   `json:"vendor,omitempty"`
	Owner         string   `json:"owner,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	Amount        Amount   `json:"amount"`
	ID            int64    `json:"id,omitempty"`
}

// CurrencyOrDefault returns the transaction currency, falling back to EUR.
func (t Transaction) CurrencyOrDefault() string {
	if t.Currency == "" {
		return DefaultCurrency
	}
	return t.Currency
}

// Label renders "category → item", dropping empty parts.
func (t Transaction) Label() string {
	parts := make([]string, 0, 2)
	if t.Category != "" {
		parts = append(parts, t.Category)
	}
	if t.Item != "" {
		parts = append(parts, t.Item)
	}
	return strings.Join(parts, " → ")
}

// Matches reports whether keyword appears in any free-text field, case-insensitively.
func (t Transaction) Matches(keyword string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return true
	}
	for _, field := range []string{t.Category, t.Subcategory, t.Item, t.Vendor, t.Owner, t.Notes, t.PaymentMethod} {
		if strings.Contains(strings.ToLower(field), keyword) {
			return true
		}
	}
	return false
}

// IDs returns the identifiers of txns in order.
func IDs(txns []Transaction) []int64 {
	ids := make([]int64, 0, len(txns))
	for _, t := range txns {
		ids = append(ids, t.ID)
	}
	return ids
}

// Total sums the amounts of txns.
func Total(txns []Transaction) Amount {
	var total Amount
	for _, t := range txns {
		total = total.Add(t.Amount)
	}
	return total
}

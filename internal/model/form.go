package model

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Defaults used by a fresh expense form.
const (
	DefaultCategory      = "Groceries"
	DefaultPaymentMethod = "Card"
)

// ExpenseForm is the raw, user-entered state of the add-expense form.
type ExpenseForm struct {
	Date          string
	Category      string
	Subcategory   string
	Item          string
	Quantity      string
	Unit          string
	Amount        string
	Currency      string
	PaymentMethod string
	Vendor        string
	Owner         string
	Notes         string
}

// NewExpenseForm returns a form pre-filled with today's date and the defaults.
func NewExpenseForm(now time.Time) ExpenseForm {
	return ExpenseForm{
		Date:          now.Format(DateLayout),
		Category:      DefaultCategory,
		Currency:      DefaultCurrency,
		PaymentMethod: DefaultPaymentMethod,
	}
}

// Set assigns a raw value to the named field.
func (f *ExpenseForm) Set(field, value string) error {
	target := f.field(field)
	if target == nil {
		return &ValidationError{Field: field, Reason: "is not a form field"}
	}
	*target = value
	return nil
}

// Get returns the raw value of the named field.
func (f *ExpenseForm) Get(field string) string {
	if target := f.field(field); target != nil {
		return *target
	}
	return ""
}

func (f *ExpenseForm) field(name string) *string {
	switch name {
	case FieldDate:
		return &f.Date
	case FieldCategory:
		return &f.Category
	case FieldSubcategory:
		return &f.Subcategory
	case FieldItem:
		return &f.Item
	case FieldQuantity:
		return &f.Quantity
	case FieldUnit:
		return &f.Unit
	case FieldAmount:
		return &f.Amount
	case FieldCurrency:
		return &f.Currency
	case FieldPaymentMethod:
		return &f.PaymentMethod
	case FieldVendor:
		return &f.Vendor
	case FieldOwner:
		return &f.Owner
	case FieldNotes:
		return &f.Notes
	}
	return nil
}

// Validate checks the required fields. All problems are reported together.
func (f ExpenseForm) Validate() error {
	_, err := f.Transaction()
	return err
}

// Transaction converts the form into a create payload.
func (f ExpenseForm) Transaction() (Transaction, error) {
	var errs []error
	tx := Transaction{
		Category:      strings.TrimSpace(f.Category),
		Subcategory:   strings.TrimSpace(f.Subcategory),
		Item:          strings.TrimSpace(f.Item),
		Unit:          strings.TrimSpace(f.Unit),
		Currency:      strings.TrimSpace(f.Currency),
		PaymentMethod: strings.TrimSpace(f.PaymentMethod),
		Vendor:        strings.TrimSpace(f.Vendor),
		Owner:         strings.TrimSpace(f.Owner),
		Notes:         strings.TrimSpace(f.Notes),
	}
	if tx.Currency == "" {
		tx.Currency = DefaultCurrency
	}

	if strings.TrimSpace(f.Date) == "" {
		errs = append(errs, &ValidationError{Field: FieldDate, Reason: "is required"})
	} else if d, err := ParseDate(strings.TrimSpace(f.Date)); err != nil {
		errs = append(errs, err)
	} else {
		tx.Date = d
	}

	if tx.Category == "" {
		errs = append(errs, &ValidationError{Field: FieldCategory, Reason: "is required"})
	}

	if a, err := ParseAmount(f.Amount); err != nil {
		errs = append(errs, err)
	} else {
		tx.Amount = a
	}

	if q := strings.TrimSpace(f.Quantity); q != "" {
		v, err := strconv.ParseFloat(strings.ReplaceAll(q, ",", "."), 64)
		if err != nil || v < 0 {
			errs = append(errs, &ValidationError{Field: FieldQuantity, Reason: "must be a non-negative number"})
		} else {
			tx.Quantity = &v
		}
	}

	if len(errs) > 0 {
		return Transaction{}, errors.Join(errs...)
	}
	return tx, nil
}

// ResetTransient clears the per-expense fields after a successful submit.
// Date and category persist so consecutive entries are quick to add.
func (f *ExpenseForm) ResetTransient() {
	f.Amount = ""
	f.Item = ""
	f.Vendor = ""
	f.Notes = ""
}

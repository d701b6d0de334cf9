package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Field names accepted by Patch.Set, matching the JSON field names.
const (
	FieldDate          = "date"
	FieldCategory      = "category"
	FieldSubcategory   = "subcategory"
	FieldItem          = "item"
	FieldQuantity      = "quantity"
	FieldUnit          = "unit"
	FieldAmount        = "amount"
	FieldCurrency      = "currency"
	FieldPaymentMethod = "paymentMethod"
	FieldVendor        = "vendor"
	FieldOwner         = "owner"
	FieldNotes         = "notes"
)

// EditableFields lists every field a patch can carry, in display order.
var EditableFields = []string{
	FieldDate, FieldCategory, FieldSubcategory, FieldItem, FieldQuantity, FieldUnit,
	FieldAmount, FieldCurrency, FieldPaymentMethod, FieldVendor, FieldOwner, FieldNotes,
}

// Patch is a partial Transaction. Only non-nil fields are sent. ClearQuantity
// sends an explicit null so the server drops the stored quantity.
type Patch struct {
	Date          *Date    `json:"date,omitempty"`
	Category      *string  `json:"category,omitempty"`
	Subcategory   *string  `json:"subcategory,omitempty"`
	Item          *string  `json:"item,omitempty"`
	Quantity      *float64 `json:"quantity,omitempty"`
	Unit          *string  `json:"unit,omitempty"`
	Amount        *Amount  `json:"amount,omitempty"`
	Currency      *string  `json:"currency,omitempty"`
	PaymentMethod *string  `json:"paymentMethod,omitempty"`
	Vendor        *string  `json:"vendor,omitempty"`
	Owner         *string  `json:"owner,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
	ClearQuantity bool     `json:"-"`
}

// patchWire shadows Quantity so a cleared quantity encodes as null.
type patchWire struct {
	patchFields
	Quantity json.RawMessage `json:"quantity,omitempty"`
}

type patchFields Patch

var jsonNull = []byte("null")

// MarshalJSON encodes the set fields, with "quantity": null when cleared.
func (p Patch) MarshalJSON() ([]byte, error) {
	wire := patchWire{patchFields: patchFields(p)}
	switch {
	case p.Quantity != nil:
		q, err := json.Marshal(*p.Quantity)
		if err != nil {
			return nil, err
		}
		wire.Quantity = q
	case p.ClearQuantity:
		wire.Quantity = jsonNull
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes a patch; "quantity": null sets ClearQuantity.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var wire patchWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*p = Patch(wire.patchFields)
	p.Quantity, p.ClearQuantity = nil, false
	switch raw := bytes.TrimSpace(wire.Quantity); {
	case len(raw) == 0:
	case bytes.Equal(raw, jsonNull):
		p.ClearQuantity = true
	default:
		var q float64
		if err := json.Unmarshal(raw, &q); err != nil {
			return err
		}
		p.Quantity = &q
	}
	return nil
}

// BulkPatch is one entry of a bulk update: {id, ...patch}.
type BulkPatch struct {
	Patch
	ID int64 `json:"id"`
}

// MarshalJSON flattens the patch fields next to the id.
func (b BulkPatch) MarshalJSON() ([]byte, error) {
	body, err := b.Patch.MarshalJSON()
	if err != nil {
		return nil, err
	}
	out := strconv.AppendInt([]byte(`{"id":`), b.ID, 10)
	if len(body) > 2 {
		out = append(out, ',')
	}
	return append(out, body[1:]...), nil
}

// UnmarshalJSON reads the id and the patch fields from one object.
func (b *BulkPatch) UnmarshalJSON(data []byte) error {
	var head struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	if err := b.Patch.UnmarshalJSON(data); err != nil {
		return err
	}
	b.ID = head.ID
	return nil
}

// Set parses value for the named field and stores it in the patch.
func (p *Patch) Set(field, value string) error {
	switch field {
	case FieldDate:
		d, err := ParseDate(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		p.Date = &d
	case FieldAmount:
		a, err := ParseAmount(value)
		if err != nil {
			return err
		}
		p.Amount = &a
	case FieldQuantity:
		value = strings.TrimSpace(value)
		if value == "" {
			p.Quantity, p.ClearQuantity = nil, true
			return nil
		}
		q, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
		if err != nil || q < 0 {
			return &ValidationError{Field: field, Reason: "must be a non-negative number"}
		}
		p.Quantity, p.ClearQuantity = &q, false
	default:
		target := p.stringField(field)
		if target == nil {
			return &ValidationError{Field: field, Reason: "is not an editable field"}
		}
		v := value
		*target = &v
	}
	return nil
}

func (p *Patch) stringField(field string) **string {
	switch field {
	case FieldCategory:
		return &p.Category
	case FieldSubcategory:
		return &p.Subcategory
	case FieldItem:
		return &p.Item
	case FieldUnit:
		return &p.Unit
	case FieldCurrency:
		return &p.Currency
	case FieldPaymentMethod:
		return &p.PaymentMethod
	case FieldVendor:
		return &p.Vendor
	case FieldOwner:
		return &p.Owner
	case FieldNotes:
		return &p.Notes
	}
	return nil
}

// Fields returns the names of the fields set in the patch, sorted.
func (p Patch) Fields() []string {
	var fields []string
	if p.Date != nil {
		fields = append(fields, FieldDate)
	}
	if p.Amount != nil {
		fields = append(fields, FieldAmount)
	}
	if p.Quantity != nil || p.ClearQuantity {
		fields = append(fields, FieldQuantity)
	}
	for _, f := range []string{
		FieldCategory, FieldSubcategory, FieldItem, FieldUnit, FieldCurrency,
		FieldPaymentMethod, FieldVendor, FieldOwner, FieldNotes,
	} {
		if *p.stringField(f) != nil {
			fields = append(fields, f)
		}
	}
	sort.Strings(fields)
	return fields
}

// IsEmpty reports whether no field is set.
func (p Patch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Apply returns a copy of t with the patch's fields overlaid.
func (p Patch) Apply(t Transaction) Transaction {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Quantity != nil {
		q := *p.Quantity
		t.Quantity = &q
	} else if p.ClearQuantity {
		t.Quantity = nil
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&t.Category, p.Category)
	set(&t.Subcategory, p.Subcategory)
	set(&t.Item, p.Item)
	set(&t.Unit, p.Unit)
	set(&t.Currency, p.Currency)
	set(&t.PaymentMethod, p.PaymentMethod)
	set(&t.Vendor, p.Vendor)
	set(&t.Owner, p.Owner)
	set(&t.Notes, p.Notes)
	return t
}

// FieldValue renders the named field of t for display in edit forms.
func FieldValue(t Transaction, field string) string {
	switch field {
	case FieldDate:
		return t.Date.String()
	case FieldAmount:
		return t.Amount.String()
	case FieldQuantity:
		if t.Quantity == nil {
			return ""
		}
		return strconv.FormatFloat(*t.Quantity, 'f', -1, 64)
	case FieldCategory:
		return t.Category
	case FieldSubcategory:
		return t.Subcategory
	case FieldItem:
		return t.Item
	case FieldUnit:
		return t.Unit
	case FieldCurrency:
		return t.Currency
	case FieldPaymentMethod:
		return t.PaymentMethod
	case FieldVendor:
		return t.Vendor
	case FieldOwner:
		return t.Owner
	case FieldNotes:
		return t.Notes
	}
	return ""
}

// Clear removes field from the patch.
func (p *Patch) Clear(field string) {
	switch field {
	case FieldDate:
		p.Date = nil
	case FieldAmount:
		p.Amount = nil
	case FieldQuantity:
		p.Quantity, p.ClearQuantity = nil, false
	default:
		if target := p.stringField(field); target != nil {
			*target = nil
		}
	}
}

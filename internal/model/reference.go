package model

import "sort"

// ReferenceData holds the vocabularies used to populate selection widgets.
// The list and filter logic never depends on it.
type ReferenceData struct {
	Categories         map[string][]string `json:"categories"`
	ItemsBySubcategory map[string][]string `json:"itemsBySubcategory"`
	Units              []string            `json:"units"`
	PaymentMethods     []string            `json:"paymentMethods"`
	Owners             []string            `json:"owners"`
}

// CategoryNames returns the known categories in alphabetical order.
func (r ReferenceData) CategoryNames() []string {
	names := make([]string, 0, len(r.Categories))
	for name := range r.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Subcategories returns the subcategories of category, or nil when unknown.
func (r ReferenceData) Subcategories(category string) []string {
	return r.Categories[category]
}

// Items returns the items of subcategory, or nil when unknown.
func (r ReferenceData) Items(subcategory string) []string {
	return r.ItemsBySubcategory[subcategory]
}

package model

// SummaryEntry is one labeled total of an aggregate series, such as a
// category, a month, a vendor or an item.
type SummaryEntry struct {
	Label string `json:"label"`
	Total Amount `json:"total"`
}

// SeriesTotal sums the totals of entries.
func SeriesTotal(entries []SummaryEntry) Amount {
	var total Amount
	for _, e := range entries {
		total = total.Add(e.Total)
	}
	return total
}

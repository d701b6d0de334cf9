package ledger

import (
	"slices"
	"sync"
)

// Selection is the set of checked transaction ids.
type Selection struct {
	ids map[int64]struct{}
	mu  sync.Mutex
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[int64]struct{})}
}

// Toggle flips the membership of id and reports whether it is now selected.
func (s *Selection) Toggle(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// SelectAll adds every id of the current page.
func (s *Selection) SelectAll(pageIDs []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range pageIDs {
		s.ids[id] = struct{}{}
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.ids)
}

// Has reports whether id is selected.
func (s *Selection) Has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Reconcile drops ids that are not on the page just displayed.
func (s *Selection) Reconcile(currentIDs []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.ids {
		if !slices.Contains(currentIDs, id) {
			delete(s.ids, id)
		}
	}
}

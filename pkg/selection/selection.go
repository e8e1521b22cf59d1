// Package selection implements the partner picker state shared by embedding
// applications: an ordered selected-id list with set semantics and a local
// cache of display records fed by debounced directory searches.
package selection

import (
	"context"
	"sync"
	"time"
)

// DefaultDebounce is how long a search query must settle before the
// directory lookup fires
const DefaultDebounce = 500 * time.Millisecond

// Record is the display projection of a directory partner
type Record struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

// Searcher performs a directory lookup returning one page of matches
type Searcher interface {
	Search(ctx context.Context, query string) ([]Record, error)
}

// ResultFunc receives the settled query's matches, or the lookup error
type ResultFunc func(query string, records []Record, err error)

// Selector owns the selected partner ids and their display records. The id
// list keeps insertion order with set semantics; the record cache never
// holds an id outside the list and is never authoritative for persistence.
type Selector struct {
	searcher Searcher
	onResult ResultFunc
	debounce time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	seq      int
	selected []string
	records  map[string]Record
}

// NewSelector creates a selector delivering search results to onResult.
// A non-positive debounce falls back to DefaultDebounce.
func NewSelector(searcher Searcher, debounce time.Duration, onResult ResultFunc) *Selector {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Selector{
		searcher: searcher,
		onResult: onResult,
		debounce: debounce,
		records:  make(map[string]Record),
	}
}

// Search schedules a directory lookup once the query has settled. Rapid
// successive calls reset the timer, and only the latest query's results
// reach the callback.
func (s *Selector) Search(ctx context.Context, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	seq := s.seq

	// Cancel existing timer if any
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.runSearch(ctx, seq, query)
	})
}

func (s *Selector) runSearch(ctx context.Context, seq int, query string) {
	records, err := s.searcher.Search(ctx, query)

	s.mu.Lock()
	stale := seq != s.seq
	s.mu.Unlock()
	if stale || s.onResult == nil {
		return
	}
	s.onResult(query, records, err)
}

// CancelSearch drops any pending lookup and invalidates in-flight results
func (s *Selector) CancelSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Select adds a partner to the selection. An already selected id is left in
// place, and a known display record wins over the freshly fetched one.
func (s *Selector) Select(r Record) {
	if r.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.contains(r.ID) {
		s.selected = append(s.selected, r.ID)
	}
	if _, known := s.records[r.ID]; !known {
		s.records[r.ID] = r
	}
}

// Deselect removes a partner from both the id list and the record cache
func (s *Selector) Deselect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sel := range s.selected {
		if sel == id {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			break
		}
	}
	delete(s.records, id)
}

// SetSelected replaces the id list, deduplicated in the given order. Used
// when the embedding caller seeds the selection from persisted state.
// Records of ids no longer selected are dropped.
func (s *Selector) SetSelected(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(ids))
	next := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		next = append(next, id)
	}
	s.selected = next

	for id := range s.records {
		if !seen[id] {
			delete(s.records, id)
		}
	}
}

// IsSelected reports whether the id is in the selection
func (s *Selector) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contains(id)
}

// SelectedIDs returns the selected ids in selection order
func (s *Selector) SelectedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(s.selected))
	copy(ids, s.selected)
	return ids
}

// Records returns cached display records in selection order. Ids whose
// record was never seen are skipped; the caller fetches those separately.
func (s *Selector) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]Record, 0, len(s.selected))
	for _, id := range s.selected {
		if r, ok := s.records[id]; ok {
			records = append(records, r)
		}
	}
	return records
}

func (s *Selector) contains(id string) bool {
	for _, sel := range s.selected {
		if sel == id {
			return true
		}
	}
	return false
}

package selection

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	delay   time.Duration
	records []Record
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]Record, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.records, f.err
}

func (f *fakeSearcher) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.queries))
	copy(out, f.queries)
	return out
}

// collector gathers callback deliveries across goroutines
type collector struct {
	mu      sync.Mutex
	queries []string
	errs    []error
}

func (c *collector) fn(query string, records []Record, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, query)
	c.errs = append(c.errs, err)
}

func (c *collector) delivered() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.queries))
	copy(out, c.queries)
	return out
}

func TestSelectDeduplicatesIDs(t *testing.T) {
	s := NewSelector(&fakeSearcher{}, time.Millisecond, nil)

	s.Select(Record{ID: "p1", Name: "Acme"})
	s.Select(Record{ID: "p1", Name: "Acme"})
	s.Select(Record{ID: "p2", Name: "Globex"})

	assert.Equal(t, []string{"p1", "p2"}, s.SelectedIDs())
}

func TestSelectPrefersKnownRecord(t *testing.T) {
	s := NewSelector(&fakeSearcher{}, time.Millisecond, nil)

	s.Select(Record{ID: "p1", Name: "Acme", Email: "old@acme.com"})
	s.Select(Record{ID: "p1", Name: "Acme Inc", Email: "new@acme.com"})

	records := s.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "old@acme.com", records[0].Email)
}

func TestDeselectRemovesIDAndRecord(t *testing.T) {
	s := NewSelector(&fakeSearcher{}, time.Millisecond, nil)

	s.Select(Record{ID: "p1", Name: "Acme"})
	s.Select(Record{ID: "p2", Name: "Globex"})
	s.Deselect("p1")

	assert.Equal(t, []string{"p2"}, s.SelectedIDs())
	require.Len(t, s.Records(), 1)
	assert.Equal(t, "p2", s.Records()[0].ID)
	assert.False(t, s.IsSelected("p1"))
}

func TestRecordsFollowSelectionOrder(t *testing.T) {
	s := NewSelector(&fakeSearcher{}, time.Millisecond, nil)

	s.Select(Record{ID: "p1", Name: "Acme"})
	s.Select(Record{ID: "p2", Name: "Globex"})
	s.Select(Record{ID: "p3", Name: "Initech"})
	s.Deselect("p2")

	records := s.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "p1", records[0].ID)
	assert.Equal(t, "p3", records[1].ID)
}

func TestSetSelectedDropsOrphanedRecords(t *testing.T) {
	s := NewSelector(&fakeSearcher{}, time.Millisecond, nil)

	s.Select(Record{ID: "p1", Name: "Acme"})
	s.Select(Record{ID: "p2", Name: "Globex"})

	// Parent reloads persisted state without p1
	s.SetSelected([]string{"p2", "p3", "p2"})

	assert.Equal(t, []string{"p2", "p3"}, s.SelectedIDs())
	records := s.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "p2", records[0].ID)
}

func TestSeededIDsHaveNoRecordsUntilSelected(t *testing.T) {
	s := NewSelector(&fakeSearcher{}, time.Millisecond, nil)

	s.SetSelected([]string{"p1", "p2"})
	assert.Empty(t, s.Records())

	// A later search result fills in the display record without duplicating
	// the id
	s.Select(Record{ID: "p1", Name: "Acme"})
	assert.Equal(t, []string{"p1", "p2"}, s.SelectedIDs())
	require.Len(t, s.Records(), 1)
	assert.Equal(t, "Acme", s.Records()[0].Name)
}

func TestSearchDebouncesRapidQueries(t *testing.T) {
	searcher := &fakeSearcher{records: []Record{{ID: "p1", Name: "Acme"}}}
	results := &collector{}
	s := NewSelector(searcher, 30*time.Millisecond, results.fn)

	for _, q := range []string{"a", "ac", "acm", "acme"} {
		s.Search(context.Background(), q)
		time.Sleep(5 * time.Millisecond)
	}

	// Wait for the final debounce to fire and deliver
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, []string{"acme"}, searcher.seen())
	assert.Equal(t, []string{"acme"}, results.delivered())
}

func TestCancelSearchDropsPendingLookup(t *testing.T) {
	searcher := &fakeSearcher{}
	results := &collector{}
	s := NewSelector(searcher, 20*time.Millisecond, results.fn)

	s.Search(context.Background(), "acme")
	s.CancelSearch()

	time.Sleep(100 * time.Millisecond)

	assert.Empty(t, searcher.seen())
	assert.Empty(t, results.delivered())
}

func TestStaleResultsNeverReachCallback(t *testing.T) {
	// The first lookup is still in flight when the second query lands; its
	// late result must be dropped
	searcher := &fakeSearcher{delay: 60 * time.Millisecond}
	results := &collector{}
	s := NewSelector(searcher, time.Millisecond, results.fn)

	s.Search(context.Background(), "first")
	time.Sleep(20 * time.Millisecond)
	s.Search(context.Background(), "second")

	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, []string{"second"}, results.delivered())
}

func TestSearchDeliversLookupErrors(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("directory unavailable")}
	results := &collector{}
	s := NewSelector(searcher, time.Millisecond, results.fn)

	s.Search(context.Background(), "acme")
	time.Sleep(100 * time.Millisecond)

	results.mu.Lock()
	defer results.mu.Unlock()
	require.Len(t, results.errs, 1)
	assert.EqualError(t, results.errs[0], "directory unavailable")
}

func TestDefaultDebounceApplied(t *testing.T) {
	s := NewSelector(&fakeSearcher{}, 0, nil)
	assert.Equal(t, DefaultDebounce, s.debounce)
}

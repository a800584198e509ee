package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pfrederiksen/concert-server/internal/cache"
	"github.com/pfrederiksen/concert-server/internal/listing"
	"github.com/pfrederiksen/concert-server/internal/scraper"
)

// stubFetcher serves canned listings per category and counts calls.
type stubFetcher struct {
	mu       sync.Mutex
	listings map[listing.Category][]listing.Listing
	errs     map[listing.Category]error
	calls    map[listing.Category]int
	entries  []listing.TicketOpenEntry
	openErr  error
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		listings: make(map[listing.Category][]listing.Listing),
		errs:     make(map[listing.Category]error),
		calls:    make(map[listing.Category]int),
	}
}

func (f *stubFetcher) FetchListings(ctx context.Context, category listing.Category, sortType string) ([]listing.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[category]++
	if err := f.errs[category]; err != nil {
		return nil, err
	}
	return f.listings[category], nil
}

func (f *stubFetcher) FetchTicketOpen(ctx context.Context, q scraper.TicketOpenQuery) ([]listing.TicketOpenEntry, error) {
	return f.entries, f.openErr
}

func (f *stubFetcher) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func TestList_CacheThenFetch(t *testing.T) {
	f := newStubFetcher()
	f.listings[listing.CategoryFestival] = []listing.Listing{{ID: "melon_9001", Title: "Fan Meet"}}
	svc := New(f, cache.New(time.Minute, nil))

	first, err := svc.List(context.Background(), listing.CategoryFestival, "HIT")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if first.Cached {
		t.Error("first List() should not be cached")
	}

	second, err := svc.List(context.Background(), listing.CategoryFestival, "HIT")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if !second.Cached {
		t.Error("second List() should be cached")
	}
	if len(second.Listings) != 1 || second.Listings[0].ID != first.Listings[0].ID {
		t.Errorf("cached listings differ: %v vs %v", second.Listings, first.Listings)
	}
	if f.calls[listing.CategoryFestival] != 1 {
		t.Errorf("upstream called %d times, want 1", f.calls[listing.CategoryFestival])
	}
}

func TestList_Error(t *testing.T) {
	f := newStubFetcher()
	f.errs[listing.CategoryConcert] = errors.New("connection refused")
	svc := New(f, cache.New(time.Minute, nil))

	res, err := svc.List(context.Background(), listing.CategoryConcert, "")
	if err == nil {
		t.Fatal("List() expected error")
	}
	if res.Category != listing.CategoryConcert {
		t.Errorf("Category = %q, want concert", res.Category)
	}
}

func TestDetail(t *testing.T) {
	f := newStubFetcher()
	f.listings[listing.CategoryConcert] = []listing.Listing{{ID: "melon_1"}}
	f.listings[listing.CategoryClassical] = []listing.Listing{{ID: "melon_2", Title: "Requiem"}}
	f.listings[listing.CategorySports] = []listing.Listing{{ID: "melon_5"}}

	tests := []struct {
		name      string
		id        string
		wantTitle string
		wantErr   error
	}{
		{name: "canonical id", id: "melon_2", wantTitle: "Requiem"},
		{name: "bare vendor id", id: "2", wantTitle: "Requiem"},
		{name: "unknown id", id: "melon_404", wantErr: ErrNotFound},
		{name: "empty id", id: "melon_", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(f, cache.New(time.Minute, nil))

			got, err := svc.Detail(context.Background(), tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Detail(%q) error = %v, want %v", tt.id, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Detail(%q) error: %v", tt.id, err)
			}
			if got.Title != tt.wantTitle {
				t.Errorf("Detail(%q).Title = %q, want %q", tt.id, got.Title, tt.wantTitle)
			}
		})
	}
}

func TestDetail_StopsAtFirstMatch(t *testing.T) {
	f := newStubFetcher()
	f.listings[listing.CategoryMusical] = []listing.Listing{{ID: "melon_7"}}
	svc := New(f, cache.New(time.Minute, nil))

	if _, err := svc.Detail(context.Background(), "melon_7"); err != nil {
		t.Fatalf("Detail() error: %v", err)
	}
	// concert then musical; classical onwards never fetched.
	if got := f.totalCalls(); got != 2 {
		t.Errorf("upstream fetched %d categories, want 2", got)
	}
}

func TestDetail_PrefersCache(t *testing.T) {
	f := newStubFetcher()
	c := cache.New(time.Minute, nil)
	c.Put("sports", []listing.Listing{{ID: "melon_5", Title: "Derby"}})
	for _, cat := range listing.Categories {
		if cat != listing.CategorySports {
			c.Put(cat.String(), nil)
		}
	}
	svc := New(f, c)

	got, err := svc.Detail(context.Background(), "5")
	if err != nil {
		t.Fatalf("Detail() error: %v", err)
	}
	if got.Title != "Derby" {
		t.Errorf("Title = %q, want Derby", got.Title)
	}
	if f.totalCalls() != 0 {
		t.Errorf("upstream called %d times with a warm cache, want 0", f.totalCalls())
	}
}

func TestDetail_UpstreamFailureIsNotNotFound(t *testing.T) {
	f := newStubFetcher()
	f.errs[listing.CategoryMusical] = errors.New("timeout")
	svc := New(f, cache.New(time.Minute, nil))

	_, err := svc.Detail(context.Background(), "melon_77")
	if err == nil {
		t.Fatal("Detail() expected error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("transport failure reported as not found: %v", err)
	}
}

func TestTicketOpen(t *testing.T) {
	f := newStubFetcher()
	f.entries = []listing.TicketOpenEntry{{ID: "1", Title: "Open"}}
	svc := New(f, cache.New(time.Minute, nil))

	entries, err := svc.TicketOpen(context.Background(), scraper.TicketOpenQuery{})
	if err != nil {
		t.Fatalf("TicketOpen() error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("TicketOpen() returned %d entries, want 1", len(entries))
	}

	f.openErr = scraper.ErrUpstreamErrorPage
	if _, err := svc.TicketOpen(context.Background(), scraper.TicketOpenQuery{}); !errors.Is(err, scraper.ErrUpstreamErrorPage) {
		t.Errorf("TicketOpen() error = %v, want wrapped ErrUpstreamErrorPage", err)
	}
}

func TestClearCache(t *testing.T) {
	c := cache.New(time.Minute, nil)
	c.Put("concert", nil)
	svc := New(newStubFetcher(), c)

	cleared := svc.ClearCache()
	if len(cleared) != 1 || cleared[0] != "concert" {
		t.Errorf("ClearCache() = %v, want [concert]", cleared)
	}
	if len(svc.CacheStatus()) != 0 {
		t.Error("CacheStatus() not empty after clear")
	}
}

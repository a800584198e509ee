// Package catalog composes the category cache and the upstream scraper into
// the operations the HTTP server exposes.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/pfrederiksen/concert-server/internal/cache"
	"github.com/pfrederiksen/concert-server/internal/listing"
	"github.com/pfrederiksen/concert-server/internal/logger"
	"github.com/pfrederiksen/concert-server/internal/scraper"
)

// ErrNotFound is returned when a detail lookup searched every category
// without a transport error and found nothing.
var ErrNotFound = errors.New("concert not found")

// Fetcher is the upstream side of the catalog; *scraper.Scraper satisfies it.
type Fetcher interface {
	FetchListings(ctx context.Context, category listing.Category, sortType string) ([]listing.Listing, error)
	FetchTicketOpen(ctx context.Context, q scraper.TicketOpenQuery) ([]listing.TicketOpenEntry, error)
}

// Service answers listing, detail and ticket-open queries.
type Service struct {
	fetcher Fetcher
	cache   *cache.Cache
}

// New creates a Service.
func New(fetcher Fetcher, c *cache.Cache) *Service {
	return &Service{fetcher: fetcher, cache: c}
}

// ListResult is the outcome of List.
type ListResult struct {
	Category listing.Category
	Listings []listing.Listing
	Cached   bool
}

// List returns the listings for category, from the cache when fresh. The
// cache is keyed by category alone, so sortType only affects the request that
// fills an entry.
func (s *Service) List(ctx context.Context, category listing.Category, sortType string) (ListResult, error) {
	records, cached, err := s.cache.GetOrFetch(ctx, category.String(), s.fetchFunc(category, sortType))
	if err != nil {
		return ListResult{Category: category}, fmt.Errorf("listing %s: %w", category, err)
	}
	return ListResult{Category: category, Listings: records, Cached: cached}, nil
}

// Detail finds a listing by canonical or bare vendor id, searching categories
// in listing.Categories order and fetching any category not cached. In the
// worst case that is one upstream fetch per category.
func (s *Service) Detail(ctx context.Context, id string) (listing.Listing, error) {
	vendorID := listing.StripPrefix(id)
	if vendorID == "" {
		return listing.Listing{}, ErrNotFound
	}
	canonicalID := listing.IDPrefix + vendorID

	var fetchErr error
	for _, category := range listing.Categories {
		records, _, err := s.cache.GetOrFetch(ctx, category.String(), s.fetchFunc(category, ""))
		if err != nil {
			logger.Warn("Detail lookup fetch failed", logger.Fields{
				"category": category.String(),
				"id":       id,
				"error":    err.Error(),
			})
			if fetchErr == nil {
				fetchErr = fmt.Errorf("searching %s: %w", category, err)
			}
			continue
		}

		for _, l := range records {
			if l.ID == canonicalID || l.VendorID() == vendorID {
				return l, nil
			}
		}
	}

	if fetchErr != nil {
		return listing.Listing{}, fetchErr
	}
	return listing.Listing{}, ErrNotFound
}

// TicketOpen fetches ticket-open announcements. Results are never cached.
func (s *Service) TicketOpen(ctx context.Context, q scraper.TicketOpenQuery) ([]listing.TicketOpenEntry, error) {
	entries, err := s.fetcher.FetchTicketOpen(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ticket open: %w", err)
	}
	return entries, nil
}

// ClearCache drops every cached category and returns their names.
func (s *Service) ClearCache() []string {
	cleared := s.cache.ClearAll()
	logger.Info("Cache cleared", logger.Fields{"categories": cleared})
	return cleared
}

// CacheStatus reports every cache entry.
func (s *Service) CacheStatus() []cache.EntryStatus {
	return s.cache.Status()
}

func (s *Service) fetchFunc(category listing.Category, sortType string) cache.FetchFunc {
	return func(ctx context.Context) ([]listing.Listing, error) {
		return s.fetcher.FetchListings(ctx, category, sortType)
	}
}

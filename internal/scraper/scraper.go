package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/concert-server/internal/listing"
	"github.com/pfrederiksen/concert-server/internal/logger"
	"github.com/pfrederiksen/concert-server/internal/metrics"
)

const (
	ListingURL    = "https://ticket.melon.com/performance/ajax/prodList.json"
	TicketOpenURL = "https://ticket.melon.com/csoon/ajax/listTicketOpen.htm"
	Timeout       = 10 * time.Second

	// UserAgent mimics a desktop browser; the vendor rejects obvious bots.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	DefaultSortType    = "HIT"
	DefaultOrderType   = "0"
	DefaultPageIndex   = "1"
	DefaultSchGcode    = "GENRE_ALL"
	maxResponseBytes   = 10 << 20
	endpointListing    = "listing"
	endpointTicketOpen = "ticket_open"
)

// Options configures a Scraper. Zero values fall back to the package defaults.
type Options struct {
	ListingURL    string
	TicketOpenURL string
	Timeout       time.Duration
	Metrics       *metrics.Metrics
}

// Scraper fetches and normalises upstream listing and ticket-open data
type Scraper struct {
	client        *http.Client
	listingURL    string
	ticketOpenURL string
	metrics       *metrics.Metrics
}

// New creates a new Scraper instance
func New(opts Options) *Scraper {
	if opts.ListingURL == "" {
		opts.ListingURL = ListingURL
	}
	if opts.TicketOpenURL == "" {
		opts.TicketOpenURL = TicketOpenURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = Timeout
	}

	return &Scraper{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		listingURL:    opts.ListingURL,
		ticketOpenURL: opts.TicketOpenURL,
		metrics:       opts.Metrics,
	}
}

// TicketOpenQuery holds the form fields posted to the ticket-open endpoint.
type TicketOpenQuery struct {
	OrderType string `json:"orderType"`
	PageIndex string `json:"pageIndex"`
	SchGcode  string `json:"schGcode"`
}

func (q TicketOpenQuery) withDefaults() TicketOpenQuery {
	if strings.TrimSpace(q.OrderType) == "" {
		q.OrderType = DefaultOrderType
	}
	if strings.TrimSpace(q.PageIndex) == "" {
		q.PageIndex = DefaultPageIndex
	}
	if strings.TrimSpace(q.SchGcode) == "" {
		q.SchGcode = DefaultSchGcode
	}
	return q
}

// FetchListings fetches one category of listings. An empty category requests
// the concert genre and lets each record's type code decide its category.
func (s *Scraper) FetchListings(ctx context.Context, category listing.Category, sortType string) ([]listing.Listing, error) {
	if sortType == "" {
		sortType = DefaultSortType
	}

	params := url.Values{}
	params.Set("commCode", "")
	params.Set("sortType", sortType)
	params.Set("perfGenreCode", category.GenreCode())
	params.Set("perfThemeCode", "")
	params.Set("filterCode", "FILTER_ALL")
	params.Set("v", "1")

	reqURL := s.listingURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	setBrowserHeaders(req)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, body, err := s.do(req, endpointListing)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: truncate(body), Err: ErrUpstreamStatus}
	}

	listings, err := listing.ParseListings(body, category)
	if err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: truncate(body), Err: err}
	}

	logger.Info("Fetched listings", logger.Fields{
		"category":  category.String(),
		"sort_type": sortType,
		"count":     len(listings),
	})
	return listings, nil
}

// FetchTicketOpen posts the ticket-open query and extracts announcements from
// whatever the vendor returns. An empty result is not an error.
func (s *Scraper) FetchTicketOpen(ctx context.Context, q TicketOpenQuery) ([]listing.TicketOpenEntry, error) {
	q = q.withDefaults()

	form := url.Values{}
	form.Set("orderType", q.OrderType)
	form.Set("pageIndex", q.PageIndex)
	form.Set("schGcode", q.SchGcode)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.ticketOpenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	setBrowserHeaders(req)
	req.Header.Set("Accept", "text/html, */*; q=0.01")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, body, err := s.do(req, endpointTicketOpen)
	if err != nil {
		return nil, err
	}

	kind, err := Classify(resp.StatusCode, contentType(resp), body)
	if err != nil {
		return nil, err
	}

	var entries []listing.TicketOpenEntry
	switch kind {
	case KindJSON:
		entries, err = parseTicketOpenJSON(body)
		if err != nil {
			return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: truncate(body), Err: err}
		}
	default:
		entries, err = s.parseTicketOpenHTML(body)
		if err != nil {
			return nil, err
		}
	}

	logger.Info("Fetched ticket opens", logger.Fields{
		"kind":       kind.String(),
		"page_index": q.PageIndex,
		"count":      len(entries),
	})
	return entries, nil
}

func (s *Scraper) parseTicketOpenHTML(body []byte) ([]listing.TicketOpenEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	base, _ := url.Parse(s.ticketOpenURL)
	entries, strategyName := ExtractTicketOpens(doc, base)
	if strategyName == "" {
		logger.Warn("No ticket-open entries extracted", logger.Fields{
			"body_bytes": len(body),
			"preview":    truncate(body),
		})
	}
	s.metrics.ObserveExtraction(strategyName, len(entries))

	return entries, nil
}

// parseTicketOpenJSON maps a JSON ticket-open payload onto entries.
func parseTicketOpenJSON(body []byte) ([]listing.TicketOpenEntry, error) {
	payload, err := listing.DecodePayload(body)
	if err != nil {
		return nil, err
	}

	records := listing.ExtractRecords(payload)
	entries := make([]listing.TicketOpenEntry, 0, len(records))
	for i, rec := range records {
		id := rec.String(listing.IDFields...)
		link := rec.String("link", "url")
		if id == "" {
			id = fmt.Sprintf("item_%d", i)
		} else if link == "" {
			link = listing.DetailURL(id)
		}

		title := rec.String(listing.TitleFields...)
		if title == "" {
			title = listing.NoTitle
		}

		entries = append(entries, listing.TicketOpenEntry{
			ID:        id,
			Title:     title,
			Link:      link,
			PosterURL: listing.AbsoluteImageURL(rec.String(listing.ImageFields...)),
			DateText:  rec.String(append([]string{"openDate", "ticketOpenDate", "openDt"}, listing.DateFields...)...),
			Venue:     rec.String(listing.VenueFields...),
		})
	}
	return dedupe(entries), nil
}

// do performs req and reads the body, recording timing and outcome.
func (s *Scraper) do(req *http.Request, endpoint string) (*http.Response, []byte, error) {
	start := time.Now()

	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.ObserveUpstream(endpoint, "error", time.Since(start))
		logger.Error("Upstream request failed", logger.Fields{
			"endpoint": endpoint,
			"url":      req.URL.String(),
		}, err)
		return nil, nil, fmt.Errorf("fetching %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		s.metrics.ObserveUpstream(endpoint, "error", time.Since(start))
		return nil, nil, fmt.Errorf("reading %s response: %w", endpoint, err)
	}

	elapsed := time.Since(start)
	s.metrics.ObserveUpstream(endpoint, fmt.Sprintf("%dxx", resp.StatusCode/100), elapsed)
	logger.Debug("Upstream response", logger.Fields{
		"endpoint":    endpoint,
		"status":      resp.StatusCode,
		"bytes":       len(body),
		"duration_ms": elapsed.Milliseconds(),
	})

	return resp, body, nil
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Referer", "https://ticket.melon.com/")
	req.Header.Set("Origin", "https://ticket.melon.com")
}

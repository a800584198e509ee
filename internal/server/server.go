package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pfrederiksen/concert-server/internal/cache"
	"github.com/pfrederiksen/concert-server/internal/catalog"
	"github.com/pfrederiksen/concert-server/internal/listing"
	"github.com/pfrederiksen/concert-server/internal/logger"
	"github.com/pfrederiksen/concert-server/internal/metrics"
	"github.com/pfrederiksen/concert-server/internal/scraper"
)

const maxBodyBytes = 64 << 10

// Catalog is the service the handlers call; *catalog.Service satisfies it.
type Catalog interface {
	List(ctx context.Context, category listing.Category, sortType string) (catalog.ListResult, error)
	Detail(ctx context.Context, id string) (listing.Listing, error)
	TicketOpen(ctx context.Context, q scraper.TicketOpenQuery) ([]listing.TicketOpenEntry, error)
	ClearCache() []string
	CacheStatus() []cache.EntryStatus
}

// Server holds the handler dependencies.
type Server struct {
	catalog Catalog
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a Server. m may be nil, in which case /metrics is not served.
func New(c Catalog, m *metrics.Metrics) *Server {
	return &Server{
		catalog: c,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /clear-cache", s.handleClearCache)
	mux.HandleFunc("GET /cache/status", s.handleCacheStatus)
	mux.HandleFunc("GET /concerts", s.handleConcerts)
	mux.HandleFunc("GET /concerts/{id}", s.handleConcertDetail)
	mux.HandleFunc("POST /ticket-open", s.handleTicketOpen)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	mux.HandleFunc("/", s.handleNotFound)

	var h http.Handler = mux
	h = Recover(h)
	h = Logging(s.metrics)(h)
	h = RequestID(h)
	return h
}

func (s *Server) timestamp() string {
	return s.now().Format(time.RFC3339Nano)
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not Found", "no route for "+r.Method+" "+r.URL.Path, "")
}

// --- Cache administration ---

type clearCacheResponse struct {
	Success           bool     `json:"success"`
	Message           string   `json:"message"`
	ClearedCategories []string `json:"clearedCategories"`
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	cleared := s.catalog.ClearCache()
	writeJSON(w, http.StatusOK, clearCacheResponse{
		Success:           true,
		Message:           "Cache cleared",
		ClearedCategories: cleared,
	})
}

type cacheStatusResponse struct {
	Success bool                `json:"success"`
	Entries []cache.EntryStatus `json:"entries"`
}

func (s *Server) handleCacheStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cacheStatusResponse{
		Success: true,
		Entries: s.catalog.CacheStatus(),
	})
}

// --- Listings ---

type concertsResponse struct {
	Success   bool              `json:"success"`
	Count     int               `json:"count"`
	Concerts  []listing.Listing `json:"concerts"`
	Cached    bool              `json:"cached"`
	Category  listing.Category  `json:"category"`
	Source    string            `json:"source"`
	Timestamp string            `json:"timestamp"`
	Message   string            `json:"message,omitempty"`
}

func (s *Server) handleConcerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	category, ok := listing.ParseCategory(q.Get("category"))
	if !ok {
		category = listing.CategoryConcert
	}
	sortType := strings.TrimSpace(q.Get("sortType"))
	if sortType == "" {
		sortType = scraper.DefaultSortType
	}

	resp := concertsResponse{
		Success:   true,
		Category:  category,
		Source:    Source,
		Concerts:  []listing.Listing{},
		Timestamp: s.timestamp(),
	}

	result, err := s.catalog.List(r.Context(), category, sortType)
	if err != nil {
		logger.Error("Listing fetch failed, serving empty list", logger.Fields{
			"request_id": r.Header.Get(requestIDHeader),
			"category":   category.String(),
		}, err)
		resp.Message = "upstream unavailable"
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if result.Listings != nil {
		resp.Concerts = result.Listings
	}
	resp.Count = len(resp.Concerts)
	resp.Cached = result.Cached
	writeJSON(w, http.StatusOK, resp)
}

type concertDetailResponse struct {
	Success bool            `json:"success"`
	Concert listing.Listing `json:"concert"`
}

func (s *Server) handleConcertDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	l, err := s.catalog.Detail(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Not Found", "no concert with id "+id, "")
			return
		}
		logger.Error("Detail lookup failed", logger.Fields{
			"request_id": r.Header.Get(requestIDHeader),
			"id":         id,
		}, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch concert", err.Error(), scraper.Diagnostic(err))
		return
	}

	writeJSON(w, http.StatusOK, concertDetailResponse{Success: true, Concert: l})
}

// --- Ticket open ---

type ticketOpenResponse struct {
	Success     bool                      `json:"success"`
	Count       int                       `json:"count"`
	TicketOpens []listing.TicketOpenEntry `json:"ticketOpens"`
	Source      string                    `json:"source"`
	Timestamp   string                    `json:"timestamp"`
}

func (s *Server) handleTicketOpen(w http.ResponseWriter, r *http.Request) {
	q, err := decodeTicketOpenQuery(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", err.Error(), "")
		return
	}

	entries, err := s.catalog.TicketOpen(r.Context(), q)
	if err != nil {
		logger.Error("Ticket-open fetch failed", logger.Fields{
			"request_id": r.Header.Get(requestIDHeader),
			"page_index": q.PageIndex,
		}, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch ticket open data", err.Error(), scraper.Diagnostic(err))
		return
	}
	if entries == nil {
		entries = []listing.TicketOpenEntry{}
	}

	writeJSON(w, http.StatusOK, ticketOpenResponse{
		Success:     true,
		Count:       len(entries),
		TicketOpens: entries,
		Source:      Source,
		Timestamp:   s.timestamp(),
	})
}

// decodeTicketOpenQuery reads the optional JSON body. Fields may be strings
// or numbers; an empty body means all defaults.
func decodeTicketOpenQuery(body io.Reader) (scraper.TicketOpenQuery, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return scraper.TicketOpenQuery{}, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return scraper.TicketOpenQuery{}, nil
	}

	payload, err := listing.DecodePayload(data)
	if err != nil {
		return scraper.TicketOpenQuery{}, err
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return scraper.TicketOpenQuery{}, errors.New("request body must be a JSON object")
	}

	rec := listing.Record(obj)
	return scraper.TicketOpenQuery{
		OrderType: rec.String("orderType"),
		PageIndex: rec.String("pageIndex"),
		SchGcode:  rec.String("schGcode"),
	}, nil
}

package listing

import "strings"

const (
	// IDPrefix is prepended to vendor product ids to form canonical ids.
	IDPrefix = "melon_"

	CDNHost          = "https://cdnticket.melon.co.kr"
	TicketBaseURL    = "https://ticket.melon.com"
	DetailURLBase    = TicketBaseURL + "/performance/index.htm"
	PlaceholderImage = "https://via.placeholder.com/300x400?text=No+Image"

	NoTitle     = "제목 없음"
	NoVenue     = "장소 미정"
	Unscheduled = "일정 미정"
)

// Category is one of the fixed listing categories
type Category string

const (
	CategoryConcert   Category = "concert"
	CategoryMusical   Category = "musical"
	CategoryClassical Category = "classical"
	CategoryFestival  Category = "festival"
	CategorySports    Category = "sports"
)

// Categories lists every category in detail-lookup iteration order.
var Categories = []Category{
	CategoryConcert,
	CategoryMusical,
	CategoryClassical,
	CategoryFestival,
	CategorySports,
}

// genreCodes maps a category to the genre code sent upstream.
var genreCodes = map[Category]string{
	CategoryConcert:   "GENRE_CON_ALL",
	CategoryMusical:   "GENRE_ART_ALL",
	CategoryClassical: "GENRE_CLA_ALL",
	CategoryFestival:  "GENRE_FAN_ALL",
	CategorySports:    "GENRE_SPO_ALL",
}

// ParseCategory converts user input into a Category. The second return value
// is false for empty or unknown input.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := genreCodes[c]; ok {
		return c, true
	}
	return "", false
}

// GenreCode returns the upstream genre code for c. Unknown categories use the
// concert code.
func (c Category) GenreCode() string {
	if code, ok := genreCodes[c]; ok {
		return code
	}
	return genreCodes[CategoryConcert]
}

func (c Category) String() string {
	return string(c)
}

// Listing is the canonical record produced from one upstream JSON entry.
type Listing struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	ImageURL  string         `json:"imageUrl"`
	Date      string         `json:"date"`
	Venue     string         `json:"venue"`
	DetailURL string         `json:"detailUrl"`
	Category  Category       `json:"category"`
	SaleState string         `json:"saleState,omitempty"`
	Region    string         `json:"region,omitempty"`
	Grade     string         `json:"grade,omitempty"`
	Raw       map[string]any `json:"raw,omitempty"`
}

// VendorID returns the id without the canonical prefix.
func (l *Listing) VendorID() string {
	return StripPrefix(l.ID)
}

// StripPrefix removes the canonical id prefix if present.
func StripPrefix(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), IDPrefix)
}

// TicketOpenEntry is one announcement extracted from the ticket-open page.
type TicketOpenEntry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	PosterURL string `json:"poster"`
	DateText  string `json:"date"`
	Venue     string `json:"venue"`
}

package cli

import (
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/concert-server/internal/listing"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate  SortOrder = "date"
	SortByTitle SortOrder = "title"
	SortByVenue SortOrder = "venue"
)

// Valid reports whether o is a known sort order.
func (o SortOrder) Valid() bool {
	switch o {
	case SortByDate, SortByTitle, SortByVenue:
		return true
	}
	return false
}

// sortListings sorts in place. Unknown or empty orders keep upstream order.
func sortListings(listings []listing.Listing, order SortOrder) {
	switch order {
	case SortByDate:
		sort.SliceStable(listings, func(i, j int) bool {
			return compareByDate(listings[i], listings[j])
		})
	case SortByTitle:
		sort.SliceStable(listings, func(i, j int) bool {
			ti, tj := strings.ToLower(listings[i].Title), strings.ToLower(listings[j].Title)
			if ti != tj {
				return ti < tj
			}
			return compareByDate(listings[i], listings[j])
		})
	case SortByVenue:
		sort.SliceStable(listings, func(i, j int) bool {
			if listings[i].Venue != listings[j].Venue {
				return listings[i].Venue < listings[j].Venue
			}
			return compareByDate(listings[i], listings[j])
		})
	}
}

// compareByDate returns true if i should come before j. Listings without a
// parseable date sort last, by title.
func compareByDate(i, j listing.Listing) bool {
	dateI := parseDate(i.Date)
	dateJ := parseDate(j.Date)

	if !dateI.IsZero() && !dateJ.IsZero() {
		return dateI.Before(dateJ)
	}
	if !dateI.IsZero() {
		return true
	}
	if !dateJ.IsZero() {
		return false
	}
	return strings.ToLower(i.Title) < strings.ToLower(j.Title)
}

// parseDate reads the leading YYYY.MM.DD of a normalised date.
func parseDate(s string) time.Time {
	if len(s) < len("2006.01.02") {
		return time.Time{}
	}
	t, err := time.Parse("2006.01.02", s[:len("2006.01.02")])
	if err != nil {
		return time.Time{}
	}
	return t
}

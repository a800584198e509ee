package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/concert-server/internal/listing"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ListingsResult is what fetch prints
type ListingsResult struct {
	FetchedAt time.Time         `json:"fetched_at"`
	Category  listing.Category  `json:"category"`
	Count     int               `json:"count"`
	Listings  []listing.Listing `json:"listings"`
}

// TicketOpenResult is what ticket-open prints
type TicketOpenResult struct {
	FetchedAt   time.Time                 `json:"fetched_at"`
	Count       int                       `json:"count"`
	TicketOpens []listing.TicketOpenEntry `json:"ticket_opens"`
}

// WriteListings writes the result in the specified format
func WriteListings(w io.Writer, result *ListingsResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeListingsText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteTicketOpens writes the result in the specified format
func WriteTicketOpens(w io.Writer, result *TicketOpenResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeTicketOpensText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeListingsText(w io.Writer, result *ListingsResult, verbose bool) error {
	if len(result.Listings) == 0 {
		fmt.Fprintf(w, "No %s listings found.\n", result.Category)
		return nil
	}

	for _, l := range result.Listings {
		fmt.Fprintf(w, "%s  %s @ %s\n", l.Date, l.Title, l.Venue)
		if verbose {
			fmt.Fprintf(w, "     ID: %s\n", l.ID)
			fmt.Fprintf(w, "     Link: %s\n", l.DetailURL)
			fmt.Fprintf(w, "     Image: %s\n", l.ImageURL)
			if l.SaleState != "" {
				fmt.Fprintf(w, "     Sale: %s\n", l.SaleState)
			}
		}
	}
	fmt.Fprintf(w, "\nTotal: %d %s listings\n", result.Count, result.Category)
	return nil
}

func writeTicketOpensText(w io.Writer, result *TicketOpenResult, verbose bool) error {
	if len(result.TicketOpens) == 0 {
		fmt.Fprintln(w, "No ticket-open announcements found.")
		return nil
	}

	for _, e := range result.TicketOpens {
		date := e.DateText
		if date == "" {
			date = listing.Unscheduled
		}
		if e.Venue != "" {
			fmt.Fprintf(w, "%s  %s @ %s\n", date, e.Title, e.Venue)
		} else {
			fmt.Fprintf(w, "%s  %s\n", date, e.Title)
		}
		if verbose {
			fmt.Fprintf(w, "     ID: %s\n", e.ID)
			if e.Link != "" {
				fmt.Fprintf(w, "     Link: %s\n", e.Link)
			}
			if e.PosterURL != "" {
				fmt.Fprintf(w, "     Poster: %s\n", e.PosterURL)
			}
		}
	}
	fmt.Fprintf(w, "\nTotal: %d announcements\n", result.Count)
	return nil
}

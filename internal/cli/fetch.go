package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pfrederiksen/concert-server/internal/config"
	"github.com/pfrederiksen/concert-server/internal/listing"
	"github.com/pfrederiksen/concert-server/internal/scraper"
	"github.com/spf13/cobra"
)

var (
	flagCategory string
	flagSortType string
	flagSort     string
	flagFormat   string
	flagLimit    int
	flagVerbose  bool

	flagOrderType string
	flagPageIndex string
	flagSchGcode  string
)

func newScraper(cfg config.Config) *scraper.Scraper {
	return scraper.New(scraper.Options{
		ListingURL:    cfg.Upstream.ListingURL,
		TicketOpenURL: cfg.Upstream.TicketOpenURL,
		Timeout:       cfg.Upstream.Timeout,
	})
}

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch one category of listings and print it",
		Args:  cobra.NoArgs,
		RunE:  runFetch,
	}

	cmd.Flags().StringVar(&flagCategory, "category", string(listing.CategoryConcert), "Category: concert, musical, classical, festival or sports")
	cmd.Flags().StringVar(&flagSortType, "sort-type", scraper.DefaultSortType, "Upstream sort type")
	cmd.Flags().StringVar(&flagSort, "sort", "", "Local sort order: date, title or venue (default: upstream order)")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().IntVar(&flagLimit, "limit", 0, "Maximum number of listings to print (0 for all)")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Print ids, links and images")
	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	category, ok := listing.ParseCategory(flagCategory)
	if !ok {
		return fmt.Errorf("invalid category: %s", flagCategory)
	}
	format, err := parseFormat(flagFormat)
	if err != nil {
		return err
	}
	order := SortOrder(strings.ToLower(strings.TrimSpace(flagSort)))
	if order != "" && !order.Valid() {
		return fmt.Errorf("invalid sort: %s (must be 'date', 'title' or 'venue')", flagSort)
	}

	cfg, err := loadConfig(cmd, os.Stderr)
	if err != nil {
		return err
	}

	listings, err := newScraper(cfg).FetchListings(cmd.Context(), category, flagSortType)
	if err != nil {
		if diag := scraper.Diagnostic(err); diag != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Upstream response: %s\n", diag)
		}
		return fmt.Errorf("fetching listings: %w", err)
	}

	sortListings(listings, order)
	if flagLimit > 0 && len(listings) > flagLimit {
		listings = listings[:flagLimit]
	}

	result := &ListingsResult{
		FetchedAt: time.Now().UTC(),
		Category:  category,
		Count:     len(listings),
		Listings:  listings,
	}
	if err := WriteListings(cmd.OutOrStdout(), result, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func newTicketOpenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticket-open",
		Short: "Fetch upcoming ticket-open announcements and print them",
		Args:  cobra.NoArgs,
		RunE:  runTicketOpen,
	}

	cmd.Flags().StringVar(&flagOrderType, "order-type", scraper.DefaultOrderType, "Upstream order type")
	cmd.Flags().StringVar(&flagPageIndex, "page", scraper.DefaultPageIndex, "Page index")
	cmd.Flags().StringVar(&flagSchGcode, "genre", scraper.DefaultSchGcode, "Upstream genre filter code")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Print ids, links and posters")
	return cmd
}

func runTicketOpen(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(flagFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, os.Stderr)
	if err != nil {
		return err
	}

	entries, err := newScraper(cfg).FetchTicketOpen(cmd.Context(), scraper.TicketOpenQuery{
		OrderType: flagOrderType,
		PageIndex: flagPageIndex,
		SchGcode:  flagSchGcode,
	})
	if err != nil {
		if diag := scraper.Diagnostic(err); diag != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Upstream response: %s\n", diag)
		}
		return fmt.Errorf("fetching ticket opens: %w", err)
	}

	result := &TicketOpenResult{
		FetchedAt:   time.Now().UTC(),
		Count:       len(entries),
		TicketOpens: entries,
	}
	if err := WriteTicketOpens(cmd.OutOrStdout(), result, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

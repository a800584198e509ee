package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/concert-server/internal/listing"
)

const (
	// listItemSelector is deliberately broad and also matches page chrome;
	// minListTitleRunes filters most of that noise.
	listItemSelector  = `li, .item, .list_item, .ticket_item, [class*="item"], [class*="list"]`
	minListTitleRunes = 4

	productAnchorSelector = `a[href*="prodId="]`
	containerSelector     = "tr, li, td"
)

var productIDPattern = regexp.MustCompile(`[?&]prodId=(\d+)`)

// strategy is one ticket-open extraction pass. ok reports whether the pass
// produced anything.
type strategy struct {
	name    string
	extract func(doc *goquery.Document, base *url.URL) (entries []listing.TicketOpenEntry, ok bool)
}

// strategies are tried in order until one succeeds.
var strategies = []strategy{
	{name: "table", extract: extractTableRows},
	{name: "list-item", extract: extractListItems},
	{name: "anchor", extract: extractProductAnchors},
}

// ExtractTicketOpens runs the extraction strategies against doc, stopping at
// the first one that yields results, and deduplicates by product id. It
// returns the name of the winning strategy, or "" when every strategy came up
// empty.
func ExtractTicketOpens(doc *goquery.Document, base *url.URL) ([]listing.TicketOpenEntry, string) {
	for _, s := range strategies {
		if entries, ok := s.extract(doc, base); ok {
			return dedupe(entries), s.name
		}
	}
	return []listing.TicketOpenEntry{}, ""
}

// dedupe keeps the first entry for each id, preserving order.
func dedupe(entries []listing.TicketOpenEntry) []listing.TicketOpenEntry {
	seen := make(map[string]bool, len(entries))
	unique := make([]listing.TicketOpenEntry, 0, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		unique = append(unique, e)
	}
	return unique
}

// extractTableRows reads every row with at least two cells. Date and venue
// come from fixed cell positions, which only holds for the current vendor
// layout; either may be empty.
func extractTableRows(doc *goquery.Document, base *url.URL) ([]listing.TicketOpenEntry, bool) {
	var entries []listing.TicketOpenEntry

	doc.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		anchor := cells.Find("a").First()
		title := anchorTitle(anchor)
		if title == "" {
			return
		}
		href, _ := anchor.Attr("href")

		dateIdx, venueIdx := 1, 2
		if cells.Length() >= 4 {
			dateIdx, venueIdx = 2, 3
		}

		entries = append(entries, listing.TicketOpenEntry{
			ID:        productIDOr(href, fmt.Sprintf("row_%d", i)),
			Title:     title,
			Link:      listing.ResolveURL(base, href),
			PosterURL: listing.ResolveURL(base, imageSource(row)),
			DateText:  cellText(cells, dateIdx),
			Venue:     cellText(cells, venueIdx),
		})
	})

	return entries, len(entries) > 0
}

// extractListItems reads list-like elements identified by tag or class name.
func extractListItems(doc *goquery.Document, base *url.URL) ([]listing.TicketOpenEntry, bool) {
	var entries []listing.TicketOpenEntry

	doc.Find(listItemSelector).Each(func(i int, item *goquery.Selection) {
		anchor := item.Find("a").First()
		title := anchorTitle(anchor)
		if title == "" {
			title = cleanText(item.Find(".title, .tit, strong").First().Text())
		}
		if utf8.RuneCountInString(title) < minListTitleRunes {
			return
		}
		href, _ := anchor.Attr("href")

		entries = append(entries, listing.TicketOpenEntry{
			ID:        productIDOr(href, fmt.Sprintf("item_%d", i)),
			Title:     title,
			Link:      listing.ResolveURL(base, href),
			PosterURL: listing.ResolveURL(base, imageSource(item)),
			DateText:  cleanText(item.Find(".date, .day, .open_date").First().Text()),
			Venue:     cleanText(item.Find(".place, .venue, .location").First().Text()),
		})
	})

	return entries, len(entries) > 0
}

// extractProductAnchors is the last resort: any anchor linking to a product.
func extractProductAnchors(doc *goquery.Document, base *url.URL) ([]listing.TicketOpenEntry, bool) {
	var entries []listing.TicketOpenEntry

	doc.Find(productAnchorSelector).Each(func(i int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")
		id := productID(href)
		if id == "" {
			return
		}

		title := anchorTitle(anchor)
		if title == "" {
			return
		}

		container := anchor.Closest(containerSelector)
		if container.Length() == 0 {
			container = anchor
		}

		entries = append(entries, listing.TicketOpenEntry{
			ID:        id,
			Title:     title,
			Link:      listing.ResolveURL(base, href),
			PosterURL: listing.ResolveURL(base, imageSource(container)),
		})
	})

	return entries, len(entries) > 0
}

// anchorTitle returns the anchor text, falling back to its title attribute.
func anchorTitle(anchor *goquery.Selection) string {
	if anchor.Length() == 0 {
		return ""
	}
	if text := cleanText(anchor.Text()); text != "" {
		return text
	}
	title, _ := anchor.Attr("title")
	return cleanText(title)
}

// imageSource returns the src, or lazy-load data-src, of the first image in sel.
func imageSource(sel *goquery.Selection) string {
	img := sel.Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	if src, ok := img.Attr("src"); ok && strings.TrimSpace(src) != "" {
		return src
	}
	src, _ := img.Attr("data-src")
	return src
}

func cellText(cells *goquery.Selection, idx int) string {
	if idx >= cells.Length() {
		return ""
	}
	return cleanText(cells.Eq(idx).Text())
}

// cleanText collapses runs of whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func productID(href string) string {
	if m := productIDPattern.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

func productIDOr(href, fallback string) string {
	if id := productID(href); id != "" {
		return id
	}
	return fallback
}

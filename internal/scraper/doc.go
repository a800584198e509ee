// Package scraper fetches Melon Ticket listing and ticket-open data.
//
// Listings come from a JSON endpoint and are normalised by the listing
// package. Ticket-open announcements usually come back as an HTML fragment;
// the response is classified first (status, error page, JSON or HTML) and HTML
// is then run through an ordered chain of goquery extraction strategies:
// table rows, list items, and finally any anchor carrying a product id.
package scraper

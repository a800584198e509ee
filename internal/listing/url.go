package listing

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

// DetailURL builds the vendor detail page for a product id.
func DetailURL(vendorID string) string {
	return DetailURLBase + "?prodId=" + url.QueryEscape(vendorID)
}

// AbsoluteImageURL prefixes relative poster paths with the CDN host.
// Absolute URLs are returned untouched and a missing path yields
// PlaceholderImage.
func AbsoluteImageURL(path string) string {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return PlaceholderImage
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	case strings.HasPrefix(path, "//"):
		return normalizeURL("https:" + path)
	case strings.HasPrefix(path, "/"):
		return normalizeURL(CDNHost + path)
	default:
		return normalizeURL(CDNHost + "/" + path)
	}
}

// ResolveURL resolves ref against base and normalises the result. Empty refs
// and javascript: pseudo links yield an empty string.
func ResolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(strings.ToLower(ref), "javascript:") {
		return ""
	}

	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return purell.NormalizeURL(u, purell.FlagsSafe)
}

func normalizeURL(raw string) string {
	normalized, err := purell.NormalizeURLString(raw, purell.FlagsSafe)
	if err != nil {
		return raw
	}
	return normalized
}

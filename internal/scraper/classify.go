package scraper

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PayloadKind identifies how a successful upstream body should be parsed.
type PayloadKind int

const (
	KindHTML PayloadKind = iota
	KindJSON
)

func (k PayloadKind) String() string {
	if k == KindJSON {
		return "json"
	}
	return "html"
}

// errorPageMarkers flag an HTML document as an upstream error page.
var errorPageMarkers = []string{"404", "Not Found", "오류"}

// Classify decides whether an upstream response is a failure, JSON or HTML.
// Failures are returned as *UpstreamError.
func Classify(statusCode int, contentType string, body []byte) (PayloadKind, error) {
	if statusCode < 200 || statusCode > 299 {
		return 0, &UpstreamError{StatusCode: statusCode, Body: truncate(body), Err: ErrUpstreamStatus}
	}

	if isJSON(contentType, body) {
		return KindJSON, nil
	}

	if isErrorPage(body) {
		return 0, &UpstreamError{StatusCode: statusCode, Body: truncate(body), Err: ErrUpstreamErrorPage}
	}
	return KindHTML, nil
}

func isJSON(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "json") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// isErrorPage looks for error markers in the document's text. Script and
// style contents are dropped first, and attribute values such as
// href="?prodId=404" are never part of the text.
func isErrorPage(body []byte) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}
	doc.Find("script, style, noscript").Remove()

	text := doc.Text()
	for _, marker := range errorPageMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// contentType returns the response media type header.
func contentType(resp *http.Response) string {
	return resp.Header.Get("Content-Type")
}

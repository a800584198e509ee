package scraper

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxDiagnosticBytes bounds the upstream body kept on an UpstreamError.
const MaxDiagnosticBytes = 500

var (
	// ErrUpstreamStatus reports a non-2xx upstream response.
	ErrUpstreamStatus = errors.New("upstream returned non-success status")
	// ErrUpstreamErrorPage reports a 2xx HTML response that is an error page.
	ErrUpstreamErrorPage = errors.New("upstream returned an error page")
)

// UpstreamError carries the upstream status and a truncated body for
// diagnostics.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%v (status %d)", e.Err, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Diagnostic returns the truncated upstream body, if any.
func Diagnostic(err error) string {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Body
	}
	return ""
}

func truncate(body []byte) string {
	if len(body) <= MaxDiagnosticBytes {
		return strings.ToValidUTF8(string(body), "")
	}
	cut := body[:MaxDiagnosticBytes]
	for len(cut) > 0 && !utf8.Valid(cut) {
		cut = cut[:len(cut)-1]
	}
	return string(cut) + "..."
}

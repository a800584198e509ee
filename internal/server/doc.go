// Package server exposes the catalog over HTTP.
//
// Every response body is JSON except /health and /metrics. Failures always
// carry success:false with error and message fields; the listing endpoint is
// the exception and degrades to an empty 200 so a listing page never
// hard-fails.
package server

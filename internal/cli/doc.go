// Package cli implements the command-line interface for concert-server.
//
// The cli package provides the Cobra-based CLI: serve runs the HTTP proxy,
// fetch and ticket-open query the upstream once and print the result as text
// or JSON, and version reports the build. Configuration is resolved by the
// config package and then overridden by any flags given explicitly.
package cli

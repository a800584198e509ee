// Package listing provides the canonical concert listing model and the
// normalisation rules that turn heterogeneous Melon Ticket payloads into it.
//
// Upstream schemas are not contractually stable: the same concept (a start
// date, a venue, a genre code) arrives under different field names depending
// on which vendor integration produced the record. Every lookup is therefore a
// priority-ordered fallback chain, and every missing value resolves to a
// sentinel instead of an error so a single malformed record never aborts a
// batch.
package listing

// Package storage persists cache snapshots as JSON so a restarted server can
// serve still-fresh listings without refetching.
//
// Entries keep their original fetch time; whether a restored entry is fresh is
// decided by the cache on read, exactly as for entries fetched in-process.
package storage

// Package cache maps normalized request fingerprints to previously parsed
// results with per-entry TTL expiry.
//
// Two implementations share one interface: an in-memory LRU for
// single-process deployments and a Redis-backed level for sharing parsed
// results across processes. Expiry is lazy (checked at read time); the
// memory cache can additionally run a background sweep for hygiene.
package cache

// Package cache provides the durable, expiring availability result cache
// that sits between the reservation-site fetcher and the UI.
//
// Results are keyed by a deterministic fingerprint of the query (hut,
// normalized date range, occupant count) and persisted as a single YAML
// document (results.yaml) under the application's data directory. Key
// properties:
//   - SHA256-based fingerprints for stable lookups across restarts
//   - TTL expiration in whole days (default 7) with a strict boundary:
//     an entry aged exactly TTL is stale
//   - Atomic persistence (temp file + rename) at orderly shutdown only
//   - Stale entries are retained and served when a refresh fails, so the
//     UI can show last-known data while the network is down
//   - Concurrent identical lookups coalesce into one in-flight fetch
package cache

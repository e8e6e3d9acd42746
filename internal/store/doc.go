// Package store provides the SQLite-backed dialect catalog.
//
// The catalog is append-only and content-addressed:
//   - Dialects: compiled declarations keyed by their declaration hash,
//     stored as canonical JSON plus the textual form they re-parse from
//   - Verification runs: a labelled batch of verification outcomes
//     against a set of catalogued dialects
//
// # Ordering
//
// All ordering uses seq INTEGER (logical clock), never timestamps.
// List queries order by seq ASC with a binary-collated tiebreak so results
// are identical across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Declaration hashes are computed in internal/ir/hash.go using RFC 8785
// canonical JSON and SHA-256 with domain separation.
package store

// Package store provides SQLite-backed durable storage for modelq sessions.
//
// The store holds:
//   - Sessions: one row per session id (UUIDv7)
//   - Session values: a key/value map per session
//   - Query log: an append-only record of every query run in a session
//
// # Ordering
//
// All ordering uses seq INTEGER (logical clock), never timestamps. Every
// query over the log includes ORDER BY seq ASC, id COLLATE BINARY ASC so
// reads are identical across runs.
//
// Query log ids are content-addressed via ir.QueryID (canonical JSON and
// SHA-256 with domain separation), which makes appends idempotent.
//
// # Database Configuration
//
// File databases use WAL with synchronous=NORMAL. Every database waits up
// to 5 seconds for locks and enforces foreign keys. Schema upgrades are
// tracked in PRAGMA user_version.
package store

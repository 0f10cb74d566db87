// Package index persists the local music library in SQLite and exposes
// helpers for driving track lyric-acquisition state through its lifecycle.
//
// The Store manages the database connection, schema migration, directory and
// track bookkeeping, and the monotonic lyric-state transitions that the
// scanner and orchestrator coordinate through. Tracks capture file metadata
// and lyric acquisition outcomes so downstream stages can resume without
// reprobing or rescanning.
//
// Schema changes are additive SQL migrations tracked in a schema_migrations
// table; existing databases upgrade in place rather than requiring deletion.
package index

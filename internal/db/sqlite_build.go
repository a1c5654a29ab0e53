//go:build !sqlite_omit_load_extension

package db

// Binaries must be built with -tags fts5 so mattn/go-sqlite3 compiles the
// FTS5 extension the concept search index depends on. Opening a store from
// a binary built without it fails at the migration that creates
// concepts_fts.

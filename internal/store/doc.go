// Package store persists projects, languages, translation keys, translations,
// history, translation memory, and queue items in SQLite.
//
// The Store manages the database connection, schema initialization, and
// busy-retry plumbing. Row helpers accept a DBTX so the state machine and the
// bulk importer can compose several writes inside one transaction. Writes to
// the translations table go through an atomic INSERT .. ON CONFLICT DO UPDATE
// keyed on (key_id, language_id); that constraint is the single source of the
// one-row-per-key-and-language invariant, so never bypass UpsertTranslation
// with a hand-written insert.
//
// Schema changes bump schemaVersion in schema.go; databases with an older
// version are rejected rather than migrated in place.
package store

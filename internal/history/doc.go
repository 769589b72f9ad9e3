// Package history records finished downloads in a SQLite database.
//
// The workflow writes one row per item when it completes or fails for good;
// the CLI reads rows back for the history commands and to skip URLs that were
// already fetched. The live queue itself is never persisted here.
//
// Schema changes bump schemaVersion in schema.go; users clear the database to
// adopt the new schema.
package history

// Package runstore keeps the export history in SQLite.
//
// Every driver run is recorded once it ends, including runs refused during
// preflight, together with one row per written file. The history answers
// "what was exported from this source, and when" for the history command.
//
// Schema changes append a step to the migrations list in schema.go; the
// applied step count lives in SQLite's user_version header. A database from a
// newer build is refused with ErrSchemaMismatch.
package runstore

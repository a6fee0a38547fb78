// Package storage is the notification store: one SQLite table in WAL mode,
// shared by any number of short-lived producer processes and one long-lived
// presentation process.
//
// It is the only component that mutates persisted state.
//
// Entry points:
//   - Open: open for write and (re)initialize the schema. Presentation startup only.
//   - OpenReader: attach to an initialized store without touching the schema.
//   - OpenProducer: attach, creating the table only if it is absent.
//
// Writers rely on SQLite's own write serialization and a bounded busy
// timeout; no external locking is added.
package storage

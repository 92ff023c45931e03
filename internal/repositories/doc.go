// Package repositories implements SQLite persistence for the engine's event journal.
//
// Key Implementations:
//   - [EventRepository] : models.Repository[*models.EventRecord] with soft deletes and per-kind counts
//   - [JournalSink] : events.Sink adapter that writes every engine event through an EventRepository
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
// The catalog itself is never persisted; the journal only records what happened during a run.
package repositories

// Package history stores conversion run summaries in a local SQLite
// database so past runs and their per-file outcomes can be inspected
// after the fact. Recording is best effort: a history failure is worth
// a warning, never a failed batch.
package history

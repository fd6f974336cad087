// Package store provides SQLite-backed durable storage for check records.
//
// Every check the engine runs can be recorded with its inputs, its result
// and the content hashes of both. The log is append-only: writes are
// idempotent on the check id, and reads are ordered by the engine's logical
// clock (seq) with id as the tie break, so a replay walks checks in the
// order they originally ran.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - one open connection: SQLite has a single writer
//
// Inputs and results are stored as canonical JSON (see internal/ir) so the
// stored text hashes to the recorded fingerprints.
package store

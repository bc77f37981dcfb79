// Package database provides SQLite-based storage for contactscan.
//
// SessionDB stores two things in one file:
//   - The session record (completed and failed root URLs, saved results),
//     so it can serve as a session.Backend
//   - A businesses table holding exported lead records, one row per record,
//     with list and map fields stored as JSON text
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode lets a second process read results while a run writes them
package database

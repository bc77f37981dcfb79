// Package session keeps the durable record of which sites a run has
// already handled.
//
// A Record has three named fields: the set of completed root URLs, the set
// of failed root URLs and the list of accumulated results. It is loaded once
// when a Store opens, merged additively by every Save (set union for the
// URL sets, append for results; nothing is ever removed) and rewritten in
// full through a Backend.
//
// Two backends exist: FileBackend in this package writes a versioned JSON
// document, and database.SessionDB keeps the same record in SQLite.
//
// Loading never fails: a missing, unreadable or incompatible store yields an
// empty record and a logged warning, so a damaged session file can cost
// repeated work but never blocks a run.
package session

// Package store is the SQLite-backed implementation of the session
// collaborator stores (tasks and instances).
//
// The core treats storage as external; this package is the product's
// reference implementation of that boundary. It owns the one guarantee the
// finalizer cannot provide itself: the UNIQUE(series_id, occurrence_date)
// constraint makes the duplicate-instance check atomic against concurrent
// callers, where the finalizer's exists-then-create sequence alone would
// race.
//
// SQLite runs in WAL mode with a single writer connection, mirroring the
// usage notes in the schema pragmas.
package store

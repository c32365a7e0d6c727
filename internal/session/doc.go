// Package session implements session finalization and the lifecycle
// controller that drives live and catch-up note-taking flows.
//
// ARCHITECTURE:
//
// Reducer, not stateful object:
// The controller never owns mutable session state. Every transition takes a
// State value and returns a new one; the host keeps the current State and
// feeds it back. This keeps transitions testable in isolation and makes the
// suspend/resume path an explicit stored continuation instead of hidden
// object state.
//
// Single finalize per occurrence:
// Finalization is idempotent per (series, occurrence date). The finalizer
// checks the instance store before writing and surfaces DUPLICATE_INSTANCE
// as a typed error; the store's uniqueness constraint is the atomic backstop
// against true concurrent callers. The controller converts the failure into
// an error-carrying State that preserves the notes buffer, so nothing the
// user typed is ever lost to a retry.
//
// One-shot authorization resume:
// When finalize must wait for an external authorization step, the pending
// finalize parameters are stored verbatim on the State. The
// authorization-completed signal consumes them exactly once: the parameters
// are cleared before finalize is re-invoked, so a duplicate or late signal
// is a no-op.
package session

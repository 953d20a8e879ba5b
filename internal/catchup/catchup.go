// =============================================================================
// CATCHUP - External Collaborator Contract
// =============================================================================
//
// spec.md scopes the catch-up subsystem itself out of the recovery core: it
// fetches missing decided instances and snapshots from other replicas. The
// recovery core only needs the narrow contract CatchUpBridge calls against
// (spec.md §4.5, §9): start a round toward a target instance id, be told
// when a round succeeds, and be able to force another round without
// forgetting which listener to notify.
//
// Listener is a named value with its own identity, not an anonymous
// closure (spec.md §9's redesign flag), so Deregister is well defined: a
// Subsystem implementation can tell two listeners apart even if they were
// constructed with identical callbacks.
// =============================================================================

package catchup

import "github.com/google/uuid"

// Listener receives catchUpSucceeded notifications for one outstanding
// round. OnSucceeded reports the subsystem's local firstUncommitted at the
// moment the round finished - which may still be short of the round's
// target if gaps were left at the tail by a snapshot (spec.md §4.5).
type Listener struct {
	ID          uuid.UUID
	OnSucceeded func(firstUncommitted uint64)
}

// NewListener builds a Listener with a fresh identity.
func NewListener(onSucceeded func(firstUncommitted uint64)) *Listener {
	return &Listener{ID: uuid.New(), OnSucceeded: onSucceeded}
}

// Subsystem is the catch-up subsystem as seen by the recovery core.
type Subsystem interface {
	// Register starts a catch-up round aimed at target and arranges for
	// l.OnSucceeded to be called when that round completes. Registering
	// the same listener again before it completes replaces the target.
	Register(target uint64, l *Listener) error
	// ForceCatchup requests another round for the same listener, used
	// when the prior round's firstUncommitted still falls short of the
	// target (spec.md's catch-up underrun case, S5).
	ForceCatchup(l *Listener) error
	// Deregister stops notifying l. Must be called exactly once the
	// recovery core no longer needs this listener; a failure here is
	// fatal per spec.md §7, since a stale listener could fire after Live.
	Deregister(l *Listener) error
}

// =============================================================================
// STORAGE - Paxos Volatile State, Shared With The Recovery Core
// =============================================================================
//
// Acceptors keep their promise/accept state here. It is volatile: a fresh
// Storage is built on every boot, so a crash forgets every vote, and the
// persisted local epoch is what lets peers tell the new incarnation from
// the old one. The recovery core (internal/recovery) shares
// this same storage: it owns the View and EpochVector fields, bumping the
// view on boot and merging epoch vectors in from RecoveryAnswer replies
// (spec.md §3, §4.3). Storage itself stays agnostic of who's calling it;
// the locking discipline that makes concurrent access safe lives here,
// not in the callers.
// =============================================================================

package storage

import "github.com/senutpal/epochss/internal/paxos"

// Storage is the interface the Paxos acceptor uses for vote state, and the
// recovery core uses for the shared view / epoch vector / decided log.
// MemoryStorage is the only implementation.
type Storage interface {
	// SavePromised stores the highest promised proposal number.
	SavePromised(proposal paxos.ProposalNumber) error
	// LoadPromised returns the highest promised proposal number, or the
	// zero value if none has ever been saved.
	LoadPromised() (paxos.ProposalNumber, error)

	// SaveAccepted stores the last accepted proposal and value.
	SaveAccepted(proposal paxos.ProposalNumber, value []byte) error
	// LoadAccepted returns the last accepted proposal and value, or the
	// zero value / nil if nothing has been accepted.
	LoadAccepted() (paxos.ProposalNumber, []byte, error)

	// View returns the current Paxos view.
	View() int64
	// SetView overwrites the current view. Callers must never decrease it.
	SetView(v int64)

	// EpochVector returns a copy of the N-slot epoch vector.
	EpochVector() []uint64
	// SetEpochVector installs a new N-slot epoch vector wholesale, used
	// once during StorageBootstrap.
	SetEpochVector(vec []uint64)
	// MergeEpochVector merges other into the stored vector element-wise
	// by max, per spec.md's EpochVector merge rule.
	MergeEpochVector(other []uint64) error

	// AppendDecided records that instance id decided on value, advancing
	// FirstUncommitted if id was exactly the prior boundary.
	AppendDecided(id uint64, value []byte)
	// FirstUncommitted returns the smallest Paxos instance id not yet
	// decided locally.
	FirstUncommitted() uint64
	// Decided returns the value decided at id, if known.
	Decided(id uint64) ([]byte, bool)

	// Close releases any resources held by the storage implementation.
	Close() error
}

// =============================================================================
// ACCEPTOR - The Safety Guardian of Paxos
// =============================================================================
//
// Two rules, memorized:
//
//  1. Promise rule: once you promise N, reject any Prepare/Accept below N.
//  2. Acceptance rule: accept a value only if you haven't promised higher.
//
// Both rules are enforced against storage.Storage, which is volatile: a
// restarted replica starts with no promise and no accepted value, and the
// recovery core's epoch bump keeps it from voting until it has caught up.
// =============================================================================

package paxos

import (
	"sync"

	"github.com/senutpal/epochss/internal/storage"
)

// Acceptor is the voting role of a Paxos node.
type Acceptor struct {
	id      string
	storage storage.Storage
	mu      sync.Mutex
}

// NewAcceptor builds an Acceptor backed by the given storage.
func NewAcceptor(id string, s storage.Storage) *Acceptor {
	return &Acceptor{id: id, storage: s}
}

// HandlePrepare implements phase 1. Strictly greater than the highest
// promise is required: re-promising the same number would let a second
// proposer believe it also holds the promise at that number.
func (a *Acceptor) HandlePrepare(msg Prepare) interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()

	highestPromised, err := a.storage.LoadPromised()
	if err != nil {
		return Reject{ProposalNumber: msg.ProposalNumber, From: a.id}
	}

	if !msg.ProposalNumber.GreaterThan(highestPromised) {
		return Reject{
			ProposalNumber: msg.ProposalNumber,
			HighestSeen:    highestPromised,
			From:           a.id,
		}
	}

	if err := a.storage.SavePromised(msg.ProposalNumber); err != nil {
		return Reject{ProposalNumber: msg.ProposalNumber, From: a.id}
	}

	acceptedProposal, acceptedValue, err := a.storage.LoadAccepted()
	if err != nil {
		return Reject{ProposalNumber: msg.ProposalNumber, From: a.id}
	}

	return Promise{
		ProposalNumber:   msg.ProposalNumber,
		AcceptedProposal: acceptedProposal,
		AcceptedValue:    acceptedValue,
		From:             a.id,
		OK:               true,
	}
}

// HandleAccept implements phase 2. The comparison is >=, not >: if we
// promised N we must still accept an Accept at exactly N, or the promise
// we just made would be pointless.
func (a *Acceptor) HandleAccept(msg Accept) Accepted {
	a.mu.Lock()
	defer a.mu.Unlock()

	highestPromised, err := a.storage.LoadPromised()
	if err != nil || !msg.ProposalNumber.GreaterOrEqual(highestPromised) {
		return Accepted{ProposalNumber: msg.ProposalNumber, From: a.id, OK: false}
	}

	if err := a.storage.SavePromised(msg.ProposalNumber); err != nil {
		return Accepted{ProposalNumber: msg.ProposalNumber, From: a.id, OK: false}
	}
	if err := a.storage.SaveAccepted(msg.ProposalNumber, msg.Value); err != nil {
		return Accepted{ProposalNumber: msg.ProposalNumber, From: a.id, OK: false}
	}

	return Accepted{
		ProposalNumber: msg.ProposalNumber,
		Value:          msg.Value,
		From:           a.id,
		OK:             true,
	}
}

// GetState returns (highestPromised, acceptedProposal, acceptedValue), for
// debugging and testing.
func (a *Acceptor) GetState() (ProposalNumber, ProposalNumber, []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	promised, _ := a.storage.LoadPromised()
	accProp, accVal, _ := a.storage.LoadAccepted()
	return promised, accProp, accVal
}

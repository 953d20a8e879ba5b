// =============================================================================
// PAXOS MESSAGE TYPES
// =============================================================================
//
// Prepare/Promise/Reject (phase 1), Accept/Accepted (phase 2), Learn
// (notification) are the wire messages of the Paxos engine itself.
//
// Recovery/RecoveryAnswer are the two recovery-core messages from spec §6:
// a restarting replica broadcasts Recovery(epoch) and collects
// RecoveryAnswer replies until it reaches quorum and hears from the leader.
// =============================================================================

package paxos

// Prepare is phase 1 of Paxos: "I want to propose with number N".
type Prepare struct {
	ProposalNumber ProposalNumber
	From           string
}

func (p Prepare) GetFrom() string { return p.From }

// Promise is an acceptor's phase-1 reply granting a Prepare. AcceptedProposal
// and AcceptedValue carry forward whatever this acceptor already accepted,
// so the proposer can adopt it instead of clobbering a possibly-chosen value.
type Promise struct {
	ProposalNumber   ProposalNumber
	AcceptedProposal ProposalNumber
	AcceptedValue    []byte
	From             string
	OK               bool
}

func (p Promise) GetFrom() string { return p.From }

// Reject is an acceptor's phase-1 reply refusing a Prepare whose number is
// not above the acceptor's highest promise.
type Reject struct {
	ProposalNumber ProposalNumber
	HighestSeen    ProposalNumber
	From           string
}

func (r Reject) GetFrom() string { return r.From }

// Accept is phase 2 of Paxos: "please accept value V at proposal number N".
type Accept struct {
	ProposalNumber ProposalNumber
	Value          []byte
	From           string
}

func (a Accept) GetFrom() string { return a.From }

// Accepted is an acceptor's phase-2 reply.
type Accepted struct {
	ProposalNumber ProposalNumber
	Value          []byte
	From           string
	OK             bool
}

func (a Accepted) GetFrom() string { return a.From }

// Learn notifies learners that a value has been chosen.
type Learn struct {
	ProposalNumber ProposalNumber
	Value          []byte
	From           string
}

func (l Learn) GetFrom() string { return l.From }

// Recovery is the outbound probe a restarting replica broadcasts to all
// peers. View is carried in the header so peers can fold it into their
// own view tracking even before the recovery answer arrives (spec §6).
type Recovery struct {
	View  int64
	Epoch uint64
	From  string
}

func (r Recovery) GetFrom() string { return r.From }

// RecoveryAnswer is the inbound reply to Recovery. NextID is the sender's
// firstUncommitted: the smallest Paxos instance id not yet decided there.
type RecoveryAnswer struct {
	View        int64
	EpochVector []uint64
	NextID      uint64
	From        string
}

func (r RecoveryAnswer) GetFrom() string { return r.From }

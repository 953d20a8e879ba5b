// =============================================================================
// PROPOSAL NUMBERS - The Foundation of Paxos Ordering
// =============================================================================
//
// A proposal number totally orders every proposal issued by every proposer.
// Acceptors always prefer the higher number; ties are broken by proposer id
// so that no two proposers can ever generate the same number.
// =============================================================================

package paxos

import "fmt"

// ProposalNumber is (Round, ProposerID). Round is bumped by the proposer on
// every retry; ProposerID is the tiebreaker so concurrent proposers never
// collide on the same number.
type ProposalNumber struct {
	Round      int64
	ProposerID string
}

// NewProposalNumber builds a ProposalNumber from its two components.
func NewProposalNumber(round int64, proposerID string) ProposalNumber {
	return ProposalNumber{Round: round, ProposerID: proposerID}
}

// IsZero reports whether this is the zero value, which compares less than
// every real proposal number.
func (p ProposalNumber) IsZero() bool {
	return p.Round == 0 && p.ProposerID == ""
}

// LessThan compares round first, then proposer id lexicographically.
func (p ProposalNumber) LessThan(other ProposalNumber) bool {
	if p.Round != other.Round {
		return p.Round < other.Round
	}
	return p.ProposerID < other.ProposerID
}

// GreaterThan is the strict inverse of LessThan-or-equal.
func (p ProposalNumber) GreaterThan(other ProposalNumber) bool {
	return other.LessThan(p)
}

// Equal reports whether both components match exactly.
func (p ProposalNumber) Equal(other ProposalNumber) bool {
	return p.Round == other.Round && p.ProposerID == other.ProposerID
}

// GreaterOrEqual is GreaterThan(other) || Equal(other); acceptors use this
// form when deciding whether to honor an Accept at the number they promised.
func (p ProposalNumber) GreaterOrEqual(other ProposalNumber) bool {
	return p.Equal(other) || p.GreaterThan(other)
}

func (p ProposalNumber) String() string {
	return fmt.Sprintf("(round=%d, proposer=%s)", p.Round, p.ProposerID)
}

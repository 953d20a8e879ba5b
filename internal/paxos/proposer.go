// =============================================================================
// PROPOSER - The Driver of Paxos Consensus
// =============================================================================
//
// Phase 1 (prepare): pick a proposal number higher than any used before,
// broadcast it, and wait for a majority of promises. If any acceptor has
// already accepted a value, adopt the highest-numbered one instead of the
// caller's value - that's the safety rule that makes phase 2 sound.
//
// Phase 2 (accept): broadcast Accept(N, V) and wait for a majority of
// Accepted replies, then notify learners.
//
// A rejection in either phase means some other proposer is ahead; bump the
// round past whatever it reported and retry from phase 1.
// =============================================================================

package paxos

import (
	"errors"
	"sync"
)

// ProposerTransport is the narrow transport surface the Proposer needs:
// broadcast a message to all acceptors, and block for the next reply.
// It intentionally does not depend on internal/transport so the proposer
// can run its blocking retry loop on its own goroutine, off the node's
// single-threaded dispatcher.
type ProposerTransport interface {
	Broadcast(msg interface{})
	Receive() (interface{}, error)
}

// ErrRejected is returned internally when an acceptor rejects a proposal;
// Propose retries rather than surfacing it to the caller.
var ErrRejected = errors.New("proposal rejected")

// Proposer drives the two Paxos phases to get a value chosen.
type Proposer struct {
	id              string
	highestRound    int64
	currentProposal ProposalNumber
	originalValue   []byte
	valueToPropose  []byte
	promises        []Promise
	quorumSize      int
	transport       ProposerTransport
	mu              sync.Mutex
}

// NewProposer builds a Proposer targeting quorumSize acceptors over the
// given transport.
func NewProposer(id string, quorumSize int, transport ProposerTransport) *Proposer {
	return &Proposer{
		id:         id,
		quorumSize: quorumSize,
		transport:  transport,
	}
}

// Propose drives phase 1 then phase 2, retrying with a higher round on any
// rejection, until a value is chosen. It returns the value actually chosen,
// which may differ from value if another proposer's accepted value won, or
// the transport's error if a Receive fails.
func (p *Proposer) Propose(value []byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.originalValue = value
	p.valueToPropose = value
	for {
		p.currentProposal = p.generateProposalNumber()
		p.promises = nil
		if err := p.runPhase1(); err != nil {
			if errors.Is(err, ErrRejected) {
				continue
			}
			return nil, err
		}
		if err := p.runPhase2(); err != nil {
			if errors.Is(err, ErrRejected) {
				continue
			}
			return nil, err
		}
		return p.valueToPropose, nil
	}
}

func (p *Proposer) runPhase1() error {
	prepareMsg := Prepare{
		ProposalNumber: p.currentProposal,
		From:           p.id,
	}
	p.transport.Broadcast(prepareMsg)

	promiseCount := 0
	for promiseCount < p.quorumSize {
		msg, err := p.transport.Receive()
		if err != nil {
			return err
		}
		switch m := msg.(type) {
		case Promise:
			if !m.ProposalNumber.Equal(p.currentProposal) {
				continue
			}
			if !m.OK {
				p.handleRejection(m.AcceptedProposal)
				return ErrRejected
			}
			p.promises = append(p.promises, m)
			promiseCount++
		case Reject:
			if !m.ProposalNumber.Equal(p.currentProposal) {
				continue
			}
			p.handleRejection(m.HighestSeen)
			return ErrRejected
		default:
			continue
		}
	}

	var highestAccepted ProposalNumber
	for _, promise := range p.promises {
		if !promise.AcceptedProposal.IsZero() && promise.AcceptedProposal.GreaterThan(highestAccepted) {
			highestAccepted = promise.AcceptedProposal
			p.valueToPropose = promise.AcceptedValue
		}
	}
	return nil
}

func (p *Proposer) runPhase2() error {
	acceptMsg := Accept{
		ProposalNumber: p.currentProposal,
		Value:          p.valueToPropose,
		From:           p.id,
	}
	p.transport.Broadcast(acceptMsg)

	acceptedCount := 0
	for acceptedCount < p.quorumSize {
		msg, err := p.transport.Receive()
		if err != nil {
			return err
		}
		accepted, ok := msg.(Accepted)
		if !ok {
			continue
		}
		if !accepted.ProposalNumber.Equal(p.currentProposal) {
			continue
		}
		if !accepted.OK {
			return ErrRejected
		}
		acceptedCount++
	}

	learnMsg := Learn{
		ProposalNumber: p.currentProposal,
		Value:          p.valueToPropose,
		From:           p.id,
	}
	p.transport.Broadcast(learnMsg)
	return nil
}

func (p *Proposer) generateProposalNumber() ProposalNumber {
	p.highestRound++
	return ProposalNumber{
		Round:      p.highestRound,
		ProposerID: p.id,
	}
}

func (p *Proposer) handleRejection(highestSeen ProposalNumber) {
	if highestSeen.Round > p.highestRound {
		p.highestRound = highestSeen.Round
	}
}

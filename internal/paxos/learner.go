// =============================================================================
// LEARNER - The Observer of Paxos Consensus
// =============================================================================
//
// A value is chosen once a majority of acceptors have accepted it at the
// same proposal number. The learner counts Accepted replies per proposal
// number and records the value as chosen the moment it sees a majority.
// The chosen value is kept only in the Learner itself; it is not written
// into storage's decided log, so it does not advance FirstUncommitted.
// =============================================================================

package paxos

import "sync"

// Learner counts Accepted replies and reports the chosen value once a
// majority has accepted the same (proposal number, value) pair.
type Learner struct {
	id         string
	quorumSize int

	mu       sync.Mutex
	counts   map[ProposalNumber]map[string]struct{}
	values   map[ProposalNumber][]byte
	chosen   bool
	chosenAt ProposalNumber
	value    []byte
	waiters  []chan struct{}
}

// NewLearner builds a Learner requiring quorumSize distinct Accepted
// replies at the same proposal number before declaring a value chosen.
func NewLearner(id string, quorumSize int) *Learner {
	return &Learner{
		id:         id,
		quorumSize: quorumSize,
		counts:     make(map[ProposalNumber]map[string]struct{}),
		values:     make(map[ProposalNumber][]byte),
	}
}

// HandleAccepted absorbs one Accepted reply. Idempotent: a repeated
// Accepted from the same sender at the same proposal number does not
// double-count toward the majority.
func (l *Learner) HandleAccepted(msg Accepted) {
	if !msg.OK {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.chosen {
		return
	}

	senders, ok := l.counts[msg.ProposalNumber]
	if !ok {
		senders = make(map[string]struct{})
		l.counts[msg.ProposalNumber] = senders
		l.values[msg.ProposalNumber] = msg.Value
	}
	senders[msg.From] = struct{}{}

	if len(senders) >= l.quorumSize {
		l.chosen = true
		l.chosenAt = msg.ProposalNumber
		l.value = l.values[msg.ProposalNumber]
		for _, w := range l.waiters {
			close(w)
		}
		l.waiters = nil
	}
}

// HandleLearn accepts a direct Learn notification (the proposer-drives-it
// path) as an alternative to counting Accepted replies.
func (l *Learner) HandleLearn(msg Learn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.chosen {
		return
	}
	l.chosen = true
	l.chosenAt = msg.ProposalNumber
	l.value = msg.Value
	for _, w := range l.waiters {
		close(w)
	}
	l.waiters = nil
}

// GetChosenValue returns the chosen value and whether one has been chosen
// yet.
func (l *Learner) GetChosenValue() ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.chosen
}

// WaitForChosen returns a channel that is closed once a value is chosen.
// If one is already chosen, the returned channel is already closed.
func (l *Learner) WaitForChosen() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch := make(chan struct{})
	if l.chosen {
		close(ch)
		return ch
	}
	l.waiters = append(l.waiters, ch)
	return ch
}

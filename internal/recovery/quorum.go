// =============================================================================
// QUORUMGATHERER - Pure Projection Over QuorumState (spec.md §4.4)
// =============================================================================
//
// A small set of pure functions over (existing QuorumState, new
// RecoveryAnswer, sender id). Kept separate from RecoveryCoordinator so the
// quorum/leader bookkeeping can be tested without any transport, timer, or
// dispatcher machinery in the loop.
//
// absorb is idempotent for a repeated message from the same sender: the
// second absorb of an identical answer marks the same sender as received
// (already true) and, because epoch-vector merge is itself element-wise
// max, merging the same vector a second time changes nothing.
// =============================================================================

package recovery

import (
	"strconv"

	"github.com/senutpal/epochss/internal/paxos"
)

// QuorumGatherer evaluates RecoveryAnswer messages against a quorum
// threshold and tracks the apparent leader's latest answer.
type QuorumGatherer struct {
	n int
}

// NewQuorumGatherer builds a QuorumGatherer for an N-replica ensemble.
func NewQuorumGatherer(n int) *QuorumGatherer {
	return &QuorumGatherer{n: n}
}

// Absorb folds answer from sender into state. It marks sender as received,
// and - only if sender is the leader of answer's own view - records answer
// as the latest leader reply (spec.md: "the most recent leader reply
// wins"). The caller is responsible for the epoch-vector merge and view
// bump into storage (spec.md §4.3 step 2-3); Absorb only tracks quorum
// membership and leader identity.
func (g *QuorumGatherer) Absorb(state *QuorumState, answer paxos.RecoveryAnswer, sender string) {
	state.Received[sender] = struct{}{}

	if LeaderID(answer.View, g.n) == sender {
		ans := answer
		state.AnswerFromLeader = &ans
	}
}

// IsQuorum reports whether state.Received, plus the local replica itself
// (which never appears in Received but is always implicitly counted), has
// reached strict majority: 1+|received| > N/2, i.e. |received| > N/2-1.
// For N=2 this requires exactly one peer reply (the only peer that can
// ever exist); for N=3 it likewise requires exactly one of the two peers,
// so a single dead peer never blocks recovery.
func (g *QuorumGatherer) IsQuorum(state *QuorumState) bool {
	return len(state.Received) > g.n/2-1
}

// LeaderAnswer returns the recorded leader reply, if any.
func (g *QuorumGatherer) LeaderAnswer(state *QuorumState) (paxos.RecoveryAnswer, bool) {
	if state.AnswerFromLeader == nil {
		return paxos.RecoveryAnswer{}, false
	}
	return *state.AnswerFromLeader, true
}

// LeaderID returns the replica id (as a string, matching the From/peer id
// convention used throughout this package) that is leader of view v among
// n replicas.
func LeaderID(v int64, n int) string {
	id := v % int64(n)
	if id < 0 {
		id += int64(n)
	}
	return strconv.FormatInt(id, 10)
}

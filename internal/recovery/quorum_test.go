package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senutpal/epochss/internal/paxos"
)

func TestLeaderID(t *testing.T) {
	assert.Equal(t, "0", LeaderID(0, 3))
	assert.Equal(t, "1", LeaderID(1, 3))
	assert.Equal(t, "2", LeaderID(2, 3))
	assert.Equal(t, "0", LeaderID(3, 3))
	assert.Equal(t, "2", LeaderID(-1, 3), "a negative view must still resolve to a valid replica id")
}

func TestQuorumGathererIsQuorumThreshold(t *testing.T) {
	// N=5: strict majority is 3 of 5, and self counts as one of them, so
	// quorum is reached once 2 peers (not 3) have answered.
	g := NewQuorumGatherer(5)
	state := NewQuorumState()

	g.Absorb(state, paxos.RecoveryAnswer{View: 0, From: "1"}, "1")
	assert.False(t, g.IsQuorum(state), "self+1 peer is 2 of 5, not a strict majority")

	g.Absorb(state, paxos.RecoveryAnswer{View: 0, From: "2"}, "2")
	assert.True(t, g.IsQuorum(state), "self+2 peers is 3 of 5, a strict majority")
}

func TestQuorumGathererIsQuorumBoundaryN2(t *testing.T) {
	// N=2: only one peer can ever exist; quorum (self + that one peer)
	// must be reached as soon as it answers, not require a second peer
	// that does not exist.
	g := NewQuorumGatherer(2)
	state := NewQuorumState()

	assert.False(t, g.IsQuorum(state), "no peer has answered yet")
	g.Absorb(state, paxos.RecoveryAnswer{View: 0, From: "1"}, "1")
	assert.True(t, g.IsQuorum(state), "the only possible peer has answered")
}

func TestQuorumGathererRecordsLeaderAnswerOnlyFromLeader(t *testing.T) {
	g := NewQuorumGatherer(3)
	state := NewQuorumState()

	// View 1's leader is replica "1" (1 mod 3).
	g.Absorb(state, paxos.RecoveryAnswer{View: 1, From: "2", NextID: 10}, "2")
	_, ok := g.LeaderAnswer(state)
	assert.False(t, ok, "a non-leader's answer must not be recorded as the leader reply")

	g.Absorb(state, paxos.RecoveryAnswer{View: 1, From: "1", NextID: 42}, "1")
	answer, ok := g.LeaderAnswer(state)
	require.True(t, ok)
	assert.Equal(t, uint64(42), answer.NextID)
}

func TestQuorumGathererAbsorbIsIdempotent(t *testing.T) {
	g := NewQuorumGatherer(3)
	state := NewQuorumState()

	answer := paxos.RecoveryAnswer{View: 1, From: "1", NextID: 5}
	g.Absorb(state, answer, "1")
	g.Absorb(state, answer, "1")

	assert.Len(t, state.Received, 1)
	got, ok := g.LeaderAnswer(state)
	require.True(t, ok)
	assert.Equal(t, uint64(5), got.NextID)
}

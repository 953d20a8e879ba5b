package paxos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senutpal/epochss/internal/storage"
)

func TestAcceptorHandlePrepareBoundary(t *testing.T) {
	st := storage.NewMemoryStorage(3)
	a := NewAcceptor("acceptor-0", st)

	p1 := NewProposalNumber(1, "proposer-a")
	resp := a.HandlePrepare(Prepare{ProposalNumber: p1, From: "proposer-a"})
	promise, ok := resp.(Promise)
	require.True(t, ok)
	assert.True(t, promise.OK)

	// Re-prepare at the same number must be rejected: strictly greater is
	// required, not greater-or-equal.
	resp = a.HandlePrepare(Prepare{ProposalNumber: p1, From: "proposer-b"})
	reject, ok := resp.(Reject)
	require.True(t, ok)
	assert.Equal(t, p1, reject.HighestSeen)

	p2 := NewProposalNumber(2, "proposer-b")
	resp = a.HandlePrepare(Prepare{ProposalNumber: p2, From: "proposer-b"})
	promise, ok = resp.(Promise)
	require.True(t, ok)
	assert.True(t, promise.OK)
}

func TestAcceptorHandleAcceptBoundary(t *testing.T) {
	st := storage.NewMemoryStorage(3)
	a := NewAcceptor("acceptor-0", st)

	p1 := NewProposalNumber(1, "proposer-a")
	a.HandlePrepare(Prepare{ProposalNumber: p1, From: "proposer-a"})

	// Accept at exactly the promised number must succeed (>=, not >).
	accepted := a.HandleAccept(Accept{ProposalNumber: p1, Value: []byte("v1"), From: "proposer-a"})
	assert.True(t, accepted.OK)

	// Accept below the promised number must be rejected.
	stale := NewProposalNumber(0, "proposer-z")
	accepted = a.HandleAccept(Accept{ProposalNumber: stale, Value: []byte("stale"), From: "proposer-z"})
	assert.False(t, accepted.OK)

	_, accProp, accVal := a.GetState()
	assert.Equal(t, p1, accProp)
	assert.Equal(t, []byte("v1"), accVal)
}

func TestAcceptorAdoptsPriorAcceptedValue(t *testing.T) {
	st := storage.NewMemoryStorage(3)
	a := NewAcceptor("acceptor-0", st)

	p1 := NewProposalNumber(1, "proposer-a")
	a.HandlePrepare(Prepare{ProposalNumber: p1, From: "proposer-a"})
	a.HandleAccept(Accept{ProposalNumber: p1, Value: []byte("v1"), From: "proposer-a"})

	p2 := NewProposalNumber(2, "proposer-b")
	resp := a.HandlePrepare(Prepare{ProposalNumber: p2, From: "proposer-b"})
	promise := resp.(Promise)
	assert.Equal(t, p1, promise.AcceptedProposal)
	assert.Equal(t, []byte("v1"), promise.AcceptedValue)
}

package paxos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProposalNumberOrdering(t *testing.T) {
	low := NewProposalNumber(1, "a")
	high := NewProposalNumber(2, "a")
	tieBreakLow := NewProposalNumber(1, "a")
	tieBreakHigh := NewProposalNumber(1, "b")

	assert.True(t, low.LessThan(high))
	assert.True(t, high.GreaterThan(low))
	assert.True(t, tieBreakLow.LessThan(tieBreakHigh))
	assert.True(t, low.Equal(tieBreakLow))
	assert.True(t, low.GreaterOrEqual(tieBreakLow))
	assert.False(t, low.GreaterThan(tieBreakLow))
}

func TestProposalNumberZero(t *testing.T) {
	var zero ProposalNumber
	assert.True(t, zero.IsZero())
	assert.False(t, NewProposalNumber(1, "a").IsZero())
	assert.True(t, NewProposalNumber(1, "a").GreaterThan(zero))
}

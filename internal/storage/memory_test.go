package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senutpal/epochss/internal/paxos"
)

func TestMemoryStoragePromiseAndAccept(t *testing.T) {
	s := NewMemoryStorage(3)

	p1 := paxos.NewProposalNumber(1, "a")
	require.NoError(t, s.SavePromised(p1))
	got, err := s.LoadPromised()
	require.NoError(t, err)
	assert.Equal(t, p1, got)

	require.NoError(t, s.SaveAccepted(p1, []byte("v1")))
	prop, val, err := s.LoadAccepted()
	require.NoError(t, err)
	assert.Equal(t, p1, prop)
	assert.Equal(t, []byte("v1"), val)
}

func TestMemoryStorageViewAndEpochVector(t *testing.T) {
	s := NewMemoryStorage(3)
	assert.Equal(t, int64(0), s.View())
	s.SetView(4)
	assert.Equal(t, int64(4), s.View())

	s.SetEpochVector([]uint64{1, 2, 3})
	assert.Equal(t, []uint64{1, 2, 3}, s.EpochVector())
}

func TestMemoryStorageMergeEpochVectorIsElementwiseMax(t *testing.T) {
	s := NewMemoryStorage(3)
	s.SetEpochVector([]uint64{2, 0, 5})

	require.NoError(t, s.MergeEpochVector([]uint64{1, 3, 4}))
	assert.Equal(t, []uint64{2, 3, 5}, s.EpochVector())
}

func TestMemoryStorageMergeEpochVectorRejectsLengthMismatch(t *testing.T) {
	s := NewMemoryStorage(3)
	err := s.MergeEpochVector([]uint64{1, 2})
	assert.Error(t, err)
}

func TestMemoryStorageAppendDecidedAdvancesFirstUncommitted(t *testing.T) {
	s := NewMemoryStorage(3)
	assert.Equal(t, uint64(0), s.FirstUncommitted())

	s.AppendDecided(1, []byte("v1"))
	assert.Equal(t, uint64(0), s.FirstUncommitted(), "a gap at 0 must not advance the boundary")

	s.AppendDecided(0, []byte("v0"))
	assert.Equal(t, uint64(2), s.FirstUncommitted(), "consecutive decided entries must close the gap")

	v, ok := s.Decided(1)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), v)

	_, ok = s.Decided(5)
	assert.False(t, ok)
}

func TestMemoryStorageReturnedSlicesAreCopies(t *testing.T) {
	s := NewMemoryStorage(2)
	s.SetEpochVector([]uint64{1, 1})
	vec := s.EpochVector()
	vec[0] = 99
	assert.Equal(t, []uint64{1, 1}, s.EpochVector(), "callers mutating a returned vector must not corrupt storage")
}

// =============================================================================
// IN-MEMORY STORAGE - Testing/Demo Implementation
// =============================================================================
//
// Stores everything in Go variables behind a single RWMutex. Not durable,
// but sufficient for unit tests, the demo, and the in-memory integration
// tests that exercise the recovery core end to end.
// =============================================================================

package storage

import (
	"fmt"
	"sync"

	"github.com/senutpal/epochss/internal/paxos"
)

// MemoryStorage is an in-memory Storage implementation.
type MemoryStorage struct {
	mu sync.RWMutex

	highestPromised  paxos.ProposalNumber
	acceptedProposal paxos.ProposalNumber
	acceptedValue    []byte

	view        int64
	epochVector []uint64

	decided          map[uint64][]byte
	firstUncommitted uint64
}

// NewMemoryStorage returns an empty MemoryStorage with an N-slot epoch
// vector (all zero) ready to be installed by StorageBootstrap.
func NewMemoryStorage(n int) *MemoryStorage {
	return &MemoryStorage{
		epochVector: make([]uint64, n),
		decided:     make(map[uint64][]byte),
	}
}

func (m *MemoryStorage) SavePromised(proposal paxos.ProposalNumber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.highestPromised = proposal
	return nil
}

func (m *MemoryStorage) LoadPromised() (paxos.ProposalNumber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.highestPromised, nil
}

func (m *MemoryStorage) SaveAccepted(proposal paxos.ProposalNumber, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acceptedProposal = proposal
	m.acceptedValue = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStorage) LoadAccepted() (paxos.ProposalNumber, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.acceptedProposal, append([]byte(nil), m.acceptedValue...), nil
}

func (m *MemoryStorage) View() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view
}

func (m *MemoryStorage) SetView(v int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = v
}

func (m *MemoryStorage) EpochVector() []uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]uint64(nil), m.epochVector...)
}

func (m *MemoryStorage) SetEpochVector(vec []uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epochVector = append([]uint64(nil), vec...)
}

// MergeEpochVector merges other into the stored vector element-wise by max.
// It rejects a length mismatch instead of silently truncating or padding,
// per spec.md §9's recommendation to reject malformed vectors outright.
func (m *MemoryStorage) MergeEpochVector(other []uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(other) != len(m.epochVector) {
		return fmt.Errorf("epoch vector length mismatch: got %d, want %d", len(other), len(m.epochVector))
	}
	for i, v := range other {
		if v > m.epochVector[i] {
			m.epochVector[i] = v
		}
	}
	return nil
}

func (m *MemoryStorage) AppendDecided(id uint64, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decided[id] = append([]byte(nil), value...)
	for {
		if _, ok := m.decided[m.firstUncommitted]; !ok {
			break
		}
		m.firstUncommitted++
	}
}

func (m *MemoryStorage) FirstUncommitted() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.firstUncommitted
}

func (m *MemoryStorage) Decided(id uint64) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.decided[id]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.highestPromised = paxos.ProposalNumber{}
	m.acceptedProposal = paxos.ProposalNumber{}
	m.acceptedValue = nil
	return nil
}

// =============================================================================
// RECOVERY CORE DATA MODEL (spec.md §3)
// =============================================================================

package recovery

import "github.com/senutpal/epochss/internal/paxos"

// State is one of the RecoveryCoordinator's five states.
type State int

const (
	// Bootstrapping is the initial state, entered before start() runs.
	Bootstrapping State = iota
	// Probing is entered after broadcasting the first Recovery probe.
	Probing
	// AwaitingLeader is entered when quorum was reached but the leader
	// never answered, so the probe has been narrowed to just the leader.
	AwaitingLeader
	// CatchingUp is entered once the leader has answered and the replica
	// is waiting for the catch-up subsystem to close the gap.
	CatchingUp
	// Live is the terminal state: the replica may send and accept
	// ordinary Paxos traffic.
	Live
)

func (s State) String() string {
	switch s {
	case Bootstrapping:
		return "Bootstrapping"
	case Probing:
		return "Probing"
	case AwaitingLeader:
		return "AwaitingLeader"
	case CatchingUp:
		return "CatchingUp"
	case Live:
		return "Live"
	default:
		return "Unknown"
	}
}

// QuorumState tracks which peers have answered and, if any has, the most
// recent answer from the replica that is believed to be leader.
//
// Invariant: answerFromLeader is set only when its originating peer's id
// equals answerFromLeader.view mod N (spec.md §3).
type QuorumState struct {
	Received         map[string]struct{}
	AnswerFromLeader *paxos.RecoveryAnswer
}

// NewQuorumState returns an empty QuorumState.
func NewQuorumState() *QuorumState {
	return &QuorumState{Received: make(map[string]struct{})}
}

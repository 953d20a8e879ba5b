// =============================================================================
// RECOVERYCOORDINATOR - Top-Level Recovery State Machine (spec.md §4.3)
// =============================================================================
//
// Owns the QuorumGatherer and the current Retransmitter handle exclusively.
// Touches EpochStore only during Bootstrapping (handled by Bootstrap,
// before this type exists). Touches Storage only via the mutation contract
// below - epoch-vector merge and view updates on incoming answers - and
// only ever from the dispatcher goroutine, so no extra locking is needed
// here beyond what Storage itself already does.
//
// State transition table (spec.md §4.3):
//
//	Bootstrapping --start, epoch==1-->            Live
//	Bootstrapping --start, epoch>1-->              Probing
//	Probing       --answer, no quorum-->           Probing
//	Probing       --answer, quorum+leader-->       CatchingUp
//	Probing       --answer, quorum, no leader-->   AwaitingLeader
//	AwaitingLeader--answer from leader-->          CatchingUp
//	CatchingUp    --catchUpSucceeded, reached-->   Live
//	CatchingUp    --catchUpSucceeded, short-->      CatchingUp
// =============================================================================

package recovery

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/senutpal/epochss/internal/catchup"
	"github.com/senutpal/epochss/internal/dispatcher"
	"github.com/senutpal/epochss/internal/paxos"
	"github.com/senutpal/epochss/internal/storage"
	"github.com/senutpal/epochss/internal/transport"
	"github.com/senutpal/epochss/pkg/router"
)

// RecoveryHandler serves Recovery probes from peers that are themselves
// recovering. Installed only once the coordinator reaches Live, per
// spec.md §6 ("only one of the two is installed at any time, never both").
type RecoveryHandler func(paxos.Recovery)

// Config bundles everything the coordinator needs at construction. None of
// it is owned by the coordinator except the Retransmitter it builds per
// probe and the QuorumGatherer it builds internally.
type Config struct {
	LocalID    int
	N          int
	LocalEpoch uint64

	Storage    storage.Storage
	Router     *router.Router
	Transport  transport.Transport
	Catchup    catchup.Subsystem
	Dispatcher *dispatcher.Dispatcher
	Logger     *logrus.Logger

	NewRetransmitter func(msg transport.Message, targets []string) RetransmitHandle

	// OnRecoveryFinished fires exactly once, when the coordinator reaches
	// Live.
	OnRecoveryFinished func()
	// RecoveryRequestHandler serves Recovery probes from peers once this
	// replica is Live.
	RecoveryRequestHandler RecoveryHandler
}

// Coordinator runs the EpochSS recovery protocol for one replica.
type Coordinator struct {
	cfg Config

	mu    sync.Mutex
	state State

	localIDStr string
	quorum     *QuorumGatherer
	quorumSt   *QuorumState

	answerSub       *router.Subscription
	recoverySub     *router.Subscription
	retransmit      RetransmitHandle
	catchupListener *catchup.Listener

	finishedFired bool

	// onFatal is invoked for every error class spec.md §7 marks fatal.
	// Defaults to panicking (equivalent to aborting the process); tests
	// override it to observe the failure instead of crashing the suite.
	onFatal func(error)
}

// New builds a Coordinator in the Bootstrapping state. Call Start to run
// it.
func New(cfg Config) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Coordinator{
		cfg:        cfg,
		state:      Bootstrapping,
		localIDStr: strconv.Itoa(cfg.LocalID),
		quorum:     NewQuorumGatherer(cfg.N),
		quorumSt:   NewQuorumState(),
		onFatal: func(err error) {
			panic(fmt.Sprintf("epochss: fatal recovery error: %v", err))
		},
	}
}

// State returns the coordinator's current state. Safe to call from any
// goroutine.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start runs the entry point described in spec.md §4.3.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.LocalEpoch == 1 {
		// No prior incarnation can exist: EpochStore.read() returned 0,
		// so this is the very first boot.
		c.goLiveLocked()
		return
	}

	if c.cfg.N == 1 {
		// A one-replica ensemble has no peers to probe and can never
		// receive a RecoveryAnswer; epoch semantics still apply (the
		// epoch was already bumped by Bootstrap), but quorum is
		// trivially just self, so go Live immediately rather than
		// probe forever.
		c.goLiveLocked()
		return
	}

	c.answerSub = c.cfg.Router.Subscribe(paxos.RecoveryAnswer{}, c.handleRouterMessage)
	c.broadcastProbeLocked(nil)
	c.state = Probing
	c.cfg.Logger.WithFields(logrus.Fields{
		"localID": c.cfg.LocalID,
		"epoch":   c.cfg.LocalEpoch,
	}).Info("recovery: probing for quorum")
}

func (c *Coordinator) handleRouterMessage(msg interface{}) {
	answer, ok := msg.(paxos.RecoveryAnswer)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handleAnswerLocked(answer)
}

// handleAnswerLocked implements the absorb semantics of spec.md §4.3.
func (c *Coordinator) handleAnswerLocked(answer paxos.RecoveryAnswer) {
	if c.state != Probing && c.state != AwaitingLeader {
		return
	}

	if len(answer.EpochVector) != c.cfg.N {
		c.cfg.Logger.WithFields(logrus.Fields{
			"from": answer.From,
			"got":  len(answer.EpochVector),
			"want": c.cfg.N,
		}).Warn("recovery: discarding RecoveryAnswer with malformed epoch vector")
		return
	}
	if answer.EpochVector[c.cfg.LocalID] != c.cfg.LocalEpoch {
		// Stale reply from a previous recovery attempt.
		c.cfg.Logger.WithFields(logrus.Fields{
			"from":       answer.From,
			"localEpoch": c.cfg.LocalEpoch,
			"sawEpoch":   answer.EpochVector[c.cfg.LocalID],
		}).Debug("recovery: discarding stale RecoveryAnswer")
		return
	}

	if err := c.cfg.Storage.MergeEpochVector(answer.EpochVector); err != nil {
		c.cfg.Logger.WithError(err).Warn("recovery: discarding RecoveryAnswer, merge failed")
		return
	}
	if answer.View > c.cfg.Storage.View() {
		c.cfg.Storage.SetView(answer.View)
	}

	c.quorum.Absorb(c.quorumSt, answer, answer.From)
	if c.retransmit != nil {
		c.retransmit.Stop(answer.From)
	}

	leaderAnswer, haveLeader := c.quorum.LeaderAnswer(c.quorumSt)

	switch {
	case haveLeader && c.quorum.IsQuorum(c.quorumSt):
		c.stopRetransmitLocked()
		c.answerSub.Cancel()
		c.answerSub = nil
		c.startCatchUpLocked(leaderAnswer)

	case c.state == Probing && c.quorum.IsQuorum(c.quorumSt):
		c.narrowToLeaderLocked()

	default:
		// Quorum not yet reached, or already narrowed and still waiting
		// on the leader specifically: stay put.
	}
}

func (c *Coordinator) narrowToLeaderLocked() {
	c.stopRetransmitLocked()

	target := LeaderID(c.cfg.Storage.View(), c.cfg.N)
	if target == c.localIDStr {
		// A merged view whose leader is ourselves can only mean every
		// peer disagreed with our own restored view in a way that loops
		// back to us - a transport/view invariant we do not expect to
		// see in practice. Treat it as the retransmitter failure class
		// spec.md §7 marks fatal rather than probe ourselves forever.
		c.onFatal(fmt.Errorf("recovery: narrowed leader is self (view=%d, n=%d)", c.cfg.Storage.View(), c.cfg.N))
		return
	}

	c.broadcastProbeLocked([]string{target})
	c.state = AwaitingLeader
	c.cfg.Logger.WithField("leader", target).Info("recovery: quorum reached without leader, narrowing probe")
}

func (c *Coordinator) broadcastProbeLocked(targets []string) {
	probe := paxos.Recovery{
		View:  c.cfg.Storage.View(),
		Epoch: c.cfg.LocalEpoch,
		From:  c.localIDStr,
	}
	c.retransmit = c.cfg.NewRetransmitter(probe, targets)
}

func (c *Coordinator) stopRetransmitLocked() {
	if c.retransmit != nil {
		c.retransmit.StopAll()
		c.retransmit = nil
	}
}

func (c *Coordinator) startCatchUpLocked(leaderAnswer paxos.RecoveryAnswer) {
	c.state = CatchingUp
	target := leaderAnswer.NextID
	c.catchupListener = catchup.NewListener(func(firstUncommitted uint64) {
		c.cfg.Dispatcher.Post(func() {
			c.onCatchUpSucceeded(target, firstUncommitted)
		})
	})
	if err := c.cfg.Catchup.Register(target, c.catchupListener); err != nil {
		c.onFatal(fmt.Errorf("recovery: register catch-up: %w", err))
		return
	}
	c.cfg.Logger.WithField("target", target).Info("recovery: leader answered, catching up")
}

func (c *Coordinator) onCatchUpSucceeded(target uint64, firstUncommitted uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != CatchingUp {
		return
	}

	if firstUncommitted >= target {
		if err := c.cfg.Catchup.Deregister(c.catchupListener); err != nil {
			c.onFatal(fmt.Errorf("recovery: deregister catch-up listener: %w", err))
			return
		}
		c.catchupListener = nil
		c.goLiveLocked()
		return
	}

	if err := c.cfg.Catchup.ForceCatchup(c.catchupListener); err != nil {
		c.onFatal(fmt.Errorf("recovery: force catch-up: %w", err))
	}
}

func (c *Coordinator) goLiveLocked() {
	c.state = Live
	c.recoverySub = c.cfg.Router.Subscribe(paxos.Recovery{}, func(msg interface{}) {
		if req, ok := msg.(paxos.Recovery); ok && c.cfg.RecoveryRequestHandler != nil {
			c.cfg.RecoveryRequestHandler(req)
		}
	})
	c.cfg.Logger.WithField("localID", c.cfg.LocalID).Info("recovery: reached Live")
	if !c.finishedFired && c.cfg.OnRecoveryFinished != nil {
		c.finishedFired = true
		c.cfg.OnRecoveryFinished()
	}
}

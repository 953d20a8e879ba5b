// =============================================================================
// NODE - Wiring The Paxos Engine To The Recovery Core
// =============================================================================
//
// A Node plays all three Paxos roles (proposer, acceptor, learner) the way
// the original single-file wiring did, but now gates them behind a
// RecoveryCoordinator: Propose/routeMessage only make sense once the
// replica has reached Live. The receive loop, start/stop lifecycle, and
// goroutine/WaitGroup shutdown discipline keep their original shape; what's
// new is the Dispatcher + Router fan-out the recovery core runs on, and the
// Bootstrap/EpochStore call that must complete before any of it starts.
// =============================================================================

package node

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/senutpal/epochss/internal/catchup"
	"github.com/senutpal/epochss/internal/dispatcher"
	"github.com/senutpal/epochss/internal/epochstore"
	"github.com/senutpal/epochss/internal/paxos"
	"github.com/senutpal/epochss/internal/recovery"
	"github.com/senutpal/epochss/internal/storage"
	"github.com/senutpal/epochss/internal/transport"
	"github.com/senutpal/epochss/pkg/router"
)

// RetransmitInterval is the cadence at which the recovery core resends its
// Recovery probe.
const RetransmitInterval = 250 * time.Millisecond

// PeerStorage resolves a peer id to its storage, for the in-memory catch-up
// reference implementation (internal/catchup.Fetcher is a same-process
// stand-in for a real catch-up subsystem, so it needs a way to "reach" the
// leader's log without going over the wire).
type PeerStorage func(id string) (storage.Storage, bool)

// Options configures New.
type Options struct {
	LocalID     int
	N           int
	EpochPath   string
	Network     *transport.Network
	Peers       []string // every node id except LocalID
	PeerStorage PeerStorage
	Clock       clockwork.Clock // nil -> real clock
	Logger      *logrus.Logger

	// RetransmitInterval overrides RetransmitInterval above; zero keeps
	// the default.
	RetransmitInterval time.Duration
}

// Node wires one replica's Paxos engine and recovery core together.
type Node struct {
	id         string
	proposer   *paxos.Proposer
	acceptor   *paxos.Acceptor
	learner    *paxos.Learner
	transport  transport.Transport
	storage    storage.Storage
	quorumSize int
	logger     *logrus.Logger

	dispatcher  *dispatcher.Dispatcher
	router      *router.Router
	coordinator *recovery.Coordinator

	recoveryFinished chan struct{}

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New bootstraps storage and the local epoch (recovery.Bootstrap), builds
// the Paxos engine, and wires a RecoveryCoordinator in front of it. It does
// not start anything; call Start.
func New(opts Options) (*Node, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	retransmitInterval := opts.RetransmitInterval
	if retransmitInterval == 0 {
		retransmitInterval = RetransmitInterval
	}

	id := strconv.Itoa(opts.LocalID)
	quorumSize := opts.N/2 + 1

	st, localEpoch, err := recovery.Bootstrap(opts.LocalID, opts.N, epochstore.New(opts.EpochPath))
	if err != nil {
		return nil, err
	}

	t := opts.Network.NewTransport(id, opts.Peers)

	acceptor := paxos.NewAcceptor(id, st)
	learner := paxos.NewLearner(id, quorumSize)
	proposer := paxos.NewProposer(id, quorumSize, &proposerTransportAdapter{transport: t})

	n := &Node{
		id:               id,
		proposer:         proposer,
		acceptor:         acceptor,
		learner:          learner,
		transport:        t,
		storage:          st,
		quorumSize:       quorumSize,
		logger:           logger,
		dispatcher:       dispatcher.New(),
		router:           router.New(),
		recoveryFinished: make(chan struct{}),
		stopCh:           make(chan struct{}),
	}

	peerSource := func() (storage.Storage, bool) {
		if opts.PeerStorage == nil {
			return nil, false
		}
		leader := recovery.LeaderID(st.View(), opts.N)
		return opts.PeerStorage(leader)
	}
	fetcher := catchup.NewFetcher(st, peerSource, func(fn func()) { n.dispatcher.Post(fn) }, 1<<20)

	n.coordinator = recovery.New(recovery.Config{
		LocalID:    opts.LocalID,
		N:          opts.N,
		LocalEpoch: localEpoch,
		Storage:    st,
		Router:     n.router,
		Transport:  t,
		Catchup:    fetcher,
		Dispatcher: n.dispatcher,
		Logger:     logger,
		NewRetransmitter: func(msg transport.Message, targets []string) recovery.RetransmitHandle {
			return recovery.NewRetransmitter(t, clock, retransmitInterval).StartTransmitting(msg, targets)
		},
		OnRecoveryFinished: func() {
			close(n.recoveryFinished)
		},
		RecoveryRequestHandler: func(req paxos.Recovery) {
			n.logger.WithField("from", req.From).Debug("node: serving Recovery probe from a recovering peer")
			answer := paxos.RecoveryAnswer{
				View:        st.View(),
				EpochVector: st.EpochVector(),
				NextID:      st.FirstUncommitted(),
				From:        id,
			}
			if err := t.Send(req.From, answer); err != nil {
				n.logger.WithError(err).Debug("node: failed to answer Recovery probe")
			}
		},
	})

	return n, nil
}

// Start launches the dispatcher, the receive loop, and the recovery
// coordinator's entry point.
func (n *Node) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.running {
		return nil
	}
	n.running = true
	n.stopCh = make(chan struct{})
	n.dispatcher.Start()
	n.wg.Add(1)
	go n.handleMessages()
	n.dispatcher.Post(n.coordinator.Start)
	return nil
}

// Stop halts the receive loop, transport, and dispatcher.
func (n *Node) Stop() error {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return nil
	}
	n.running = false
	close(n.stopCh)
	n.mu.Unlock()
	n.wg.Wait()
	_ = n.transport.Close()
	n.dispatcher.Stop()
	return nil
}

// RecoveryFinished returns a channel that closes once the coordinator
// reaches Live.
func (n *Node) RecoveryFinished() <-chan struct{} {
	return n.recoveryFinished
}

// Live reports whether the recovery coordinator has reached Live.
func (n *Node) Live() bool {
	return n.coordinator.State() == recovery.Live
}

// State exposes the recovery coordinator's state, mainly for diagnostics.
func (n *Node) State() recovery.State {
	return n.coordinator.State()
}

// Storage exposes this node's Paxos volatile storage, so the demo and
// catch-up wiring can inspect view/epoch-vector/decided state directly.
func (n *Node) Storage() storage.Storage {
	return n.storage
}

func (n *Node) handleMessages() {
	defer n.wg.Done()
	for {
		select {
		case <-n.stopCh:
			return
		default:
			msg, err := n.transport.ReceiveTimeout(100 * time.Millisecond)
			if err == transport.ErrTimeout {
				continue
			}
			if err != nil {
				log.Printf("[%s] receive error: %v", n.id, err)
				continue
			}
			m := msg
			n.dispatcher.Post(func() { n.routeMessage(m) })
		}
	}
}

func (n *Node) routeMessage(msg transport.Message) {
	if !n.Live() {
		// Ordinary Paxos traffic is meaningless before recovery finishes;
		// Recovery/RecoveryAnswer are the only messages the coordinator's
		// own subscriptions expect during that window.
		switch msg.(type) {
		case paxos.Recovery, paxos.RecoveryAnswer:
			n.router.Dispatch(msg)
		default:
			n.logger.WithField("type", fmt.Sprintf("%T", msg)).Debug("node: dropping Paxos message before Live")
		}
		return
	}

	switch m := msg.(type) {
	case paxos.Prepare:
		response := n.acceptor.HandlePrepare(m)
		if respMsg, ok := response.(transport.Message); ok {
			_ = n.transport.Send(m.From, respMsg)
		}
	case paxos.Accept:
		response := n.acceptor.HandleAccept(m)
		_ = n.transport.Send(m.From, response)
		if response.OK {
			n.learner.HandleAccepted(response)
		}
	case paxos.Accepted:
		n.learner.HandleAccepted(m)
	case paxos.Learn:
		n.learner.HandleLearn(m)
	case paxos.Recovery, paxos.RecoveryAnswer:
		n.router.Dispatch(msg)
	default:
		n.logger.WithField("type", fmt.Sprintf("%T", msg)).Debug("node: unroutable message")
	}
}

// Propose drives the Paxos engine to get value chosen. It blocks until a
// value is chosen (possibly not the one passed in) or the transport fails.
func (n *Node) Propose(value []byte) ([]byte, error) {
	if !n.Live() {
		return nil, fmt.Errorf("node: cannot propose before recovery reaches Live (state=%s)", n.coordinator.State())
	}
	return n.proposer.Propose(value)
}

// GetChosenValue returns what the learner knows.
func (n *Node) GetChosenValue() ([]byte, bool) {
	return n.learner.GetChosenValue()
}

// ID returns this node's peer id.
func (n *Node) ID() string {
	return n.id
}

// proposerTransportAdapter narrows transport.Transport down to the
// ProposerTransport surface the Proposer's blocking retry loop needs,
// decoupling internal/paxos from internal/transport.
type proposerTransportAdapter struct {
	transport transport.Transport
}

func (a *proposerTransportAdapter) Broadcast(msg interface{}) {
	if m, ok := msg.(transport.Message); ok {
		a.transport.Broadcast(m)
	}
}

func (a *proposerTransportAdapter) Receive() (interface{}, error) {
	msg, err := a.transport.Receive()
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// =============================================================================
// RETRANSMITTER - Periodic Resend Until Stopped (spec.md §4.6)
// =============================================================================
//
// Contract required from this external component:
//
//   StartTransmitting(msg, nil)     -> Handle  // to all peers except self
//   StartTransmitting(msg, targets) -> Handle  // restricted to targets
//   Handle.Stop(peer)                          // stop resending to one peer
//   Handle.StopAll()                           // stop to everyone, invalidate
//
// Ordering/liveness guarantee: if Stop(peer) is called while a send to that
// peer is in flight, no further resend to that peer happens once Stop
// returns. This implementation gets that for free by serializing every
// tick and every Stop call behind the same mutex: a tick either completed
// before Stop acquired the lock (so Stop sees and removes the peer before
// any later tick runs) or Stop waits for the in-flight tick to finish first.
//
// The timer itself uses an injected clockwork.Clock (grounded on the
// pack's pattern of making periodic reconciliation loops unit-testable,
// see FluxForge's ticker-driven StartPeriodicReconciliation) instead of a
// bare time.Ticker, so retransmit_test.go can advance a fake clock instead
// of sleeping.
// =============================================================================

package recovery

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/senutpal/epochss/internal/transport"
)

// RetransmitHandle controls an in-flight retransmission.
type RetransmitHandle interface {
	// Stop halts resending to peer only; other targets keep being resent
	// to. Calling Stop for a peer not being resent to is a no-op.
	Stop(peer string)
	// StopAll halts resending to every remaining target and invalidates
	// the handle.
	StopAll()
}

// Retransmitter resends a message to a set of peers on a cadence until
// told to stop, per peer or entirely.
type Retransmitter interface {
	// StartTransmitting begins resending msg to targets (or, if targets
	// is nil, to every peer the transport knows about) every interval
	// until stopped.
	StartTransmitting(msg transport.Message, targets []string) RetransmitHandle
}

// timerRetransmitter is the concrete Retransmitter used outside of tests.
type timerRetransmitter struct {
	transport transport.Transport
	clock     clockwork.Clock
	interval  time.Duration
}

// NewRetransmitter builds a Retransmitter that resends over t every
// interval, using clock as its time source.
func NewRetransmitter(t transport.Transport, clock clockwork.Clock, interval time.Duration) Retransmitter {
	return &timerRetransmitter{transport: t, clock: clock, interval: interval}
}

func (r *timerRetransmitter) StartTransmitting(msg transport.Message, targets []string) RetransmitHandle {
	if targets == nil {
		targets = r.transport.Peers()
	}
	h := &retransmitHandle{
		transport: r.transport,
		msg:       msg,
		active:    make(map[string]bool, len(targets)),
		stopCh:    make(chan struct{}),
	}
	for _, p := range targets {
		h.active[p] = true
	}

	ticker := r.clock.NewTicker(r.interval)
	go h.run(ticker)
	return h
}

type retransmitHandle struct {
	transport transport.Transport
	msg       transport.Message

	mu     sync.Mutex
	active map[string]bool
	stopCh chan struct{}
	done   bool
}

func (h *retransmitHandle) run(ticker clockwork.Ticker) {
	defer ticker.Stop()
	// Send once immediately so a slow cadence doesn't delay the first
	// probe.
	h.tick()
	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.Chan():
			h.tick()
		}
	}
}

func (h *retransmitHandle) tick() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for p, on := range h.active {
		if on {
			_ = h.transport.Send(p, h.msg)
		}
	}
}

func (h *retransmitHandle) Stop(peer string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.active, peer)
}

func (h *retransmitHandle) StopAll() {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		return
	}
	h.done = true
	h.active = nil
	h.mu.Unlock()
	close(h.stopCh)
}

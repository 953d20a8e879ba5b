// =============================================================================
// IN-MEMORY TRANSPORT - Single-Process Network Simulation
// =============================================================================
//
// All nodes run in the same process and exchange messages over per-node
// buffered channels registered in a shared Network. Good enough to drive
// the demo and the recovery core's integration tests without sockets.
// =============================================================================

package transport

import (
	"sync"
	"time"
)

const inboxSize = 256

// Network is the shared registry of per-node inboxes that MemoryTransport
// instances send into.
type Network struct {
	mu      sync.RWMutex
	inboxes map[string]chan Message
	closed  map[string]bool
}

// NewNetwork returns an empty Network.
func NewNetwork() *Network {
	return &Network{
		inboxes: make(map[string]chan Message),
		closed:  make(map[string]bool),
	}
}

// NewTransport registers nodeID with the network and returns its
// Transport. peers is the full set of other node ids this transport will
// broadcast to.
func (n *Network) NewTransport(nodeID string, peers []string) *MemoryTransport {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inboxes[nodeID] = make(chan Message, inboxSize)
	return &MemoryTransport{
		id:      nodeID,
		peers:   append([]string(nil), peers...),
		network: n,
	}
}

func (n *Network) deliver(to string, msg Message) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed[to] {
		return ErrClosed
	}
	inbox, ok := n.inboxes[to]
	if !ok {
		return ErrUnknownPeer
	}
	select {
	case inbox <- msg:
	default:
		// Slow receiver: drop rather than block the sender, consistent
		// with the "never blocks the dispatcher" rule in spec.md §5.
	}
	return nil
}

func (n *Network) closeNode(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed[id] = true
}

// MemoryTransport is the per-node Transport handle into a shared Network.
type MemoryTransport struct {
	id      string
	peers   []string
	network *Network
}

func (t *MemoryTransport) Send(to string, msg Message) error {
	return t.network.deliver(to, msg)
}

func (t *MemoryTransport) Broadcast(msg Message) {
	for _, p := range t.peers {
		_ = t.network.deliver(p, msg)
	}
}

func (t *MemoryTransport) Peers() []string {
	return append([]string(nil), t.peers...)
}

func (t *MemoryTransport) Receive() (Message, error) {
	t.network.mu.RLock()
	inbox, ok := t.network.inboxes[t.id]
	closed := t.network.closed[t.id]
	t.network.mu.RUnlock()
	if !ok || closed {
		return nil, ErrClosed
	}
	msg, ok := <-inbox
	if !ok {
		return nil, ErrClosed
	}
	return msg, nil
}

func (t *MemoryTransport) ReceiveTimeout(timeout time.Duration) (Message, error) {
	t.network.mu.RLock()
	inbox, ok := t.network.inboxes[t.id]
	closed := t.network.closed[t.id]
	t.network.mu.RUnlock()
	if !ok || closed {
		return nil, ErrClosed
	}
	select {
	case msg, ok := <-inbox:
		if !ok {
			return nil, ErrClosed
		}
		return msg, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}

func (t *MemoryTransport) Close() error {
	t.network.closeNode(t.id)
	return nil
}

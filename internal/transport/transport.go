// =============================================================================
// TRANSPORT INTERFACE - Abstraction for Message Passing
// =============================================================================
//
// Paxos assumes an asynchronous network: messages may be delayed, reordered
// across senders (never within one sender, per spec.md §5), or dropped, but
// never corrupted or forged. This interface is deliberately small so an
// in-memory implementation (for tests and the demo) and a real networked
// one can both satisfy it without Paxos or recovery code changing.
// =============================================================================

package transport

import (
	"errors"
	"time"
)

// Message is anything with a sender. Every Paxos and recovery message type
// implements this via its GetFrom method.
type Message interface {
	GetFrom() string
}

// ErrTimeout is returned by ReceiveTimeout when no message arrives in time.
var ErrTimeout = errors.New("transport: receive timeout")

// ErrClosed is returned by Receive on a closed transport, and by Send to a
// peer whose transport is closed.
var ErrClosed = errors.New("transport: closed")

// ErrUnknownPeer is returned by Send when the destination is not registered
// on the network at all.
var ErrUnknownPeer = errors.New("transport: unknown peer")

// Transport sends and receives messages between Paxos nodes. Send and
// Broadcast never block on delivery; Receive/ReceiveTimeout block on this
// node's own inbox.
type Transport interface {
	// Send delivers msg to the single peer named by to. It does not
	// guarantee delivery.
	Send(to string, msg Message) error
	// Broadcast delivers msg to every peer except self.
	Broadcast(msg Message)
	// Peers returns every peer id except self, in a stable order.
	Peers() []string
	// Receive blocks until a message arrives for this node.
	Receive() (Message, error)
	// ReceiveTimeout is like Receive but returns ErrTimeout if nothing
	// arrives within timeout.
	ReceiveTimeout(timeout time.Duration) (Message, error)
	// Close shuts down the transport; further Receive calls on it, and
	// Sends from any peer to it, return ErrClosed.
	Close() error
}

// =============================================================================
// ROUTER - Explicit Per-Type Subscription, No Global State
// =============================================================================
//
// The original S-Paxos source dispatches messages through a process-wide
// listener registry keyed by message type: any component can add or remove
// a listener for any type, anywhere, at any time. That makes listener
// lifetime an emergent property of the whole program instead of something
// any one piece of code owns, and it is exactly the kind of thing that
// leaks a stale listener (spec.md §9's redesign flag).
//
// Router replaces it with one Router instance per Node, owned by the node
// and handed to the recovery coordinator at construction; the node routes
// ordinary Paxos traffic to its engine directly. Subscribing returns a
// Subscription handle with its own identity; dropping it is the only way
// to stop receiving, and a dropped Subscription can be observed as dropped
// through HasSubscribers (the coordinator tests check the "never both
// Recovery and RecoveryAnswer listeners" rule with it).
// =============================================================================

package router

import (
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Handler receives one message of the subscribed type.
type Handler func(msg interface{})

// Subscription identifies one Subscribe call. Cancel is idempotent.
type Subscription struct {
	id     uuid.UUID
	msgTyp reflect.Type
	router *Router
}

// Cancel removes this subscription. Calling Cancel more than once, or on a
// Subscription whose Router has already dropped it, is a no-op.
func (s *Subscription) Cancel() {
	if s == nil || s.router == nil {
		return
	}
	s.router.unsubscribe(s.msgTyp, s.id)
}

// Router is a typed pub/sub bus. Each Node owns exactly one.
type Router struct {
	mu   sync.RWMutex
	subs map[reflect.Type]map[uuid.UUID]Handler
}

// New returns an empty Router.
func New() *Router {
	return &Router{subs: make(map[reflect.Type]map[uuid.UUID]Handler)}
}

// Subscribe registers handler for every message with the same dynamic type
// as sample. The returned Subscription must be cancelled when the caller is
// done listening.
func (r *Router) Subscribe(sample interface{}, handler Handler) *Subscription {
	t := reflect.TypeOf(sample)

	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.subs[t]
	if !ok {
		m = make(map[uuid.UUID]Handler)
		r.subs[t] = m
	}
	id := uuid.New()
	m[id] = handler
	return &Subscription{id: id, msgTyp: t, router: r}
}

func (r *Router) unsubscribe(t reflect.Type, id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.subs[t]; ok {
		delete(m, id)
		if len(m) == 0 {
			delete(r.subs, t)
		}
	}
}

// Dispatch delivers msg to every handler currently subscribed to msg's
// dynamic type. Handlers run synchronously, on the caller's goroutine -
// in this codebase that is always the single dispatcher goroutine.
func (r *Router) Dispatch(msg interface{}) {
	t := reflect.TypeOf(msg)
	r.mu.RLock()
	handlers := make([]Handler, 0, len(r.subs[t]))
	for _, h := range r.subs[t] {
		handlers = append(handlers, h)
	}
	r.mu.RUnlock()
	for _, h := range handlers {
		h(msg)
	}
}

// HasSubscribers reports whether any handler is currently subscribed to
// sample's dynamic type. Used by tests asserting spec.md invariant 4: the
// RecoveryAnswer listener and the Recovery handler are never both
// installed at once.
func (r *Router) HasSubscribers(sample interface{}) bool {
	t := reflect.TypeOf(sample)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[t]) > 0
}

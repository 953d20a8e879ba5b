package recovery

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senutpal/epochss/internal/transport"
)

func TestRetransmitterSendsImmediatelyThenOnCadence(t *testing.T) {
	net := transport.NewNetwork()
	a := net.NewTransport("a", []string{"b"})
	b := net.NewTransport("b", []string{"a"})

	clock := clockwork.NewFakeClock()
	r := NewRetransmitter(a, clock, time.Second)
	h := r.StartTransmitting(fakeMsg{from: "a"}, []string{"b"})
	defer h.StopAll()

	_, err := b.ReceiveTimeout(time.Second)
	require.NoError(t, err, "the first send must happen immediately, not after one interval")

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	_, err = b.ReceiveTimeout(time.Second)
	require.NoError(t, err, "a tick must resend")
}

func TestRetransmitterStopHaltsOneTarget(t *testing.T) {
	net := transport.NewNetwork()
	a := net.NewTransport("a", []string{"b", "c"})
	b := net.NewTransport("b", []string{"a"})
	c := net.NewTransport("c", []string{"a"})

	clock := clockwork.NewFakeClock()
	r := NewRetransmitter(a, clock, time.Second)
	h := r.StartTransmitting(fakeMsg{from: "a"}, []string{"b", "c"})
	defer h.StopAll()

	_, err := b.ReceiveTimeout(time.Second)
	require.NoError(t, err)
	_, err = c.ReceiveTimeout(time.Second)
	require.NoError(t, err)

	h.Stop("b")

	clock.BlockUntil(1)
	clock.Advance(time.Second)

	_, err = c.ReceiveTimeout(time.Second)
	require.NoError(t, err, "c must still be resent to")
	_, err = b.ReceiveTimeout(50 * time.Millisecond)
	assert.ErrorIs(t, err, transport.ErrTimeout, "b must no longer receive resends after Stop")
}

func TestRetransmitterStopAllInvalidatesHandle(t *testing.T) {
	net := transport.NewNetwork()
	a := net.NewTransport("a", []string{"b"})
	b := net.NewTransport("b", []string{"a"})

	clock := clockwork.NewFakeClock()
	r := NewRetransmitter(a, clock, time.Second)
	h := r.StartTransmitting(fakeMsg{from: "a"}, []string{"b"})

	_, err := b.ReceiveTimeout(time.Second)
	require.NoError(t, err)

	h.StopAll()
	assert.NotPanics(t, func() { h.StopAll() }, "StopAll must be idempotent")

	_, err = b.ReceiveTimeout(50 * time.Millisecond)
	assert.ErrorIs(t, err, transport.ErrTimeout)
}

type fakeMsg struct{ from string }

func (f fakeMsg) GetFrom() string { return f.from }

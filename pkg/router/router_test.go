package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleA struct{ v int }
type sampleB struct{ v string }

func TestRouterDispatchesByDynamicType(t *testing.T) {
	r := New()
	var gotA []int
	var gotB []string

	r.Subscribe(sampleA{}, func(msg interface{}) {
		gotA = append(gotA, msg.(sampleA).v)
	})
	r.Subscribe(sampleB{}, func(msg interface{}) {
		gotB = append(gotB, msg.(sampleB).v)
	})

	r.Dispatch(sampleA{v: 1})
	r.Dispatch(sampleB{v: "x"})
	r.Dispatch(sampleA{v: 2})

	assert.Equal(t, []int{1, 2}, gotA)
	assert.Equal(t, []string{"x"}, gotB)
}

func TestRouterCancelStopsDelivery(t *testing.T) {
	r := New()
	calls := 0
	sub := r.Subscribe(sampleA{}, func(msg interface{}) { calls++ })

	r.Dispatch(sampleA{v: 1})
	assert.Equal(t, 1, calls)

	sub.Cancel()
	r.Dispatch(sampleA{v: 2})
	assert.Equal(t, 1, calls, "a cancelled subscription must not be invoked again")
}

func TestRouterCancelIsIdempotent(t *testing.T) {
	r := New()
	sub := r.Subscribe(sampleA{}, func(msg interface{}) {})
	sub.Cancel()
	assert.NotPanics(t, func() { sub.Cancel() })

	var nilSub *Subscription
	assert.NotPanics(t, func() { nilSub.Cancel() })
}

func TestRouterHasSubscribers(t *testing.T) {
	r := New()
	assert.False(t, r.HasSubscribers(sampleA{}))
	sub := r.Subscribe(sampleA{}, func(msg interface{}) {})
	assert.True(t, r.HasSubscribers(sampleA{}))
	sub.Cancel()
	assert.False(t, r.HasSubscribers(sampleA{}))
}

func TestRouterMultipleSubscribersSameType(t *testing.T) {
	r := New()
	var calls1, calls2 int
	r.Subscribe(sampleA{}, func(msg interface{}) { calls1++ })
	r.Subscribe(sampleA{}, func(msg interface{}) { calls2++ })

	r.Dispatch(sampleA{v: 1})
	assert.Equal(t, 1, calls1)
	assert.Equal(t, 1, calls2)
}

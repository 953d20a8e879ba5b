package dispatcher

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherRunsJobsInOrder(t *testing.T) {
	d := New()
	d.Start()
	defer d.Stop()

	var order []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		d.Post(func() {
			order = append(order, i)
			if i == 4 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("jobs did not complete in time")
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestDispatcherStartIsIdempotent(t *testing.T) {
	d := New()
	d.Start()
	d.Start()
	defer d.Stop()

	var ran int32
	done := make(chan struct{})
	d.Post(func() {
		atomic.AddInt32(&ran, 1)
		close(done)
	})
	<-done
	assert.Equal(t, int32(1), ran)
}

func TestDispatcherStopWaitsForGoroutineExit(t *testing.T) {
	d := New()
	d.Start()
	d.Stop()
	// A second Stop-adjacent call should not be required for the test to
	// prove shutdown happened; reaching here without hanging is the proof.
}

// =============================================================================
// DISPATCHER - The Single Ordering Domain
// =============================================================================
//
// spec.md §5: "all coordinator state transitions, QuorumGatherer updates,
// Retransmitter timer firings, and CatchUpBridge callbacks execute
// serialized on one logical dispatcher... every message is handed to the
// dispatcher before touching coordinator state."
//
// The original source reaches this by posting an apparently-no-op job to
// touch shared state from another thread. This Dispatcher makes that
// explicit: it is one goroutine draining a job channel, and Post is the
// only supported way onto it from elsewhere. Generalizes the teacher
// node.go's inline "goroutine + stopCh + WaitGroup" receive loop into a
// reusable primitive so storage access, router dispatch, and catch-up
// callbacks serialize through the same point. Retransmitter ticks do not:
// each retransmit handle runs its own ticker goroutine, which touches only
// that handle's mutex-guarded target set and the transport.
// =============================================================================

package dispatcher

import "sync"

const jobQueueSize = 1024

// Job is a unit of work run on the dispatcher goroutine.
type Job func()

// Dispatcher serializes Jobs onto one goroutine.
type Dispatcher struct {
	jobs    chan Job
	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// New returns a Dispatcher. Call Start before posting any jobs.
func New() *Dispatcher {
	return &Dispatcher{
		jobs:   make(chan Job, jobQueueSize),
		stopCh: make(chan struct{}),
	}
}

// Start launches the dispatcher goroutine. Calling Start twice is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	d.wg.Add(1)
	go d.run()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopCh:
			return
		case job := <-d.jobs:
			job()
		}
	}
}

// Post enqueues job to run on the dispatcher goroutine. Post itself never
// blocks the caller on job's execution; it only blocks if the queue is
// full, which signals a caller posting faster than the dispatcher can
// drain - treated as a programming error, not a runtime condition to
// recover from.
func (d *Dispatcher) Post(job Job) {
	d.jobs <- job
}

// Stop halts the dispatcher goroutine and waits for it to exit. Any jobs
// still queued are dropped.
func (d *Dispatcher) Stop() {
	close(d.stopCh)
	d.wg.Wait()
}

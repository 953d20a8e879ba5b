// =============================================================================
// IN-MEMORY CATCHUP - Reference Implementation For Tests And The Demo
// =============================================================================
//
// Fetches decided instances directly out of peer storage.Storage Log maps
// (no real snapshot transfer, no real network) and reports the resulting
// firstUncommitted back through a caller-supplied poster, so the recovery
// core's invariant "every coordinator mutation runs on the dispatcher"
// still holds even though this subsystem is "external".
//
// Simulates the "gaps closed by snapshot may leave holes at the tail"
// behavior from spec.md §4.5 via maxPerRound: each round copies at most
// maxPerRound consecutive instances starting at the local firstUncommitted,
// so a single round can legitimately fall short of target and require the
// bridge to force another one (S5 in spec.md §8).
// =============================================================================

package catchup

import (
	"sync"

	"github.com/senutpal/epochss/internal/storage"
)

// Poster runs fn on whatever single ordering domain the embedder requires
// (the dispatcher, in this codebase).
type Poster func(fn func())

// PeerSource returns a peer's decided-instance storage to fetch from, or
// false if the source is unreachable this round - catch-up keeps retrying
// against whichever peers are up.
type PeerSource func() (storage.Storage, bool)

// Fetcher is an in-memory Subsystem.
type Fetcher struct {
	mu          sync.Mutex
	local       storage.Storage
	peer        PeerSource
	post        Poster
	maxPerRound uint64

	active map[string]*roundState
}

type roundState struct {
	target uint64
}

// NewFetcher builds a Fetcher that advances local's decided log by reading
// from whatever storage.Storage peer currently returns, posting completion
// callbacks through post.
func NewFetcher(local storage.Storage, peer PeerSource, post Poster, maxPerRound uint64) *Fetcher {
	return &Fetcher{
		local:       local,
		peer:        peer,
		post:        post,
		maxPerRound: maxPerRound,
		active:      make(map[string]*roundState),
	}
}

func (f *Fetcher) Register(target uint64, l *Listener) error {
	f.mu.Lock()
	f.active[l.ID.String()] = &roundState{target: target}
	f.mu.Unlock()
	f.runRound(l)
	return nil
}

func (f *Fetcher) ForceCatchup(l *Listener) error {
	f.mu.Lock()
	_, ok := f.active[l.ID.String()]
	f.mu.Unlock()
	if !ok {
		return nil
	}
	f.runRound(l)
	return nil
}

func (f *Fetcher) Deregister(l *Listener) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, l.ID.String())
	return nil
}

func (f *Fetcher) runRound(l *Listener) {
	f.mu.Lock()
	state, ok := f.active[l.ID.String()]
	f.mu.Unlock()
	if !ok {
		return
	}

	src, reachable := f.peer()
	if reachable {
		start := f.local.FirstUncommitted()
		copied := uint64(0)
		for id := start; id < state.target && copied < f.maxPerRound; id++ {
			value, ok := src.Decided(id)
			if !ok {
				break
			}
			f.local.AppendDecided(id, value)
			copied++
		}
	}

	firstUncommitted := f.local.FirstUncommitted()
	f.post(func() {
		l.OnSucceeded(firstUncommitted)
	})
}

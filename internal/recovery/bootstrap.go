// =============================================================================
// STORAGEBOOTSTRAP (spec.md §4.2)
// =============================================================================
//
// Runs once per process boot, before the dispatcher is live (spec.md §5
// explicitly allows the epoch file I/O here to block). Order matters:
// the epoch is bumped and made durable (steps 3-4) strictly before any
// Recovery probe can be built from the returned epoch, which is what
// makes invariant 2 in spec.md §8 ("no outbound Recovery message is
// observed before the new epoch value is present on disk") hold by
// construction rather than by convention.
// =============================================================================

package recovery

import (
	"fmt"

	"github.com/senutpal/epochss/internal/epochstore"
	"github.com/senutpal/epochss/internal/storage"
)

// Bootstrap builds the Paxos volatile storage for this boot and returns it
// together with the freshly bumped local epoch.
//
//  1. Allocate fresh in-memory storage, view = 0, empty log.
//  2. If view mod n == localID, bump view by one so a recovering replica
//     never starts as leader of its own restored view.
//  3. newEpoch = epochStore.Read() + 1.
//  4. epochStore.Write(newEpoch) - must succeed before anything else runs.
//  5. Build an all-zero N-slot epoch vector except slot localID = newEpoch.
//  6. Install the vector into storage.
func Bootstrap(localID int, n int, epochStore *epochstore.EpochStore) (storage.Storage, uint64, error) {
	st := storage.NewMemoryStorage(n)

	view := st.View()
	if int(view)%n == localID {
		st.SetView(view + 1)
	}

	prior, err := epochStore.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("recovery: bootstrap: read epoch: %w", err)
	}
	newEpoch := prior + 1

	if err := epochStore.Write(newEpoch); err != nil {
		return nil, 0, fmt.Errorf("recovery: bootstrap: write epoch: %w", err)
	}

	vec := make([]uint64, n)
	vec[localID] = newEpoch
	st.SetEpochVector(vec)

	return st, newEpoch, nil
}

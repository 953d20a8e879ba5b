package recovery

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senutpal/epochss/internal/epochstore"
)

func TestBootstrapFirstBootStartsAtEpochOne(t *testing.T) {
	es := epochstore.New(filepath.Join(t.TempDir(), "epoch"))
	st, epoch, err := Bootstrap(0, 3, es)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), epoch)
	assert.Equal(t, []uint64{1, 0, 0}, st.EpochVector())
}

func TestBootstrapBumpsEpochOnSecondBoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epoch")
	es := epochstore.New(path)

	_, epoch1, err := Bootstrap(1, 3, es)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), epoch1)

	st2, epoch2, err := Bootstrap(1, 3, epochstore.New(path))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), epoch2)
	assert.Equal(t, []uint64{0, 2, 0}, st2.EpochVector())
}

func TestBootstrapNeverStartsAsLeaderOfItsOwnRestoredView(t *testing.T) {
	es := epochstore.New(filepath.Join(t.TempDir(), "epoch"))
	// localID 0's view starts at 0, and LeaderID(0, n) == "0", so Bootstrap
	// must bump the view before this replica ever probes.
	st, _, err := Bootstrap(0, 3, es)
	require.NoError(t, err)
	assert.NotEqual(t, "0", LeaderID(st.View(), 3))
}

func TestBootstrapEpochDurableBeforeReturn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epoch")
	es := epochstore.New(path)
	_, epoch, err := Bootstrap(2, 4, es)
	require.NoError(t, err)

	onDisk, err := epochstore.New(path).Read()
	require.NoError(t, err)
	assert.Equal(t, epoch, onDisk)
}

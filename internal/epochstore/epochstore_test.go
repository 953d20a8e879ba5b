package epochstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpochStoreReadMissingFileReturnsZero(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "epoch"))
	v, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
}

func TestEpochStoreWriteThenRead(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "epoch"))
	require.NoError(t, s.Write(7))

	v, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v)
}

func TestEpochStoreSuccessiveWritesOverwrite(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "epoch"))
	require.NoError(t, s.Write(1))
	require.NoError(t, s.Write(2))
	require.NoError(t, s.Write(3))

	v, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)
}

func TestEpochStoreRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "epoch")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o600))

	s := New(path)
	_, err := s.Read()
	assert.Error(t, err)
}

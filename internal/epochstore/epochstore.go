// =============================================================================
// EPOCHSTORE - Crash-Atomic Local Epoch Persistence
// =============================================================================
//
// The local epoch is the one piece of Paxos safety-critical state this
// replica keeps on disk (spec.md's non-goal list deliberately excludes
// replaying a full accepted-instance log; only the epoch is stable). The
// entire recovery protocol's safety rests on one guarantee: by the time any
// Recovery probe leaves the process, the bumped epoch is already durable.
//
// Format: 8 raw big-endian bytes, no framing, no checksum - a torn write
// only ever corrupts the temp file, never the canonical one, because the
// canonical file is only ever replaced by a single rename.
// =============================================================================

package epochstore

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

const tempSuffix = ".tmp"

// EpochStore reads and writes the monotonic local epoch counter.
type EpochStore struct {
	path string
}

// New returns an EpochStore backed by the file at path. The directory must
// already exist; New does not create it.
func New(path string) *EpochStore {
	return &EpochStore{path: path}
}

// Read returns the last persisted epoch, or 0 if the file has never been
// written.
func (s *EpochStore) Read() (uint64, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("epochstore: read %q: %w", s.path, err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("epochstore: %q has %d bytes, want 8", s.path, len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// Write durably replaces the persisted epoch with v. It writes to a sibling
// temp file first, fsyncs it, then renames it over the canonical path - the
// rename is the single point at which v becomes visible. A crash before the
// rename leaves the canonical file untouched; there is no window in which a
// partially written value can be observed through it.
//
// Callers must only call Write with values strictly greater than the value
// last returned by Read; EpochStore itself does not enforce monotonicity,
// since it has no way to know the in-memory epoch the caller is tracking.
func (s *EpochStore) Write(v uint64) error {
	dir := filepath.Dir(s.path)
	tmpPath := s.path + tempSuffix

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("epochstore: create temp file %q: %w", tmpPath, err)
	}
	if _, err := f.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("epochstore: write temp file %q: %w", tmpPath, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("epochstore: sync temp file %q: %w", tmpPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("epochstore: close temp file %q: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("epochstore: rename %q to %q: %w", tmpPath, s.path, err)
	}

	// Best-effort: fsync the directory entry so the rename itself survives
	// a crash on filesystems that require it. Not fatal if unsupported.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

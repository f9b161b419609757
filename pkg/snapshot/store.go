// Package snapshot persists game instances to disk as one JSON file per
// instance, and restores them on startup. Writes are temp-file-then-rename
// so a crash mid-write never leaves a corrupt snapshot on disk.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cuemby/statekeep/pkg/log"
	"github.com/cuemby/statekeep/pkg/metrics"
	"github.com/cuemby/statekeep/pkg/types"
)

const fileSuffix = ".json"

// Store reads and writes GameState snapshots under a directory, one file
// per instance named <instanceId>.json.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir, creating dir if it does not
// already exist.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: create directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(instanceID string) string {
	return filepath.Join(s.dir, instanceID+fileSuffix)
}

// LoadAll reads every snapshot file in the store's directory and decodes
// each into a SnapshotEnvelope. Legacy envelopes (missing fields, an
// absent or stale snapshotVersion) are returned as-is; the caller is
// expected to run them through the migrator before first use. A file
// that fails to read or decode is logged and skipped — one corrupted
// instance file must never keep every other instance from loading.
func (s *Store) LoadAll() ([]*types.SnapshotEnvelope, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read directory %s: %w", s.dir, err)
	}

	var envelopes []*types.SnapshotEnvelope
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}

		full := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(full)
		if err != nil {
			log.WithComponent("snapshot").Error().Err(err).Str("file", full).
				Msg("skipping unreadable snapshot file")
			continue
		}

		var env types.SnapshotEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.WithComponent("snapshot").Error().Err(err).Str("file", full).
				Msg("skipping malformed snapshot file")
			continue
		}
		envelopes = append(envelopes, &env)
	}
	return envelopes, nil
}

// Flush writes state's current snapshot to disk atomically: encode to a
// temp file in the same directory, then rename over the final path.
// Callers must hold at least a read lock on state.
func (s *Store) Flush(state *types.GameState, cacheBound int) (err error) {
	timer := metrics.NewTimer()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		metrics.SnapshotFlushesTotal.WithLabelValues(outcome).Inc()
		timer.ObserveDurationVec(metrics.SnapshotFlushDuration, state.InstanceID)
	}()

	env := state.ToSnapshotEnvelope(cacheBound)
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", state.InstanceID, err)
	}

	final := s.path(state.InstanceID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: write temp file for %s: %w", state.InstanceID, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("snapshot: rename temp file for %s: %w", state.InstanceID, err)
	}

	log.WithInstanceID(state.InstanceID).Debug().Msg("snapshot flushed")
	return nil
}

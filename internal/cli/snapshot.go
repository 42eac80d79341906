package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

const snapshotPerms = 0o644

// Snapshot is the JSON document written by the dump command. Members are
// rendered with the shell value syntax, in insertion order.
type Snapshot struct {
	Mode    string          `json:"mode"`
	Set     []string        `json:"set"`
	Map     []SnapshotEntry `json:"map"`
	Objects []string        `json:"objects"`
}

// SnapshotEntry is one live map entry.
type SnapshotEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Snapshot enumerates the live contents of the session. Stale slots met on
// the way are evicted like any other enumeration.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Mode:    s.cfg.Mode,
		Set:     []string{},
		Map:     []SnapshotEntry{},
		Objects: []string{},
	}

	for v := range s.set.Values() {
		snap.Set = append(snap.Set, formatValue(v))
	}

	for k, v := range s.kv.All() {
		snap.Map = append(snap.Map, SnapshotEntry{Key: formatValue(k), Value: formatValue(v)})
	}

	for _, name := range sortedNames(s.objects) {
		snap.Objects = append(snap.Objects, "@"+name)
	}

	return snap
}

// WriteSnapshot writes snap to path atomically. Readers see either the old
// file or the complete new one.
func WriteSnapshot(path string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	data = append(data, '\n')

	writeErr := atomic.WriteFile(path, bytes.NewReader(data))
	if writeErr != nil {
		return fmt.Errorf("failed to write snapshot: %w", writeErr)
	}

	// atomic.WriteFile leaves new files with the temp file's 0600
	chmodErr := os.Chmod(path, snapshotPerms)
	if chmodErr != nil {
		return fmt.Errorf("failed to set snapshot permissions: %w", chmodErr)
	}

	return nil
}

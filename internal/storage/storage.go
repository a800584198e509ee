package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/concert-server/internal/cache"
)

const snapshotFile = "cache_snapshot.json"

// Snapshot is the on-disk form of the category cache.
type Snapshot struct {
	SavedAt string                 `json:"saved_at"`
	Entries map[string]cache.Entry `json:"entries"`
}

// Storage handles persistence of cache snapshots
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Path returns the snapshot file location.
func (s *Storage) Path() string {
	return filepath.Join(s.dataDir, snapshotFile)
}

// LoadSnapshot loads a snapshot from disk. A missing file yields an empty
// snapshot.
func (s *Storage) LoadSnapshot() (*Snapshot, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &Snapshot{Entries: make(map[string]cache.Entry)}, nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	if snapshot.Entries == nil {
		snapshot.Entries = make(map[string]cache.Entry)
	}
	return &snapshot, nil
}

// SaveSnapshot writes entries to disk, replacing any previous snapshot.
func (s *Storage) SaveSnapshot(entries map[string]cache.Entry) error {
	snapshot := Snapshot{
		SavedAt: time.Now().UTC().Format(time.RFC3339),
		Entries: entries,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	// Write then rename so a crash never leaves a truncated snapshot.
	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	return nil
}

// Load restores the persisted snapshot into c and returns how many entries
// were restored.
func (s *Storage) Load(c *cache.Cache) (int, error) {
	snapshot, err := s.LoadSnapshot()
	if err != nil {
		return 0, err
	}
	c.Restore(snapshot.Entries)
	return len(snapshot.Entries), nil
}

// Save persists every entry currently in c.
func (s *Storage) Save(c *cache.Cache) error {
	return s.SaveSnapshot(c.Snapshot())
}

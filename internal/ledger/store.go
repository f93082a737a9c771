package ledger

import (
	"encoding/json"
	"os"
	"sync"
)

// Store persists ledger snapshots. Load returns nil, nil when nothing has
// been saved yet.
type Store interface {
	Load() (*Snapshot, error)
	Save(*Snapshot) error
}

// MemStore keeps the latest snapshot in memory.
type MemStore struct {
	mu   sync.Mutex
	snap *Snapshot
}

func (s *MemStore) Load() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, nil
}

func (s *MemStore) Save(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	return nil
}

// FileStore persists snapshots to a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a JSON-backed ledger store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Save writes to a temp file and renames it over the target so a crash
// never leaves a half-written ledger.
func (s *FileStore) Save(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

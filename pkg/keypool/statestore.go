package keypool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StateStore persists the rotation cursor across process restarts. A store
// failure on Save is advisory: the pool logs and continues, since a lost
// cursor costs at most one extra attempt against a still-exhausted key on
// the next start.
type StateStore interface {
	// Load returns the persisted cursor. Missing or corrupt state is
	// reported as cursor 0 with a nil error; only real I/O failures error.
	Load(ctx context.Context) (int, error)

	// Save durably records the cursor.
	Save(ctx context.Context, cursor int) error
}

// cursorState is the on-disk shape of the persisted rotation state.
type cursorState struct {
	Cursor int `json:"cursor"`
}

// FileStore persists the cursor as a small JSON object at a fixed path.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed state store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the cursor file. Absence or corruption yields cursor 0.
func (s *FileStore) Load(ctx context.Context) (int, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read cursor file: %w", err)
	}

	var state cursorState
	if err := json.Unmarshal(data, &state); err != nil {
		// Corrupt state is recoverable, not fatal.
		return 0, nil
	}
	if state.Cursor < 0 {
		return 0, nil
	}
	return state.Cursor, nil
}

// Save writes the cursor atomically via a temp file rename, mode 0600.
func (s *FileStore) Save(ctx context.Context, cursor int) error {
	data, err := json.Marshal(cursorState{Cursor: cursor})
	if err != nil {
		return fmt.Errorf("marshal cursor state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".cursor-*")
	if err != nil {
		return fmt.Errorf("create temp cursor file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cursor file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod cursor file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close cursor file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename cursor file: %w", err)
	}
	return nil
}

// MemoryStore keeps the cursor in memory. Used in tests and as the fallback
// when no durable store is configured.
type MemoryStore struct {
	mu     sync.Mutex
	cursor int

	// SaveErr, when set, is returned by Save. Lets tests exercise the
	// log-and-continue persistence path.
	SaveErr error
}

// NewMemoryStore creates an in-memory state store starting at cursor 0.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored cursor.
func (s *MemoryStore) Load(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor, nil
}

// Save records the cursor, or fails with SaveErr when configured.
func (s *MemoryStore) Save(ctx context.Context, cursor int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.cursor = cursor
	return nil
}

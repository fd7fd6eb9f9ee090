package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/abhisek/mathtutor/internal/store"
)

// Store holds at most one session id. An empty id with a nil error means
// the store has nothing saved.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, id string) error
}

// MemoryStore keeps the id in process memory.
type MemoryStore struct {
	mu sync.Mutex
	id string
}

func (m *MemoryStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, nil
}

func (m *MemoryStore) Save(_ context.Context, id string) error {
	m.mu.Lock()
	m.id = id
	m.mu.Unlock()
	return nil
}

// FileStore keeps the id in a file so it survives restarts.
type FileStore struct {
	Path string
}

// DefaultFilePath returns the session file under the data directory.
func DefaultFilePath() (string, error) {
	dir, err := store.DataHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session"), nil
}

func (f FileStore) Load(context.Context) (string, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (f FileStore) Save(_ context.Context, id string) error {
	if err := store.EnsureDir(f.Path); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(f.Path, []byte(id+"\n"), 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// FuncStore adapts a pair of functions, for request scoped stores such as
// cookies and headers.
type FuncStore struct {
	LoadFunc func(ctx context.Context) (string, error)
	SaveFunc func(ctx context.Context, id string) error
}

func (f FuncStore) Load(ctx context.Context) (string, error) {
	if f.LoadFunc == nil {
		return "", nil
	}
	return f.LoadFunc(ctx)
}

func (f FuncStore) Save(ctx context.Context, id string) error {
	if f.SaveFunc == nil {
		return nil
	}
	return f.SaveFunc(ctx, id)
}

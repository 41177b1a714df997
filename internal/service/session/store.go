package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/zhouzirui/qa-forum/frontend/internal/model/account"
)

// Key is the well-known key the session record lives under.
const Key = "user"

// Store persists the current user between runs. Load returns nil, nil for
// a guest.
type Store interface {
	Load(ctx context.Context) (*account.User, error)
	Save(ctx context.Context, user account.User) error
	Clear(ctx context.Context) error
}

// PebbleStore keeps the session record in a local pebble database.
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) the store in dir.
func OpenPebble(dir string) (*PebbleStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return openPebble(dir, &pebble.Options{})
}

// OpenInMemory opens a store backed by an in-memory filesystem.
func OpenInMemory() (*PebbleStore, error) {
	return openPebble("", &pebble.Options{FS: vfs.NewMem()})
}

func openPebble(dir string, opts *pebble.Options) (*PebbleStore, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

// Load implements Store.
func (s *PebbleStore) Load(_ context.Context) (*account.User, error) {
	v, closer, err := s.db.Get([]byte(Key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	defer closer.Close()

	var user account.User
	if err := json.Unmarshal(v, &user); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &user, nil
}

// Save implements Store.
func (s *PebbleStore) Save(_ context.Context, user account.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.db.Set([]byte(Key), data, pebble.Sync); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *PebbleStore) Clear(_ context.Context) error {
	if err := s.db.Delete([]byte(Key), pebble.Sync); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *PebbleStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// MemoryStore implements Store in memory, for guests that should not leave
// anything on disk.
type MemoryStore struct {
	mu   sync.RWMutex
	user *account.User
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context) (*account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, user account.User) error {
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	return nil
}

package testutil

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/medsim/medsim/internal"
)

// OpenTestStateDB opens a state database in a temp dir, closed on cleanup
func OpenTestStateDB(t *testing.T) *internal.StateDB {
	t.Helper()
	db, err := internal.OpenStateDB(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Failed to open state database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// MemoryTokens is an in-memory token store
type MemoryTokens struct {
	mu    sync.Mutex
	pair  internal.TokenPair
	saves int
}

// NewMemoryTokens returns a store holding pair; a zero pair means logged out
func NewMemoryTokens(pair internal.TokenPair) *MemoryTokens {
	return &MemoryTokens{pair: pair}
}

func (m *MemoryTokens) Load() (internal.TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pair.Access == "" {
		return internal.TokenPair{}, internal.ErrNoCredentials
	}
	return m.pair, nil
}

func (m *MemoryTokens) Save(pair internal.TokenPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = pair
	m.saves++
	return nil
}

func (m *MemoryTokens) SetAccess(access string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pair.Access == "" {
		return internal.ErrNoCredentials
	}
	m.pair.Access = access
	m.saves++
	return nil
}

func (m *MemoryTokens) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = internal.TokenPair{}
	return nil
}

// Pair returns the current pair
func (m *MemoryTokens) Pair() internal.TokenPair {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pair
}

// LoggedIn reports whether a pair is stored
func (m *MemoryTokens) LoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pair.Access != ""
}

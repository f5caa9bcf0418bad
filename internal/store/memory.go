// apps/go-server/internal/store/memory.go
//
// In-memory implementation of the play Store interface.
// This is a lightweight persistence layer for in-flight plays; only completed
// results and user stats are durable (SQLite). Losing this map on restart is
// acceptable — an in-progress round has no value across a process restart.
//
// Characteristics:
//   - Stores *game.Play objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Errors are returned for missing play IDs on Get().

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/hueguess/apps/go-server/internal/game"
)

// Store defines the persistence interface for in-flight plays.
// Implementations may be backed by memory (this package), Redis, SQL, etc.
type Store interface {
	// Save persists or updates a play's state.
	Save(ctx context.Context, p *game.Play) error

	// Get retrieves a play by ID.
	// Returns an error if the play is not found.
	Get(ctx context.Context, id string) (*game.Play, error)
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu    sync.RWMutex          // guards plays map
	plays map[string]*game.Play // keyed by Play.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{plays: make(map[string]*game.Play)}
}

// Save adds or updates the play in the map.
func (m *memory) Save(ctx context.Context, p *game.Play) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plays[p.ID] = p
	return nil
}

// Get looks up a play by ID.
func (m *memory) Get(ctx context.Context, id string) (*game.Play, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.plays[id]; ok {
		return p, nil
	}
	return nil, errors.New("not found")
}

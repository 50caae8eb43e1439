package archive

import (
	"context"
	"sort"
	"sync"
)

// memrepo keeps games in process; used when no database is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	byID      map[int64]*Game
	bySession map[string]*Game
}

func NewMemoryRepository() Repository {
	return &memrepo{
		byID:      make(map[int64]*Game),
		bySession: make(map[string]*Game),
	}
}

func (m *memrepo) Insert(ctx context.Context, game *Game) (int64, error) {
	if game == nil {
		return 0, ErrDuplicateGame
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.bySession[game.SessionID]; exists {
		return 0, ErrDuplicateGame
	}

	m.nextID++
	g := clone(game)
	g.ID = m.nextID
	m.byID[g.ID] = g
	m.bySession[g.SessionID] = g
	return g.ID, nil
}

func (m *memrepo) Get(ctx context.Context, id int64) (*Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(g), nil
}

func (m *memrepo) GetBySession(ctx context.Context, sessionID string) (*Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.bySession[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(g), nil
}

func (m *memrepo) Recent(ctx context.Context, limit int) ([]*Game, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.RLock()
	items := make([]*Game, 0, len(m.byID))
	for _, g := range m.byID {
		items = append(items, clone(g))
	}
	m.mu.RUnlock()

	// EndedAt desc, then ID desc
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func clone(g *Game) *Game {
	c := *g
	c.Moves = append([]string(nil), g.Moves...)
	return &c
}

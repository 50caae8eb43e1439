// Package archive stores finished games.
package archive

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDuplicateGame = errors.New("game already archived")
	ErrNotFound      = errors.New("archived game not found")
)

type Game struct {
	ID            int64
	SessionID     string
	StartEncoding string
	FinalEncoding string
	Moves         []string
	Outcome       string
	StartedAt     time.Time
	EndedAt       time.Time
}

func (g *Game) Duration() time.Duration {
	if g.StartedAt.IsZero() || g.EndedAt.IsZero() {
		return 0
	}
	return g.EndedAt.Sub(g.StartedAt)
}

type Repository interface {
	Insert(ctx context.Context, game *Game) (int64, error)
	Get(ctx context.Context, id int64) (*Game, error)
	GetBySession(ctx context.Context, sessionID string) (*Game, error)
	Recent(ctx context.Context, limit int) ([]*Game, error)
}

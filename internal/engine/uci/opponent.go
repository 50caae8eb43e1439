package uci

import (
	"context"
	"errors"
)

// Opponent picks moves through pooled sessions with fixed limits.
type Opponent struct {
	pool   *Pool
	limits Limits
}

func NewOpponent(pool *Pool, limits Limits) *Opponent {
	if limits.Depth <= 0 && limits.MoveTimeMillis <= 0 && limits.NodeCap <= 0 {
		limits.MoveTimeMillis = 500
	}
	return &Opponent{pool: pool, limits: limits}
}

func (o *Opponent) BestMove(ctx context.Context, fen string) (string, error) {
	s, err := o.pool.Acquire(ctx)
	if err != nil {
		return "", err
	}
	mv, err := s.BestMove(ctx, fen, o.limits)
	// ErrNoMove leaves the session in a clean state
	if errors.Is(err, ErrNoMove) {
		o.pool.Release(s, nil)
		return "", err
	}
	o.pool.Release(s, err)
	return mv, err
}

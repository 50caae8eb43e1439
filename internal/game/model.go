// Package game holds the live position of one session as an immutable snapshot
// swapped through a single pointer.
package game

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/park285/chessfront/internal/board"
	"github.com/park285/chessfront/internal/engine"
	"github.com/park285/chessfront/internal/moves"
)

var (
	ErrAwaitingEngine = errors.New("awaiting engine response")
	ErrGameOver       = errors.New("game is over")
	ErrNotStarted     = errors.New("game not started")
)

// Snapshot is never modified after construction. Turn is NoColor while a request
// is in flight.
type Snapshot struct {
	Encoding string
	Board    board.Board
	Index    *moves.Index
	Turn     board.Color
	Outcome  board.Outcome
	history  []string
}

// History returns a copy of the applied move notations, oldest first.
func (s *Snapshot) History() []string {
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Snapshot) Plies() int { return len(s.history) }

// Pending reports whether the snapshot marks an outstanding engine request.
func (s *Snapshot) Pending() bool { return s.Turn == board.NoColor }

// FromState decodes a full engine response. Nothing is returned on any error.
func FromState(resp engine.State, history []string) (*Snapshot, error) {
	b, err := board.Decode(resp.Encoding)
	if err != nil {
		return nil, err
	}
	turn, err := board.DecodeTurnLabel(resp.Turn)
	if err != nil {
		return nil, err
	}
	side, err := board.DecodeSideToMove(resp.Encoding)
	if err != nil {
		return nil, err
	}
	if side != turn {
		return nil, fmt.Errorf("%w: side-to-move %v disagrees with turn %v", board.ErrMalformedEncoding, side, turn)
	}
	outcome, err := board.DecodeOutcome(resp.Outcome)
	if err != nil {
		return nil, err
	}
	idx, err := moves.Build(resp.Moves)
	if err != nil {
		return nil, err
	}
	h := make([]string, len(history))
	copy(h, history)
	return &Snapshot{
		Encoding: resp.Encoding,
		Board:    b,
		Index:    idx,
		Turn:     turn,
		Outcome:  outcome,
		history:  h,
	}, nil
}

// Model owns the live snapshot of one session. Replace, BeginRequest and Rollback
// must be called from a single goroutine; Current is safe from any.
type Model struct {
	live      atomic.Pointer[Snapshot]
	confirmed atomic.Pointer[Snapshot]
}

func New(initial *Snapshot) *Model {
	m := &Model{}
	m.live.Store(initial)
	m.confirmed.Store(initial)
	return m
}

// Current is never nil once the model is built from a snapshot.
func (m *Model) Current() *Snapshot { return m.live.Load() }

// Replace decodes resp completely before swapping it in. On error the live
// snapshot is left as it was. Non-empty entries are appended to the history in
// order: the submitted move, then any reply the engine played.
func (m *Model) Replace(resp engine.State, entries ...string) error {
	base := m.confirmed.Load()
	if base == nil {
		return ErrNotStarted
	}
	history := base.History()
	for _, entry := range entries {
		if entry == "" {
			continue
		}
		if _, _, err := moves.ParseNotation(entry); err != nil {
			return fmt.Errorf("replace position: %w", err)
		}
		history = append(history, entry)
	}
	next, err := FromState(resp, history)
	if err != nil {
		return fmt.Errorf("replace position: %w", err)
	}
	m.confirmed.Store(next)
	m.live.Store(next)
	return nil
}

// BeginRequest marks the model as awaiting the engine and returns the snapshot
// the request was issued from.
func (m *Model) BeginRequest() (*Snapshot, error) {
	cur := m.live.Load()
	if cur == nil {
		return nil, ErrNotStarted
	}
	if cur.Pending() {
		return nil, ErrAwaitingEngine
	}
	if cur.Outcome.Terminal() {
		return nil, ErrGameOver
	}
	pending := *cur
	pending.Turn = board.NoColor
	m.live.Store(&pending)
	return cur, nil
}

func (m *Model) Pending() bool {
	cur := m.live.Load()
	return cur != nil && cur.Pending()
}

// Rollback restores the last confirmed snapshot.
func (m *Model) Rollback() {
	m.live.Store(m.confirmed.Load())
}

// Package engine defines the request/response contract with the rules engine.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/park285/chessfront/internal/moves"
)

var ErrEngineUnavailable = errors.New("engine unavailable")

// State is one engine response. Moves travel as [notation, result, outcome] triples.
// Reply is the move the engine played itself before answering, in "e7 e5" form,
// so callers can keep the full move list.
type State struct {
	Encoding string        `json:"encoding"`
	Moves    []moves.Entry `json:"-"`
	Turn     string        `json:"turn"`
	Outcome  string        `json:"outcome"`
	Reply    string        `json:"reply,omitempty"`
}

type wireState struct {
	Encoding string      `json:"encoding"`
	Moves    [][3]string `json:"moves"`
	Turn     string      `json:"turn"`
	Outcome  string      `json:"outcome"`
	Reply    string      `json:"reply,omitempty"`
}

func (s State) MarshalJSON() ([]byte, error) {
	w := wireState{Encoding: s.Encoding, Turn: s.Turn, Outcome: s.Outcome, Reply: s.Reply, Moves: make([][3]string, len(s.Moves))}
	for i, m := range s.Moves {
		w.Moves[i] = [3]string{m.Notation, m.Result, m.Outcome}
	}
	return json.Marshal(w)
}

func (s *State) UnmarshalJSON(data []byte) error {
	var w struct {
		Encoding string     `json:"encoding"`
		Moves    [][]string `json:"moves"`
		Turn     string     `json:"turn"`
		Outcome  string     `json:"outcome"`
		Reply    string     `json:"reply"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	entries := make([]moves.Entry, len(w.Moves))
	for i, m := range w.Moves {
		if len(m) != 3 {
			return fmt.Errorf("%w: move %d has %d fields", moves.ErrMalformedMoveNotation, i, len(m))
		}
		entries[i] = moves.Entry{Notation: m[0], Result: m[1], Outcome: m[2]}
	}
	*s = State{Encoding: w.Encoding, Moves: entries, Turn: w.Turn, Outcome: w.Outcome, Reply: w.Reply}
	return nil
}

// Engine is the only wire boundary of the client. Implementations own legality,
// outcome detection and any search.
type Engine interface {
	InitialState(ctx context.Context) (State, error)
	Advance(ctx context.Context, encoding string, history []string) (State, error)
}

type timeoutEngine struct {
	next    Engine
	timeout time.Duration
}

// WithTimeout bounds every call and reports any failure as ErrEngineUnavailable.
func WithTimeout(e Engine, d time.Duration) Engine {
	return &timeoutEngine{next: e, timeout: d}
}

func (t *timeoutEngine) InitialState(ctx context.Context) (State, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	st, err := t.next.InitialState(ctx)
	if err != nil {
		return State{}, fmt.Errorf("%w: initial state: %w", ErrEngineUnavailable, err)
	}
	return st, nil
}

func (t *timeoutEngine) Advance(ctx context.Context, encoding string, history []string) (State, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	st, err := t.next.Advance(ctx, encoding, history)
	if err != nil {
		return State{}, fmt.Errorf("%w: advance: %w", ErrEngineUnavailable, err)
	}
	return st, nil
}

func (t *timeoutEngine) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.timeout)
}

// Func adapts a pair of functions to Engine.
type Func struct {
	Initial func(ctx context.Context) (State, error)
	Next    func(ctx context.Context, encoding string, history []string) (State, error)
}

func (f Func) InitialState(ctx context.Context) (State, error) {
	if f.Initial == nil {
		return State{}, errors.New("initial state not supported")
	}
	return f.Initial(ctx)
}

func (f Func) Advance(ctx context.Context, encoding string, history []string) (State, error) {
	if f.Next == nil {
		return State{}, errors.New("advance not supported")
	}
	return f.Next(ctx, encoding, history)
}

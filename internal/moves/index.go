// Package moves reshapes the engine's flat move list into a per-origin lookup.
//
// The list is trusted verbatim: nothing here checks legality.
package moves

import (
	"errors"
	"fmt"

	"github.com/park285/chessfront/internal/board"
)

var ErrMalformedMoveNotation = errors.New("malformed move notation")

// Entry is one engine triple: notation, resulting encoding, resulting outcome label.
type Entry struct {
	Notation string
	Result   string
	Outcome  string
}

// Candidate is one option reachable from an origin square.
type Candidate struct {
	To      board.Square
	Result  string
	Outcome board.Outcome
}

// ParseNotation reads "e2 e4": exactly five characters with a space in the middle.
func ParseNotation(s string) (from, to board.Square, err error) {
	if len(s) != 5 || s[2] != ' ' {
		return board.Square{}, board.Square{}, fmt.Errorf("%w: %q", ErrMalformedMoveNotation, s)
	}
	from, err = board.ParseSquare(s[:2])
	if err != nil {
		return board.Square{}, board.Square{}, fmt.Errorf("%w: %q", ErrMalformedMoveNotation, s)
	}
	to, err = board.ParseSquare(s[3:])
	if err != nil {
		return board.Square{}, board.Square{}, fmt.Errorf("%w: %q", ErrMalformedMoveNotation, s)
	}
	return from, to, nil
}

func FormatNotation(from, to board.Square) string {
	return from.String() + " " + to.String()
}

// Index maps each of the 64 origins to its candidates in engine order.
type Index struct {
	buckets [64][]Candidate
	total   int
}

func slot(sq board.Square) int { return sq.Rank*8 + sq.File }

// Build appends one candidate per entry to its origin's bucket. Any bad entry
// aborts the whole build.
func Build(entries []Entry) (*Index, error) {
	idx := &Index{}
	for i, e := range entries {
		from, to, err := ParseNotation(e.Notation)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i, err)
		}
		outcome, err := board.DecodeOutcome(e.Outcome)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i, err)
		}
		s := slot(from)
		idx.buckets[s] = append(idx.buckets[s], Candidate{To: to, Result: e.Result, Outcome: outcome})
		idx.total++
	}
	return idx, nil
}

// From returns a copy of the bucket for sq.
func (x *Index) From(sq board.Square) ([]Candidate, error) {
	if err := sq.Check(); err != nil {
		return nil, err
	}
	if x == nil {
		return nil, nil
	}
	b := x.buckets[slot(sq)]
	out := make([]Candidate, len(b))
	copy(out, b)
	return out, nil
}

// Between filters the origin bucket to one destination, keeping insertion order.
func (x *Index) Between(from, to board.Square) ([]Candidate, error) {
	if err := from.Check(); err != nil {
		return nil, err
	}
	if err := to.Check(); err != nil {
		return nil, err
	}
	if x == nil {
		return nil, nil
	}
	var out []Candidate
	for _, c := range x.buckets[slot(from)] {
		if c.To == to {
			out = append(out, c)
		}
	}
	return out, nil
}

// Destinations lists distinct target squares from an origin, first occurrence first.
func (x *Index) Destinations(from board.Square) ([]board.Square, error) {
	if err := from.Check(); err != nil {
		return nil, err
	}
	if x == nil {
		return nil, nil
	}
	seen := make(map[board.Square]struct{})
	var out []board.Square
	for _, c := range x.buckets[slot(from)] {
		if _, ok := seen[c.To]; ok {
			continue
		}
		seen[c.To] = struct{}{}
		out = append(out, c.To)
	}
	return out, nil
}

// Len is the total number of candidates.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return x.total
}

// Origins lists squares with at least one candidate, a1 first.
func (x *Index) Origins() []board.Square {
	if x == nil {
		return nil
	}
	var out []board.Square
	for i, b := range x.buckets {
		if len(b) > 0 {
			out = append(out, board.Square{File: i % 8, Rank: i / 8})
		}
	}
	return out
}

// Package selection turns board clicks into a chosen resulting position.
package selection

import (
	"context"
	"errors"
	"fmt"

	"github.com/park285/chessfront/internal/board"
	"github.com/park285/chessfront/internal/moves"
)

var (
	ErrNoSuchMove          = errors.New("no such move")
	ErrInvalidPromotionSet = errors.New("invalid promotion set")
	ErrInvalidChoice       = errors.New("invalid promotion choice")
	ErrNoChooser           = errors.New("promotion chooser not configured")
)

// PromotionOrder is the order options are always offered in.
var PromotionOrder = [4]board.Kind{board.Rook, board.Knight, board.Bishop, board.Queen}

// Chooser picks one of the offered promotion kinds and returns its index.
type Chooser interface {
	Choose(ctx context.Context, options []board.Kind, mover board.Color) (int, error)
}

type ChooserFunc func(ctx context.Context, options []board.Kind, mover board.Color) (int, error)

func (f ChooserFunc) Choose(ctx context.Context, options []board.Kind, mover board.Color) (int, error) {
	return f(ctx, options, mover)
}

// Fixed always picks the given kind.
func Fixed(k board.Kind) Chooser {
	return ChooserFunc(func(_ context.Context, options []board.Kind, _ board.Color) (int, error) {
		for i, o := range options {
			if o == k {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w: %v not offered", ErrInvalidChoice, k)
	})
}

type Resolution struct {
	From      board.Square
	To        board.Square
	Result    string
	Outcome   board.Outcome
	Promotion *board.Kind
	Notation  string
}

// Resolve finds the candidate for from→to. Several candidates mean a promotion:
// exactly four are required and ch decides between them.
func Resolve(ctx context.Context, idx *moves.Index, from, to board.Square, mover board.Color, ch Chooser) (Resolution, error) {
	if err := from.Check(); err != nil {
		return Resolution{}, err
	}
	if err := to.Check(); err != nil {
		return Resolution{}, err
	}
	cands, err := idx.Between(from, to)
	if err != nil {
		return Resolution{}, err
	}
	res := Resolution{From: from, To: to, Notation: moves.FormatNotation(from, to)}
	switch len(cands) {
	case 0:
		return Resolution{}, fmt.Errorf("%w: %s", ErrNoSuchMove, res.Notation)
	case 1:
		res.Result = cands[0].Result
		res.Outcome = cands[0].Outcome
		return res, nil
	case len(PromotionOrder):
	default:
		return Resolution{}, fmt.Errorf("%w: %d candidates for %s", ErrInvalidPromotionSet, len(cands), res.Notation)
	}

	if ch == nil {
		return Resolution{}, ErrNoChooser
	}
	options := PromotionOrder[:]
	choice, err := ch.Choose(ctx, append([]board.Kind(nil), options...), mover)
	if err != nil {
		return Resolution{}, err
	}
	if choice < 0 || choice >= len(options) {
		return Resolution{}, fmt.Errorf("%w: index %d", ErrInvalidChoice, choice)
	}
	kind := options[choice]
	best := pickByLetterCount(cands, kind)
	res.Result = cands[best].Result
	res.Outcome = cands[best].Outcome
	res.Promotion = &kind
	return res, nil
}

// pickByLetterCount returns the candidate whose layout holds the most letters of
// kind. Ties go to the earliest candidate.
func pickByLetterCount(cands []moves.Candidate, kind board.Kind) int {
	best, bestCount := 0, -1
	for i, c := range cands {
		if n := board.Count(c.Result, kind); n > bestCount {
			best, bestCount = i, n
		}
	}
	return best
}

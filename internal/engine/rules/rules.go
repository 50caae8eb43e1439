// Package rules is an in-process engine: legality and outcomes come from
// corentings/chess, and an optional opponent answers every move of one side.
package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/chessfront/internal/board"
	"github.com/park285/chessfront/internal/engine"
	"github.com/park285/chessfront/internal/moves"
	"github.com/park285/chessfront/internal/obslog"
)

var ErrInvalidPosition = errors.New("invalid position")

// Opponent returns a UCI move ("e7e5", "b2b1q") for the side to move in fen.
type Opponent interface {
	BestMove(ctx context.Context, fen string) (string, error)
}

type Engine struct {
	opponent      Opponent
	opponentColor nchess.Color
	logger        *zap.Logger
}

type Option func(*Engine)

// WithOpponent lets o play every move for color. NoColor disables it.
func WithOpponent(o Opponent, color board.Color) Option {
	return func(e *Engine) {
		e.opponent = o
		switch color {
		case board.White:
			e.opponentColor = nchess.White
		case board.Black:
			e.opponentColor = nchess.Black
		default:
			e.opponent = nil
		}
	}
}

func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.logger = l } }

func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = obslog.OrNop(e.logger)
	return e
}

var _ engine.Engine = (*Engine)(nil)

func (e *Engine) InitialState(ctx context.Context) (engine.State, error) {
	game := nchess.NewGame()
	return e.answer(ctx, game)
}

// Advance accepts the chosen resulting position. When history replays from the
// standard start onto encoding, the replayed game is used so repetitions count;
// otherwise the game restarts from encoding alone.
func (e *Engine) Advance(ctx context.Context, encoding string, history []string) (engine.State, error) {
	game, err := gameFromFEN(encoding)
	if err != nil {
		return engine.State{}, err
	}
	replayed := false
	if len(history) > 0 {
		if g := replay(nchess.NewGame(), history, encoding); g != nil {
			game, replayed = g, true
		}
	}
	e.logger.Debug("rules_advance",
		zap.Int("plies", len(history)),
		zap.Bool("replayed", replayed),
		zap.String("fen", game.FEN()),
	)
	return e.answer(ctx, game)
}

func (e *Engine) answer(ctx context.Context, game *nchess.Game) (engine.State, error) {
	played, err := e.reply(ctx, game)
	if err != nil {
		return engine.State{}, err
	}
	st, err := describe(game)
	if err != nil {
		return engine.State{}, err
	}
	st.Reply = played
	return st, nil
}

// reply lets the opponent move when it is its turn and returns the move in
// "e7 e5" form, or "" when it stayed quiet.
func (e *Engine) reply(ctx context.Context, game *nchess.Game) (string, error) {
	if e.opponent == nil || outcomeOf(game) != nchess.NoOutcome || game.Position().Turn() != e.opponentColor {
		return "", nil
	}
	uci, err := e.opponent.BestMove(ctx, game.FEN())
	if err != nil {
		return "", fmt.Errorf("opponent move: %w", err)
	}
	if len(uci) < 4 {
		return "", fmt.Errorf("opponent played %q", uci)
	}
	if err := game.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
		return "", fmt.Errorf("opponent played %q: %w", uci, err)
	}
	return uci[:2] + " " + uci[2:4], nil
}

// replay plays history onto game and returns the result if it lands on
// encoding. History carries no promotion letter, so promotions are tried in
// turn until the rest of the replay fits.
func replay(game *nchess.Game, history []string, encoding string) *nchess.Game {
	for i, entry := range history {
		uci := strings.ReplaceAll(strings.TrimSpace(entry), " ", "")
		if err := game.PushNotationMove(uci, nchess.UCINotation{}, nil); err == nil {
			continue
		}
		for _, promo := range []string{"q", "r", "b", "n"} {
			child := game.Clone()
			if err := child.PushNotationMove(uci+promo, nchess.UCINotation{}, nil); err != nil {
				continue
			}
			if g := replay(child, history[i+1:], encoding); g != nil {
				return g
			}
		}
		return nil
	}
	if !samePosition(game.FEN(), encoding) {
		return nil
	}
	return game
}

// samePosition compares layout, side to move and castling rights.
func samePosition(a, b string) bool {
	fa, fb := strings.Fields(a), strings.Fields(b)
	if len(fa) < 3 || len(fb) < 3 {
		return false
	}
	return fa[0] == fb[0] && fa[1] == fb[1] && fa[2] == fb[2]
}

func gameFromFEN(fen string) (*nchess.Game, error) {
	fen = strings.TrimSpace(fen)
	if _, err := board.Decode(fen); err != nil {
		return nil, err
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return nchess.NewGame(opt), nil
}

// describe lists every legal move of the side to move with the position it leads to.
func describe(game *nchess.Game) (engine.State, error) {
	outcome := outcomeOf(game)
	st := engine.State{
		Encoding: game.FEN(),
		Turn:     turnLabel(game.Position().Turn()),
		Outcome:  outcomeLabel(outcome),
		Moves:    []moves.Entry{},
	}
	if outcome != nchess.NoOutcome {
		return st, nil
	}
	for _, mv := range game.ValidMoves() {
		uci := mv.String()
		if len(uci) < 4 {
			return engine.State{}, fmt.Errorf("unexpected move %q", uci)
		}
		child := game.Clone()
		if err := child.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
			return engine.State{}, fmt.Errorf("apply %q: %w", uci, err)
		}
		st.Moves = append(st.Moves, moves.Entry{
			Notation: uci[:2] + " " + uci[2:4],
			Result:   child.FEN(),
			Outcome:  outcomeLabel(outcomeOf(child)),
		})
	}
	return st, nil
}

// outcomeOf ends the game on a threefold repetition or a 100 half-move clock as
// well, not only when the library would end it by itself.
func outcomeOf(game *nchess.Game) nchess.Outcome {
	if o := game.Outcome(); o != nchess.NoOutcome {
		return o
	}
	for _, m := range game.EligibleDraws() {
		if m == nchess.ThreefoldRepetition || m == nchess.FiftyMoveRule {
			return nchess.Draw
		}
	}
	return nchess.NoOutcome
}

func turnLabel(c nchess.Color) string {
	if c == nchess.White {
		return board.White.String()
	}
	return board.Black.String()
}

func outcomeLabel(o nchess.Outcome) string {
	switch o {
	case nchess.WhiteWon:
		return board.WhiteWins.Label()
	case nchess.BlackWon:
		return board.BlackWins.Label()
	case nchess.Draw:
		return board.Draw.Label()
	default:
		return board.Ongoing.Label()
	}
}

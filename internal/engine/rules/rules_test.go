package rules

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/park285/chessfront/internal/board"
	"github.com/park285/chessfront/internal/engine"
	"github.com/park285/chessfront/internal/game"
	"github.com/park285/chessfront/internal/moves"
	"github.com/park285/chessfront/internal/selection"
	"github.com/park285/chessfront/internal/session"
)

func mustIndex(t *testing.T, st engine.State) *moves.Index {
	t.Helper()
	idx, err := moves.Build(st.Moves)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return idx
}

func TestInitialState(t *testing.T) {
	st, err := New().InitialState(context.Background())
	if err != nil {
		t.Fatalf("InitialState: %v", err)
	}
	if st.Encoding != board.StartEncoding || st.Turn != "White" || st.Outcome != "NoEnd" {
		t.Fatalf("unexpected state %q %q %q", st.Encoding, st.Turn, st.Outcome)
	}
	if len(st.Moves) != 20 {
		t.Fatalf("expected 20 opening moves, got %d", len(st.Moves))
	}
	if _, err := game.FromState(st, nil); err != nil {
		t.Fatalf("state does not decode: %v", err)
	}
	idx := mustIndex(t, st)
	dests, _ := idx.Destinations(board.Square{File: 4, Rank: 1})
	if len(dests) != 2 {
		t.Fatalf("e2 destinations = %v", dests)
	}
}

func TestPromotionEmitsFourEntries(t *testing.T) {
	st, err := New().Advance(context.Background(), "4k3/1P6/8/8/8/8/8/4K3 w - - 0 1", nil)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	idx := mustIndex(t, st)
	b7 := board.Square{File: 1, Rank: 6}
	b8 := board.Square{File: 1, Rank: 7}
	cands, err := idx.Between(b7, b8)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 4 {
		t.Fatalf("expected 4 promotion candidates, got %d", len(cands))
	}
	for _, k := range selection.PromotionOrder {
		res, err := selection.Resolve(context.Background(), idx, b7, b8, board.White, selection.Fixed(k))
		if err != nil {
			t.Fatalf("Resolve %v: %v", k, err)
		}
		b, err := board.Decode(res.Result)
		if err != nil {
			t.Fatalf("decode %q: %v", res.Result, err)
		}
		if got := b.Piece(b8); got != (board.Piece{Kind: k, Color: board.White}) {
			t.Fatalf("%v choice landed %v on b8", k, got)
		}
	}
}

func TestMateAndStalemateOutcomes(t *testing.T) {
	ctx := context.Background()
	e := New()

	// 1.f3 e5 2.g4, black to move
	st, err := e.Advance(ctx, "rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq - 0 2", []string{"f2 f3", "e7 e5", "g2 g4"})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	var mate *moves.Entry
	for i := range st.Moves {
		if st.Moves[i].Notation == "d8 h4" {
			mate = &st.Moves[i]
		}
	}
	if mate == nil || mate.Outcome != "BlackWin" {
		t.Fatalf("expected d8 h4 to be a black win, got %+v", mate)
	}

	final, err := e.Advance(ctx, mate.Result, nil)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if final.Outcome != "BlackWin" || final.Turn != "White" || len(final.Moves) != 0 {
		t.Fatalf("unexpected final state %+v", final)
	}

	stale, err := e.Advance(ctx, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", nil)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if stale.Outcome != "Tie" || len(stale.Moves) != 0 {
		t.Fatalf("expected stalemate draw, got %q with %d moves", stale.Outcome, len(stale.Moves))
	}
}

func knightShuffle(plies int) []string {
	cycle := []string{"g1 f3", "g8 f6", "f3 g1", "f6 g8"}
	out := make([]string, plies)
	for i := range out {
		out[i] = cycle[i%len(cycle)]
	}
	return out
}

func entryFor(t *testing.T, st engine.State, notation string) moves.Entry {
	t.Helper()
	for _, m := range st.Moves {
		if m.Notation == notation {
			return m
		}
	}
	t.Fatalf("no %s among %d moves", notation, len(st.Moves))
	return moves.Entry{}
}

func TestThreefoldRepetitionIsTie(t *testing.T) {
	ctx := context.Background()
	e := New()

	// black to move after seven shuffle plies: f6 g8 repeats the start a third time
	const before = "rnbqkb1r/pppppppp/5n2/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 7 4"
	st, err := e.Advance(ctx, before, knightShuffle(7))
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if st.Outcome != "NoEnd" {
		t.Fatalf("outcome = %q", st.Outcome)
	}
	if got := entryFor(t, st, "f6 g8").Outcome; got != "Tie" {
		t.Fatalf("f6 g8 outcome = %q, want Tie", got)
	}
	if got := entryFor(t, st, "e7 e5").Outcome; got != "NoEnd" {
		t.Fatalf("e7 e5 outcome = %q", got)
	}

	final, err := e.Advance(ctx, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 8 5", knightShuffle(8))
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if final.Outcome != "Tie" || len(final.Moves) != 0 {
		t.Fatalf("expected repetition draw, got %q with %d moves", final.Outcome, len(final.Moves))
	}

	// without history the position is seen once
	fresh, err := e.Advance(ctx, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 8 5", nil)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if fresh.Outcome != "NoEnd" {
		t.Fatalf("outcome without history = %q", fresh.Outcome)
	}
}

func TestHistoryThatDoesNotFitFallsBackToEncoding(t *testing.T) {
	st, err := New().Advance(context.Background(), board.StartEncoding, []string{"e2 e4"})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if st.Turn != "White" || len(st.Moves) != 20 {
		t.Fatalf("unexpected state %q with %d moves", st.Encoding, len(st.Moves))
	}
}

func TestFiftyMoveClockIsTie(t *testing.T) {
	ctx := context.Background()
	st, err := New().Advance(ctx, "4k3/8/8/8/8/8/8/R3K3 b - - 100 80", nil)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if st.Outcome != "Tie" || len(st.Moves) != 0 {
		t.Fatalf("expected clock draw, got %q with %d moves", st.Outcome, len(st.Moves))
	}

	st, err = New().Advance(ctx, "4k3/8/8/8/8/8/8/R3K3 w - - 99 80", nil)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got := entryFor(t, st, "e1 e2").Outcome; got != "Tie" {
		t.Fatalf("e1 e2 outcome = %q, want Tie", got)
	}
}

func TestAdvanceRejectsMalformed(t *testing.T) {
	_, err := New().Advance(context.Background(), "8/8/8 w", nil)
	if !errors.Is(err, board.ErrMalformedEncoding) {
		t.Fatalf("expected ErrMalformedEncoding, got %v", err)
	}
}

type scriptedOpponent struct {
	replies map[string]string
	asked   []string
}

func (o *scriptedOpponent) BestMove(_ context.Context, fen string) (string, error) {
	o.asked = append(o.asked, fen)
	layout := board.LayoutField(fen)
	if mv, ok := o.replies[layout]; ok {
		return mv, nil
	}
	return "", errors.New("no reply scripted")
}

func TestOpponentReplies(t *testing.T) {
	opp := &scriptedOpponent{replies: map[string]string{
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR": "e7e5",
	}}
	e := New(WithOpponent(opp, board.Black))

	st, err := e.Advance(context.Background(), "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1", []string{"e2 e4"})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if st.Turn != "White" || !strings.HasPrefix(st.Encoding, "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w") {
		t.Fatalf("opponent reply not applied: %q", st.Encoding)
	}
	if len(opp.asked) != 1 {
		t.Fatalf("opponent asked %d times", len(opp.asked))
	}
	if st.Reply != "e7 e5" {
		t.Fatalf("reply = %q", st.Reply)
	}

	// white to move: the opponent stays quiet
	if _, err := e.InitialState(context.Background()); err != nil {
		t.Fatalf("InitialState: %v", err)
	}
	if len(opp.asked) != 1 {
		t.Fatalf("opponent asked on the wrong side")
	}

	opp.replies = nil
	if _, err := e.Advance(context.Background(), "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1", nil); err == nil {
		t.Fatalf("expected opponent failure to surface")
	}
}

func TestInitialStateReportsWhiteOpponentMove(t *testing.T) {
	opp := &scriptedOpponent{replies: map[string]string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR": "d2d4",
	}}
	st, err := New(WithOpponent(opp, board.White)).InitialState(context.Background())
	if err != nil {
		t.Fatalf("InitialState: %v", err)
	}
	if st.Reply != "d2 d4" || st.Turn != "Black" {
		t.Fatalf("reply %q turn %q", st.Reply, st.Turn)
	}
}

func TestSessionPlaysFoolsMate(t *testing.T) {
	ctx := context.Background()
	c := session.New(New(), session.WithChooser(selection.Fixed(board.Queen)))
	if _, err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for _, mv := range []string{"f2 f3", "e7 e5", "g2 g4", "d8 h4"} {
		ev, err := c.Move(ctx, mv)
		if err != nil || ev.Kind != session.EventMoved {
			t.Fatalf("move %s: %v %v", mv, ev.Kind, err)
		}
	}
	snap := c.Snapshot()
	if snap.Outcome != board.BlackWins || snap.Plies() != 4 {
		t.Fatalf("outcome %v after %d plies", snap.Outcome, snap.Plies())
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/park285/chessfront/internal/archive"
	"github.com/park285/chessfront/internal/board"
	"github.com/park285/chessfront/internal/engine"
	"github.com/park285/chessfront/internal/game"
	"github.com/park285/chessfront/internal/moves"
	"github.com/park285/chessfront/internal/msgcat"
	"github.com/park285/chessfront/internal/opening"
	"github.com/park285/chessfront/internal/render"
	"github.com/park285/chessfront/internal/session"
)

// lineReader is the part of readline the loop needs.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// sessionLister is the listing side of the redis session store.
type sessionLister interface {
	Recent(ctx context.Context, limit int) ([]string, error)
}

type repl struct {
	ctl      *session.Controller
	cat      *msgcat.Catalog
	in       lineReader
	out      io.Writer
	games    archive.Repository
	sessions sessionLister
	unicode  bool
	flip     bool
}

const listLimit = 10

func (r *repl) say(key string, data map[string]any) {
	fmt.Fprintln(r.out, r.cat.Text(key, data))
}

func (r *repl) run(ctx context.Context) error {
	r.say("cli.banner", nil)
	r.printBoard()
	for {
		r.in.SetPrompt(r.prompt())
		line, err := r.in.Readline()
		if errors.Is(err, io.EOF) {
			r.say("cli.bye", nil)
			return nil
		}
		if err != nil {
			// ^C clears the line
			continue
		}
		if quit := r.exec(ctx, line); quit {
			r.say("cli.bye", nil)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (r *repl) prompt() string {
	snap := r.ctl.Snapshot()
	if snap == nil || snap.Pending() {
		return r.cat.Text("cli.prompt_pending", nil)
	}
	return r.cat.Text("cli.prompt", map[string]any{"Turn": r.turnText(snap.Turn)})
}

func (r *repl) turnText(c board.Color) string {
	if c == board.Black {
		return r.cat.Text("turn.black", nil)
	}
	return r.cat.Text("turn.white", nil)
}

// exec runs one command line and reports whether the user asked to quit.
func (r *repl) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprint(r.out, r.cat.Text("cli.help", nil))
	case "board", "b":
		r.printBoard()
	case "flip":
		r.flip = !r.flip
		r.printBoard()
	case "history", "h":
		r.printHistory()
	case "session":
		r.say("cli.session", map[string]any{"ID": r.ctl.ID()})
	case "moves", "m":
		if len(fields) != 2 {
			r.say("cli.unknown_command", map[string]any{"Input": line})
			return false
		}
		r.printMoves(fields[1])
	case "png":
		if len(fields) != 2 {
			r.say("cli.unknown_command", map[string]any{"Input": line})
			return false
		}
		r.writePNG(ctx, strings.Fields(line)[1])
	case "games":
		r.printGames(ctx)
	case "game":
		if len(fields) != 2 {
			r.say("cli.unknown_command", map[string]any{"Input": line})
			return false
		}
		r.printGame(ctx, strings.Fields(line)[1])
	case "sessions":
		r.printSessions(ctx)
	case "click", "c":
		if len(fields) != 2 {
			r.say("cli.unknown_command", map[string]any{"Input": line})
			return false
		}
		sq, err := board.ParseSquare(fields[1])
		if err != nil {
			r.say("cli.bad_square", map[string]any{"Input": fields[1]})
			return false
		}
		ev, err := r.ctl.Click(ctx, sq)
		r.report(ev, err)
	default:
		if len(fields) == 2 {
			if from, ferr := board.ParseSquare(fields[0]); ferr == nil {
				if to, terr := board.ParseSquare(fields[1]); terr == nil {
					ev, err := r.ctl.Move(ctx, moves.FormatNotation(from, to))
					r.report(ev, err)
					return false
				}
			}
		}
		r.say("cli.unknown_command", map[string]any{"Input": line})
	}
	return false
}

func (r *repl) report(ev session.Event, err error) {
	switch ev.Kind {
	case session.EventSelected:
		if len(ev.Destinations) == 0 {
			r.say("event.selected_none", map[string]any{"Square": ev.Square})
		} else {
			r.say("event.selected", map[string]any{"Square": ev.Square, "Destinations": joinSquares(ev.Destinations)})
		}
		r.printBoard()
		return
	case session.EventMoved:
		promo := ""
		if ev.Resolution != nil && ev.Resolution.Promotion != nil {
			promo = strings.ToUpper(string(ev.Resolution.Promotion.Letter()))
		}
		notation := ""
		if ev.Resolution != nil {
			notation = ev.Resolution.Notation
		}
		r.say("event.moved", map[string]any{"Notation": notation, "Promotion": promo})
		r.printBoard()
		r.printOutcome(ev.Snapshot)
		return
	case session.EventRolledBack:
		r.say("event.rolled_back", nil)
	case session.EventIgnored:
		if err == nil {
			r.say("event.ignored", nil)
		}
	case session.EventStay:
		r.say("event.stay", map[string]any{"Square": ev.Square})
	case session.EventRejected:
		r.say("event.rejected", nil)
	case session.EventDeselected:
		r.say("event.deselected", nil)
	}
	if err != nil && !errors.Is(err, engine.ErrEngineUnavailable) {
		fmt.Fprintf(r.out, "error: %v\n", err)
	}
}

func (r *repl) printBoard() {
	snap := r.ctl.Snapshot()
	if snap == nil {
		return
	}
	opts := board.ASCIIOptions{Unicode: r.unicode, Flip: r.flip}
	if sq, ok := r.ctl.Selected(); ok {
		opts.Selected = &sq
		opts.Marks, _ = snap.Index.Destinations(sq)
	}
	fmt.Fprint(r.out, board.ASCII(snap.Board, opts))
}

func (r *repl) printOutcome(snap *game.Snapshot) {
	if snap == nil {
		return
	}
	switch snap.Outcome {
	case board.WhiteWins:
		r.say("outcome.white_wins", nil)
	case board.BlackWins:
		r.say("outcome.black_wins", nil)
	case board.Draw:
		r.say("outcome.draw", nil)
	case board.Ongoing:
	}
}

func (r *repl) printHistory() {
	snap := r.ctl.Snapshot()
	if snap == nil || snap.Plies() == 0 {
		r.say("history.empty", nil)
		return
	}
	history := snap.History()
	for i, mv := range history {
		r.say("history.line", map[string]any{"Number": strconv.Itoa(i + 1), "Notation": mv})
	}
	if op, ok := opening.Identify(history, snap.Encoding); ok {
		r.say("history.opening", map[string]any{"Code": op.Code, "Title": op.Title})
	}
}

func (r *repl) printMoves(arg string) {
	sq, err := board.ParseSquare(arg)
	if err != nil {
		r.say("cli.bad_square", map[string]any{"Input": arg})
		return
	}
	snap := r.ctl.Snapshot()
	if snap == nil {
		return
	}
	dests, _ := snap.Index.Destinations(sq)
	if len(dests) == 0 {
		r.say("moves.none", map[string]any{"Square": sq})
		return
	}
	r.say("moves.list", map[string]any{"Square": sq, "Destinations": joinSquares(dests)})
}

func (r *repl) writePNG(ctx context.Context, path string) {
	snap := r.ctl.Snapshot()
	if snap == nil {
		return
	}
	opts := render.Options{Flip: r.flip, Caption: r.turnText(snap.Turn)}
	if sq, ok := r.ctl.Selected(); ok {
		opts.Selected = &sq
		opts.Targets, _ = snap.Index.Destinations(sq)
	}
	if h := snap.History(); len(h) > 0 {
		if from, to, err := moves.ParseNotation(h[len(h)-1]); err == nil {
			opts.LastMove = &render.Move{From: from, To: to}
		}
	}
	data, err := render.PNG(ctx, snap.Board, opts)
	if err == nil {
		err = os.WriteFile(path, data, 0o644)
	}
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	r.say("cli.png_written", map[string]any{"Path": path})
}

func joinSquares(sqs []board.Square) string {
	parts := make([]string, len(sqs))
	for i, sq := range sqs {
		parts[i] = sq.String()
	}
	return strings.Join(parts, " ")
}

func (r *repl) printGames(ctx context.Context) {
	if r.games == nil {
		r.say("archive.disabled", nil)
		return
	}
	games, err := r.games.Recent(ctx, listLimit)
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	if len(games) == 0 {
		r.say("archive.empty", nil)
		return
	}
	for _, g := range games {
		r.say("archive.line", gameData(g))
	}
}

// printGame looks up an archived game by its number or by its session id.
func (r *repl) printGame(ctx context.Context, ref string) {
	if r.games == nil {
		r.say("archive.disabled", nil)
		return
	}
	var (
		g   *archive.Game
		err error
	)
	if id, perr := strconv.ParseInt(ref, 10, 64); perr == nil {
		g, err = r.games.Get(ctx, id)
	} else {
		g, err = r.games.GetBySession(ctx, ref)
	}
	if errors.Is(err, archive.ErrNotFound) {
		r.say("archive.not_found", map[string]any{"Ref": ref})
		return
	}
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	r.say("archive.line", gameData(g))
	for i, mv := range g.Moves {
		r.say("history.line", map[string]any{"Number": strconv.Itoa(i + 1), "Notation": mv})
	}
	if op, ok := opening.Identify(g.Moves, g.FinalEncoding); ok {
		r.say("history.opening", map[string]any{"Code": op.Code, "Title": op.Title})
	}
}

func gameData(g *archive.Game) map[string]any {
	return map[string]any{
		"ID":       g.ID,
		"Session":  g.SessionID,
		"Outcome":  g.Outcome,
		"Plies":    len(g.Moves),
		"Duration": g.Duration().Round(time.Second).String(),
	}
}

func (r *repl) printSessions(ctx context.Context) {
	if r.sessions == nil {
		r.say("sessions.disabled", nil)
		return
	}
	ids, err := r.sessions.Recent(ctx, listLimit)
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	if len(ids) == 0 {
		r.say("sessions.empty", nil)
		return
	}
	current := r.ctl.ID()
	for _, id := range ids {
		r.say("sessions.line", map[string]any{"ID": id, "Current": id == current})
	}
}

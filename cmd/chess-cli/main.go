// Command chess-cli plays a game in the terminal against the configured engine.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chzyer/readline"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/park285/chessfront/internal/chessbuilder"
	appcfg "github.com/park285/chessfront/internal/config"
	"github.com/park285/chessfront/internal/msgcat"
	"github.com/park285/chessfront/internal/obslog"
	"github.com/park285/chessfront/internal/session"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	// the terminal belongs to the game; logs go to a file unless asked otherwise
	if err := obslog.InitFromEnvWith(obslog.Defaults{ToFile: true, File: filepath.Join("logs", "chess-cli.log")}); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	deps, err := chessbuilder.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer deps.Close()

	cat, err := msgcat.New(cfg.MsgOverrideDir)
	if err != nil {
		log.Fatalf("messages error: %v", err)
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	var in lineReader
	if interactive {
		rl, err := readline.NewEx(&readline.Config{
			HistoryFile:     filepath.Join(os.TempDir(), ".chessfront_history"),
			InterruptPrompt: "^C",
			EOFPrompt:       "quit",
		})
		if err != nil {
			log.Fatalf("readline error: %v", err)
		}
		defer rl.Close()
		in = rl
	} else {
		in = newScanReader(os.Stdin)
	}

	opts := append(deps.SessionOptions(),
		session.WithChooser(&promptChooser{in: in, out: os.Stdout, cat: cat}),
		session.WithLogger(logger),
		session.WithTimeout(cfg.EngineTimeout),
	)
	ctl := session.New(deps.Engine, opts...)

	if len(os.Args) > 1 {
		snap, err := ctl.Resume(ctx, os.Args[1])
		if err != nil {
			log.Fatalf("resume %s: %v", os.Args[1], err)
		}
		fmt.Println(cat.Text("cli.resumed", map[string]any{"ID": ctl.ID(), "Plies": snap.Plies()}))
	} else if _, err := ctl.Start(ctx); err != nil {
		log.Fatalf("start: %v", err)
	}
	logger.Info("cli_ready", zap.String("session", ctl.ID()), zap.Bool("interactive", interactive))

	r := &repl{ctl: ctl, cat: cat, in: in, out: os.Stdout, games: deps.Archive, unicode: interactive}
	if deps.Store != nil {
		r.sessions = deps.Store
	}
	if err := r.run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("repl: %v", err)
	}
}

// scanReader reads commands from a pipe; prompts are not echoed.
type scanReader struct {
	sc *bufio.Scanner
}

func newScanReader(r io.Reader) *scanReader { return &scanReader{sc: bufio.NewScanner(r)} }

func (s *scanReader) SetPrompt(string) {}

func (s *scanReader) Readline() (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	if err := s.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

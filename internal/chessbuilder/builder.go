// Package chessbuilder wires engines and storage from configuration.
package chessbuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/chessfront/internal/archive"
	"github.com/park285/chessfront/internal/board"
	"github.com/park285/chessfront/internal/config"
	"github.com/park285/chessfront/internal/engine"
	"github.com/park285/chessfront/internal/engine/remote"
	"github.com/park285/chessfront/internal/engine/rules"
	"github.com/park285/chessfront/internal/engine/uci"
	"github.com/park285/chessfront/internal/engine/wsremote"
	"github.com/park285/chessfront/internal/session"
)

type Deps struct {
	Engine engine.Engine
	// Store and Archive are nil when their URLs are unset.
	Store   *session.RedisStore
	Archive archive.Repository

	closers []func() error
}

// New builds every dependency cfg asks for. On error, whatever was opened is closed.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{}

	eng, closeEngine, err := NewEngine(cfg, logger)
	if err != nil {
		return nil, err
	}
	d.Engine = eng
	d.closers = append(d.closers, closeEngine)

	if strings.TrimSpace(cfg.RedisURL) != "" {
		rdb, err := session.Dial(ctx, cfg.RedisURL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		d.Store = session.NewRedisStore(rdb, cfg.SessionTTL())
		d.closers = append(d.closers, rdb.Close)
	}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := archive.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("init archive: %w", err)
		}
		d.Archive = archive.NewRepository(db)
		d.closers = append(d.closers, db.Close)
	}

	logger.Info("deps_ready",
		zap.String("engine_mode", cfg.EngineMode),
		zap.Bool("redis", d.Store != nil),
		zap.Bool("archive", d.Archive != nil),
	)
	return d, nil
}

// SessionOptions returns the controller options for the configured storage.
func (d *Deps) SessionOptions() []session.Option {
	var opts []session.Option
	if d.Store != nil {
		opts = append(opts, session.WithStore(d.Store))
	}
	if d.Archive != nil {
		opts = append(opts, session.WithArchive(d.Archive))
	}
	return opts
}

func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// NewEngine picks the backend from ENGINE_MODE. The returned func releases it.
func NewEngine(cfg *config.AppConfig, logger *zap.Logger) (engine.Engine, func() error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.EngineMode {
	case config.EngineHTTP:
		c := remote.NewClient(cfg.EngineURL,
			remote.WithTimeout(cfg.EngineTimeout),
			remote.WithRetry(cfg.EngineRetry),
			remote.WithLogger(logger),
		)
		return c, func() error { return nil }, nil
	case config.EngineWS:
		c := wsremote.New(cfg.EngineURL, wsremote.WithLogger(logger))
		return c, c.Close, nil
	case config.EngineLocal:
		return newRulesEngine(cfg, logger)
	default:
		return nil, nil, fmt.Errorf("unknown engine mode %q", cfg.EngineMode)
	}
}

func newRulesEngine(cfg *config.AppConfig, logger *zap.Logger) (engine.Engine, func() error, error) {
	color, err := opponentColor(cfg.OpponentColor)
	if err != nil {
		return nil, nil, err
	}
	if color == board.NoColor {
		return rules.New(rules.WithLogger(logger)), func() error { return nil }, nil
	}
	if strings.TrimSpace(cfg.StockfishPath) == "" {
		return nil, nil, fmt.Errorf("STOCKFISH_PATH is required when OPPONENT_COLOR=%s", cfg.OpponentColor)
	}
	preset, err := uci.LookupPreset(cfg.OpponentLevel)
	if err != nil {
		return nil, nil, err
	}
	limits := preset.Limits
	if cfg.OpponentMoveTimeMS > 0 {
		limits.MoveTimeMillis = cfg.OpponentMoveTimeMS
	}
	pool, err := uci.NewPool(uci.PoolConfig{BinaryPath: cfg.StockfishPath, Options: preset.Options, Capacity: 2})
	if err != nil {
		return nil, nil, fmt.Errorf("init engine pool: %w", err)
	}
	logger.Info("opponent_ready",
		zap.String("color", cfg.OpponentColor),
		zap.String("level", preset.Name),
		zap.Int("movetime_ms", limits.MoveTimeMillis),
	)
	opp := uci.NewOpponent(pool, limits)
	eng := rules.New(rules.WithOpponent(opp, color), rules.WithLogger(logger))
	return eng, pool.Close, nil
}

func opponentColor(s string) (board.Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return board.NoColor, nil
	case "white":
		return board.White, nil
	case "black":
		return board.Black, nil
	default:
		return board.NoColor, fmt.Errorf("unknown opponent color %q", s)
	}
}

package chessbuilder

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/park285/chessfront/internal/config"
	"github.com/park285/chessfront/internal/engine/remote"
	"github.com/park285/chessfront/internal/engine/rules"
	"github.com/park285/chessfront/internal/engine/wsremote"
)

func baseConfig() *config.AppConfig {
	return &config.AppConfig{
		EngineMode:     config.EngineLocal,
		EngineTimeout:  time.Second,
		EngineRetry:    1,
		SessionTTLSec:  60,
		DatabaseDriver: "sqlite3",
		OpponentColor:  "none",
	}
}

func TestNewEngineModes(t *testing.T) {
	cfg := baseConfig()
	eng, closeFn, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("local: %v", err)
	}
	if _, ok := eng.(*rules.Engine); !ok {
		t.Fatalf("local mode built %T", eng)
	}
	_ = closeFn()

	cfg.EngineMode, cfg.EngineURL = config.EngineHTTP, "http://127.0.0.1:1"
	if eng, _, err = NewEngine(cfg, nil); err != nil {
		t.Fatalf("http: %v", err)
	}
	if _, ok := eng.(*remote.Client); !ok {
		t.Fatalf("http mode built %T", eng)
	}

	cfg.EngineMode, cfg.EngineURL = config.EngineWS, "ws://127.0.0.1:1"
	if eng, _, err = NewEngine(cfg, nil); err != nil {
		t.Fatalf("ws: %v", err)
	}
	if _, ok := eng.(*wsremote.Client); !ok {
		t.Fatalf("ws mode built %T", eng)
	}

	cfg.EngineMode = "carrier-pigeon"
	if _, _, err := NewEngine(cfg, nil); err == nil {
		t.Fatalf("expected unknown mode error")
	}
}

func TestOpponentNeedsBinary(t *testing.T) {
	cfg := baseConfig()
	cfg.OpponentColor = "black"
	if _, _, err := NewEngine(cfg, nil); err == nil {
		t.Fatalf("expected missing STOCKFISH_PATH error")
	}
	cfg.StockfishPath = "/nonexistent/stockfish"
	if _, _, err := NewEngine(cfg, nil); err == nil {
		t.Fatalf("expected missing binary error")
	}
	cfg.OpponentLevel = "level99"
	if _, _, err := NewEngine(cfg, nil); err == nil || !strings.Contains(err.Error(), "level99") {
		t.Fatalf("expected unknown level error, got %v", err)
	}
}

func TestNewWiresStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	cfg.DatabaseURL = ":memory:"

	d, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()
	if d.Store == nil || d.Archive == nil {
		t.Fatalf("storage not wired: store=%v archive=%v", d.Store != nil, d.Archive != nil)
	}
	if got := len(d.SessionOptions()); got != 2 {
		t.Fatalf("session options = %d", got)
	}
}

func TestNewWithoutStorage(t *testing.T) {
	d, err := New(context.Background(), baseConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Store != nil || d.Archive != nil || len(d.SessionOptions()) != 0 {
		t.Fatalf("unexpected storage")
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewFailsOnBadRedis(t *testing.T) {
	cfg := baseConfig()
	cfg.RedisURL = "redis://127.0.0.1:1"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := New(ctx, cfg, nil); err == nil {
		t.Fatalf("expected redis dial error")
	}
}

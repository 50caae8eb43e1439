package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EngineLocal = "local"
	EngineHTTP  = "http"
	EngineWS    = "ws"
)

type AppConfig struct {
	EngineMode    string
	EngineURL     string
	EngineTimeout time.Duration
	EngineRetry   int

	HTTPAddr string
	WSAddr   string

	RedisURL      string
	SessionTTLSec int

	DatabaseDriver string
	DatabaseURL    string

	StockfishPath      string
	OpponentColor      string
	OpponentLevel      string
	OpponentMoveTimeMS int // 0 keeps the level's own move time

	MsgOverrideDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		EngineMode:         EngineLocal,
		EngineTimeout:      10 * time.Second,
		EngineRetry:        3,
		HTTPAddr:           ":8080",
		WSAddr:             ":8081",
		SessionTTLSec:      3600,
		DatabaseDriver:     "postgres",
		OpponentColor:      "none",
		OpponentLevel:      "level5",
	}

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("ENGINE_MODE"))); v != "" {
		cfg.EngineMode = v
	}
	cfg.EngineURL = strings.TrimSpace(os.Getenv("ENGINE_URL"))
	if v := strings.TrimSpace(os.Getenv("ENGINE_TIMEOUT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EngineTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_RETRY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EngineRetry = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("WS_ADDR")); v != "" {
		cfg.WSAddr = v
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	if v := strings.TrimSpace(os.Getenv("SESSION_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTTLSec = n
		}
	}

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("DATABASE_DRIVER"))); v != "" {
		cfg.DatabaseDriver = v
	}
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	cfg.StockfishPath = strings.TrimSpace(os.Getenv("STOCKFISH_PATH"))
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("OPPONENT_COLOR"))); v != "" {
		cfg.OpponentColor = v
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("OPPONENT_LEVEL"))); v != "" {
		cfg.OpponentLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("OPPONENT_MOVETIME_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.OpponentMoveTimeMS = n
		}
	}

	cfg.MsgOverrideDir = strings.TrimSpace(os.Getenv("MSG_OVERRIDE_DIR"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.EngineMode {
	case EngineLocal:
	case EngineHTTP, EngineWS:
		if c.EngineURL == "" {
			return fmt.Errorf("ENGINE_URL is required for ENGINE_MODE=%s", c.EngineMode)
		}
	default:
		return fmt.Errorf("unknown ENGINE_MODE %q", c.EngineMode)
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	switch c.OpponentColor {
	case "none", "white", "black":
	default:
		return fmt.Errorf("unknown OPPONENT_COLOR %q", c.OpponentColor)
	}
	if c.OpponentColor != "none" && c.EngineMode != EngineLocal {
		return errors.New("OPPONENT_COLOR requires ENGINE_MODE=local")
	}
	return nil
}

func (c *AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSec) * time.Second
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chessfront/internal/chessbuilder"
	appcfg "github.com/park285/chessfront/internal/config"
	"github.com/park285/chessfront/internal/engine/server"
	"github.com/park285/chessfront/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.EngineMode != appcfg.EngineLocal {
		log.Fatalf("chess-engine serves the local rules engine; ENGINE_MODE=%s is a client setting", cfg.EngineMode)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	eng, closeEngine, err := chessbuilder.NewEngine(cfg, logger)
	if err != nil {
		logger.Fatal("engine_init_failed", zap.Error(err))
	}
	defer func() { _ = closeEngine() }()

	srv := server.New(eng, server.WithLogger(logger), server.WithTimeout(cfg.EngineTimeout))
	app := srv.App()
	wsSrv := &http.Server{
		Addr:              cfg.WSAddr,
		Handler:           srv.WebsocketHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http_listen", zap.String("addr", cfg.HTTPAddr))
		errCh <- app.Listen(cfg.HTTPAddr)
	}()
	go func() {
		logger.Info("ws_listen", zap.String("addr", cfg.WSAddr))
		if err := wsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutdown", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("listener_failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Warn("http_shutdown_failed", zap.Error(err))
	}
	if err := wsSrv.Shutdown(ctx); err != nil {
		logger.Warn("ws_shutdown_failed", zap.Error(err))
	}
}

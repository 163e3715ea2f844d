package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/agenthands/cross/internal/audit"
	"github.com/agenthands/cross/internal/config"
	"github.com/agenthands/cross/internal/core"
	"github.com/agenthands/cross/internal/driver"
	"github.com/agenthands/cross/internal/logging"
	"github.com/agenthands/cross/internal/observability"
	"github.com/agenthands/cross/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	envErr := godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = config.DefaultPath
	}
	cfg, err := config.Load(cfgPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default(), nil
		cfgPath = ""
	}
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New("cross", cfg.Log, nil)
	if envErr != nil {
		logger.Debug("no .env file found, using environment")
	}
	if cfgPath == "" {
		logger.Warn("no config file found, using defaults", "path", config.DefaultPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()
	observability.InitMetrics()

	var sink server.AuditSink
	if cfg.Memgraph.URI != "" {
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, logger.Named("memgraph"))
		if err != nil {
			return fmt.Errorf("failed to connect to Memgraph: %w", err)
		}
		defer d.Close(context.Background())
		if err := d.BuildIndices(ctx); err != nil {
			return err
		}
		sink = audit.NewRecorder(d, logger.Named("audit"))
	}

	engine := core.NewEngine(core.WithLogger(logger.Named("engine")))
	srv := server.NewServer(cfg, engine, sink, logger.Named("http"))

	if cfgPath != "" {
		if err := config.Watch(ctx, cfgPath, logger.Named("config"), srv.UpdateConfig); err != nil {
			logger.Warn("config reload disabled", "error", err)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.SetupRouter(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(sctx)
}

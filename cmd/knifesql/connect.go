package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/knifesql/knifesql"
	"github.com/knifesql/knifesql/internal/config"
	"github.com/knifesql/knifesql/internal/observability"
)

// session is one connected client plus the settings it was opened with.
type session struct {
	client knifesql.Client
	cfg    config.Config
	logger *slog.Logger

	metrics *http.Server
}

// loadConfig reads settings from the file and environment and lays the
// command line flags over them.
func (c *CmdControl) loadConfig(lookup config.LookupFunc) (config.Config, error) {
	cfg, err := config.Load(c.FlagConfig, lookup)
	if err != nil {
		return config.Config{}, err
	}

	if c.FlagEngine != "" {
		cfg.Engine = c.FlagEngine
	}
	if c.FlagDSN != "" {
		cfg.DSN = c.FlagDSN
	}
	if c.FlagReadOnly {
		cfg.ReadOnly = true
	}
	if c.FlagStrict {
		cfg.Strict = true
	}
	if c.FlagMetricsAddr != "" {
		cfg.MetricsAddr = c.FlagMetricsAddr
	}
	if c.FlagLogVerbose {
		cfg.Log.Level = slog.LevelInfo
	}
	if c.FlagLogDebug {
		cfg.Log.Level = slog.LevelDebug
	}

	if cfg.Engine == "" {
		return config.Config{}, fmt.Errorf("no engine selected: use --engine or KNIFESQL_ENGINE")
	}
	kind, err := knifesql.ParseEngineKind(cfg.Engine)
	if err != nil {
		return config.Config{}, err
	}
	cfg.Engine = string(kind)

	if cfg.DSN == "" {
		dsn, err := config.BuildDSN(cfg.Engine, lookup)
		if err != nil {
			return config.Config{}, fmt.Errorf("no connection string: use --dsn or KNIFESQL_DSN, or %w", err)
		}
		cfg.DSN = dsn
	}
	return cfg, nil
}

// connect opens a session for a command. The caller must close it.
func (c *CmdControl) connect(ctx context.Context) (*session, error) {
	cfg, err := c.loadConfig(os.LookupEnv)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg, os.Stderr)

	client, err := knifesql.GetClient(knifesql.EngineKind(cfg.Engine),
		knifesql.WithLogger(logger),
		knifesql.WithConnectTimeout(cfg.ConnectTimeout),
	)
	if err != nil {
		return nil, err
	}

	s := &session{client: client, cfg: cfg, logger: logger}
	if cfg.MetricsAddr != "" {
		s.serveMetrics()
	}

	if err := client.Connect(ctx, cfg.DSN); err != nil {
		s.close(ctx)
		return nil, err
	}

	if cfg.ReadOnly {
		enforcer, ok := client.(knifesql.ReadOnlyEnforcer)
		if !ok {
			logger.Warn("engine cannot enforce read-only sessions", slog.String("engine", cfg.Engine))
		} else if err := enforcer.EnforceReadOnly(ctx); err != nil {
			s.close(ctx)
			return nil, fmt.Errorf("enforce read-only: %w", err)
		}
	}
	return s, nil
}

func (s *session) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	s.metrics = &http.Server{
		Addr:              s.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Info("serving metrics", slog.String("addr", s.cfg.MetricsAddr))
		if err := s.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
}

// queryContext bounds one statement by the configured query timeout.
func (s *session) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.QueryTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.QueryTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *session) close(ctx context.Context) {
	if err := s.client.Disconnect(ctx); err != nil {
		s.logger.Warn("disconnect failed", slog.Any("error", err))
	}
	if s.metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.metrics.Shutdown(shutdownCtx)
	}
}

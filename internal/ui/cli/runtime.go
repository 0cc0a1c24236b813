package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	coreapp "repo2text/internal/core/app"
	"repo2text/internal/core/config"
	"repo2text/internal/shared/observability"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

// session holds everything a command needs for one invocation.
type session struct {
	cfg     *config.Config
	app     *coreapp.App
	server  *ObservabilityServer
	closers []func(context.Context) error
}

func (o *rootOptions) start(cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()
	configureLogging(o.stderr, o.verbose, o.quiet)

	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(o.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, err
	}
	if token := strings.TrimSpace(o.token); token != "" {
		cfg.GitHub.Token = token
	}
	if addr := strings.TrimSpace(o.metricsAddr); addr != "" {
		cfg.Observability.MetricsAddr = addr
	}

	s := &session{cfg: cfg}
	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, shutdownTracing)

	app, err := coreapp.New(ctx, cfg, coreapp.WithLogger(slog.Default().With("component", "app")))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("initialize app: %w", err)
	}
	s.app = app
	s.closers = append(s.closers, func(context.Context) error { return app.Close() })

	if cfg.Observability.MetricsAddr != "" {
		server := NewObservabilityServer(cfg.Observability.MetricsAddr, coreapp.NewHealthService(app))
		if err := server.Start(ctx); err != nil {
			s.Close()
			return nil, err
		}
		s.server = server
		s.closers = append(s.closers, server.Stop)
	}
	return s, nil
}

// Close releases resources in reverse order of acquisition.
func (s *session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			slog.Warn("shutdown step failed", "error", err)
		}
	}
	s.closers = nil
}

// loadConfig reads path. A missing file falls back to defaults unless the
// path was given explicitly.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		slog.Debug("loaded config", "path", path)
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		slog.Debug("no config file, using defaults", "path", path)
		return config.Default()
	}
	return nil, fmt.Errorf("load config %s: %w", path, err)
}

func configureLogging(w io.Writer, verbose, quiet bool) {
	logLevel := slog.LevelInfo
	switch {
	case verbose:
		logLevel = slog.LevelDebug
	case quiet:
		logLevel = slog.LevelWarn
	}
	if w == nil {
		w = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

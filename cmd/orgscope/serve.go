// Licensed to the orgscope authors under one or more agreements.
// The orgscope authors license this file to you under the Apache 2.0 License.
// See the LICENSE file in the project root for more information.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/orgscope/orgscope/internal/cache"
	"github.com/orgscope/orgscope/internal/config"
	"github.com/orgscope/orgscope/internal/handler"
	"github.com/orgscope/orgscope/internal/orgs"
	"github.com/orgscope/orgscope/internal/otelsetup"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		listen          string
		cacheTTL        string
		cacheMaxEntries int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the orgscope HTTP API server",
		Long: `Run the orgscope HTTP API server.

The server exposes organization metadata and repository listings under
/v1/orgs/{org} and caches successful lookups for the configured TTL.
Telemetry exporters are selected through the standard OTEL_* environment
variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}
			if cacheTTL != "" {
				d, err := time.ParseDuration(cacheTTL)
				if err != nil {
					return fmt.Errorf("invalid --cache-ttl value %q: %w", cacheTTL, err)
				}
				cfg.Cache.TTL = config.Duration(d)
			}
			if cacheMaxEntries > 0 {
				cfg.Cache.MaxEntries = cacheMaxEntries
			}
			// Flag overrides may have introduced out-of-range values.
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, opts.verbose)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config file and ORGSCOPE_LISTEN)")
	cmd.Flags().StringVar(&cacheTTL, "cache-ttl", "", `lookup cache TTL, e.g. "5m" ("0s" disables caching)`)
	cmd.Flags().IntVar(&cacheMaxEntries, "cache-max-entries", 0, "maximum number of cached organizations")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	// Set up slog with trace context injection.
	logger := otelsetup.NewLogger(os.Stderr, level)
	slog.SetDefault(logger)

	// Set up OpenTelemetry.
	otelShutdown, err := otelsetup.Setup(ctx, "orgscope", version)
	if err != nil {
		return fmt.Errorf("setting up OpenTelemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Error("OpenTelemetry shutdown error", slog.String("error", err.Error()))
		}
	}()

	getter := newHTTPGetter(cfg, logger)

	summaryCache := cache.New(time.Duration(cfg.Cache.TTL), cfg.Cache.MaxEntries)
	defer summaryCache.Stop()

	service := orgs.New(getter, cfg.GitHub.APIBaseURL, summaryCache, logger)
	h := handler.New(service, logger)

	srv := &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: h.Routes(),
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting",
			slog.String("listen", cfg.Server.Listen),
			slog.String("github_api", cfg.GitHub.APIBaseURL),
			slog.Duration("cache_ttl", time.Duration(cfg.Cache.TTL)),
			slog.Int("cache_max_entries", cfg.Cache.MaxEntries),
			slog.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for a shutdown signal or a listener failure.
	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

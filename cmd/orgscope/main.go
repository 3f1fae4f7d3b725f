// Licensed to the orgscope authors under one or more agreements.
// The orgscope authors license this file to you under the Apache 2.0 License.
// See the LICENSE file in the project root for more information.

// Package main implements the orgscope command line interface.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/orgscope/orgscope/internal/config"
	"github.com/orgscope/orgscope/internal/github"
)

// version is set at build time via -ldflags "-X main.version=v1.0.0".
var version = "dev"

// rootOptions holds the persistent flag values shared by all subcommands.
type rootOptions struct {
	configPath string
	baseURL    string
	verbose    bool
}

// loadConfig resolves the effective configuration for one command run:
// defaults, then config file, then environment, then flags.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.baseURL != "" {
		cfg.GitHub.APIBaseURL = o.baseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the CLI logger writing to w, debug level when
// --verbose is set.
func (o *rootOptions) newLogger(w io.Writer) *slog.Logger {
	level := charmlog.InfoLevel
	if o.verbose {
		level = charmlog.DebugLevel
	}
	handler := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
	return slog.New(handler)
}

// newHTTPGetter builds the GitHub transport with the configured request
// timeout.
func newHTTPGetter(cfg *config.Config, logger *slog.Logger) *github.HTTPGetter {
	return github.NewHTTPGetter(
		github.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.GitHub.RequestTimeout)}),
		github.WithLogger(logger),
	)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "orgscope",
		Short: "Inspect GitHub organizations and their public repositories",
		Long: `orgscope inspects GitHub organizations through the public REST API.
It can print organization metadata, list public repositories with an
optional license filter, and serve the same lookups over HTTP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file (default: search .orgscope.yaml, ~/.config/orgscope/)")
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "GitHub API base URL (overrides config file and GITHUB_API_BASE_URL)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newOrgCommand(opts))
	cmd.AddCommand(newReposCommand(opts))
	cmd.AddCommand(newServeCommand(opts))

	return cmd
}

// exitCode maps command errors to process exit codes. Unknown
// organizations exit with 2 so scripts can tell them apart from
// transport failures.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, github.ErrNotFound):
		return 2
	default:
		return 1
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// Licensed to the orgscope authors under one or more agreements.
// The orgscope authors license this file to you under the Apache 2.0 License.
// See the LICENSE file in the project root for more information.

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/orgscope/orgscope/internal/config"
	"github.com/orgscope/orgscope/internal/github"
)

// isolateConfigEnv keeps config.Load from picking up files or variables
// from the host machine.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"GITHUB_API_BASE_URL",
		"ORGSCOPE_REQUEST_TIMEOUT",
		"ORGSCOPE_LISTEN",
		"ORGSCOPE_CACHE_TTL",
		"ORGSCOPE_CACHE_MAX_ENTRIES",
	} {
		t.Setenv(key, "")
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig returns a config pointing at the given test server URL.
func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.GitHub.APIBaseURL = baseURL
	return cfg
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil error", err: nil, want: 0},
		{name: "not found", err: github.ErrNotFound, want: 2},
		{name: "wrapped not found", err: fmt.Errorf("looking up org: %w", github.ErrNotFound), want: 2},
		{name: "other error", err: errors.New("connection refused"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestNewRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	want := map[string]bool{"org": false, "repos": false, "serve": false}
	for _, sub := range root.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	for _, flag := range []string{"config", "base-url", "verbose"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag %q not registered", flag)
		}
	}
}

func TestRootOptions_LoadConfig_FlagOverridesEnv(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("GITHUB_API_BASE_URL", "https://env.example.com")

	opts := &rootOptions{baseURL: "https://flag.example.com"}
	cfg, err := opts.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.GitHub.APIBaseURL != "https://flag.example.com" {
		t.Errorf("APIBaseURL = %q, want flag override %q", cfg.GitHub.APIBaseURL, "https://flag.example.com")
	}
}

func TestRootOptions_LoadConfig_InvalidBaseURL(t *testing.T) {
	isolateConfigEnv(t)

	opts := &rootOptions{baseURL: "ftp://api.github.com"}
	if _, err := opts.loadConfig(); err == nil {
		t.Fatal("expected validation error for non-http base URL, got nil")
	}
}

func TestRootOptions_NewLogger_Level(t *testing.T) {
	ctx := context.Background()

	quiet := (&rootOptions{}).newLogger(io.Discard)
	if quiet.Enabled(ctx, slog.LevelDebug) {
		t.Error("default logger has debug enabled, want info")
	}
	if !quiet.Enabled(ctx, slog.LevelInfo) {
		t.Error("default logger has info disabled")
	}

	verbose := (&rootOptions{verbose: true}).newLogger(io.Discard)
	if !verbose.Enabled(ctx, slog.LevelDebug) {
		t.Error("verbose logger has debug disabled")
	}
}

func TestServeCommand_Flags(t *testing.T) {
	cmd := newServeCommand(&rootOptions{})

	if cmd.Name() != "serve" {
		t.Errorf("Name() = %q, want %q", cmd.Name(), "serve")
	}
	for _, flag := range []string{"listen", "cache-ttl", "cache-max-entries"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("flag %q not registered", flag)
		}
	}
}

func TestServeCommand_InvalidCacheTTL(t *testing.T) {
	isolateConfigEnv(t)

	root := newRootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"serve", "--cache-ttl", "banana"})

	err := root.ExecuteContext(context.Background())
	if err == nil {
		t.Fatal("expected error for unparseable --cache-ttl, got nil")
	}
	if !strings.Contains(err.Error(), "invalid --cache-ttl") {
		t.Errorf("error = %q, want mention of invalid --cache-ttl", err)
	}
}

func TestServeCommand_NegativeCacheTTL(t *testing.T) {
	isolateConfigEnv(t)

	root := newRootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"serve", "--cache-ttl", "-5s"})

	err := root.ExecuteContext(context.Background())
	if err == nil {
		t.Fatal("expected validation error for negative --cache-ttl, got nil")
	}
	if !strings.Contains(err.Error(), "cache.ttl") {
		t.Errorf("error = %q, want cache.ttl validation failure", err)
	}
}

func TestRootCommand_ReposEndToEnd(t *testing.T) {
	isolateConfigEnv(t)
	srv := newGitHubTestServer(t)

	root := newRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"repos", "google", "--base-url", srv.URL, "--license", "apache-2.0"})

	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("ExecuteContext() error = %v", err)
	}

	want := "repo1\nrepo3\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

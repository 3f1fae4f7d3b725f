// Licensed to the orgscope authors under one or more agreements.
// The orgscope authors license this file to you under the Apache 2.0 License.
// See the LICENSE file in the project root for more information.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/orgscope/orgscope/internal/config"
	"github.com/orgscope/orgscope/internal/github"
)

func newReposCommand(opts *rootOptions) *cobra.Command {
	var (
		license string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "repos <org>",
		Short: "List the public repositories of a GitHub organization",
		Long: `List the names of an organization's public repositories, one per
line, in the order the GitHub API returns them.

With --license only repositories whose license key matches exactly are
listed. License keys are the lowercase SPDX-style identifiers GitHub
uses, for example "apache-2.0" or "mit".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger := opts.newLogger(cmd.ErrOrStderr())
			return runRepos(cmd.Context(), cfg, logger, cmd.OutOrStdout(), args[0], license, asJSON)
		},
	}

	cmd.Flags().StringVar(&license, "license", "", `only list repositories with this license key (e.g. "apache-2.0")`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the repository names as a JSON array")

	return cmd
}

func runRepos(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer, org, license string, asJSON bool) error {
	client := github.NewOrgClient(org,
		github.WithBaseURL(cfg.GitHub.APIBaseURL),
		github.WithGetter(newHTTPGetter(cfg, logger)),
		github.WithOrgLogger(logger),
	)

	names, err := client.PublicRepos(ctx, license)
	if err != nil {
		return err
	}
	logger.DebugContext(ctx, "listed public repositories",
		slog.String("org", org),
		slog.String("license", license),
		slog.Int("count", len(names)),
	)

	if asJSON {
		return json.NewEncoder(w).Encode(names)
	}

	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return nil
}

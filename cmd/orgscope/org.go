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

func newOrgCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "org <name>",
		Short: "Show metadata for a GitHub organization",
		Long: `Show metadata for a GitHub organization.

By default a human-readable summary is printed. Use --json to print the
organization document as indented JSON instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger := opts.newLogger(cmd.ErrOrStderr())
			return runOrg(cmd.Context(), cfg, logger, cmd.OutOrStdout(), args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the organization document as JSON")

	return cmd
}

func runOrg(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer, name string, asJSON bool) error {
	client := github.NewOrgClient(name,
		github.WithBaseURL(cfg.GitHub.APIBaseURL),
		github.WithGetter(newHTTPGetter(cfg, logger)),
		github.WithOrgLogger(logger),
	)

	org, err := client.Organization(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(org)
	}

	printOrg(w, org)
	return nil
}

// printOrg writes a human-readable summary, skipping optional fields
// the organization left empty.
func printOrg(w io.Writer, org *github.Organization) {
	fmt.Fprintf(w, "Login:        %s\n", org.Login)
	if org.Name != "" {
		fmt.Fprintf(w, "Name:         %s\n", org.Name)
	}
	if org.Description != "" {
		fmt.Fprintf(w, "Description:  %s\n", org.Description)
	}
	if org.Company != "" {
		fmt.Fprintf(w, "Company:      %s\n", org.Company)
	}
	if org.Location != "" {
		fmt.Fprintf(w, "Location:     %s\n", org.Location)
	}
	if org.Blog != "" {
		fmt.Fprintf(w, "Blog:         %s\n", org.Blog)
	}
	if org.Email != "" {
		fmt.Fprintf(w, "Email:        %s\n", org.Email)
	}
	fmt.Fprintf(w, "Public repos: %d\n", org.PublicRepos)
	fmt.Fprintf(w, "Followers:    %d\n", org.Followers)
	if org.HTMLURL != "" {
		fmt.Fprintf(w, "URL:          %s\n", org.HTMLURL)
	}
}

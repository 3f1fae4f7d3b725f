// Licensed to the orgscope authors under one or more agreements.
// The orgscope authors license this file to you under the Apache 2.0 License.
// See the LICENSE file in the project root for more information.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/orgscope/orgscope/internal/github"
)

// newGitHubTestServer serves a fake GitHub API with a single "google"
// organization and three repositories.
func newGitHubTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orgs/google":
			fmt.Fprintf(w, `{
				"login": "google",
				"id": 1342004,
				"repos_url": "http://%s/orgs/google/repos",
				"name": "Google",
				"description": "Google open source",
				"html_url": "https://github.com/google",
				"public_repos": 3,
				"followers": 30000
			}`, r.Host)
		case "/orgs/google/repos":
			fmt.Fprint(w, `[
				{"name": "repo1", "license": {"key": "apache-2.0", "name": "Apache License 2.0"}},
				{"name": "repo2", "license": {"key": "mit", "name": "MIT License"}},
				{"name": "repo3", "license": {"key": "apache-2.0", "name": "Apache License 2.0"}}
			]`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunOrg_HumanOutput(t *testing.T) {
	srv := newGitHubTestServer(t)

	var out bytes.Buffer
	err := runOrg(context.Background(), testConfig(srv.URL), discardLogger(), &out, "google", false)
	if err != nil {
		t.Fatalf("runOrg() error = %v", err)
	}

	for _, want := range []string{
		"Login:        google",
		"Name:         Google",
		"Description:  Google open source",
		"Public repos: 3",
		"Followers:    30000",
		"URL:          https://github.com/google",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	// Empty optional fields are skipped entirely.
	if strings.Contains(out.String(), "Email:") {
		t.Errorf("output contains empty Email field:\n%s", out.String())
	}
}

func TestRunOrg_JSON(t *testing.T) {
	srv := newGitHubTestServer(t)

	var out bytes.Buffer
	err := runOrg(context.Background(), testConfig(srv.URL), discardLogger(), &out, "google", true)
	if err != nil {
		t.Fatalf("runOrg() error = %v", err)
	}

	var org github.Organization
	if err := json.Unmarshal(out.Bytes(), &org); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out.String())
	}
	if org.Login != "google" {
		t.Errorf("Login = %q, want %q", org.Login, "google")
	}
	if org.ID != 1342004 {
		t.Errorf("ID = %d, want %d", org.ID, 1342004)
	}
}

func TestRunOrg_NotFound(t *testing.T) {
	srv := newGitHubTestServer(t)

	var out bytes.Buffer
	err := runOrg(context.Background(), testConfig(srv.URL), discardLogger(), &out, "nosuchorg", false)
	if err == nil {
		t.Fatal("expected error for unknown organization, got nil")
	}
	if !errors.Is(err, github.ErrNotFound) {
		t.Errorf("error = %v, want github.ErrNotFound", err)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want empty", out.String())
	}
}

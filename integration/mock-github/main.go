// Licensed to the orgscope authors under one or more agreements.
// The orgscope authors license this file to you under the Apache 2.0 License.
// See the LICENSE file in the project root for more information.

// Package main implements a mock GitHub API server for integration testing.
// It provides fake implementations of the organization endpoints used by
// orgscope, allowing end-to-end testing without live GitHub access.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
)

// repoFixture holds the test data for a single mock repository.
// LicenseKey is empty for repositories without a detected license.
type repoFixture struct {
	Name       string
	LicenseKey string
}

// orgFixture holds the test data for a single mock organization.
type orgFixture struct {
	Login       string
	ID          int64
	Name        string
	Description string
	Followers   int
	Repos       []repoFixture
}

// fixtures maps lowercase organization logins to their data. GitHub
// treats logins case-insensitively, and so does this mock.
var fixtures = map[string]orgFixture{
	"google": {
		Login:       "google",
		ID:          1342004,
		Name:        "Google",
		Description: "Google open source projects",
		Followers:   30000,
		Repos: []repoFixture{
			{Name: "truth", LicenseKey: "apache-2.0"},
			{Name: "ruby-openid-apps-discovery", LicenseKey: ""},
			{Name: "autoparse", LicenseKey: "apache-2.0"},
			{Name: "guava", LicenseKey: "apache-2.0"},
			{Name: "zerocopy", LicenseKey: "mit"},
		},
	},
	"empty-inc": {
		Login:       "empty-inc",
		ID:          7777,
		Name:        "Empty Inc.",
		Description: "An organization with no public repositories",
		Followers:   0,
		Repos:       []repoFixture{},
	},
}

// licenseNames maps license keys to their display names, mirroring the
// license objects the real API embeds in repository listings.
var licenseNames = map[string]string{
	"apache-2.0": "Apache License 2.0",
	"mit":        "MIT License",
	"gpl-3.0":    "GNU General Public License v3.0",
}

func main() {
	listen := flag.String("listen", ":9090", "HTTP listen address")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /orgs/{org}", handleGetOrg)
	mux.HandleFunc("GET /orgs/{org}/repos", handleListOrgRepos)

	log.Printf("mock-github listening on %s", *listen)
	if err := http.ListenAndServe(*listen, mux); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// lookupOrg resolves the {org} path value against the fixtures,
// folding case the way GitHub does.
func lookupOrg(r *http.Request) (orgFixture, bool) {
	fixture, ok := fixtures[strings.ToLower(r.PathValue("org"))]
	return fixture, ok
}

func writeNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, `{"message":"Not Found","documentation_url":"https://docs.github.com/rest"}`)
}

// handleGetOrg implements GET /orgs/{org}.
func handleGetOrg(w http.ResponseWriter, r *http.Request) {
	fixture, ok := lookupOrg(r)
	if !ok {
		writeNotFound(w)
		return
	}

	// repos_url points back at this server so clients follow it
	// naturally, as they would against the real API.
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"login":        fixture.Login,
		"id":           fixture.ID,
		"url":          fmt.Sprintf("http://%s/orgs/%s", r.Host, fixture.Login),
		"repos_url":    fmt.Sprintf("http://%s/orgs/%s/repos", r.Host, fixture.Login),
		"html_url":     "https://github.com/" + fixture.Login,
		"name":         fixture.Name,
		"description":  fixture.Description,
		"public_repos": len(fixture.Repos),
		"followers":    fixture.Followers,
	})
}

// handleListOrgRepos implements GET /orgs/{org}/repos.
func handleListOrgRepos(w http.ResponseWriter, r *http.Request) {
	fixture, ok := lookupOrg(r)
	if !ok {
		writeNotFound(w)
		return
	}

	type license struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	}
	type repo struct {
		Name     string   `json:"name"`
		FullName string   `json:"full_name"`
		License  *license `json:"license"`
	}

	repos := make([]repo, 0, len(fixture.Repos))
	for _, rf := range fixture.Repos {
		entry := repo{
			Name:     rf.Name,
			FullName: fixture.Login + "/" + rf.Name,
		}
		if rf.LicenseKey != "" {
			entry.License = &license{Key: rf.LicenseKey, Name: licenseNames[rf.LicenseKey]}
		}
		repos = append(repos, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(repos)
}

// Licensed to the orgscope authors under one or more agreements.
// The orgscope authors license this file to you under the Apache 2.0 License.
// See the LICENSE file in the project root for more information.

// Package github provides types and a client for the GitHub organizations API.
package github

import "time"

// Organization represents a GitHub organization.
type Organization struct {
	Login       string    `json:"login"`
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	ReposURL    string    `json:"repos_url"`
	HTMLURL     string    `json:"html_url"`
	Name        string    `json:"name"`
	Company     string    `json:"company"`
	Blog        string    `json:"blog"`
	Location    string    `json:"location"`
	Email       string    `json:"email"`
	Description string    `json:"description"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Repository represents a public repository of an organization.
type Repository struct {
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Private         bool      `json:"private"`
	HTMLURL         string    `json:"html_url"`
	Description     string    `json:"description"`
	Fork            bool      `json:"fork"`
	Language        string    `json:"language"`
	Size            int       `json:"size"`
	StargazersCount int       `json:"stargazers_count"`
	DefaultBranch   string    `json:"default_branch"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	License         *License  `json:"license"`
}

// License describes the license GitHub detected for a repository.
// Repositories without a detectable license carry a null license in the
// API payload, which decodes to a nil *License.
type License struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	SPDXID string `json:"spdx_id"`
	URL    string `json:"url"`
}

// HasLicense reports whether the repository's license key equals key.
// The comparison is exact and case-sensitive. Repositories with no
// license never match.
func (r Repository) HasLicense(key string) bool {
	if r.License == nil {
		return false
	}
	return r.License.Key == key
}

// Licensed to the orgscope authors under one or more agreements.
// The orgscope authors license this file to you under the Apache 2.0 License.
// See the LICENSE file in the project root for more information.

package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Sentinel errors for GitHub API operations.
var (
	ErrNotFound   = errors.New("github: resource not found")
	ErrNoReposURL = errors.New("github: organization payload has no repos_url")
)

// Getter defines the interface for fetching JSON documents over HTTP.
// It is the only collaborator the org client talks to, which keeps the
// client independent of transport concerns and easy to fake in tests.
type Getter interface {
	// GetJSON performs a GET request against url and decodes the JSON
	// response body into v. Returns ErrNotFound for HTTP 404.
	GetJSON(ctx context.Context, url string, v any) error
}

// OrgClient fetches metadata and public repositories for a single GitHub
// organization. The organization payload is fetched at most once per
// instance; repository listings are fetched fresh on every call.
type OrgClient struct {
	orgName string
	baseURL string
	getter  Getter
	log     *slog.Logger

	mu  sync.Mutex
	org *Organization
}

// OrgOption configures an OrgClient.
type OrgOption func(*OrgClient)

// WithBaseURL sets the base URL for the GitHub API.
func WithBaseURL(url string) OrgOption {
	return func(c *OrgClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithGetter sets the transport used for API requests.
func WithGetter(g Getter) OrgOption {
	return func(c *OrgClient) {
		c.getter = g
	}
}

// WithOrgLogger sets the structured logger.
func WithOrgLogger(l *slog.Logger) OrgOption {
	return func(c *OrgClient) {
		c.log = l
	}
}

// NewOrgClient creates a client for the named organization.
// By default it uses https://api.github.com as the base URL, a default
// HTTPGetter as the transport, and slog.Default() as the logger.
func NewOrgClient(orgName string, opts ...OrgOption) *OrgClient {
	c := &OrgClient{
		orgName: orgName,
		baseURL: defaultBaseURL,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.getter == nil {
		c.getter = NewHTTPGetter(WithLogger(c.log))
	}
	return c
}

// tracer returns the OTel tracer for this package.
func (c *OrgClient) tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// Organization returns the organization's metadata. The first call fetches
// it from the API; later calls return the memoized payload without issuing
// another request. A failed fetch is not memoized, so the next call tries
// again. Errors from the transport are returned unmodified.
func (c *OrgClient) Organization(ctx context.Context) (*Organization, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.org != nil {
		return c.org, nil
	}

	ctx, span := c.tracer().Start(ctx, "github.get_organization")
	defer span.End()
	span.SetAttributes(attribute.String("github.org", c.orgName))

	url := fmt.Sprintf("%s/orgs/%s", c.baseURL, c.orgName)

	var org Organization
	if err := c.getter.GetJSON(ctx, url, &org); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	c.org = &org

	c.log.InfoContext(ctx, "fetched organization", slog.String("org", c.orgName), slog.Int64("id", org.ID))
	return c.org, nil
}

// ReposURL returns the organization's repos_url, fetching the organization
// first if it has not been memoized yet. Returns ErrNoReposURL when the
// payload does not carry the field.
func (c *OrgClient) ReposURL(ctx context.Context) (string, error) {
	org, err := c.Organization(ctx)
	if err != nil {
		return "", err
	}
	if org.ReposURL == "" {
		return "", ErrNoReposURL
	}
	return org.ReposURL, nil
}

// Repositories fetches the organization's public repository list from its
// repos_url. The listing is never memoized; every call issues a request.
func (c *OrgClient) Repositories(ctx context.Context) ([]Repository, error) {
	ctx, span := c.tracer().Start(ctx, "github.list_repos")
	defer span.End()
	span.SetAttributes(attribute.String("github.org", c.orgName))

	url, err := c.ReposURL(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var repos []Repository
	if err := c.getter.GetJSON(ctx, url, &repos); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	c.log.InfoContext(ctx, "listed repositories", slog.String("org", c.orgName), slog.Int("count", len(repos)))
	return repos, nil
}

// PublicRepos returns the names of the organization's public repositories
// in the order the API returned them. When licenseKey is non-empty, only
// repositories whose license key matches exactly are included; repositories
// without a license are skipped. An empty licenseKey returns every name.
func (c *OrgClient) PublicRepos(ctx context.Context, licenseKey string) ([]string, error) {
	repos, err := c.Repositories(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(repos))
	for _, r := range repos {
		if licenseKey != "" && !r.HasLicense(licenseKey) {
			continue
		}
		names = append(names, r.Name)
	}
	return names, nil
}

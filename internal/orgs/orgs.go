// Licensed to the orgscope authors under one or more agreements.
// The orgscope authors license this file to you under the Apache 2.0 License.
// See the LICENSE file in the project root for more information.

// Package orgs provides organization lookup orchestration.
package orgs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/orgscope/orgscope/internal/github"
)

// Sentinel errors returned by the Service.
var (
	ErrNotFound = errors.New("not found: no such organization")
)

// Lookup result attribute values used for OTel metrics and spans.
const (
	resultSuccess  = "success"
	resultNotFound = "not_found"
	resultError    = "error"
)

// Summary holds the outcome of a successful organization lookup.
type Summary struct {
	// Org is the organization metadata as returned by the API.
	Org github.Organization

	// Repos is the organization's public repository listing at lookup time.
	Repos []github.Repository
}

// RepoNames returns the names of the repositories in the summary, in the
// order the API returned them. When licenseKey is non-empty, only
// repositories whose license key matches exactly are included;
// repositories without a license are skipped.
func (s Summary) RepoNames(licenseKey string) []string {
	names := make([]string, 0, len(s.Repos))
	for _, r := range s.Repos {
		if licenseKey != "" && !r.HasLicense(licenseKey) {
			continue
		}
		names = append(names, r.Name)
	}
	return names
}

// Cache defines the interface for caching lookup results.
// The service uses this interface to avoid repeated GitHub API calls
// for the same organization within the cache TTL.
type Cache interface {
	// Get retrieves a cached entry for the given organization name.
	// Returns the summary, an optional error (for negative cache entries),
	// and whether the entry was found.
	//
	// Positive hit: (summary, nil, true)
	// Negative hit: (zero, err, true)
	// Miss:         (zero, nil, false)
	Get(org string) (Summary, error, bool)

	// Set stores a lookup summary for the given organization name.
	// Pass a non-nil err to cache a negative result (e.g., unknown org).
	Set(org string, result Summary, err error)

	// Delete removes a cached entry for the given organization name.
	Delete(org string)
}

// Service orchestrates organization lookups by checking the cache and
// calling the GitHub API as needed.
type Service struct {
	getter  github.Getter
	baseURL string
	cache   Cache
	log     *slog.Logger

	tracer      trace.Tracer
	lookupTotal metric.Int64Counter
}

// New creates a new Service with the given dependencies.
func New(getter github.Getter, baseURL string, cache Cache, log *slog.Logger) *Service {
	tracer := otel.Tracer("github.com/orgscope/orgscope/internal/orgs")
	meter := otel.Meter("github.com/orgscope/orgscope/internal/orgs")

	lookupTotal, _ := meter.Int64Counter("orgscope.lookup.total",
		metric.WithDescription("Total number of organization lookups"),
	)

	return &Service{
		getter:      getter,
		baseURL:     baseURL,
		cache:       cache,
		log:         log,
		tracer:      tracer,
		lookupTotal: lookupTotal,
	}
}

// Lookup returns the organization's metadata together with its public
// repository listing. It follows a 2-step lookup flow:
//  1. Fetch the organization document.
//  2. Fetch the repository listing from the organization's repos_url.
//
// Results are cached to avoid redundant API calls; unknown organizations
// are cached negatively so repeated lookups fail fast.
func (s *Service) Lookup(ctx context.Context, org string) (*Summary, error) {
	ctx, span := s.tracer.Start(ctx, "lookup_org")
	defer span.End()
	span.SetAttributes(attribute.String("github.org", org))

	// Check cache first.
	if result, cachedErr, ok := s.cache.Get(org); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))

		// Negative cache hit (e.g., previously unknown organization).
		if cachedErr != nil {
			span.RecordError(cachedErr)
			span.SetStatus(codes.Error, cachedErr.Error())
			span.SetAttributes(attribute.String("lookup.result", resultNotFound))
			s.lookupTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", resultNotFound)))

			s.log.DebugContext(ctx, "Negative cache hit",
				slog.String("org", org),
				slog.String("error", cachedErr.Error()),
			)

			return nil, cachedErr
		}

		// Positive cache hit.
		span.SetAttributes(attribute.String("lookup.result", resultSuccess))
		s.lookupTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", resultSuccess)))

		s.log.DebugContext(ctx, "Cache hit for organization lookup",
			slog.String("org", org),
		)

		return &result, nil
	}

	span.SetAttributes(attribute.Bool("cache.hit", false))

	client := github.NewOrgClient(org,
		github.WithBaseURL(s.baseURL),
		github.WithGetter(s.getter),
		github.WithOrgLogger(s.log),
	)

	// Step 1: Fetch the organization document.
	meta, err := client.Organization(ctx)
	if err != nil {
		if errors.Is(err, github.ErrNotFound) {
			s.cache.Set(org, Summary{}, ErrNotFound)

			span.RecordError(ErrNotFound)
			span.SetStatus(codes.Error, ErrNotFound.Error())
			span.SetAttributes(attribute.String("lookup.result", resultNotFound))
			s.lookupTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", resultNotFound)))

			s.log.WarnContext(ctx, "Organization lookup failed: unknown organization",
				slog.String("org", org),
			)

			return nil, fmt.Errorf("%w", ErrNotFound)
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("lookup.result", resultError))
		s.lookupTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", resultError)))

		s.log.ErrorContext(ctx, "Failed to get organization from GitHub",
			slog.String("org", org),
			slog.String("error", err.Error()),
		)

		return nil, fmt.Errorf("getting organization: %w", err)
	}

	// Step 2: Fetch the repository listing.
	repos, err := client.Repositories(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("lookup.result", resultError))
		s.lookupTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", resultError)))

		s.log.ErrorContext(ctx, "Failed to list organization repositories",
			slog.String("org", org),
			slog.String("error", err.Error()),
		)

		return nil, fmt.Errorf("listing repositories: %w", err)
	}

	// Build and cache the summary.
	result := Summary{
		Org:   *meta,
		Repos: repos,
	}
	s.cache.Set(org, result, nil)

	span.SetAttributes(attribute.String("lookup.result", resultSuccess))
	s.lookupTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", resultSuccess)))

	s.log.InfoContext(ctx, "Organization lookup succeeded",
		slog.String("org", meta.Login),
		slog.Int64("org_id", meta.ID),
		slog.Int("repos", len(repos)),
	)

	return &result, nil
}

// RepoNames returns the organization's public repository names, optionally
// filtered by license key. The listing comes from Lookup, so it shares the
// cache with metadata lookups.
func (s *Service) RepoNames(ctx context.Context, org, licenseKey string) ([]string, error) {
	summary, err := s.Lookup(ctx, org)
	if err != nil {
		return nil, err
	}
	return summary.RepoNames(licenseKey), nil
}

// Licensed to the orgscope authors under one or more agreements.
// The orgscope authors license this file to you under the Apache 2.0 License.
// See the LICENSE file in the project root for more information.

package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBaseURL = "https://api.github.com"
	acceptHeader   = "application/vnd.github+json"
	tracerName     = "github.com/orgscope/orgscope/internal/github"
)

// HTTPGetter is a concrete implementation of the Getter interface that
// issues unauthenticated GET requests against the GitHub API.
type HTTPGetter struct {
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures an HTTPGetter.
type Option func(*HTTPGetter)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *HTTPGetter) {
		g.httpClient = hc
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *HTTPGetter) {
		g.log = l
	}
}

// NewHTTPGetter creates a new HTTPGetter with the given options.
// By default it uses http.DefaultClient and slog.Default() as the logger.
func NewHTTPGetter(opts ...Option) *HTTPGetter {
	g := &HTTPGetter{
		httpClient: http.DefaultClient,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// tracer returns the OTel tracer for this package.
func (g *HTTPGetter) tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// setHeaders sets the standard GitHub API headers on a request.
func setHeaders(req *http.Request) {
	req.Header.Set("Accept", acceptHeader)
}

// GetJSON performs a GET request against url and decodes the JSON response
// body into v. It returns ErrNotFound for HTTP 404 and an error describing
// the status for any other non-2xx response. Transport failures are
// wrapped and returned as-is; there is no retrying.
func (g *HTTPGetter) GetJSON(ctx context.Context, url string, v any) error {
	ctx, span := g.tracer().Start(ctx, "github.get_json")
	defer span.End()

	span.SetAttributes(
		attribute.String("http.request.method", "GET"),
		attribute.String("url.full", url),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.log.ErrorContext(ctx, "failed to create request", slog.String("url", url), slog.String("error", err.Error()))
		return fmt.Errorf("github: creating request: %w", err)
	}
	setHeaders(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.log.ErrorContext(ctx, "request failed", slog.String("url", url), slog.String("error", err.Error()))
		return fmt.Errorf("github: executing request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		g.log.WarnContext(ctx, "resource not found", slog.String("url", url))
		span.RecordError(ErrNotFound)
		span.SetStatus(codes.Error, ErrNotFound.Error())
		return ErrNotFound

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("github: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		g.log.ErrorContext(ctx, "unexpected response", slog.String("url", url), slog.Int("status", resp.StatusCode))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.log.ErrorContext(ctx, "failed to decode response", slog.String("url", url), slog.String("error", err.Error()))
		return fmt.Errorf("github: decoding response: %w", err)
	}

	return nil
}

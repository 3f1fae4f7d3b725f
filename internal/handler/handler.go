// Licensed to the orgscope authors under one or more agreements.
// The orgscope authors license this file to you under the Apache 2.0 License.
// See the LICENSE file in the project root for more information.

// Package handler provides HTTP handlers for the organization lookup service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/orgscope/orgscope/internal/orgs"
)

// OrgLookup defines the interface for organization lookups.
// This allows the handler to be tested with a mock service.
type OrgLookup interface {
	Lookup(ctx context.Context, org string) (*orgs.Summary, error)
}

// Handler provides HTTP handlers for the organization lookup service.
type Handler struct {
	lookup OrgLookup
	log    *slog.Logger
}

// New creates a new Handler with the given lookup service and logger.
func New(l OrgLookup, log *slog.Logger) *Handler {
	return &Handler{
		lookup: l,
		log:    log,
	}
}

// Routes returns an http.Handler with all routes registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/orgs/{org}", h.handleOrg)
	mux.HandleFunc("GET /v1/orgs/{org}/repos", h.handleOrgRepos)
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	mux.HandleFunc("GET /ready", h.handleReady)
	return withRequestID(mux)
}

// requestIDHeader carries the request identifier between client and server.
const requestIDHeader = "X-Request-Id"

type contextKey int

const requestIDKey contextKey = iota

// withRequestID ensures every request has an identifier. An inbound
// X-Request-Id is kept; otherwise a new one is minted. The identifier is
// echoed on the response and stored in the request context for logging.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestID returns the request identifier stored in ctx, or "" if none.
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// getSourceIP extracts the client IP address from the request.
// It first checks the X-Forwarded-For header (used when behind a proxy).
// If X-Forwarded-For contains multiple IPs, it returns the leftmost (original client).
// Otherwise, it falls back to RemoteAddr.
func getSourceIP(r *http.Request) string {
	// Check X-Forwarded-For header first.
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// X-Forwarded-For can contain multiple IPs: "client, proxy1, proxy2"
		// The leftmost is the original client.
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			clientIP := strings.TrimSpace(ips[0])
			if clientIP != "" {
				return clientIP
			}
		}
	}

	// Fall back to RemoteAddr.
	// RemoteAddr is in the format "IP:port", so we need to strip the port.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// If SplitHostPort fails, return RemoteAddr as-is.
		return r.RemoteAddr
	}
	return host
}

// orgNameRE matches valid GitHub organization logins: 1-39 characters,
// alphanumeric or hyphen, starting with an alphanumeric character.
var orgNameRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{0,38}$`)

// handleOrg serves the organization metadata document.
func (h *Handler) handleOrg(w http.ResponseWriter, r *http.Request) {
	org := r.PathValue("org")
	if !orgNameRE.MatchString(org) {
		h.log.WarnContext(r.Context(), "Invalid organization name",
			slog.String("org", org),
			slog.String("request.id", requestID(r.Context())),
			slog.String("source.ip", getSourceIP(r)),
		)
		writeJSONError(w, http.StatusBadRequest, "invalid organization name")
		return
	}

	summary, err := h.lookup.Lookup(r.Context(), org)
	if err != nil {
		h.handleLookupError(r.Context(), w, org, err)
		return
	}

	h.log.InfoContext(r.Context(), "Served organization",
		slog.String("org", summary.Org.Login),
		slog.String("request.id", requestID(r.Context())),
	)

	writeJSON(w, http.StatusOK, summary.Org)
}

// reposResponse is the JSON structure for repository name listings.
type reposResponse struct {
	Org     string   `json:"org"`
	License string   `json:"license,omitempty"`
	Repos   []string `json:"repos"`
}

// handleOrgRepos serves the organization's public repository names,
// optionally filtered by the license query parameter. The filter matches
// license keys exactly, including case.
func (h *Handler) handleOrgRepos(w http.ResponseWriter, r *http.Request) {
	org := r.PathValue("org")
	if !orgNameRE.MatchString(org) {
		h.log.WarnContext(r.Context(), "Invalid organization name",
			slog.String("org", org),
			slog.String("request.id", requestID(r.Context())),
			slog.String("source.ip", getSourceIP(r)),
		)
		writeJSONError(w, http.StatusBadRequest, "invalid organization name")
		return
	}
	license := r.URL.Query().Get("license")

	summary, err := h.lookup.Lookup(r.Context(), org)
	if err != nil {
		h.handleLookupError(r.Context(), w, org, err)
		return
	}

	names := summary.RepoNames(license)

	h.log.InfoContext(r.Context(), "Served repository listing",
		slog.String("org", summary.Org.Login),
		slog.String("license", license),
		slog.Int("repos", len(names)),
		slog.String("request.id", requestID(r.Context())),
	)

	writeJSON(w, http.StatusOK, reposResponse{
		Org:     summary.Org.Login,
		License: license,
		Repos:   names,
	})
}

// handleLookupError maps lookup errors to appropriate HTTP responses.
func (h *Handler) handleLookupError(ctx context.Context, w http.ResponseWriter, org string, err error) {
	switch {
	case errors.Is(err, orgs.ErrNotFound):
		h.log.WarnContext(ctx, "Organization not found",
			slog.String("org", org),
			slog.String("request.id", requestID(ctx)),
		)
		writeJSONError(w, http.StatusNotFound, "organization not found")
	default:
		h.log.ErrorContext(ctx, "Organization lookup failed",
			slog.String("org", org),
			slog.String("error", err.Error()),
			slog.String("request.id", requestID(ctx)),
		)
		writeJSONError(w, http.StatusBadGateway, "upstream GitHub API error")
	}
}

// handleHealthz responds with a simple health check.
func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleReady responds with a simple readiness check.
func (h *Handler) handleReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response with the given status code and message.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

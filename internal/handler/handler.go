// Package handler provides the HTTP routes of the reqmatch demo service:
// an article catalogue whose endpoints are guarded by predicate chains and
// answer in the representation the client negotiates.
package handler

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reqmatch/internal/catalog"
	"reqmatch/internal/exchange"
	"reqmatch/internal/mediatype"
	"reqmatch/internal/model"
	"reqmatch/internal/negotiation"
	"reqmatch/internal/security"
)

// Roles understood by the catalogue routes.
const (
	RoleEditor security.Role = "editor"
	RoleAdmin  security.Role = "admin"
)

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// Options toggles optional surfaces and supplies the authenticator.
type Options struct {
	Authenticator  security.Authenticator
	MetricsEnabled bool
	MCPEnabled     bool
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store     catalog.Store
	logger    *slog.Logger
	opts      Options
	templates *template.Template
}

// New creates a new Handler with the given store, logger and options.
func New(store catalog.Store, logger *slog.Logger, opts Options) *Handler {
	return &Handler{
		store:     store,
		logger:    logger,
		opts:      opts,
		templates: pageTemplates,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	rt := exchange.NewRouter(mux, exchange.RouterConfig{
		Logger:        h.logger,
		Authenticator: h.opts.Authenticator,
	})

	// Health check
	rt.Get("/health", exchange.HandlerFunc(h.handleHealth))
	rt.Get("/healthz", exchange.HandlerFunc(h.handleHealth))

	// Representations below depend on Accept
	rt.Before(exchange.HandlerFunc(varyAccept))

	rt.Group("/articles", h.articleRoutes)
	rt.Get("/search", h.searchRoute())

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	if h.opts.MCPEnabled {
		strict := negotiation.Strict(h.logger, mediatype.ApplicationJSON, mediatype.TextEventStream)
		mux.Handle("/mcp", strict(h.NewMCPHandler()))
	}

	if h.opts.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}
}

// handleHealth returns a simple health check response.
// GET /health, GET /healthz
func (h *Handler) handleHealth(c *exchange.Context) {
	c.JSON(healthResponse{Status: "ok"})
}

type healthResponse struct {
	Status string `json:"status"`
}

func varyAccept(c *exchange.Context) {
	c.Writer.Header().Add("Vary", "Accept")
}

// === Response Helpers ===

// fail sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) fail(c *exchange.Context, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		// Wrap unexpected errors
		h.logger.Error("internal error", slog.String("error", err.Error()))
		apiErr = model.NewInternalError(err)
	}
	c.Fail(apiErr)
}

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(c *exchange.Context, v any) error {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBodySize)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewBadRequestError("invalid JSON body")
	}
	return nil
}

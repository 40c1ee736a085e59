package negotiation

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"reqmatch/internal/mediatype"
	"reqmatch/internal/model"
)

// Middleware parses the Accept header once per request and stores the
// result in the request context, where exchange.Context.AcceptSet picks it
// up. Malformed and duplicate members are dropped and logged at debug
// level.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Accept")
			accepted := mediatype.ParseAccept(header)

			if header != "" && len(accepted) < countMembers(header) {
				logger.Debug("dropped accept members",
					slog.String("accept", header),
					slog.Int("kept", len(accepted)))
			}

			ctx := mediatype.NewContext(r.Context(), accepted)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Strict rejects with 406 Not Acceptable any request whose Accept header
// is present but covers none of offered. Requests without an Accept header
// pass through, as do exempt paths.
func Strict(logger *slog.Logger, offered ...mediatype.MediaType) func(http.Handler) http.Handler {
	names := make([]string, len(offered))
	for i, mt := range offered {
		names[i] = mt.String()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptPath(r.URL.Path) || strings.TrimSpace(r.Header.Get("Accept")) == "" {
				next.ServeHTTP(w, r)
				return
			}

			accepted, ok := mediatype.FromContext(r.Context())
			if !ok {
				accepted = mediatype.ParseAccept(r.Header.Get("Accept"))
			}
			if _, ok := mediatype.FirstMatch(accepted, offered...); !ok {
				logger.Warn("no acceptable representation",
					slog.String("path", r.URL.Path),
					slog.String("accept", r.Header.Get("Accept")))
				writeNegotiationError(w, model.NewNotAcceptableError(names...))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isExemptPath returns true for infrastructure endpoints that answer in a
// fixed format whatever the client asks for.
func isExemptPath(path string) bool {
	switch path {
	case "/health", "/healthz", "/metrics":
		return true
	default:
		return false
	}
}

func countMembers(header string) int {
	n := 0
	for _, part := range strings.Split(header, ",") {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}

// writeNegotiationError writes the standard error envelope.
func writeNegotiationError(w http.ResponseWriter, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode)
	json.NewEncoder(w).Encode(apiErr.Response())
}

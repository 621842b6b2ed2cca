package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HealthPath serves the readiness probe.
const HealthPath = "/healthz"

// routePattern returns the matched chi pattern once the router has served r.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "<unknown>"
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return "<unknown>"
}

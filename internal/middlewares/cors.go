package middlewares

import (
	"net/http"
	"slices"
	"strings"
)

// CORSMiddleware answers cross-origin requests for the configured origins.
// Preflight OPTIONS requests are terminated here with 204.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := resolveOrigin(r.Header.Get("Origin"), allowedOrigins); origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// resolveOrigin returns the Access-Control-Allow-Origin value for a request
// origin, or an empty string when the origin is absent or not allowed
func resolveOrigin(requestOrigin string, allowedOrigins []string) string {
	switch {
	case requestOrigin == "":
		return ""
	case slices.Contains(allowedOrigins, "*"):
		return "*"
	case slices.ContainsFunc(allowedOrigins, func(allowed string) bool {
		return strings.EqualFold(requestOrigin, allowed)
	}):
		return requestOrigin
	default:
		return ""
	}
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/learntrack/backend/internal/auth/service"
	"github.com/learntrack/backend/internal/models"
)

type contextKey string

const (
	userIDKey contextKey = "userID"
	roleKey   contextKey = "role"
)

// AuthMiddleware validates the JWT access token and stores the caller's
// userID and role in the request context. The configured admin user is
// always treated as RoleAdmin regardless of the role claim in its token.
func AuthMiddleware(tokenGenerator *service.TokenGenerator, adminUserID int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)

			// If no token found, return 401
			if token == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"authentication required"}`))
				return
			}

			// Validate token and extract userID and role
			userID, role, err := tokenGenerator.ValidateAccessToken(token)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid or expired token"}`))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, roleKey, effectiveRole(userID, role, adminUserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// effectiveRole elevates the configured admin user to RoleAdmin. An
// adminUserID of zero means no admin is seeded through configuration.
func effectiveRole(userID, role, adminUserID int) int {
	if adminUserID != 0 && userID == adminUserID {
		return models.RoleAdmin
	}
	return role
}

// extractToken pulls the access token from the Authorization header or the
// access_token cookie
func extractToken(r *http.Request) string {
	// Try Authorization header first
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	// If not in header, try cookie
	cookie, err := r.Cookie("access_token")
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetUserID retrieves the user ID from context
func GetUserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey).(int)
	return userID, ok
}

// GetUserRole retrieves the user role from context
func GetUserRole(ctx context.Context) (int, bool) {
	role, ok := ctx.Value(roleKey).(int)
	return role, ok
}

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"textvault/internal/auth"
	"textvault/internal/domain/models"
	"textvault/internal/httputil"
)

// publicPaths skip authentication.
var publicPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// AuthMiddleware verifies the bearer token and stores the caller identity in
// the request context. With a nil verifier every request runs as dev; main
// only allows that outside production.
func AuthMiddleware(verifier auth.JWTVerifier, dev models.Identity, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if verifier == nil {
				next.ServeHTTP(w, httputil.WithIdentity(r, dev))
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(strings.TrimSpace(token))
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			id := claims.Identity()
			if id.OrganizationID == "" {
				logger.Warn("token without organization", "user_id", id.UserID)
				httputil.RespondError(w, http.StatusForbidden, "user does not belong to an organization")
				return
			}

			next.ServeHTTP(w, httputil.WithIdentity(r, id))
		})
	}
}

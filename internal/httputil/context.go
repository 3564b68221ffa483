package httputil

import (
	"context"
	"net/http"

	"textvault/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	identityKey contextKey = "identity"
)

// WithIdentity adds the caller identity to the request context
func WithIdentity(r *http.Request, id models.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityKey, id)
	return r.WithContext(ctx)
}

// GetIdentity retrieves the caller identity. ok is false when the request
// did not pass through the auth middleware.
func GetIdentity(r *http.Request) (models.Identity, bool) {
	id, ok := r.Context().Value(identityKey).(models.Identity)
	return id, ok
}

// GetUserID retrieves the caller's user id, returns empty string if not found
func GetUserID(r *http.Request) string {
	id, _ := GetIdentity(r)
	return id.UserID
}

// GetOrganizationID retrieves the caller's organization id, returns empty string if not found
func GetOrganizationID(r *http.Request) string {
	id, _ := GetIdentity(r)
	return id.OrganizationID
}

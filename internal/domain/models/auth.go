package models

import "github.com/golang-jwt/jwt/v5"

// Organization roles carried in the token's app_metadata.
const (
	RoleSuperuser = "superuser" // platform staff: manages global settings
	RoleAdmin     = "admin"
	RoleEditor    = "editor"
	RoleViewer    = "viewer"
)

// AuthClaims represents the JWT claims issued by the identity provider.
// Organization membership lives in app_metadata, which only the provider can write.
type AuthClaims struct {
	jwt.RegisteredClaims                        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string                 `json:"email"`
	AppMetadata          map[string]interface{} `json:"app_metadata"`
	UserMetadata         map[string]interface{} `json:"user_metadata"`
	Role                 string                 `json:"role"` // "authenticated" or "anon"
	SessionID            string                 `json:"session_id"`
}

// Identity is the "current user has organization X, role Y" fact every request carries.
type Identity struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
}

// Identity extracts the caller identity from the claims.
// Missing roles default to viewer.
func (c *AuthClaims) Identity() Identity {
	id := Identity{
		UserID:         c.Subject,
		OrganizationID: stringClaim(c.AppMetadata, "organization_id"),
		Role:           stringClaim(c.AppMetadata, "org_role"),
		Username:       stringClaim(c.UserMetadata, "username"),
	}
	if id.Role == "" {
		id.Role = RoleViewer
	}
	if id.Username == "" {
		id.Username = c.Email
	}
	return id
}

// CanWrite reports whether the identity may modify documents.
func (i Identity) CanWrite() bool {
	return i.IsAdmin() || i.Role == RoleEditor
}

// IsAdmin reports whether the identity administers its organization.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin || i.IsSuperuser()
}

// IsSuperuser reports whether the identity may change global settings.
func (i Identity) IsSuperuser() bool {
	return i.Role == RoleSuperuser
}

func stringClaim(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

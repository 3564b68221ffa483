package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textvault/internal/domain"
	"textvault/internal/domain/models"
)

// keySet aliases keyfunc.Keyfunc so embedding it does not create a field
// named Keyfunc that collides with the method below.
type keySet = keyfunc.Keyfunc

// staticKeys serves one RSA public key for every token.
type staticKeys struct {
	keySet
	key *rsa.PublicKey
}

func (s staticKeys) Keyfunc(*jwt.Token) (any, error) { return s.key, nil }

func claims(mut func(*models.AuthClaims)) *models.AuthClaims {
	c := &models.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email:       "kari@example.com",
		Role:        "authenticated",
		AppMetadata: map[string]interface{}{"organization_id": "org-1", "org_role": "editor"},
	}
	if mut != nil {
		mut(c)
	}
	return c
}

func TestVerifyToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := newVerifier(staticKeys{key: &key.PublicKey}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	sign := func(c *models.AuthClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, c).SignedString(key)
		require.NoError(t, err)
		return s
	}

	t.Run("valid token", func(t *testing.T) {
		got, err := v.VerifyToken(sign(claims(nil)))
		require.NoError(t, err)
		id := got.Identity()
		assert.Equal(t, "user-1", id.UserID)
		assert.Equal(t, "org-1", id.OrganizationID)
		assert.Equal(t, models.RoleEditor, id.Role)
		assert.Equal(t, "kari@example.com", id.Username)
	})

	rejected := []struct {
		name  string
		token func() string
	}{
		{"expired", func() string {
			return sign(claims(func(c *models.AuthClaims) {
				c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
			}))
		}},
		{"anonymous role", func() string {
			return sign(claims(func(c *models.AuthClaims) { c.Role = "anon" }))
		}},
		{"missing subject", func() string {
			return sign(claims(func(c *models.AuthClaims) { c.Subject = "" }))
		}},
		{"hmac signed", func() string {
			s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims(nil)).SignedString([]byte("secret"))
			require.NoError(t, err)
			return s
		}},
		{"garbage", func() string { return "not-a-token" }},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.VerifyToken(tt.token())
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

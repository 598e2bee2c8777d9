package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	session := UserSession{
		ID:       "user-1",
		TenantID: "tenant-1",
		Name:     "Ada Lovelace",
		Email:    "ada@engines.example",
		Role:     "admin",
	}

	token, claims, err := GenerateToken(session, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotNil(t, claims)
	assert.NotEmpty(t, claims.ID, "jti doubles as the session ID")

	parsed, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, session, parsed.User)
	assert.Equal(t, claims.ID, parsed.ID)
	assert.True(t, parsed.User.IsAdmin())
}

func TestValidateTokenExpired(t *testing.T) {
	session := UserSession{ID: "user-1", TenantID: "tenant-1", Role: "rep"}

	token, _, err := GenerateToken(session, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestSecretReadAfterEnvLoad(t *testing.T) {
	old := jwtSecret
	t.Cleanup(func() { jwtSecret = old })

	// Simulate a secret that only becomes visible after .env loading,
	// i.e. well after package init.
	jwtSecret = nil
	t.Setenv("JWT_SECRET", "env-secret-loaded-late")

	token, _, err := GenerateToken(UserSession{ID: "user-1", TenantID: "tenant-1"}, time.Hour)
	require.NoError(t, err)

	Configure("default-secret-change-in-production")
	_, err = ValidateToken(token)
	assert.Error(t, err, "token must not verify under the default secret")
}

func TestConfigureRotatesSecret(t *testing.T) {
	old := jwtSecret
	t.Cleanup(func() { jwtSecret = old })

	Configure("first-secret")
	token, _, err := GenerateToken(UserSession{ID: "user-1", TenantID: "tenant-1"}, time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	require.NoError(t, err)

	Configure("rotated-secret")
	_, err = ValidateToken(token)
	assert.Error(t, err, "tokens signed with the old secret must not verify")
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, UserSession{Role: "admin"}.IsAdmin())
	assert.False(t, UserSession{Role: "manager"}.IsAdmin())
	assert.False(t, UserSession{Role: "rep"}.IsAdmin())
}

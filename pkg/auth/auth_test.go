package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spck/arcade-backend/internal/config"
	"github.com/spck/arcade-backend/pkg/auth"
)

func init() {
	config.AppConfig = &config.Config{
		JWTSecret:      "test-secret",
		AccessTokenTTL: time.Hour,
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, auth.CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, auth.CheckPasswordHash("wrong password", hash))
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, auth.ValidatePassword("short"))
	assert.NoError(t, auth.ValidatePassword("long enough"))
}

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := auth.GenerateAccessToken("user-1", "alice")
	require.NoError(t, err)

	claims, err := auth.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := auth.ValidateAccessToken("not.a.token")
	assert.Error(t, err)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := auth.GenerateAccessToken("user-1", "alice")
	require.NoError(t, err)

	config.AppConfig.JWTSecret = "different-secret"
	defer func() { config.AppConfig.JWTSecret = "test-secret" }()

	_, err = auth.ValidateAccessToken(token)
	assert.Error(t, err)
}

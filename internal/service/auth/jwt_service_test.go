package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/domain"
)

const testSecret = "this-is-a-test-secret-at-least-32-chars"

func testUser(t *testing.T) *domain.User {
	t.Helper()
	user, err := domain.NewUser("mia@example.com", "mia", "correct-horse-battery")
	require.NoError(t, err)
	user.Role = domain.RoleManager
	return user
}

func newTestService(t *testing.T, lifetimeMinutes int) JWTService {
	t.Helper()
	svc, err := NewJWTService(config.AuthConfig{
		JWTSecret:                   testSecret,
		TokenLifetimeMinutes:        lifetimeMinutes,
		RefreshTokenLifetimeMinutes: lifetimeMinutes,
	})
	require.NoError(t, err)
	return svc
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "too-short"})
	assert.Error(t, err)
}

func TestGenerateAndValidateToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, 60)
	user := testUser(t)
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleManager, claims.Role)
	assert.Equal(t, "mia", claims.DisplayName)
	assert.Equal(t, "access", claims.TokenType)
}

func TestValidateTokenRejectsRefreshToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, 60)
	ctx := context.Background()

	refresh, err := svc.GenerateRefreshToken(ctx, testUser(t))
	require.NoError(t, err)

	_, err = svc.ValidateToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = svc.ValidateRefreshToken(ctx, refresh)
	assert.NoError(t, err)
}

func TestValidateRefreshTokenRejectsAccessToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, 60)
	ctx := context.Background()

	access, err := svc.GenerateToken(ctx, testUser(t))
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(ctx, access)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestValidateTokenExpired(t *testing.T) {
	t.Parallel()

	// A negative lifetime puts the expiry well past the clock skew leeway.
	svc := newTestService(t, -10)
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, testUser(t))
	require.NoError(t, err)

	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenTampered(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, 60)
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, testUser(t))
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = svc.ValidateToken(ctx, tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenWrongKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svcA := newTestService(t, 60)

	svcB, err := NewJWTService(config.AuthConfig{
		JWTSecret:                   "another-secret-that-is-32-characters!",
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	token, err := svcA.GenerateToken(ctx, testUser(t))
	require.NoError(t, err)

	_, err = svcB.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// Package auth provides token issuance and verification services.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
)

// Claims holds the validated claims extracted from a token.
//
// Role and DisplayName travel as issued: a role change on the persisted user
// takes effect only when a new token is generated, not on existing tokens.
type Claims struct {
	UserID      uuid.UUID
	Role        domain.Role
	DisplayName string
	TokenType   string
	Subject     string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	ID          string
}

// JWTService defines the interface for generating and validating tokens.
type JWTService interface {
	// GenerateToken creates a signed access token carrying the user's
	// identity claims (ID, role, display name).
	GenerateToken(ctx context.Context, user *domain.User) (string, error)

	// ValidateToken validates an access token and returns its claims.
	// Returns ErrExpiredToken, ErrInvalidToken or ErrWrongTokenType.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// GenerateRefreshToken creates a signed refresh token for the user.
	GenerateRefreshToken(ctx context.Context, user *domain.User) (string, error)

	// ValidateRefreshToken validates a refresh token and returns its claims.
	// Returns ErrExpiredRefreshToken, ErrInvalidRefreshToken or ErrWrongTokenType.
	ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error)
}

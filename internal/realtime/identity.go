package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/platform/logger"
	"github.com/taskhive/taskhive/internal/service/auth"
	"github.com/taskhive/taskhive/internal/store"
)

// Identity is the authenticated principal behind a connection. Role and
// DisplayName come from the token claims and hold for the lifetime of the
// connection; a role change takes effect on the next token, not on
// connections already open.
type Identity struct {
	UserID      uuid.UUID
	Role        domain.Role
	DisplayName string
}

// Verifier authenticates websocket handshakes. It validates the presented
// token and confirms the user still exists.
type Verifier struct {
	tokens auth.JWTService
	users  store.UserStore
	logger *slog.Logger
}

// NewVerifier creates a handshake verifier.
func NewVerifier(tokens auth.JWTService, users store.UserStore, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		tokens: tokens,
		users:  users,
		logger: logger.With(slog.String("component", "realtime_verifier")),
	}
}

// Authenticate resolves the credential to an Identity. It returns one of
// the handshake errors (ErrMissingCredential, ErrInvalidCredential,
// ErrExpiredCredential, ErrUnknownIdentity) on rejection.
func (v *Verifier) Authenticate(ctx context.Context, credential string) (Identity, error) {
	log := logger.FromContextOrDefault(ctx, v.logger)

	if credential == "" {
		return Identity{}, ErrMissingCredential
	}

	claims, err := v.tokens.ValidateToken(ctx, credential)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return Identity{}, ErrExpiredCredential
		}
		log.Debug("handshake token rejected", slog.String("error", err.Error()))
		return Identity{}, ErrInvalidCredential
	}

	if _, err := v.users.GetByID(ctx, claims.UserID); err != nil {
		if store.IsNotFoundError(err) {
			log.Warn("handshake token names a missing user",
				slog.String("user_id", claims.UserID.String()))
			return Identity{}, ErrUnknownIdentity
		}
		return Identity{}, fmt.Errorf("failed to load user for handshake: %w", err)
	}

	return Identity{
		UserID:      claims.UserID,
		Role:        claims.Role,
		DisplayName: claims.DisplayName,
	}, nil
}

// CredentialFromRequest extracts the token from a handshake request. The
// Authorization header wins over the token query parameter; a Bearer prefix
// is stripped from either.
func CredentialFromRequest(r *http.Request) string {
	credential := r.Header.Get("Authorization")
	if credential == "" {
		credential = r.URL.Query().Get("token")
	}
	return strings.TrimPrefix(credential, "Bearer ")
}

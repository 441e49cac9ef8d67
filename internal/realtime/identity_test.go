package realtime

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/service/auth"
	"github.com/taskhive/taskhive/internal/store"
)

// fakeJWTService returns canned claims for ValidateToken.
type fakeJWTService struct {
	claims *auth.Claims
	err    error
}

var _ auth.JWTService = (*fakeJWTService)(nil)

func (s *fakeJWTService) GenerateToken(ctx context.Context, user *domain.User) (string, error) {
	return "token", nil
}

func (s *fakeJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	return s.claims, s.err
}

func (s *fakeJWTService) GenerateRefreshToken(ctx context.Context, user *domain.User) (string, error) {
	return "refresh", nil
}

func (s *fakeJWTService) ValidateRefreshToken(ctx context.Context, token string) (*auth.Claims, error) {
	return s.claims, s.err
}

// fakeUserStore resolves a single known user.
type fakeUserStore struct {
	user *domain.User
	err  error
}

var _ store.UserStore = (*fakeUserStore)(nil)

func (s *fakeUserStore) Create(ctx context.Context, user *domain.User) error { return nil }

func (s *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil || s.user.ID != id {
		return nil, store.ErrUserNotFound
	}
	return s.user, nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, store.ErrUserNotFound
	}
	return s.user, nil
}

func TestAuthenticateMissingCredential(t *testing.T) {
	t.Parallel()

	v := NewVerifier(&fakeJWTService{}, &fakeUserStore{}, nil)
	_, err := v.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestAuthenticateExpiredCredential(t *testing.T) {
	t.Parallel()

	v := NewVerifier(&fakeJWTService{err: auth.ErrExpiredToken}, &fakeUserStore{}, nil)
	_, err := v.Authenticate(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrExpiredCredential)
}

func TestAuthenticateInvalidCredential(t *testing.T) {
	t.Parallel()

	v := NewVerifier(&fakeJWTService{err: auth.ErrInvalidToken}, &fakeUserStore{}, nil)
	_, err := v.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestAuthenticateUnknownIdentity(t *testing.T) {
	t.Parallel()

	claims := &auth.Claims{UserID: uuid.New(), Role: domain.RoleUser, DisplayName: "ghost"}
	v := NewVerifier(&fakeJWTService{claims: claims}, &fakeUserStore{}, nil)

	_, err := v.Authenticate(context.Background(), "valid-but-orphaned")
	assert.ErrorIs(t, err, ErrUnknownIdentity)
}

func TestAuthenticateSuccess(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	claims := &auth.Claims{UserID: userID, Role: domain.RoleManager, DisplayName: "mia"}
	users := &fakeUserStore{user: &domain.User{ID: userID, Email: "mia@example.com"}}
	v := NewVerifier(&fakeJWTService{claims: claims}, users, nil)

	identity, err := v.Authenticate(context.Background(), "valid")
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, domain.RoleManager, identity.Role)
	assert.Equal(t, "mia", identity.DisplayName)
}

func TestCredentialFromRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		query  string
		want   string
	}{
		{name: "no credential", want: ""},
		{name: "header only", header: "Bearer abc", want: "abc"},
		{name: "header without bearer prefix", header: "abc", want: "abc"},
		{name: "query only", query: "xyz", want: "xyz"},
		{name: "header wins over query", header: "Bearer abc", query: "xyz", want: "abc"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			url := "/ws"
			if tc.query != "" {
				url += "?token=" + tc.query
			}
			r := httptest.NewRequest("GET", url, nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}

			assert.Equal(t, tc.want, CredentialFromRequest(r))
		})
	}
}

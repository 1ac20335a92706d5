package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentorbooking/internal/domain"
)

type stubVerifier struct {
	email string
	err   error
}

func (s *stubVerifier) Verify(token string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.email, nil
}

type stubUserRepo struct {
	user *domain.User
	err  error
}

func (s *stubUserRepo) Upsert(ctx context.Context, u *domain.User) error { return nil }

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateProfile(ctx context.Context, email string, p domain.ProfileUpdate) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func TestRequireIdentity(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mentor := &domain.User{
		Email:      "m@x.com",
		Name:       "M",
		Role:       domain.RoleMentor,
		Credential: &domain.CalendarCredential{AccessToken: "at"},
	}

	tests := []struct {
		name       string
		header     string
		verifier   *stubVerifier
		users      *stubUserRepo
		wantStatus int
		wantNext   bool
	}{
		{
			name:       "valid token resolves identity",
			header:     "Bearer good-token",
			verifier:   &stubVerifier{email: "m@x.com"},
			users:      &stubUserRepo{user: mentor},
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:       "missing header",
			verifier:   &stubVerifier{},
			users:      &stubUserRepo{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic dXNlcjpwYXNz",
			verifier:   &stubVerifier{},
			users:      &stubUserRepo{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty token",
			header:     "Bearer ",
			verifier:   &stubVerifier{},
			users:      &stubUserRepo{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			header:     "Bearer bad",
			verifier:   &stubVerifier{err: errors.New("expired")},
			users:      &stubUserRepo{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "token subject no longer exists",
			header:     "Bearer good-token",
			verifier:   &stubVerifier{email: "ghost@x.com"},
			users:      &stubUserRepo{err: domain.ErrUserNotFound},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "store failure",
			header:     "Bearer good-token",
			verifier:   &stubVerifier{email: "m@x.com"},
			users:      &stubUserRepo{err: errors.New("db down")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var nextCalled bool
			var gotIdentity domain.Identity
			next := func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				id, ok := IdentityFromContext(r.Context())
				require.True(t, ok)
				gotIdentity = id
				w.WriteHeader(http.StatusOK)
			}

			handler := RequireIdentity(tt.verifier, tt.users, logger)(next)
			req := httptest.NewRequest(http.MethodGet, "/slots", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantNext, nextCalled)
			if tt.wantNext {
				assert.Equal(t, "m@x.com", gotIdentity.Email)
				assert.Equal(t, domain.RoleMentor, gotIdentity.Role)
				require.NotNil(t, gotIdentity.Credential)
				assert.Equal(t, "at", gotIdentity.Credential.AccessToken)
			}
		})
	}
}

func TestIdentityFromContextMissing(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)
}

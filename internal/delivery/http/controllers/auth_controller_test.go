package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentorbooking/internal/domain"
)

type fakeAuthService struct {
	loginURL string
	token    string
	user     *domain.User
	err      error
	gotCode  string
}

func (f *fakeAuthService) LoginURL(state string) string { return f.loginURL + "&state=" + state }

func (f *fakeAuthService) HandleCallback(ctx context.Context, code string) (string, *domain.User, error) {
	f.gotCode = code
	if f.err != nil {
		return "", nil, f.err
	}
	return f.token, f.user, nil
}

type fakeUserService struct {
	user     *domain.User
	token    string
	err      error
	gotEmail string
}

func (f *fakeUserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.gotEmail = email
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeUserService) SetupProfile(ctx context.Context, email string, update domain.ProfileUpdate) (*domain.User, string, error) {
	f.gotEmail = email
	if f.err != nil {
		return nil, "", f.err
	}
	return f.user, f.token, nil
}

func TestAuthController_GoogleLogin(t *testing.T) {
	svc := &fakeAuthService{loginURL: "https://accounts.example/auth?client_id=c"}
	ctrl := NewAuthController(discardLogger, svc, &fakeUserService{}, "https://app.example")

	rr := httptest.NewRecorder()
	ctrl.GoogleLogin(rr, httptest.NewRequest(http.MethodGet, "/auth/google", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeEnvelope(t, rr)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data["url"], "https://accounts.example/auth")
	assert.NotEmpty(t, data["state"])
}

func TestAuthController_GoogleCallback(t *testing.T) {
	t.Run("redirects with token", func(t *testing.T) {
		svc := &fakeAuthService{token: "jwt-123", user: &domain.User{Email: "jo@y.com"}}
		ctrl := NewAuthController(discardLogger, svc, &fakeUserService{}, "https://app.example")

		rr := httptest.NewRecorder()
		ctrl.GoogleCallback(rr, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=c0de", nil))

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "https://app.example/dashboard?token=jwt-123", rr.Header().Get("Location"))
		assert.Equal(t, "c0de", svc.gotCode)
	})

	t.Run("missing code", func(t *testing.T) {
		ctrl := NewAuthController(discardLogger, &fakeAuthService{}, &fakeUserService{}, "https://app.example")
		rr := httptest.NewRecorder()
		ctrl.GoogleCallback(rr, httptest.NewRequest(http.MethodGet, "/auth/google/callback", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("provider failure", func(t *testing.T) {
		svc := &fakeAuthService{err: errors.New("exchange failed")}
		ctrl := NewAuthController(discardLogger, svc, &fakeUserService{}, "https://app.example")
		rr := httptest.NewRecorder()
		ctrl.GoogleCallback(rr, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=bad", nil))
		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})
}

func TestAuthController_Me(t *testing.T) {
	t.Run("returns full user record", func(t *testing.T) {
		users := &fakeUserService{user: &domain.User{Email: "m@x.com", Role: domain.RoleMentor, Expertise: "go"}}
		ctrl := NewAuthController(discardLogger, &fakeAuthService{}, users, "https://app.example")

		rr := httptest.NewRecorder()
		ctrl.Me(rr, authedRequest(http.MethodGet, "/auth/me", nil, mentorID()))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "m@x.com", users.gotEmail)
	})

	t.Run("missing identity", func(t *testing.T) {
		ctrl := NewAuthController(discardLogger, &fakeAuthService{}, &fakeUserService{}, "https://app.example")
		rr := httptest.NewRecorder()
		ctrl.Me(rr, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

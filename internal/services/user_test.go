package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentorbooking/internal/domain"
)

func TestSetupProfile(t *testing.T) {
	ctx := context.Background()

	seed := func() *fakeUserRepo {
		repo := newFakeUserRepo()
		repo.users["jo@y.com"] = &domain.User{ID: "u1", Email: "jo@y.com", Name: "Jo", Role: domain.RoleFounder}
		return repo
	}

	t.Run("updates profile and reissues token", func(t *testing.T) {
		repo := seed()
		issuer := &fakeTokenIssuer{}
		svc := NewUserService(repo, issuer, time.Hour)

		update := domain.ProfileUpdate{
			Role:      domain.RoleMentor,
			Expertise: "distributed systems",
			LinkedIn:  "https://linkedin.com/in/jo",
		}
		user, token, err := svc.SetupProfile(ctx, "Jo@Y.com", update)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleMentor, user.Role)
		assert.Equal(t, "distributed systems", user.Expertise)
		assert.Equal(t, "token-for-jo@y.com", token)
		assert.Equal(t, []string{"jo@y.com"}, issuer.issued)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		svc := NewUserService(seed(), &fakeTokenIssuer{}, time.Hour)
		_, _, err := svc.SetupProfile(ctx, "jo@y.com", domain.ProfileUpdate{Role: "admin"})
		require.Error(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := NewUserService(seed(), &fakeTokenIssuer{}, time.Hour)
		_, _, err := svc.SetupProfile(ctx, "ghost@y.com", domain.ProfileUpdate{Role: domain.RoleFounder})
		require.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestGetByEmail(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	repo.users["jo@y.com"] = &domain.User{ID: "u1", Email: "jo@y.com"}
	svc := NewUserService(repo, &fakeTokenIssuer{}, time.Hour)

	user, err := svc.GetByEmail(ctx, "JO@Y.COM")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = svc.GetByEmail(ctx, "nobody@y.com")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

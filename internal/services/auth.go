package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mentorbooking/internal/domain"
)

type authService struct {
	oauth        domain.OAuthGateway
	userRepo     domain.UserRepository
	tokenIssuer  domain.TokenIssuer
	tokenExpiry  time.Duration
	mentorEmails map[string]struct{}
}

// NewAuthService creates the login service. mentorEmails is the allowlist that
// grants the mentor role on first sign-in; everyone else starts as a founder.
func NewAuthService(
	oauth domain.OAuthGateway,
	userRepo domain.UserRepository,
	tokenIssuer domain.TokenIssuer,
	tokenExpiry time.Duration,
	mentorEmails []string,
) domain.AuthService {
	allowlist := make(map[string]struct{}, len(mentorEmails))
	for _, e := range mentorEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allowlist[e] = struct{}{}
		}
	}
	return &authService{
		oauth:        oauth,
		userRepo:     userRepo,
		tokenIssuer:  tokenIssuer,
		tokenExpiry:  tokenExpiry,
		mentorEmails: allowlist,
	}
}

func (s *authService) LoginURL(state string) string {
	return s.oauth.AuthURL(state)
}

func (s *authService) HandleCallback(ctx context.Context, code string) (string, *domain.User, error) {
	cred, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("exchange code: %w", err)
	}
	email, name, picture, err := s.oauth.FetchProfile(ctx, *cred)
	if err != nil {
		return "", nil, fmt.Errorf("fetch profile: %w", err)
	}
	email = strings.ToLower(email)

	role := domain.RoleFounder
	if _, ok := s.mentorEmails[email]; ok {
		role = domain.RoleMentor
	}

	now := time.Now()
	user := &domain.User{
		Email:      email,
		Name:       name,
		Picture:    picture,
		Role:       role,
		Credential: cred,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	// Upsert keeps an existing role: a user who completed profile setup is not
	// demoted by logging in again.
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return "", nil, fmt.Errorf("upsert user: %w", err)
	}

	token, err := s.tokenIssuer.Issue(user.Email, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, user, nil
}

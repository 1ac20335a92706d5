package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mentorbooking/internal/domain"
)

type userService struct {
	userRepo    domain.UserRepository
	tokenIssuer domain.TokenIssuer
	tokenExpiry time.Duration
}

// NewUserService creates a UserService with the given repository and token issuer.
func NewUserService(userRepo domain.UserRepository, tokenIssuer domain.TokenIssuer, tokenExpiry time.Duration) domain.UserService {
	return &userService{
		userRepo:    userRepo,
		tokenIssuer: tokenIssuer,
		tokenExpiry: tokenExpiry,
	}
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *userService) SetupProfile(ctx context.Context, email string, update domain.ProfileUpdate) (*domain.User, string, error) {
	if update.Role != domain.RoleMentor && update.Role != domain.RoleFounder {
		return nil, "", fmt.Errorf("invalid role %q", update.Role)
	}
	user, err := s.userRepo.UpdateProfile(ctx, strings.ToLower(email), update)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrUserNotFound
		}
		return nil, "", fmt.Errorf("update profile: %w", err)
	}
	// Re-issue so the client holds a token minted after the role change.
	token, err := s.tokenIssuer.Issue(user.Email, s.tokenExpiry)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}
	return user, token, nil
}

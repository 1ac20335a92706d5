package domain

import "context"

// AuthService defines the OAuth login flow: consent URL generation and
// callback handling (code exchange, profile fetch, user upsert, token issue).
type AuthService interface {
	LoginURL(state string) string
	HandleCallback(ctx context.Context, code string) (token string, user *User, err error)
}

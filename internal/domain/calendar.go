package domain

import (
	"context"
	"time"
)

// CalendarCredential is the OAuth token snapshot needed to mutate a mentor's
// calendar. It is captured when a slot is created because booking and
// cancellation may happen long after the mentor's session expired.
type CalendarCredential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Valid reports whether the credential carries any usable token.
func (c CalendarCredential) Valid() bool {
	return c.AccessToken != "" || c.RefreshToken != ""
}

// CalendarEvent is the result of creating a remote calendar event.
type CalendarEvent struct {
	EventID     string
	MeetingLink string
}

// CalendarGateway abstracts the remote calendar service. All operations are
// keyed by the slot owner's captured credential, never the caller's session.
//
// CreateEvent failures abort slot creation (ErrCalendarUnavailable). PatchEvent
// and DeleteEvent are best-effort: the engine commits the local transition
// regardless and marks the slot degraded when they fail.
type CalendarGateway interface {
	CreateEvent(ctx context.Context, cred CalendarCredential, summary, description string, start, end time.Time, attendees []string) (*CalendarEvent, error)
	PatchEvent(ctx context.Context, cred CalendarCredential, eventID, summary string, attendees []string) error
	DeleteEvent(ctx context.Context, cred CalendarCredential, eventID string) error
}

// OAuthGateway abstracts the identity provider's OAuth endpoints.
type OAuthGateway interface {
	// AuthURL returns the consent page URL for the given CSRF state.
	AuthURL(state string) string
	// Exchange trades an authorization code for a credential.
	Exchange(ctx context.Context, code string) (*CalendarCredential, error)
	// FetchProfile returns the email, display name, and picture of the
	// credential's owner.
	FetchProfile(ctx context.Context, cred CalendarCredential) (email, name, picture string, err error)
}

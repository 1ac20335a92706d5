package googlecal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"mentorbooking/internal/domain"
)

const (
	defaultBaseURL  = "https://www.googleapis.com/calendar/v3"
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	calendarID      = "primary"
	eventTimeZone   = "Asia/Kolkata"
)

// Client talks to the Google Calendar REST API. Every call is authenticated
// with the credential passed in, not any ambient session, because slot
// mutations routinely happen on behalf of a mentor who is not the caller.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
}

// NewClient returns a CalendarGateway backed by the Google Calendar API.
// clientID and clientSecret are used to refresh expired access tokens.
func NewClient(httpClient *http.Client, clientID, clientSecret string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient:   httpClient,
		baseURL:      defaultBaseURL,
		tokenURL:     defaultTokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

var _ domain.CalendarGateway = (*Client)(nil)

// WithBaseURLs overrides the API and token endpoints. Used in tests.
func (c *Client) WithBaseURLs(base, token string) *Client {
	c.baseURL = strings.TrimSuffix(base, "/")
	c.tokenURL = token
	return c
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type eventAttendee struct {
	Email string `json:"email"`
}

type conferenceRequest struct {
	RequestID   string            `json:"requestId"`
	SolutionKey map[string]string `json:"conferenceSolutionKey"`
}

type conferenceData struct {
	CreateRequest *conferenceRequest `json:"createRequest,omitempty"`
	EntryPoints   []struct {
		EntryPointType string `json:"entryPointType"`
		URI            string `json:"uri"`
	} `json:"entryPoints,omitempty"`
}

type eventResource struct {
	ID             string          `json:"id,omitempty"`
	Summary        string          `json:"summary,omitempty"`
	Description    string          `json:"description,omitempty"`
	Start          *eventTime      `json:"start,omitempty"`
	End            *eventTime      `json:"end,omitempty"`
	Attendees      []eventAttendee `json:"attendees,omitempty"`
	ConferenceData *conferenceData `json:"conferenceData,omitempty"`
	HangoutLink    string          `json:"hangoutLink,omitempty"`
}

func (c *Client) CreateEvent(ctx context.Context, cred domain.CalendarCredential, summary, description string, start, end time.Time, attendees []string) (*domain.CalendarEvent, error) {
	body := eventResource{
		Summary:     summary,
		Description: description,
		Start:       &eventTime{DateTime: start.Format(time.RFC3339), TimeZone: eventTimeZone},
		End:         &eventTime{DateTime: end.Format(time.RFC3339), TimeZone: eventTimeZone},
		ConferenceData: &conferenceData{
			CreateRequest: &conferenceRequest{
				RequestID:   uuid.NewString(),
				SolutionKey: map[string]string{"type": "hangoutsMeet"},
			},
		},
	}
	for _, a := range attendees {
		body.Attendees = append(body.Attendees, eventAttendee{Email: a})
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events?conferenceDataVersion=1&sendUpdates=all", c.baseURL, calendarID)
	var created eventResource
	if err := c.do(ctx, cred, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}
	return &domain.CalendarEvent{
		EventID:     created.ID,
		MeetingLink: meetingLink(&created),
	}, nil
}

func (c *Client) PatchEvent(ctx context.Context, cred domain.CalendarCredential, eventID, summary string, attendees []string) error {
	body := eventResource{Summary: summary}
	for _, a := range attendees {
		body.Attendees = append(body.Attendees, eventAttendee{Email: a})
	}
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s?sendUpdates=all", c.baseURL, calendarID, url.PathEscape(eventID))
	return c.do(ctx, cred, http.MethodPatch, endpoint, body, nil)
}

func (c *Client) DeleteEvent(ctx context.Context, cred domain.CalendarCredential, eventID string) error {
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s", c.baseURL, calendarID, url.PathEscape(eventID))
	return c.do(ctx, cred, http.MethodDelete, endpoint, nil, nil)
}

func (c *Client) do(ctx context.Context, cred domain.CalendarCredential, method, endpoint string, body, out any) error {
	token, err := c.accessToken(ctx, cred)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call calendar api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("calendar api returned status: %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode calendar response: %w", err)
		}
	}
	return nil
}

// accessToken returns a usable access token, refreshing through the OAuth
// token endpoint when the snapshot has expired.
func (c *Client) accessToken(ctx context.Context, cred domain.CalendarCredential) (string, error) {
	if cred.AccessToken != "" && (cred.Expiry.IsZero() || time.Now().Before(cred.Expiry)) {
		return cred.AccessToken, nil
	}
	if cred.RefreshToken == "" {
		if cred.AccessToken != "" {
			return cred.AccessToken, nil
		}
		return "", fmt.Errorf("credential has no usable token")
	}

	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {cred.RefreshToken},
		"grant_type":    {"refresh_token"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status: %d", resp.StatusCode)
	}

	var tr struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access token")
	}
	return tr.AccessToken, nil
}

// meetingLink extracts the video entry point of the conference, falling back
// to the legacy hangoutLink field.
func meetingLink(ev *eventResource) string {
	if ev.ConferenceData != nil {
		for _, ep := range ev.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				return ep.URI
			}
		}
	}
	return ev.HangoutLink
}

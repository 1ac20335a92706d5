package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// BookingEmailData holds data for the booking confirmation sent to the mentor.
type BookingEmailData struct {
	MentorEmail  string
	MentorName   string
	FounderEmail string
	FounderName  string
	StartTime    string
	EndTime      string
	MeetingLink  string
}

// CancellationEmailData holds data for the cancellation notice sent to the booker.
type CancellationEmailData struct {
	BookerEmail string
	BookerName  string
	MentorName  string
	StartTime   string
	EndTime     string
}

// NotificationService sends slot lifecycle emails. All sends are best-effort;
// the slot engine logs failures and never fails the user's operation on them.
type NotificationService interface {
	SendBookingConfirmation(ctx context.Context, data *BookingEmailData) error
	SendCancellationNotice(ctx context.Context, data *CancellationEmailData) error
}

package services

import (
	"context"
	"fmt"
	"log"

	"mentorbooking/internal/domain"
)

type notificationService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewNotificationService returns a NotificationService that uses the given
// Mailer and template renderer.
func NewNotificationService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.NotificationService {
	return &notificationService{mailer: mailer, renderer: renderer}
}

// SendBookingConfirmation notifies the mentor that a founder booked their slot.
func (s *notificationService) SendBookingConfirmation(ctx context.Context, data *domain.BookingEmailData) error {
	if data == nil {
		return fmt.Errorf("booking email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("booking_confirmation", data)
	if err != nil {
		return fmt.Errorf("failed to render booking_confirmation template: %w", err)
	}
	if err := s.mailer.Send(data.MentorEmail, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send booking confirmation: %w", err)
	}
	log.Printf("[EMAIL] Booking confirmation sent to %s", data.MentorEmail)
	return nil
}

// SendCancellationNotice notifies the booker that the mentor cancelled.
func (s *notificationService) SendCancellationNotice(ctx context.Context, data *domain.CancellationEmailData) error {
	if data == nil {
		return fmt.Errorf("cancellation email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("slot_cancelled", data)
	if err != nil {
		return fmt.Errorf("failed to render slot_cancelled template: %w", err)
	}
	if err := s.mailer.Send(data.BookerEmail, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send cancellation notice: %w", err)
	}
	log.Printf("[EMAIL] Cancellation notice sent to %s", data.BookerEmail)
	return nil
}

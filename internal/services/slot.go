package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mentorbooking/internal/domain"
)

type slotService struct {
	slotRepo  domain.SlotRepository
	calendar  domain.CalendarGateway
	directory domain.DirectoryLookup
	notifier  domain.NotificationService
	logger    *slog.Logger
	now       func() time.Time
}

// NewSlotService creates the slot lifecycle engine with the given store,
// calendar gateway, directory lookup, and notifier. notifier may be nil.
func NewSlotService(
	slotRepo domain.SlotRepository,
	calendar domain.CalendarGateway,
	directory domain.DirectoryLookup,
	notifier domain.NotificationService,
	logger *slog.Logger,
) domain.SlotService {
	return &slotService{
		slotRepo:  slotRepo,
		calendar:  calendar,
		directory: directory,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *slotService) CreateSlot(ctx context.Context, identity domain.Identity, start, end time.Time) (*domain.Slot, bool, error) {
	if !identity.IsMentor() {
		return nil, false, domain.ErrUnauthorized
	}
	if !end.After(start) {
		return nil, false, domain.ErrInvalidRange
	}
	if identity.Credential == nil || !identity.Credential.Valid() {
		return nil, false, fmt.Errorf("missing calendar credential: %w", domain.ErrUnauthorized)
	}

	// Idempotent under retry: an identical pending slot answers the request
	// instead of creating a second calendar event.
	if existing, err := s.slotRepo.FindActiveByMentorAndRange(ctx, identity.Email, start, end); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("find existing slot: %w", err)
	}

	summary := fmt.Sprintf("Mentor Slot with %s", identity.Email)
	event, err := s.calendar.CreateEvent(ctx, *identity.Credential, summary, "Mentorship Call Slot", start, end, []string{identity.Email})
	if err != nil {
		return nil, false, fmt.Errorf("create calendar event: %w", domain.ErrCalendarUnavailable)
	}

	slot := domain.NewSlot(uuid.NewString(), identity.Email, identity.Name, start, end, *identity.Credential, s.now())
	slot.ExternalEventID = event.EventID
	slot.MeetingLink = event.MeetingLink

	if err := s.slotRepo.Insert(ctx, slot); err != nil {
		if errors.Is(err, domain.ErrDuplicateSlot) {
			// Lost a concurrent create for the same tuple: hand back the winner
			// and remove the event we just created so none is orphaned.
			s.deleteEventQuietly(ctx, *identity.Credential, event.EventID, slot.ID)
			winner, findErr := s.slotRepo.FindActiveByMentorAndRange(ctx, identity.Email, start, end)
			if findErr != nil {
				return nil, false, fmt.Errorf("find winning slot: %w", findErr)
			}
			return winner, false, nil
		}
		s.deleteEventQuietly(ctx, *identity.Credential, event.EventID, slot.ID)
		return nil, false, fmt.Errorf("insert slot: %w", err)
	}
	return slot, true, nil
}

func (s *slotService) BookSlot(ctx context.Context, identity domain.Identity, slotID string) (*domain.Slot, error) {
	if identity.IsMentor() {
		return nil, domain.ErrUnauthorized
	}

	slot, err := s.slotRepo.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find slot: %w", err)
	}
	if slot.MentorEmail == identity.Email {
		return nil, domain.ErrUnauthorized
	}
	if slot.Status == domain.SlotStatusCancelled {
		// Terminal: cancelled slots are never bookable again.
		return nil, domain.ErrNotFound
	}

	booking := &domain.BookingFields{BookedByEmail: identity.Email, BookedByName: identity.Name}
	// The store re-checks Open and commits in one step; of two racing
	// bookings exactly one passes.
	if err := s.slotRepo.UpdateStatusAndBooking(ctx, slot.ID, domain.SlotStatusOpen, domain.SlotStatusBooked, booking); err != nil {
		if errors.Is(err, domain.ErrNotAvailable) {
			return nil, domain.ErrNotAvailable
		}
		return nil, fmt.Errorf("book slot: %w", err)
	}
	slot.Status = domain.SlotStatusBooked
	slot.BookedByEmail = &booking.BookedByEmail
	slot.BookedByName = &booking.BookedByName

	// The local booking is committed and authoritative. The remote patch is
	// best-effort: on failure the slot is flagged for reconciliation instead
	// of failing an operation the founder already won.
	if slot.ExternalEventID != "" {
		summary := fmt.Sprintf("Mentorship Call with %s", identity.Email)
		attendees := []string{slot.MentorEmail, identity.Email}
		if err := s.calendar.PatchEvent(ctx, slot.MentorCredential, slot.ExternalEventID, summary, attendees); err != nil {
			s.markDegraded(ctx, slot, "patch", err)
		}
	}

	if s.notifier != nil {
		data := &domain.BookingEmailData{
			MentorEmail:  slot.MentorEmail,
			MentorName:   slot.MentorName,
			FounderEmail: identity.Email,
			FounderName:  identity.Name,
			StartTime:    slot.StartTime.Format(time.RFC1123),
			EndTime:      slot.EndTime.Format(time.RFC1123),
			MeetingLink:  slot.MeetingLink,
		}
		if err := s.notifier.SendBookingConfirmation(ctx, data); err != nil {
			s.logger.WarnContext(ctx, "booking confirmation email failed", "slot_id", slot.ID, "err", err)
		}
	}
	return slot, nil
}

func (s *slotService) CancelSlot(ctx context.Context, identity domain.Identity, slotID string) error {
	if !identity.IsMentor() {
		return domain.ErrUnauthorized
	}

	slot, err := s.slotRepo.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("find slot: %w", err)
	}
	if slot.MentorEmail != identity.Email {
		// Foreign slots are reported as missing, not forbidden.
		return domain.ErrNotFound
	}
	if slot.Status == domain.SlotStatusCancelled {
		return domain.ErrNotFound
	}

	// Cancellation is valid from Open or Booked; the guard only excludes a
	// second cancel racing this one.
	if err := s.slotRepo.UpdateStatusAndBooking(ctx, slot.ID, slot.Status, domain.SlotStatusCancelled, nil); err != nil {
		if errors.Is(err, domain.ErrNotAvailable) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("cancel slot: %w", err)
	}

	if slot.ExternalEventID != "" {
		if err := s.calendar.DeleteEvent(ctx, slot.MentorCredential, slot.ExternalEventID); err != nil {
			s.markDegraded(ctx, slot, "delete", err)
		}
	}

	if s.notifier != nil && slot.Status == domain.SlotStatusBooked && slot.BookedByEmail != nil {
		data := &domain.CancellationEmailData{
			BookerEmail: *slot.BookedByEmail,
			MentorName:  slot.MentorName,
			StartTime:   slot.StartTime.Format(time.RFC1123),
			EndTime:     slot.EndTime.Format(time.RFC1123),
		}
		if slot.BookedByName != nil {
			data.BookerName = *slot.BookedByName
		}
		if err := s.notifier.SendCancellationNotice(ctx, data); err != nil {
			s.logger.WarnContext(ctx, "cancellation notice email failed", "slot_id", slot.ID, "err", err)
		}
	}
	return nil
}

func (s *slotService) ListSlots(ctx context.Context, identity domain.Identity) ([]*domain.Slot, error) {
	var (
		slots []*domain.Slot
		err   error
	)
	if identity.IsMentor() {
		slots, err = s.slotRepo.FindByMentor(ctx, identity.Email)
	} else {
		slots, err = s.slotRepo.FindOpenOrBookedBy(ctx, identity.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	if slots == nil {
		slots = []*domain.Slot{}
	}

	// Enrichment is read-only and cached per request; a missing directory
	// record falls back to the captured name, then to the raw email.
	names := make(map[string]string)
	for _, slot := range slots {
		slot.MentorName = s.resolveName(ctx, names, slot.MentorEmail, slot.MentorName)
		if slot.BookedByEmail != nil {
			resolved := s.resolveName(ctx, names, *slot.BookedByEmail, stringOrEmpty(slot.BookedByName))
			slot.BookedByName = &resolved
		}
	}
	return slots, nil
}

func (s *slotService) resolveName(ctx context.Context, cache map[string]string, email, captured string) string {
	if name, ok := cache[email]; ok {
		return name
	}
	name, err := s.directory.FindNameByEmail(ctx, email)
	if err != nil || name == "" {
		name = captured
	}
	if name == "" {
		name = email
	}
	cache[email] = name
	return name
}

func (s *slotService) markDegraded(ctx context.Context, slot *domain.Slot, op string, cause error) {
	s.logger.WarnContext(ctx, "calendar out of sync with slot", "slot_id", slot.ID, "op", op, "err", cause)
	if err := s.slotRepo.MarkDegraded(ctx, slot.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to flag degraded slot", "slot_id", slot.ID, "err", err)
	} else {
		slot.CalendarDegraded = true
	}
}

func (s *slotService) deleteEventQuietly(ctx context.Context, cred domain.CalendarCredential, eventID, slotID string) {
	if err := s.calendar.DeleteEvent(ctx, cred, eventID); err != nil {
		s.logger.WarnContext(ctx, "failed to remove orphaned calendar event", "slot_id", slotID, "event_id", eventID, "err", err)
	}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for slot operations. Controllers map these to HTTP codes.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrNotAvailable        = errors.New("slot not available")
	ErrInvalidRange        = errors.New("end time must be after start time")
	ErrCalendarUnavailable = errors.New("calendar service unavailable")
	ErrDuplicateSlot       = errors.New("duplicate slot")
)

// SlotStatus is the lifecycle state of a slot. Cancelled is terminal.
type SlotStatus string

const (
	SlotStatusOpen      SlotStatus = "open"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusCancelled SlotStatus = "cancelled"
)

// Slot represents a mentor-published time window bookable by one founder.
// swagger:model Slot
type Slot struct {
	ID              string     `json:"id"`
	MentorEmail     string     `json:"mentor_email"`
	MentorName      string     `json:"mentor_name"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	Status          SlotStatus `json:"status"`
	BookedByEmail   *string    `json:"booked_by_email"`
	BookedByName    *string    `json:"booked_by_name"`
	ExternalEventID string     `json:"external_event_id,omitempty"`
	MeetingLink     string     `json:"meeting_link,omitempty"`
	// MentorCredential is the calendar token snapshot captured at creation so
	// the mirrored event can still be mutated after the mentor's session ends.
	// Never serialized to API responses.
	MentorCredential CalendarCredential `json:"-"`
	// CalendarDegraded marks a slot whose remote calendar event is out of sync
	// with the local record after a gateway failure.
	CalendarDegraded bool      `json:"calendar_degraded"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewSlot returns an Open slot owned by the given mentor. ID is assigned by the caller.
func NewSlot(id, mentorEmail, mentorName string, start, end time.Time, cred CalendarCredential, now time.Time) *Slot {
	return &Slot{
		ID:               id,
		MentorEmail:      mentorEmail,
		MentorName:       mentorName,
		StartTime:        start,
		EndTime:          end,
		Status:           SlotStatusOpen,
		MentorCredential: cred,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// BookingFields carries the fields written when a slot transitions to Booked.
type BookingFields struct {
	BookedByEmail string
	BookedByName  string
}

// SlotRepository defines the interface for slot storage.
// UpdateStatusAndBooking is the compare-and-swap primitive: the update applies
// only if the slot's current status equals expected, otherwise it fails with
// ErrNotAvailable. All booking races resolve through it.
type SlotRepository interface {
	Insert(ctx context.Context, slot *Slot) error
	FindByID(ctx context.Context, id string) (*Slot, error)
	FindByMentor(ctx context.Context, mentorEmail string) ([]*Slot, error)
	// FindOpenOrBookedBy returns slots visible to a founder: every Open slot
	// plus Booked slots whose booker is the given email.
	FindOpenOrBookedBy(ctx context.Context, email string) ([]*Slot, error)
	// FindActiveByMentorAndRange returns the non-cancelled slot with the same
	// (mentor, start, end) tuple, or ErrNotFound.
	FindActiveByMentorAndRange(ctx context.Context, mentorEmail string, start, end time.Time) (*Slot, error)
	UpdateStatusAndBooking(ctx context.Context, id string, expected, next SlotStatus, booking *BookingFields) error
	MarkDegraded(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// SlotService is the slot lifecycle engine: it enforces the state machine and
// the role/ownership guards, and keeps the remote calendar event in sync.
type SlotService interface {
	// CreateSlot publishes a new Open slot for the acting mentor. Returns
	// (slot, created, err): created is false when an identical non-cancelled
	// slot already existed, in which case it is returned and no second
	// calendar event is created.
	CreateSlot(ctx context.Context, identity Identity, start, end time.Time) (*Slot, bool, error)
	// BookSlot transitions an Open slot to Booked for the acting founder.
	// Exactly one of two racing calls succeeds; the loser gets ErrNotAvailable.
	BookSlot(ctx context.Context, identity Identity, slotID string) (*Slot, error)
	// CancelSlot transitions a slot owned by the acting mentor to Cancelled.
	CancelSlot(ctx context.Context, identity Identity, slotID string) error
	// ListSlots returns the slots visible to the identity per its role,
	// enriched with current display names from the directory.
	ListSlots(ctx context.Context, identity Identity) ([]*Slot, error)
}

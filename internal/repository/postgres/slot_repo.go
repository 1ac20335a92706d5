package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"mentorbooking/internal/domain"
)

const slotColumns = `id, mentor_email, mentor_name, start_time, end_time, status,
		booked_by_email, booked_by_name, external_event_id, meeting_link,
		mentor_credential, calendar_degraded, created_at, updated_at`

type slotRepository struct {
	DB *sql.DB
}

// NewSlotRepository returns a SlotRepository backed by Postgres. The
// UpdateStatusAndBooking guard relies on the status predicate of a single
// UPDATE statement, so no explicit row locks are taken.
func NewSlotRepository(db *sql.DB) domain.SlotRepository {
	return &slotRepository{DB: db}
}

func (r *slotRepository) Insert(ctx context.Context, s *domain.Slot) error {
	cred, err := json.Marshal(s.MentorCredential)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	query := `
		INSERT INTO slots (id, mentor_email, mentor_name, start_time, end_time, status,
			external_event_id, meeting_link, mentor_credential, calendar_degraded, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.DB.ExecContext(ctx, query,
		s.ID, s.MentorEmail, s.MentorName, s.StartTime, s.EndTime, s.Status,
		s.ExternalEventID, s.MeetingLink, cred, s.CalendarDegraded, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrDuplicateSlot
		}
		return err
	}
	return nil
}

func (r *slotRepository) FindByID(ctx context.Context, id string) (*domain.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`
	return scanSlot(r.DB.QueryRowContext(ctx, query, id))
}

func (r *slotRepository) FindByMentor(ctx context.Context, mentorEmail string) ([]*domain.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE mentor_email = $1 ORDER BY start_time`
	return r.querySlots(ctx, query, mentorEmail)
}

func (r *slotRepository) FindOpenOrBookedBy(ctx context.Context, email string) ([]*domain.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots
		WHERE status = 'open' OR (status = 'booked' AND booked_by_email = $1)
		ORDER BY start_time`
	return r.querySlots(ctx, query, email)
}

func (r *slotRepository) FindActiveByMentorAndRange(ctx context.Context, mentorEmail string, start, end time.Time) (*domain.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots
		WHERE mentor_email = $1 AND start_time = $2 AND end_time = $3 AND status <> 'cancelled'`
	return scanSlot(r.DB.QueryRowContext(ctx, query, mentorEmail, start, end))
}

func (r *slotRepository) UpdateStatusAndBooking(ctx context.Context, id string, expected, next domain.SlotStatus, booking *domain.BookingFields) error {
	var bookedByEmail, bookedByName sql.NullString
	if booking != nil {
		bookedByEmail = sql.NullString{String: booking.BookedByEmail, Valid: true}
		bookedByName = sql.NullString{String: booking.BookedByName, Valid: true}
	}
	query := `
		UPDATE slots
		SET status = $1, booked_by_email = $2, booked_by_name = $3, updated_at = $4
		WHERE id = $5 AND status = $6
	`
	res, err := r.DB.ExecContext(ctx, query, next, bookedByEmail, bookedByName, time.Now(), id, expected)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the row is gone or another request changed the status first.
		return domain.ErrNotAvailable
	}
	return nil
}

func (r *slotRepository) MarkDegraded(ctx context.Context, id string) error {
	query := `UPDATE slots SET calendar_degraded = TRUE, updated_at = $1 WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *slotRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM slots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *slotRepository) querySlots(ctx context.Context, query string, args ...any) ([]*domain.Slot, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []*domain.Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (*domain.Slot, error) {
	s := &domain.Slot{}
	var (
		bookedByEmail, bookedByName sql.NullString
		cred                        []byte
	)
	err := row.Scan(&s.ID, &s.MentorEmail, &s.MentorName, &s.StartTime, &s.EndTime, &s.Status,
		&bookedByEmail, &bookedByName, &s.ExternalEventID, &s.MeetingLink,
		&cred, &s.CalendarDegraded, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if bookedByEmail.Valid {
		s.BookedByEmail = &bookedByEmail.String
	}
	if bookedByName.Valid {
		s.BookedByName = &bookedByName.String
	}
	if len(cred) > 0 {
		if err := json.Unmarshal(cred, &s.MentorCredential); err != nil {
			return nil, fmt.Errorf("unmarshal credential: %w", err)
		}
	}
	return s, nil
}

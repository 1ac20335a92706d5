package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"mentorbooking/internal/domain"
)

var slotRowColumns = []string{
	"id", "mentor_email", "mentor_name", "start_time", "end_time", "status",
	"booked_by_email", "booked_by_name", "external_event_id", "meeting_link",
	"mentor_credential", "calendar_degraded", "created_at", "updated_at",
}

func sampleSlot() *domain.Slot {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := domain.NewSlot("slot-1", "mentor@x.com", "Dr. Mentor",
		now.Add(24*time.Hour), now.Add(25*time.Hour),
		domain.CalendarCredential{AccessToken: "at", RefreshToken: "rt"}, now)
	s.ExternalEventID = "evt-1"
	s.MeetingLink = "https://meet.example/abc"
	return s
}

func openSlotRow(s *domain.Slot) *sqlmock.Rows {
	return sqlmock.NewRows(slotRowColumns).AddRow(
		s.ID, s.MentorEmail, s.MentorName, s.StartTime, s.EndTime, string(s.Status),
		nil, nil, s.ExternalEventID, s.MeetingLink,
		[]byte(`{"access_token":"at","refresh_token":"rt"}`), false, s.CreatedAt, s.UpdatedAt,
	)
}

func TestSlotRepository_Insert(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock, s *domain.Slot)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock, s *domain.Slot) {
				mock.ExpectExec(`INSERT INTO slots`).
					WithArgs(s.ID, s.MentorEmail, s.MentorName, s.StartTime, s.EndTime, s.Status,
						s.ExternalEventID, s.MeetingLink, sqlmock.AnyArg(), s.CalendarDegraded, s.CreatedAt, s.UpdatedAt).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "unique violation maps to duplicate slot",
			mock: func(mock sqlmock.Sqlmock, s *domain.Slot) {
				mock.ExpectExec(`INSERT INTO slots`).
					WillReturnError(&pq.Error{Code: "23505", Constraint: "slots_mentor_window_active"})
			},
			wantErr: domain.ErrDuplicateSlot,
		},
		{
			name: "other db error passes through",
			mock: func(mock sqlmock.Sqlmock, s *domain.Slot) {
				mock.ExpectExec(`INSERT INTO slots`).WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			slot := sampleSlot()
			tt.mock(mock, slot)
			repo := NewSlotRepository(db)

			err = repo.Insert(ctx, slot)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSlotRepository_FindByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found with null booking fields", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		want := sampleSlot()
		mock.ExpectQuery(`FROM slots WHERE id = \$1`).
			WithArgs(want.ID).
			WillReturnRows(openSlotRow(want))

		got, err := NewSlotRepository(db).FindByID(ctx, want.ID)
		require.NoError(t, err)
		require.Equal(t, want.ID, got.ID)
		require.Equal(t, domain.SlotStatusOpen, got.Status)
		require.Nil(t, got.BookedByEmail)
		require.Nil(t, got.BookedByName)
		require.Equal(t, "at", got.MentorCredential.AccessToken)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("booked row scans booking fields", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		want := sampleSlot()
		rows := sqlmock.NewRows(slotRowColumns).AddRow(
			want.ID, want.MentorEmail, want.MentorName, want.StartTime, want.EndTime, "booked",
			"founder@y.com", "Fran", want.ExternalEventID, want.MeetingLink,
			[]byte(`{"access_token":"at"}`), false, want.CreatedAt, want.UpdatedAt,
		)
		mock.ExpectQuery(`FROM slots WHERE id = \$1`).WillReturnRows(rows)

		got, err := NewSlotRepository(db).FindByID(ctx, want.ID)
		require.NoError(t, err)
		require.Equal(t, domain.SlotStatusBooked, got.Status)
		require.NotNil(t, got.BookedByEmail)
		require.Equal(t, "founder@y.com", *got.BookedByEmail)
		require.NotNil(t, got.BookedByName)
		require.Equal(t, "Fran", *got.BookedByName)
	})

	t.Run("missing row maps to not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM slots WHERE id = \$1`).
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		_, err = NewSlotRepository(db).FindByID(ctx, "nope")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestSlotRepository_FindOpenOrBookedBy(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := sampleSlot()
	mock.ExpectQuery(`FROM slots\s+WHERE status = 'open' OR \(status = 'booked' AND booked_by_email = \$1\)`).
		WithArgs("founder@y.com").
		WillReturnRows(openSlotRow(s))

	got, err := NewSlotRepository(db).FindOpenOrBookedBy(ctx, "founder@y.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, s.ID, got[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepository_UpdateStatusAndBooking(t *testing.T) {
	ctx := context.Background()
	booking := &domain.BookingFields{BookedByEmail: "founder@y.com", BookedByName: "Fran"}

	tests := []struct {
		name     string
		expected domain.SlotStatus
		next     domain.SlotStatus
		booking  *domain.BookingFields
		mock     func(mock sqlmock.Sqlmock)
		wantErr  error
	}{
		{
			name:     "open to booked",
			expected: domain.SlotStatusOpen,
			next:     domain.SlotStatusBooked,
			booking:  booking,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE slots\s+SET status = \$1, booked_by_email = \$2, booked_by_name = \$3, updated_at = \$4\s+WHERE id = \$5 AND status = \$6`).
					WithArgs(domain.SlotStatusBooked,
						sql.NullString{String: "founder@y.com", Valid: true},
						sql.NullString{String: "Fran", Valid: true},
						sqlmock.AnyArg(), "slot-1", domain.SlotStatusOpen).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:     "status moved first, zero rows means conflict",
			expected: domain.SlotStatusOpen,
			next:     domain.SlotStatusBooked,
			booking:  booking,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE slots`).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: domain.ErrNotAvailable,
		},
		{
			name:     "cancel clears booking columns",
			expected: domain.SlotStatusBooked,
			next:     domain.SlotStatusCancelled,
			booking:  nil,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE slots`).
					WithArgs(domain.SlotStatusCancelled,
						sql.NullString{}, sql.NullString{},
						sqlmock.AnyArg(), "slot-1", domain.SlotStatusBooked).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewSlotRepository(db).UpdateStatusAndBooking(ctx, "slot-1", tt.expected, tt.next, tt.booking)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSlotRepository_MarkDegraded(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE slots SET calendar_degraded = TRUE`).
		WithArgs(sqlmock.AnyArg(), "slot-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE slots SET calendar_degraded = TRUE`).
		WithArgs(sqlmock.AnyArg(), "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewSlotRepository(db)
	require.NoError(t, repo.MarkDegraded(ctx, "slot-1"))
	require.ErrorIs(t, repo.MarkDegraded(ctx, "gone"), domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

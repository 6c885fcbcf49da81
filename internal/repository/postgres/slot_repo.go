package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stagebook/internal/domain"
)

type slotRepository struct {
	DB *sql.DB
}

func NewSlotRepository(db *sql.DB) domain.SlotRepository {
	return &slotRepository{
		DB: db,
	}
}

// Create inserts the slot in one transaction. Occupying slots are re-checked
// for overlap under the subject's advisory lock before the insert, so a
// concurrent writer that committed an overlapping range first always surfaces
// as ErrConflict here.
func (r *slotRepository) Create(ctx context.Context, s *domain.Slot) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin slot tx: %w", err)
	}
	defer tx.Rollback()

	if err := lockSubjectCalendar(ctx, tx, s.SubjectID); err != nil {
		return err
	}
	if s.Status.Occupying() {
		if err := checkNoOverlap(ctx, tx, s.SubjectID, s.Start, s.End); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO slots (subject_id, kind, title, notes, status, start_at, end_at, visibility, created_by, event_id, booking_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING id, created_at
	`
	var eventID, bookingID sql.NullString
	if s.EventID != nil {
		eventID = sql.NullString{String: *s.EventID, Valid: true}
	}
	if s.BookingID != nil {
		bookingID = sql.NullString{String: *s.BookingID, Valid: true}
	}
	err = tx.QueryRowContext(ctx, query,
		s.SubjectID, string(s.Kind), s.Title, s.Notes, string(s.Status),
		s.Start, s.End, string(s.Visibility), s.CreatedBy, eventID, bookingID,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// lockSubjectCalendar takes the transaction-scoped advisory lock for the
// subject. A row lock cannot guard the overlap check when no conflicting row
// exists yet (there is nothing to lock), so every occupying write for a
// subject funnels through this lock first. Released automatically at commit
// or rollback.
func lockSubjectCalendar(ctx context.Context, tx *sql.Tx, subjectID string) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1)::bigint)`, subjectID); err != nil {
		return fmt.Errorf("lock subject calendar: %w", err)
	}
	return nil
}

// checkNoOverlap returns ErrConflict when any occupying slot of the subject
// intersects [start, end). Both sides use exclusive ends, so intervals that
// merely touch do not conflict. Must run with the subject's advisory lock
// held.
func checkNoOverlap(ctx context.Context, tx *sql.Tx, subjectID string, start, end time.Time) error {
	query := `
		SELECT id FROM slots
		WHERE subject_id = $1 AND status <> 'free' AND start_at < $3 AND end_at > $2
		LIMIT 1
	`
	var conflictID string
	err := tx.QueryRowContext(ctx, query, subjectID, start, end).Scan(&conflictID)
	if err == nil {
		return domain.ErrConflict
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check slot overlap: %w", err)
	}
	return nil
}

// ListBySubject fetches every slot for the subject; there is no server-side
// date filtering. Rows whose start or end is NULL are skipped and counted
// rather than surfaced as errors, so one corrupt row cannot hide a calendar.
func (r *slotRepository) ListBySubject(ctx context.Context, subjectID string) ([]*domain.Slot, int, error) {
	query := `
		SELECT id, subject_id, kind, title, notes, status, start_at, end_at, visibility, created_by, event_id, booking_id, created_at
		FROM slots
		WHERE subject_id = $1
		ORDER BY start_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	slots := make([]*domain.Slot, 0)
	dropped := 0
	for rows.Next() {
		s := &domain.Slot{}
		var startNull, endNull sql.NullTime
		var notesNull sql.NullString
		var eventIDNull, bookingIDNull sql.NullString
		if err := rows.Scan(
			&s.ID, &s.SubjectID, (*string)(&s.Kind), &s.Title, &notesNull, (*string)(&s.Status),
			&startNull, &endNull, (*string)(&s.Visibility), &s.CreatedBy,
			&eventIDNull, &bookingIDNull, &s.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		if !startNull.Valid || !endNull.Valid || !endNull.Time.After(startNull.Time) {
			dropped++
			continue
		}
		s.Start = startNull.Time
		s.End = endNull.Time
		if notesNull.Valid {
			s.Notes = notesNull.String
		}
		if eventIDNull.Valid {
			s.EventID = &eventIDNull.String
		}
		if bookingIDNull.Valid {
			s.BookingID = &bookingIDNull.String
		}
		slots = append(slots, s)
	}
	return slots, dropped, rows.Err()
}

func (r *slotRepository) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	query := `
		SELECT id, subject_id, kind, title, notes, status, start_at, end_at, visibility, created_by, event_id, booking_id, created_at
		FROM slots
		WHERE id = $1
	`
	s := &domain.Slot{}
	var startNull, endNull sql.NullTime
	var notesNull sql.NullString
	var eventIDNull, bookingIDNull sql.NullString
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.SubjectID, (*string)(&s.Kind), &s.Title, &notesNull, (*string)(&s.Status),
		&startNull, &endNull, (*string)(&s.Visibility), &s.CreatedBy,
		&eventIDNull, &bookingIDNull, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if startNull.Valid {
		s.Start = startNull.Time
	}
	if endNull.Valid {
		s.End = endNull.Time
	}
	if notesNull.Valid {
		s.Notes = notesNull.String
	}
	if eventIDNull.Valid {
		s.EventID = &eventIDNull.String
	}
	if bookingIDNull.Valid {
		s.BookingID = &bookingIDNull.String
	}
	return s, nil
}

func (r *slotRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM slots WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

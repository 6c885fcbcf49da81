package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"stagebook/internal/domain"
)

type bookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(db *sql.DB) domain.BookingRepository {
	return &bookingRepository{
		DB: db,
	}
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.BookingRequest) error {
	details, err := json.Marshal(b.Details)
	if err != nil {
		return fmt.Errorf("marshal booking details: %w", err)
	}
	query := `
		INSERT INTO bookings (target_id, requester_id, kind, date_from, date_to, status, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`
	return r.DB.QueryRowContext(ctx, query,
		b.TargetID, b.RequesterID, string(b.Kind), b.Date, b.DateTo, string(b.Status), details,
	).Scan(&b.ID, &b.CreatedAt)
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.BookingRequest, error) {
	query := `
		SELECT id, target_id, requester_id, kind, date_from, date_to, status, details, created_at
		FROM bookings
		WHERE id = $1
	`
	return scanBooking(r.DB.QueryRowContext(ctx, query, id))
}

func (r *bookingRepository) ListPendingByTarget(ctx context.Context, targetID string, params domain.PaginationParams) ([]*domain.BookingRequest, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM bookings WHERE target_id = $1 AND status = 'pending'`
	if err := r.DB.QueryRowContext(ctx, countQuery, targetID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, target_id, requester_id, kind, date_from, date_to, status, details, created_at
		FROM bookings
		WHERE target_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, targetID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]*domain.BookingRequest, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, b)
	}
	return list, total, rows.Err()
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	query := `UPDATE bookings SET status = $1 WHERE id = $2`
	result, err := r.DB.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *bookingRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM bookings WHERE id = $1`
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

// Accept runs the whole acceptance as one transaction: take the target's
// advisory lock, re-check their occupying slots for overlap, insert the
// event, insert the booked slot referencing both, and flip the request to
// accepted. Two concurrent accepts for overlapping ranges serialize on the
// lock, so the loser always sees the winner's slot and gets ErrConflict.
func (r *bookingRepository) Accept(ctx context.Context, req *domain.BookingRequest, event *domain.CalendarEvent, slot *domain.Slot) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin accept tx: %w", err)
	}
	defer tx.Rollback()

	if err := lockSubjectCalendar(ctx, tx, slot.SubjectID); err != nil {
		return err
	}
	if err := checkNoOverlap(ctx, tx, slot.SubjectID, slot.Start, slot.End); err != nil {
		return err
	}

	eventQuery := `
		INSERT INTO events (owner_id, visibility, title, description, time_from, time_to, start_date, end_date, booking_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, created_at
	`
	var bookingID sql.NullString
	if event.BookingID != nil {
		bookingID = sql.NullString{String: *event.BookingID, Valid: true}
	}
	err = tx.QueryRowContext(ctx, eventQuery,
		event.OwnerID, string(event.Visibility), event.Title, event.Description,
		event.TimeFrom, event.TimeTo, event.StartDate, event.EndDate, bookingID,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	slot.EventID = &event.ID
	slotQuery := `
		INSERT INTO slots (subject_id, kind, title, notes, status, start_at, end_at, visibility, created_by, event_id, booking_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING id, created_at
	`
	var slotBookingID sql.NullString
	if slot.BookingID != nil {
		slotBookingID = sql.NullString{String: *slot.BookingID, Valid: true}
	}
	err = tx.QueryRowContext(ctx, slotQuery,
		slot.SubjectID, string(slot.Kind), slot.Title, slot.Notes, string(slot.Status),
		slot.Start, slot.End, string(slot.Visibility), slot.CreatedBy, event.ID, slotBookingID,
	).Scan(&slot.ID, &slot.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert booked slot: %w", err)
	}

	statusQuery := `UPDATE bookings SET status = 'accepted' WHERE id = $1 AND status = 'pending'`
	result, err := tx.ExecContext(ctx, statusQuery, req.ID)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		// The request vanished or was decided concurrently.
		return domain.ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit accept tx: %w", err)
	}
	req.Status = domain.BookingStatusAccepted
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.BookingRequest, error) {
	b := &domain.BookingRequest{}
	var details []byte
	err := row.Scan(
		&b.ID, &b.TargetID, &b.RequesterID, (*string)(&b.Kind),
		&b.Date, &b.DateTo, (*string)(&b.Status), &details, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &b.Details); err != nil {
			return nil, fmt.Errorf("unmarshal booking details: %w", err)
		}
	}
	return b, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"stagebook/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.CalendarEvent) error {
	query := `
		INSERT INTO events (owner_id, visibility, title, description, time_from, time_to, start_date, end_date, booking_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, created_at
	`
	var bookingID sql.NullString
	if e.BookingID != nil {
		bookingID = sql.NullString{String: *e.BookingID, Valid: true}
	}
	return r.DB.QueryRowContext(ctx, query,
		e.OwnerID, string(e.Visibility), e.Title, e.Description,
		e.TimeFrom, e.TimeTo, e.StartDate, e.EndDate, bookingID,
	).Scan(&e.ID, &e.CreatedAt)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.CalendarEvent, error) {
	query := `
		SELECT id, owner_id, visibility, title, description, time_from, time_to, start_date, end_date, booking_id, created_at
		FROM events
		WHERE id = $1
	`
	e := &domain.CalendarEvent{}
	var descNull, timeFromNull, timeToNull sql.NullString
	var bookingIDNull sql.NullString
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.OwnerID, (*string)(&e.Visibility), &e.Title, &descNull,
		&timeFromNull, &timeToNull, &e.StartDate, &e.EndDate, &bookingIDNull, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if descNull.Valid {
		e.Description = descNull.String
	}
	if timeFromNull.Valid {
		e.TimeFrom = timeFromNull.String
	}
	if timeToNull.Valid {
		e.TimeTo = timeToNull.String
	}
	if bookingIDNull.Valid {
		e.BookingID = &bookingIDNull.String
	}
	return e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
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

package domain

import (
	"context"
	"time"
)

// CalendarEvent is the display-oriented record materialized when a slot is
// created, holding the human-readable details shown on a detail page.
// swagger:model CalendarEvent
type CalendarEvent struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Visibility  Visibility `json:"visibility"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	TimeFrom    string     `json:"time_from,omitempty"`
	TimeTo      string     `json:"time_to,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	BookingID   *string    `json:"booking_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewCalendarEvent returns an event covering the inclusive day range
// [startDate, endDate], bounds snapped to local midnight.
func NewCalendarEvent(ownerID, title, description string, visibility Visibility, startDate, endDate time.Time) *CalendarEvent {
	return &CalendarEvent{
		OwnerID:     ownerID,
		Visibility:  visibility,
		Title:       title,
		Description: description,
		StartDate:   DayStart(startDate),
		EndDate:     DayStart(endDate),
	}
}

// EventRepository defines the interface for calendar event storage.
type EventRepository interface {
	Create(ctx context.Context, event *CalendarEvent) error
	GetByID(ctx context.Context, id string) (*CalendarEvent, error)
	Delete(ctx context.Context, id string) error
}

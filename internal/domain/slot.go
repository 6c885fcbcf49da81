package domain

import (
	"context"
	"time"
)

// SlotStatus is the stored status of an availability slot.
type SlotStatus string

const (
	SlotStatusFree    SlotStatus = "free"
	SlotStatusBusy    SlotStatus = "busy"
	SlotStatusBooked  SlotStatus = "booked"
	SlotStatusBlocked SlotStatus = "blocked"
)

// Occupying reports whether the status renders as occupied and disables the
// covered days for new picks. "free" is the only non-occupying status.
func (s SlotStatus) Occupying() bool {
	switch s {
	case SlotStatusBusy, SlotStatusBooked, SlotStatusBlocked:
		return true
	}
	return false
}

// SubjectKind is the role of the calendar owner.
type SubjectKind string

const (
	SubjectKindArtist   SubjectKind = "artist"
	SubjectKindLocation SubjectKind = "location"
)

// Visibility controls whether non-owners may view slot or event details.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// DefaultSlotTitle is used when a slot is created with a blank title.
const DefaultSlotTitle = "Reserved"

// Slot is a stored date-range record on a subject's calendar.
//
// Start is inclusive and normalized to local midnight. End is EXCLUSIVE: it is
// always one calendar day past the last selected day, so every day-range
// enumeration over a slot iterates [Start, End).
// swagger:model Slot
type Slot struct {
	ID         string      `json:"id"`
	SubjectID  string      `json:"subject_id"`
	Kind       SubjectKind `json:"kind"`
	Title      string      `json:"title"`
	Notes      string      `json:"notes,omitempty"`
	Status     SlotStatus  `json:"status"`
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	Visibility Visibility  `json:"visibility"`
	CreatedBy  string      `json:"created_by"`
	EventID    *string     `json:"event_id,omitempty"`
	BookingID  *string     `json:"booking_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewSlot returns a Slot for the inclusive day range [from, lastDay], applying
// the storage defaults: bounds snapped to local midnight, exclusive end one day
// past lastDay, blank title replaced, and status clamped to busy unless it is
// one of the known values.
func NewSlot(subjectID string, kind SubjectKind, title string, status SlotStatus, from, lastDay time.Time, createdBy string) *Slot {
	if title == "" {
		title = DefaultSlotTitle
	}
	switch status {
	case SlotStatusFree, SlotStatusBooked, SlotStatusBlocked:
	default:
		status = SlotStatusBusy
	}
	return &Slot{
		SubjectID:  subjectID,
		Kind:       kind,
		Title:      title,
		Status:     status,
		Start:      DayStart(from),
		End:        DayStart(lastDay).AddDate(0, 0, 1),
		Visibility: VisibilityPublic,
		CreatedBy:  createdBy,
	}
}

// CoversDay reports whether day falls inside the slot's [Start, End) interval.
func (s *Slot) CoversDay(day time.Time) bool {
	k := DayKey(day)
	return k >= DayKey(s.Start) && k < DayKey(s.End)
}

// LastDay returns the last occupied calendar day (End minus one day).
func (s *Slot) LastDay() time.Time {
	return DayStart(s.End).AddDate(0, 0, -1)
}

// IntersectsWindow reports whether the slot's interval touches the inclusive
// day window [first, last]. A slot is excluded only when it starts after the
// window's last day or ends before its first.
func (s *Slot) IntersectsWindow(first, last time.Time) bool {
	if AfterDay(s.Start, last) {
		return false
	}
	if BeforeDay(s.End, first) {
		return false
	}
	return true
}

// SlotRepository defines the interface for slot storage.
type SlotRepository interface {
	// Create inserts the slot. An occupying slot is re-checked against the
	// subject's stored occupying slots under a per-subject lock and rejected
	// with ErrConflict on overlap, so concurrent writers cannot both land on
	// the same days.
	Create(ctx context.Context, slot *Slot) error
	// ListBySubject returns all slots for the subject, sorted ascending by
	// start. There is no server-side date filtering; month-window filtering
	// is the calendar service's responsibility. Rows with missing or
	// unparsable bounds are skipped and counted, not surfaced as errors.
	ListBySubject(ctx context.Context, subjectID string) ([]*Slot, int, error)
	GetByID(ctx context.Context, id string) (*Slot, error)
	Delete(ctx context.Context, id string) error
}

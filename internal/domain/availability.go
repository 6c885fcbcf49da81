package domain

import (
	"context"
	"time"
)

// MonthIndex is the in-memory projection of one displayed month of slots:
// a busy-day set for disabling calendar days, a day-to-slots lookup for the
// day-detail panel, and the free-day predicate derived from both.
type MonthIndex struct {
	SubjectID string
	Month     time.Time // first day of the indexed month
	Today     time.Time // local midnight at build time; lower bound for "free"
	BusyDays  map[int64]struct{}
	DayEvents map[int64][]*Slot
}

// BuildMonthIndex projects already month-filtered slots into a MonthIndex.
// Every day covered by an occupying slot (busy, booked, or blocked) lands in
// BusyDays; days before today are never marked. DayEvents maps every covered
// day to the slots covering it regardless of status.
func BuildMonthIndex(subjectID string, month time.Time, today time.Time, slots []*Slot) *MonthIndex {
	idx := &MonthIndex{
		SubjectID: subjectID,
		Month:     DayStart(month),
		Today:     DayStart(today),
		BusyDays:  make(map[int64]struct{}),
		DayEvents: make(map[int64][]*Slot),
	}
	todayKey := DayKey(idx.Today)
	for _, s := range slots {
		// Exclusive end: iterate [Start, End) by enumerating to End-1.
		for _, day := range EnumerateDays(s.Start, s.LastDay()) {
			k := DayKey(day)
			idx.DayEvents[k] = append(idx.DayEvents[k], s)
			if s.Status.Occupying() && k >= todayKey {
				idx.BusyDays[k] = struct{}{}
			}
		}
	}
	return idx
}

// IsFreeDay reports whether d is at or after today and not in the busy set.
func (idx *MonthIndex) IsFreeDay(d time.Time) bool {
	k := DayKey(d)
	if k < DayKey(idx.Today) {
		return false
	}
	_, busy := idx.BusyDays[k]
	return !busy
}

// IsBusyDay reports whether d is in the busy set.
func (idx *MonthIndex) IsBusyDay(d time.Time) bool {
	_, busy := idx.BusyDays[DayKey(d)]
	return busy
}

// SlotsForDay returns the slots covering d, in stored order.
func (idx *MonthIndex) SlotsForDay(d time.Time) []*Slot {
	return idx.DayEvents[DayKey(d)]
}

// FilterSlotsForMonth keeps the slots whose [start, end) interval intersects
// the inclusive day window of the month containing anchor. Input order is
// preserved; the store already sorts ascending by start.
func FilterSlotsForMonth(slots []*Slot, anchor time.Time) []*Slot {
	first, last := MonthWindow(anchor)
	out := make([]*Slot, 0, len(slots))
	for _, s := range slots {
		if s.IntersectsWindow(first, last) {
			out = append(out, s)
		}
	}
	return out
}

// CalendarService is the read side of the scheduling core: it fetches a
// subject's slots, filters them to the displayed month, and maintains the
// per-month index cache.
type CalendarService interface {
	// MonthAvailability returns the (possibly cached) index for the month
	// containing anchor. A fetch that has been superseded by a newer one for
	// the same key never overwrites the cache.
	MonthAvailability(ctx context.Context, subjectID string, anchor time.Time) (*MonthIndex, error)
	// CreateOwnerSlot validates the inclusive range [from, lastDay] against
	// the subject's current availability (clipping per the selection rules),
	// creates the slot and its event, and invalidates the subject's cached
	// months. Only the owner may create (actorID must equal subjectID).
	CreateOwnerSlot(ctx context.Context, subjectID, actorID string, kind SubjectKind, title, notes string, status SlotStatus, from, lastDay time.Time) (*Slot, error)
	// Invalidate drops every cached month for the subject, forcing the next
	// MonthAvailability call to refetch.
	Invalidate(subjectID string)
}

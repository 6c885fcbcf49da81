package services

import (
	"time"

	"stagebook/internal/domain"
)

// DayRange is a raw UI range pick. To may be unset while a drag is still in
// progress; both unset means no selection.
type DayRange struct {
	From *time.Time
	To   *time.Time
}

// SelectionState classifies a DayRange.
type SelectionState int

const (
	SelectionEmpty SelectionState = iota
	SelectionPartial
	SelectionFull
)

// State returns the selection state of the range.
func (r DayRange) State() SelectionState {
	switch {
	case r.From == nil:
		return SelectionEmpty
	case r.To == nil:
		return SelectionPartial
	default:
		return SelectionFull
	}
}

// ResolveSelection converts a candidate range pick into a validated selection,
// enforcing that a committed range contains no busy day:
//
//   - no From: reset to empty.
//   - From only: partial pick, kept as-is when From is free.
//   - both set: if every day in [From, To] inclusive is free the range is
//     accepted unchanged, so a valid range is a fixed point. Otherwise the
//     selection is clipped to the last contiguous free day walking forward
//     from From; days at or after the first busy day are discarded. Clipping
//     always keeps the free run starting at From; it never hunts for a later
//     free run inside the picked span.
//   - From itself busy: the pick is rejected outright (empty result) instead
//     of collapsing to a useless single-day range.
func ResolveSelection(candidate DayRange, isFree func(time.Time) bool) DayRange {
	if candidate.From == nil {
		return DayRange{}
	}
	from := domain.DayStart(*candidate.From)
	if !isFree(from) {
		return DayRange{}
	}
	if candidate.To == nil {
		return DayRange{From: &from}
	}
	to := domain.DayStart(*candidate.To)
	if to.Before(from) {
		from, to = to, from
		if !isFree(from) {
			return DayRange{}
		}
	}

	lastFree := from
	for _, d := range domain.EnumerateDays(from, to) {
		if !isFree(d) {
			break
		}
		lastFree = d
	}
	return DayRange{From: &from, To: &lastFree}
}

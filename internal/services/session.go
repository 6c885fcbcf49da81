package services

import (
	"context"
	"fmt"
	"time"

	"stagebook/internal/domain"
)

// CalendarSession is the contract the scheduling core exposes to a rendering
// layer for one (subject, viewer) pair: which days are disabled, which are
// highlighted busy or free, and the callbacks invoked on day-click,
// range-select, and month-change. Each session owns its displayed month and
// current selection; nothing here is process-wide.
type CalendarSession struct {
	calendar  domain.CalendarService
	subjectID string
	viewerID  string
	now       func() time.Time

	month     time.Time
	index     *domain.MonthIndex
	selection DayRange
}

// NewCalendarSession opens a session for the given subject's calendar, loading
// the current month's index.
func NewCalendarSession(ctx context.Context, calendar domain.CalendarService, subjectID, viewerID string) (*CalendarSession, error) {
	s := &CalendarSession{
		calendar:  calendar,
		subjectID: subjectID,
		viewerID:  viewerID,
		now:       time.Now,
	}
	month, _ := domain.MonthWindow(s.now())
	if err := s.loadMonth(ctx, month); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CalendarSession) loadMonth(ctx context.Context, month time.Time) error {
	idx, err := s.calendar.MonthAvailability(ctx, s.subjectID, month)
	if err != nil {
		return fmt.Errorf("load month %s: %w", domain.MonthKey(month), err)
	}
	s.month = month
	s.index = idx
	return nil
}

// Month returns the first day of the currently displayed month.
func (s *CalendarSession) Month() time.Time {
	return s.month
}

// Selection returns the current validated selection.
func (s *CalendarSession) Selection() DayRange {
	return s.selection
}

// OnMonthChange navigates the displayed month. Navigation to a month strictly
// before the current one is rejected; calendars are append-only into the
// future.
func (s *CalendarSession) OnMonthChange(ctx context.Context, next time.Time) error {
	currentMonth, _ := domain.MonthWindow(s.now())
	nextMonth, _ := domain.MonthWindow(next)
	if nextMonth.Before(currentMonth) {
		return domain.ErrInvalidInput
	}
	return s.loadMonth(ctx, nextMonth)
}

// OnDayClick forwards a single-day pick into the selection engine. A click on
// an empty selection starts a partial pick; a click with a partial pick
// commits a full range.
func (s *CalendarSession) OnDayClick(day time.Time) DayRange {
	d := domain.DayStart(day)
	candidate := DayRange{From: &d}
	if s.selection.State() == SelectionPartial {
		candidate = DayRange{From: s.selection.From, To: &d}
	}
	s.selection = ResolveSelection(candidate, s.index.IsFreeDay)
	return s.selection
}

// OnRangeSelect forwards a raw range pick into the selection engine.
func (s *CalendarSession) OnRangeSelect(r DayRange) DayRange {
	s.selection = ResolveSelection(r, s.index.IsFreeDay)
	return s.selection
}

// ClearSelection resets the selection to empty.
func (s *CalendarSession) ClearSelection() {
	s.selection = DayRange{}
}

// DisabledPredicate returns the predicate the renderer uses to disable days:
// any day before today, or any day in the busy set.
func (s *CalendarSession) DisabledPredicate() func(time.Time) bool {
	idx := s.index
	return func(d time.Time) bool {
		if domain.BeforeDay(d, idx.Today) {
			return true
		}
		return idx.IsBusyDay(d)
	}
}

// Modifiers returns the busy and free predicates for visual styling.
func (s *CalendarSession) Modifiers() (busy, free func(time.Time) bool) {
	idx := s.index
	return idx.IsBusyDay, idx.IsFreeDay
}

// SlotsForDay returns the slots covering the given day in the displayed
// month, for the day-detail panel. Private slots are hidden from viewers other
// than the owner.
func (s *CalendarSession) SlotsForDay(day time.Time) []*domain.Slot {
	slots := s.index.SlotsForDay(day)
	if s.viewerID == s.subjectID {
		return slots
	}
	visible := make([]*domain.Slot, 0, len(slots))
	for _, slot := range slots {
		if slot.Visibility == domain.VisibilityPublic {
			visible = append(visible, slot)
		}
	}
	return visible
}

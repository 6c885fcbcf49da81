package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stagebook/internal/domain"
)

type monthCacheKey struct {
	subjectID string
	month     string // "2006-01"
}

type calendarService struct {
	slotRepo       domain.SlotRepository
	eventRepo      domain.EventRepository
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time

	mu    sync.Mutex
	cache map[monthCacheKey]*domain.MonthIndex
	// gen guards against a slow, superseded fetch overwriting a newer index:
	// a fetch result is committed only when its generation is still current
	// for the key.
	gen map[monthCacheKey]uint64
}

func NewCalendarService(slotRepo domain.SlotRepository, eventRepo domain.EventRepository, logger *slog.Logger, timeout time.Duration) domain.CalendarService {
	return &calendarService{
		slotRepo:       slotRepo,
		eventRepo:      eventRepo,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
		cache:          make(map[monthCacheKey]*domain.MonthIndex),
		gen:            make(map[monthCacheKey]uint64),
	}
}

func (s *calendarService) MonthAvailability(ctx context.Context, subjectID string, anchor time.Time) (*domain.MonthIndex, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if subjectID == "" {
		return nil, domain.ErrInvalidInput
	}
	key := monthCacheKey{subjectID: subjectID, month: domain.MonthKey(anchor)}

	s.mu.Lock()
	// A hit is only valid while the calendar day it was built on is still
	// today; past-day selectability shifts at local midnight, so an index
	// built yesterday is treated as a miss and rebuilt.
	if idx, ok := s.cache[key]; ok && domain.SameDay(idx.Today, s.now()) {
		s.mu.Unlock()
		return idx, nil
	}
	s.gen[key]++
	myGen := s.gen[key]
	s.mu.Unlock()

	slots, dropped, err := s.slotRepo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	if dropped > 0 {
		// Malformed rows are excluded from results, but never invisibly.
		s.logger.WarnContext(ctx, "dropped malformed slots", "subject_id", subjectID, "count", dropped)
	}

	monthSlots := domain.FilterSlotsForMonth(slots, anchor)
	idx := domain.BuildMonthIndex(subjectID, anchor, domain.DayStart(s.now()), monthSlots)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[key] != myGen {
		// A newer fetch or an invalidation superseded this response; return
		// the computed index to this caller but do not cache it.
		return idx, nil
	}
	s.cache[key] = idx
	return idx, nil
}

func (s *calendarService) CreateOwnerSlot(ctx context.Context, subjectID, actorID string, kind domain.SubjectKind, title, notes string, status domain.SlotStatus, from, lastDay time.Time) (*domain.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if actorID != subjectID {
		return nil, domain.ErrForbidden
	}
	if from.IsZero() || lastDay.IsZero() || domain.AfterDay(from, lastDay) {
		return nil, domain.ErrInvalidDateRange
	}
	today := domain.DayStart(s.now())
	if domain.BeforeDay(from, today) {
		return nil, domain.ErrInvalidDateRange
	}

	slots, dropped, err := s.slotRepo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	if dropped > 0 {
		s.logger.WarnContext(ctx, "dropped malformed slots", "subject_id", subjectID, "count", dropped)
	}
	isFree := freePredicate(slots, today)

	fromDay := domain.DayStart(from)
	toDay := domain.DayStart(lastDay)
	// Clipping is an interactive-selection affordance; a direct create of a
	// range touching an occupied day is a conflict, not a shorter slot.
	resolved := ResolveSelection(DayRange{From: &fromDay, To: &toDay}, isFree)
	if resolved.State() != SelectionFull || !resolved.To.Equal(toDay) {
		return nil, domain.ErrConflict
	}

	slot := domain.NewSlot(subjectID, kind, title, status, *resolved.From, *resolved.To, actorID)
	slot.Notes = notes

	if slot.Status.Occupying() {
		event := domain.NewCalendarEvent(subjectID, slot.Title, notes, slot.Visibility, *resolved.From, *resolved.To)
		if err := s.eventRepo.Create(ctx, event); err != nil {
			return nil, fmt.Errorf("create event: %w", err)
		}
		slot.EventID = &event.ID
	}
	if err := s.slotRepo.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.Invalidate(subjectID)
	return slot, nil
}

func (s *calendarService) Invalidate(subjectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Bumping the generation also discards any in-flight fetch for the key.
	for key := range s.gen {
		if key.subjectID == subjectID {
			s.gen[key]++
			delete(s.cache, key)
		}
	}
}

// freePredicate builds the isFreeDay check over the full slot list, not a
// single month's index, so ranges spanning a month boundary validate
// correctly.
func freePredicate(slots []*domain.Slot, today time.Time) func(time.Time) bool {
	busy := make(map[int64]struct{})
	todayKey := domain.DayKey(today)
	for _, slot := range slots {
		if !slot.Status.Occupying() {
			continue
		}
		for _, d := range domain.EnumerateDays(slot.Start, slot.LastDay()) {
			if k := domain.DayKey(d); k >= todayKey {
				busy[k] = struct{}{}
			}
		}
	}
	return func(d time.Time) bool {
		k := domain.DayKey(d)
		if k < todayKey {
			return false
		}
		_, b := busy[k]
		return !b
	}
}

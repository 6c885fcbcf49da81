package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stagebook/internal/domain"
)

// CacheInvalidator lets the booking workflow drop a subject's cached months
// after a mutation, forcing the next availability read to refetch.
type CacheInvalidator interface {
	Invalidate(subjectID string)
}

type bookingService struct {
	bookingRepo    domain.BookingRepository
	slotRepo       domain.SlotRepository
	eventRepo      domain.EventRepository
	notifier       domain.Notifier
	cache          CacheInvalidator
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewBookingService(
	bookingRepo domain.BookingRepository,
	slotRepo domain.SlotRepository,
	eventRepo domain.EventRepository,
	notifier domain.Notifier,
	cache CacheInvalidator,
	logger *slog.Logger,
	timeout time.Duration,
) domain.BookingService {
	return &bookingService{
		bookingRepo:    bookingRepo,
		slotRepo:       slotRepo,
		eventRepo:      eventRepo,
		notifier:       notifier,
		cache:          cache,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *bookingService) SubmitRequest(ctx context.Context, targetID, requesterID string, kind domain.SubjectKind, date, dateTo time.Time, details domain.BookingDetails) (*domain.BookingRequest, *domain.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if targetID == "" || requesterID == "" {
		return nil, nil, domain.ErrInvalidInput
	}
	if date.IsZero() || dateTo.IsZero() || domain.AfterDay(date, dateTo) {
		return nil, nil, domain.ErrInvalidDateRange
	}
	today := domain.DayStart(s.now())
	if domain.BeforeDay(date, today) {
		return nil, nil, domain.ErrInvalidDateRange
	}

	// Reject ranges that already touch an occupied day. The accept path
	// re-checks transactionally; this check keeps obviously conflicting
	// requests out of the owner's queue.
	if err := s.checkRangeFree(ctx, targetID, date, dateTo, today); err != nil {
		return nil, nil, err
	}

	if requesterID == targetID {
		// Owner self-serve: block the range directly, no request record.
		title := details.EventType
		if title == "" {
			title = domain.DefaultSlotTitle
		}
		event := domain.NewCalendarEvent(targetID, title, details.Message, domain.VisibilityPublic, date, dateTo)
		if err := s.eventRepo.Create(ctx, event); err != nil {
			return nil, nil, fmt.Errorf("create event: %w", err)
		}
		slot := domain.NewSlot(targetID, kind, title, domain.SlotStatusBlocked, date, dateTo, requesterID)
		slot.EventID = &event.ID
		if err := s.slotRepo.Create(ctx, slot); err != nil {
			return nil, nil, fmt.Errorf("create slot: %w", err)
		}
		s.cache.Invalidate(targetID)
		return nil, slot, nil
	}

	req := domain.NewBookingRequest(targetID, requesterID, kind, date, dateTo, details)
	if err := s.bookingRepo.Create(ctx, req); err != nil {
		return nil, nil, fmt.Errorf("create booking request: %w", err)
	}
	return req, nil, nil
}

func (s *bookingService) AcceptRequest(ctx context.Context, requestID, ownerID string) (*domain.BookingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	req, err := s.bookingRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get booking request: %w", err)
	}
	if req.TargetID != ownerID {
		return nil, domain.ErrForbidden
	}
	if req.Status != domain.BookingStatusPending {
		return nil, domain.ErrInvalidInput
	}

	title := req.Details.EventType
	if title == "" {
		title = domain.DefaultSlotTitle
	}
	event := domain.NewCalendarEvent(req.TargetID, title, req.Details.Message, domain.VisibilityPublic, req.Date, req.DateTo)
	event.TimeFrom = req.Details.TimeFrom
	event.TimeTo = req.Details.TimeTo
	event.BookingID = &req.ID

	// DateTo is inclusive; NewSlot converts to the exclusive stored end.
	slot := domain.NewSlot(req.TargetID, req.Kind, title, domain.SlotStatusBooked, req.Date, req.DateTo, req.RequesterID)
	slot.BookingID = &req.ID

	if err := s.bookingRepo.Accept(ctx, req, event, slot); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("accept booking: %w", err)
	}
	s.cache.Invalidate(req.TargetID)

	s.notifyDecision(ctx, req, true)
	return &domain.BookingResult{EventID: event.ID, SlotID: slot.ID}, nil
}

func (s *bookingService) RejectRequest(ctx context.Context, requestID, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	req, err := s.bookingRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get booking request: %w", err)
	}
	if req.TargetID != ownerID {
		return domain.ErrForbidden
	}
	if req.Status != domain.BookingStatusPending {
		return domain.ErrInvalidInput
	}
	if err := s.bookingRepo.Delete(ctx, requestID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete booking request: %w", err)
	}
	s.notifyDecision(ctx, req, false)
	return nil
}

func (s *bookingService) DeleteOwnerSlot(ctx context.Context, slotID, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get slot: %w", err)
	}
	if slot.SubjectID != ownerID {
		return domain.ErrForbidden
	}
	if err := s.slotRepo.Delete(ctx, slotID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete slot: %w", err)
	}

	// A booked slot came from an accepted request; the booking follows the
	// slot into cancellation.
	if slot.Status == domain.SlotStatusBooked && slot.BookingID != nil {
		if err := s.bookingRepo.UpdateStatus(ctx, *slot.BookingID, domain.BookingStatusCancelled); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("cancel linked booking: %w", err)
		}
	}
	if slot.EventID != nil {
		if err := s.eventRepo.Delete(ctx, *slot.EventID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete linked event: %w", err)
		}
	}
	s.cache.Invalidate(slot.SubjectID)
	return nil
}

func (s *bookingService) ListPendingRequests(ctx context.Context, targetID, callerID string, params domain.PaginationParams) ([]*domain.BookingRequest, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if targetID != callerID {
		return nil, 0, domain.ErrForbidden
	}
	list, total, err := s.bookingRepo.ListPendingByTarget(ctx, targetID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list pending requests: %w", err)
	}
	if list == nil {
		list = []*domain.BookingRequest{}
	}
	return list, total, nil
}

// checkRangeFree rejects the inclusive range [date, dateTo] with ErrConflict
// when any occupying slot of the target covers a day in it.
func (s *bookingService) checkRangeFree(ctx context.Context, targetID string, date, dateTo, today time.Time) error {
	slots, dropped, err := s.slotRepo.ListBySubject(ctx, targetID)
	if err != nil {
		return fmt.Errorf("list slots: %w", err)
	}
	if dropped > 0 {
		s.logger.WarnContext(ctx, "dropped malformed slots", "subject_id", targetID, "count", dropped)
	}
	isFree := freePredicate(slots, today)
	for _, d := range domain.EnumerateDays(date, dateTo) {
		if !isFree(d) {
			return domain.ErrConflict
		}
	}
	return nil
}

// notifyDecision emails the requester about an accept or reject. Notification
// failure never fails the transition; it is logged and dropped.
func (s *bookingService) notifyDecision(ctx context.Context, req *domain.BookingRequest, accepted bool) {
	email := req.Details.ContactEmail
	if email == "" {
		return
	}
	data := &domain.BookingDecisionEmailData{
		Email:      email,
		Requester:  req.Details.ContactName,
		TargetName: req.Details.VenueName,
		DateFrom:   req.Date.Format("2 Jan 2006"),
		DateTo:     req.DateTo.Format("2 Jan 2006"),
		EventType:  req.Details.EventType,
	}
	var err error
	if accepted {
		err = s.notifier.BookingAccepted(ctx, data)
	} else {
		err = s.notifier.BookingRejected(ctx, data)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "booking notification failed", "booking_id", req.ID, "accepted", accepted, "err", err)
	}
}

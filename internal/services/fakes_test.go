package services

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"stagebook/internal/domain"
)

// testLogger is a no-op logger so tests don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeSlotRepo implements domain.SlotRepository for tests.
type fakeSlotRepo struct {
	mu      sync.Mutex
	slots   map[string]*domain.Slot
	nextID  int
	dropped int
	listErr error
	// listCalls counts ListBySubject invocations, for cache assertions.
	listCalls int
	// onList, when set, runs during ListBySubject before returning, letting
	// tests interleave other work with an in-flight fetch.
	onList    func()
	createErr error
	deleteErr error
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: make(map[string]*domain.Slot)}
}

func (f *fakeSlotRepo) Create(ctx context.Context, slot *domain.Slot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	slot.ID = "slot-" + strconv.Itoa(f.nextID)
	stored := *slot
	f.slots[slot.ID] = &stored
	return nil
}

func (f *fakeSlotRepo) ListBySubject(ctx context.Context, subjectID string) ([]*domain.Slot, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.onList != nil {
		f.onList()
	}
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var out []*domain.Slot
	for _, s := range f.slots {
		if s.SubjectID == subjectID {
			out = append(out, s)
		}
	}
	return out, f.dropped, nil
}

func (f *fakeSlotRepo) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.slots[id]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSlotRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.slots[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.slots, id)
	return nil
}

// fakeBookingRepo implements domain.BookingRepository for tests.
type fakeBookingRepo struct {
	mu        sync.Mutex
	bookings  map[string]*domain.BookingRequest
	nextID    int
	acceptErr error
	// slotRepo, when set, receives the booked slot on Accept so cascade
	// tests can observe it.
	slotRepo *fakeSlotRepo
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]*domain.BookingRequest)}
}

func (f *fakeBookingRepo) Create(ctx context.Context, req *domain.BookingRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	req.ID = "bk-" + strconv.Itoa(f.nextID)
	stored := *req
	f.bookings[req.ID] = &stored
	return nil
}

func (f *fakeBookingRepo) GetByID(ctx context.Context, id string) (*domain.BookingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bookings[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBookingRepo) ListPendingByTarget(ctx context.Context, targetID string, params domain.PaginationParams) ([]*domain.BookingRequest, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.BookingRequest
	for _, b := range f.bookings {
		if b.TargetID == targetID && b.Status == domain.BookingStatusPending {
			out = append(out, b)
		}
	}
	return out, len(out), nil
}

func (f *fakeBookingRepo) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.Status = status
	return nil
}

func (f *fakeBookingRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.bookings, id)
	return nil
}

func (f *fakeBookingRepo) Accept(ctx context.Context, req *domain.BookingRequest, event *domain.CalendarEvent, slot *domain.Slot) error {
	f.mu.Lock()
	if f.acceptErr != nil {
		f.mu.Unlock()
		return f.acceptErr
	}
	event.ID = "ev-" + req.ID
	slot.EventID = &event.ID
	if b, ok := f.bookings[req.ID]; ok {
		b.Status = domain.BookingStatusAccepted
	}
	req.Status = domain.BookingStatusAccepted
	f.mu.Unlock()
	if f.slotRepo != nil {
		return f.slotRepo.Create(ctx, slot)
	}
	slot.ID = "slot-" + req.ID
	return nil
}

// fakeEventRepo implements domain.EventRepository for tests.
type fakeEventRepo struct {
	mu      sync.Mutex
	events  map[string]*domain.CalendarEvent
	nextID  int
	deleted []string
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]*domain.CalendarEvent)}
}

func (f *fakeEventRepo) Create(ctx context.Context, event *domain.CalendarEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	event.ID = "ev-" + strconv.Itoa(f.nextID)
	stored := *event
	f.events[event.ID] = &stored
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.CalendarEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.events[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	if _, ok := f.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.events, id)
	return nil
}

// fakeNotifier implements domain.Notifier for tests.
type fakeNotifier struct {
	accepted []*domain.BookingDecisionEmailData
	rejected []*domain.BookingDecisionEmailData
	err      error
}

func (f *fakeNotifier) BookingAccepted(ctx context.Context, data *domain.BookingDecisionEmailData) error {
	f.accepted = append(f.accepted, data)
	return f.err
}

func (f *fakeNotifier) BookingRejected(ctx context.Context, data *domain.BookingDecisionEmailData) error {
	f.rejected = append(f.rejected, data)
	return f.err
}

// fakeCache implements CacheInvalidator for tests.
type fakeCache struct {
	invalidated []string
}

func (f *fakeCache) Invalidate(subjectID string) {
	f.invalidated = append(f.invalidated, subjectID)
}

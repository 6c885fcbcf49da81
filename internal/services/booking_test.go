package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagebook/internal/domain"
)

type bookingFixture struct {
	bookingRepo *fakeBookingRepo
	slotRepo    *fakeSlotRepo
	eventRepo   *fakeEventRepo
	notifier    *fakeNotifier
	cache       *fakeCache
	svc         *bookingService
}

func newBookingFixture(today time.Time) *bookingFixture {
	f := &bookingFixture{
		bookingRepo: newFakeBookingRepo(),
		slotRepo:    newFakeSlotRepo(),
		eventRepo:   newFakeEventRepo(),
		notifier:    &fakeNotifier{},
		cache:       &fakeCache{},
	}
	f.bookingRepo.slotRepo = f.slotRepo
	f.svc = &bookingService{
		bookingRepo:    f.bookingRepo,
		slotRepo:       f.slotRepo,
		eventRepo:      f.eventRepo,
		notifier:       f.notifier,
		cache:          f.cache,
		logger:         testLogger,
		contextTimeout: 2 * time.Second,
		now:            func() time.Time { return today },
	}
	return f
}

func testDetails() domain.BookingDetails {
	return domain.BookingDetails{
		VenueName:    "The Basement",
		EventType:    "Concert",
		TimeFrom:     "19:00",
		TimeTo:       "23:00",
		ContactName:  "Mara",
		ContactEmail: "mara@example.com",
		Message:      "two sets, own backline",
	}
}

func TestSubmitRequest(t *testing.T) {
	today := day(2026, time.June, 1)

	t.Run("creates a pending request", func(t *testing.T) {
		f := newBookingFixture(today)
		req, slot, err := f.svc.SubmitRequest(context.Background(), "venue-1", "artist-9", domain.SubjectKindLocation, day(2026, time.August, 1), day(2026, time.August, 3), testDetails())
		require.NoError(t, err)
		require.NotNil(t, req)
		assert.Nil(t, slot)
		assert.Equal(t, domain.BookingStatusPending, req.Status)
		assert.True(t, req.DateTo.Equal(day(2026, time.August, 3)), "request keeps the inclusive end")
		assert.Empty(t, f.slotRepo.slots, "no slot until the owner accepts")
	})

	t.Run("missing ids", func(t *testing.T) {
		f := newBookingFixture(today)
		_, _, err := f.svc.SubmitRequest(context.Background(), "", "artist-9", domain.SubjectKindLocation, day(2026, time.August, 1), day(2026, time.August, 3), testDetails())
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("inverted range", func(t *testing.T) {
		f := newBookingFixture(today)
		_, _, err := f.svc.SubmitRequest(context.Background(), "venue-1", "artist-9", domain.SubjectKindLocation, day(2026, time.August, 3), day(2026, time.August, 1), testDetails())
		assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	})

	t.Run("range in the past", func(t *testing.T) {
		f := newBookingFixture(today)
		_, _, err := f.svc.SubmitRequest(context.Background(), "venue-1", "artist-9", domain.SubjectKindLocation, day(2026, time.May, 1), day(2026, time.May, 3), testDetails())
		assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	})

	t.Run("range touching an occupied day conflicts", func(t *testing.T) {
		f := newBookingFixture(today)
		existing := domain.NewSlot("venue-1", domain.SubjectKindLocation, "Booked", domain.SlotStatusBooked, day(2026, time.August, 2), day(2026, time.August, 2), "venue-1")
		require.NoError(t, f.slotRepo.Create(context.Background(), existing))

		_, _, err := f.svc.SubmitRequest(context.Background(), "venue-1", "artist-9", domain.SubjectKindLocation, day(2026, time.August, 1), day(2026, time.August, 3), testDetails())
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Empty(t, f.bookingRepo.bookings)
	})

	t.Run("owner self-serve blocks the range directly", func(t *testing.T) {
		f := newBookingFixture(today)
		req, slot, err := f.svc.SubmitRequest(context.Background(), "venue-1", "venue-1", domain.SubjectKindLocation, day(2026, time.August, 1), day(2026, time.August, 3), testDetails())
		require.NoError(t, err)
		assert.Nil(t, req, "no request record for the owner's own calendar")
		require.NotNil(t, slot)
		assert.Equal(t, domain.SlotStatusBlocked, slot.Status)
		assert.Equal(t, "Concert", slot.Title)
		assert.True(t, slot.End.Equal(day(2026, time.August, 4)), "stored end is exclusive")
		require.NotNil(t, slot.EventID)
		assert.Len(t, f.eventRepo.events, 1)
		assert.Equal(t, []string{"venue-1"}, f.cache.invalidated)
	})
}

func TestAcceptRequest(t *testing.T) {
	today := day(2026, time.June, 1)

	submit := func(t *testing.T, f *bookingFixture) *domain.BookingRequest {
		req, _, err := f.svc.SubmitRequest(context.Background(), "venue-1", "artist-9", domain.SubjectKindLocation, day(2026, time.August, 1), day(2026, time.August, 3), testDetails())
		require.NoError(t, err)
		return req
	}

	t.Run("accept materializes event and booked slot", func(t *testing.T) {
		f := newBookingFixture(today)
		req := submit(t, f)

		result, err := f.svc.AcceptRequest(context.Background(), req.ID, "venue-1")
		require.NoError(t, err)
		assert.NotEmpty(t, result.EventID)
		assert.NotEmpty(t, result.SlotID)

		stored, err := f.slotRepo.GetByID(context.Background(), result.SlotID)
		require.NoError(t, err)
		assert.Equal(t, domain.SlotStatusBooked, stored.Status)
		assert.True(t, stored.Start.Equal(day(2026, time.August, 1)))
		// Inclusive Aug 1-3 request becomes an exclusive-end slot ending Aug 4.
		assert.True(t, stored.End.Equal(day(2026, time.August, 4)))
		require.NotNil(t, stored.BookingID)
		assert.Equal(t, req.ID, *stored.BookingID)

		updated, err := f.bookingRepo.GetByID(context.Background(), req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusAccepted, updated.Status)

		assert.Equal(t, []string{"venue-1"}, f.cache.invalidated)
		require.Len(t, f.notifier.accepted, 1)
		assert.Equal(t, "mara@example.com", f.notifier.accepted[0].Email)
	})

	t.Run("unknown request", func(t *testing.T) {
		f := newBookingFixture(today)
		_, err := f.svc.AcceptRequest(context.Background(), "nope", "venue-1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("only the target may accept", func(t *testing.T) {
		f := newBookingFixture(today)
		req := submit(t, f)
		_, err := f.svc.AcceptRequest(context.Background(), req.ID, "artist-9")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("already decided request", func(t *testing.T) {
		f := newBookingFixture(today)
		req := submit(t, f)
		_, err := f.svc.AcceptRequest(context.Background(), req.ID, "venue-1")
		require.NoError(t, err)
		_, err = f.svc.AcceptRequest(context.Background(), req.ID, "venue-1")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("storage conflict surfaces as ErrConflict", func(t *testing.T) {
		f := newBookingFixture(today)
		req := submit(t, f)
		f.bookingRepo.acceptErr = domain.ErrConflict
		_, err := f.svc.AcceptRequest(context.Background(), req.ID, "venue-1")
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Empty(t, f.notifier.accepted)
	})

	t.Run("notification failure does not fail the accept", func(t *testing.T) {
		f := newBookingFixture(today)
		req := submit(t, f)
		f.notifier.err = errors.New("smtp down")
		_, err := f.svc.AcceptRequest(context.Background(), req.ID, "venue-1")
		require.NoError(t, err)
	})
}

func TestRejectRequest(t *testing.T) {
	today := day(2026, time.June, 1)
	f := newBookingFixture(today)
	req, _, err := f.svc.SubmitRequest(context.Background(), "venue-1", "artist-9", domain.SubjectKindLocation, day(2026, time.July, 10), day(2026, time.July, 12), testDetails())
	require.NoError(t, err)

	t.Run("only the target may reject", func(t *testing.T) {
		err := f.svc.RejectRequest(context.Background(), req.ID, "artist-9")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("reject deletes the request and notifies", func(t *testing.T) {
		require.NoError(t, f.svc.RejectRequest(context.Background(), req.ID, "venue-1"))
		_, err := f.bookingRepo.GetByID(context.Background(), req.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		require.Len(t, f.notifier.rejected, 1)
		assert.Equal(t, "mara@example.com", f.notifier.rejected[0].Email)
	})

	t.Run("rejecting twice", func(t *testing.T) {
		err := f.svc.RejectRequest(context.Background(), req.ID, "venue-1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

// Accepting a request and then deleting the resulting slot returns the days
// to availability and cancels the linked booking.
func TestAcceptThenDeleteSlot(t *testing.T) {
	today := day(2026, time.June, 1)
	f := newBookingFixture(today)

	req, _, err := f.svc.SubmitRequest(context.Background(), "venue-1", "artist-9", domain.SubjectKindLocation, day(2026, time.August, 1), day(2026, time.August, 3), testDetails())
	require.NoError(t, err)
	result, err := f.svc.AcceptRequest(context.Background(), req.ID, "venue-1")
	require.NoError(t, err)

	t.Run("only the owner may delete", func(t *testing.T) {
		err := f.svc.DeleteOwnerSlot(context.Background(), result.SlotID, "artist-9")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	require.NoError(t, f.svc.DeleteOwnerSlot(context.Background(), result.SlotID, "venue-1"))

	_, err = f.slotRepo.GetByID(context.Background(), result.SlotID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cancelled, err := f.bookingRepo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)

	// The freed range accepts a new request again.
	_, _, err = f.svc.SubmitRequest(context.Background(), "venue-1", "artist-5", domain.SubjectKindLocation, day(2026, time.August, 1), day(2026, time.August, 3), testDetails())
	assert.NoError(t, err)

	assert.Equal(t, []string{"venue-1", "venue-1"}, f.cache.invalidated)
}

func TestDeleteOwnerSlotUnknown(t *testing.T) {
	f := newBookingFixture(day(2026, time.June, 1))
	err := f.svc.DeleteOwnerSlot(context.Background(), "missing", "venue-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListPendingRequests(t *testing.T) {
	today := day(2026, time.June, 1)
	f := newBookingFixture(today)

	t.Run("caller must be the target", func(t *testing.T) {
		_, _, err := f.svc.ListPendingRequests(context.Background(), "venue-1", "artist-9", domain.PaginationParams{Page: 1, PageSize: 10})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("empty queue returns an empty slice", func(t *testing.T) {
		list, total, err := f.svc.ListPendingRequests(context.Background(), "venue-1", "venue-1", domain.PaginationParams{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
		assert.Zero(t, total)
	})

	t.Run("pending requests are listed", func(t *testing.T) {
		_, _, err := f.svc.SubmitRequest(context.Background(), "venue-1", "artist-9", domain.SubjectKindLocation, day(2026, time.July, 1), day(2026, time.July, 2), testDetails())
		require.NoError(t, err)
		list, total, err := f.svc.ListPendingRequests(context.Background(), "venue-1", "venue-1", domain.PaginationParams{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Len(t, list, 1)
		assert.Equal(t, 1, total)
	})
}

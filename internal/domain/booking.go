package domain

import (
	"context"
	"time"
)

// BookingStatus is the lifecycle status of a booking request.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// BookingDetails is the free-form payload a requester attaches to a request.
// swagger:model BookingDetails
type BookingDetails struct {
	VenueName    string `json:"venue_name,omitempty"`
	EventType    string `json:"event_type,omitempty"`
	TimeFrom     string `json:"time_from,omitempty"`
	TimeTo       string `json:"time_to,omitempty"`
	Budget       string `json:"budget,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	Message      string `json:"message,omitempty"`
}

// BookingRequest is a pending proposal from a requester to occupy part of a
// subject's calendar.
//
// DateTo is the INCLUSIVE last requested day, as entered by the requester.
// This deliberately differs from Slot's exclusive-end convention; the accept
// path converts explicitly (slot end = DateTo + 1 day) when materializing the
// booked slot.
// swagger:model BookingRequest
type BookingRequest struct {
	ID          string         `json:"id"`
	TargetID    string         `json:"target_id"`
	RequesterID string         `json:"requester_id"`
	Kind        SubjectKind    `json:"kind"`
	Date        time.Time      `json:"date"`
	DateTo      time.Time      `json:"date_to"`
	Status      BookingStatus  `json:"status"`
	Details     BookingDetails `json:"details"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewBookingRequest returns a pending request for the inclusive day range
// [date, dateTo], bounds snapped to local midnight.
func NewBookingRequest(targetID, requesterID string, kind SubjectKind, date, dateTo time.Time, details BookingDetails) *BookingRequest {
	return &BookingRequest{
		TargetID:    targetID,
		RequesterID: requesterID,
		Kind:        kind,
		Date:        DayStart(date),
		DateTo:      DayStart(dateTo),
		Status:      BookingStatusPending,
		Details:     details,
	}
}

// BookingRepository defines the interface for booking request storage.
type BookingRepository interface {
	Create(ctx context.Context, req *BookingRequest) error
	GetByID(ctx context.Context, id string) (*BookingRequest, error)
	ListPendingByTarget(ctx context.Context, targetID string, params PaginationParams) ([]*BookingRequest, int, error)
	UpdateStatus(ctx context.Context, id string, status BookingStatus) error
	Delete(ctx context.Context, id string) error

	// Accept atomically materializes an accepted booking: it re-validates the
	// requested range against the latest stored occupying slots for the
	// target, inserts the event and the booked slot, and marks the request
	// accepted, all in one transaction. Returns ErrConflict when another
	// write occupied an overlapping range first; on any failure nothing is
	// written.
	Accept(ctx context.Context, req *BookingRequest, event *CalendarEvent, slot *Slot) error
}

// BookingResult is what accepting a request produced.
type BookingResult struct {
	EventID string `json:"event_id"`
	SlotID  string `json:"slot_id"`
}

// BookingService manages the request/accept/reject lifecycle between a
// requester and a calendar-owning subject.
type BookingService interface {
	// SubmitRequest branches on actor identity: when requesterID equals
	// targetID the owner is blocking their own calendar, so an event and a
	// blocked slot are created directly and the returned request is nil.
	// Otherwise a pending BookingRequest is created and returned with a nil
	// slot. Either path rejects ranges overlapping occupied days with
	// ErrConflict.
	SubmitRequest(ctx context.Context, targetID, requesterID string, kind SubjectKind, date, dateTo time.Time, details BookingDetails) (*BookingRequest, *Slot, error)
	AcceptRequest(ctx context.Context, requestID, ownerID string) (*BookingResult, error)
	RejectRequest(ctx context.Context, requestID, ownerID string) error
	DeleteOwnerSlot(ctx context.Context, slotID, ownerID string) error
	ListPendingRequests(ctx context.Context, targetID, callerID string, params PaginationParams) ([]*BookingRequest, int, error)
}

package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"stagebook/internal/delivery/http/helpers"
	"stagebook/internal/delivery/http/middleware"
	"stagebook/internal/domain"
)

// emailRegex matches a simple email format (local@domain with at least one dot in domain).
var emailRegex = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// SubmitBookingRequest is the request body for POST /bookings. Date and
// DateTo accept a "2006-01-02" string, an RFC3339 string, an epoch number, or
// a {"seconds": ..., "nanos": ...} object; DateTo is the inclusive last day.
type SubmitBookingRequest struct {
	TargetID     string `json:"target_id"`
	Kind         string `json:"kind"`
	Date         any    `json:"date"`
	DateTo       any    `json:"date_to"`
	VenueName    string `json:"venue_name"`
	EventType    string `json:"event_type"`
	TimeFrom     string `json:"time_from"`
	TimeTo       string `json:"time_to"`
	Budget       string `json:"budget"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Message      string `json:"message"`
}

// Validate implements Validator.
func (s SubmitBookingRequest) Validate() []string {
	var errs []string
	if s.TargetID == "" {
		errs = append(errs, "target_id is required")
	}
	if s.Date == nil {
		errs = append(errs, "date is required")
	}
	if s.DateTo == nil {
		errs = append(errs, "date_to is required")
	}
	switch s.Kind {
	case "", string(domain.SubjectKindArtist), string(domain.SubjectKindLocation):
	default:
		errs = append(errs, "kind must be artist or location")
	}
	if s.ContactEmail != "" && !emailRegex.MatchString(s.ContactEmail) {
		errs = append(errs, "contact_email is not a valid email")
	}
	return errs
}

func (s SubmitBookingRequest) details() domain.BookingDetails {
	return domain.BookingDetails{
		VenueName:    s.VenueName,
		EventType:    s.EventType,
		TimeFrom:     s.TimeFrom,
		TimeTo:       s.TimeTo,
		Budget:       s.Budget,
		ContactName:  s.ContactName,
		ContactEmail: s.ContactEmail,
		ContactPhone: s.ContactPhone,
		Message:      s.Message,
	}
}

// SubmitBookingResponse is the data payload for POST /bookings. Request is set
// when a pending request was created for another subject's calendar; Slot is
// set when the caller blocked a range on its own calendar.
type SubmitBookingResponse struct {
	Request *domain.BookingRequest `json:"request,omitempty"`
	Slot    *domain.Slot           `json:"slot,omitempty"`
}

// SubmitBookingSuccessResponse is the success response envelope for POST /bookings (201).
type SubmitBookingSuccessResponse struct {
	Data  SubmitBookingResponse `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// ListPendingResponse is the data payload for GET /bookings/pending.
type ListPendingResponse struct {
	Requests   []*domain.BookingRequest `json:"requests"`
	Pagination helpers.PaginationMeta   `json:"pagination"`
}

// ListPendingSuccessResponse is the success response envelope for GET /bookings/pending (200).
type ListPendingSuccessResponse struct {
	Data  ListPendingResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// AcceptBookingSuccessResponse is the success response envelope for POST /bookings/{bookingID}/accept (200).
type AcceptBookingSuccessResponse struct {
	Data  *domain.BookingResult `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// RejectBookingResponse is the data payload for POST /bookings/{bookingID}/reject (200).
type RejectBookingResponse struct {
	Status string `json:"status"`
}

// RejectBookingSuccessResponse is the success response envelope for POST /bookings/{bookingID}/reject (200).
type RejectBookingSuccessResponse struct {
	Data  RejectBookingResponse `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

type BookingController struct {
	Logger  *slog.Logger
	Service domain.BookingService
}

func NewBookingController(logger *slog.Logger, svc domain.BookingService) *BookingController {
	return &BookingController{
		Logger:  logger,
		Service: svc,
	}
}

// SubmitBooking godoc
// @Summary Submit a booking request
// @Description Requests the inclusive date range [date, date_to] on the target's calendar. A request against another subject goes into that subject's pending queue; a request against the caller's own calendar blocks the range immediately. Ranges touching an occupied day are rejected. Requires authentication.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param booking body SubmitBookingRequest true "Booking request data"
// @Success 201 {object} controllers.SubmitBookingSuccessResponse "data contains the pending request or the created slot"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (range touches an occupied day)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings [post]
func (c *BookingController) SubmitBooking(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := middleware.SubjectIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req SubmitBookingRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	date, ok := domain.ParseDateInput(req.Date)
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "date is not a recognized date")
		return
	}
	dateTo, ok := domain.ParseDateInput(req.DateTo)
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "date_to is not a recognized date")
		return
	}

	booking, slot, err := c.Service.SubmitRequest(r.Context(), req.TargetID, requesterID, domain.SubjectKind(req.Kind), date, dateTo, req.details())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid booking request")
		case errors.Is(err, domain.ErrInvalidDateRange):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid date range")
		case errors.Is(err, domain.ErrConflict):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "date range conflicts with an existing slot")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, SubmitBookingResponse{Request: booking, Slot: slot})
}

// ListPending godoc
// @Summary List the caller's pending booking requests
// @Description Returns the pending requests targeting the authenticated subject, paginated. Requires authentication.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListPendingSuccessResponse "data contains requests and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/pending [get]
func (c *BookingController) ListPending(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := middleware.SubjectIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	params := helpers.ParsePagination(r)
	requests, total, err := c.Service.ListPendingRequests(r.Context(), subjectID, subjectID, params)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListPendingResponse{
		Requests:   requests,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// AcceptBooking godoc
// @Summary Accept a pending booking request
// @Description Atomically re-validates the range, creates the calendar event and booked slot, and marks the request accepted. Only the request's target may accept. Requires authentication.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking request ID"
// @Success 200 {object} controllers.AcceptBookingSuccessResponse "data contains the created event and slot IDs"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (request already decided)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the target)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (range no longer free)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/{bookingID}/accept [post]
func (c *BookingController) AcceptBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("bookingID")
	if bookingID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing bookingID")
		return
	}
	ownerID, ok := middleware.SubjectIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	result, err := c.Service.AcceptRequest(r.Context(), bookingID, ownerID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "booking request not found")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "booking request already decided")
		case errors.Is(err, domain.ErrConflict):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "date range is no longer free")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// RejectBooking godoc
// @Summary Reject a pending booking request
// @Description Removes the pending request and notifies the requester. Only the request's target may reject. Requires authentication.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking request ID"
// @Success 200 {object} controllers.RejectBookingSuccessResponse "data contains status"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (request already decided)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the target)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/{bookingID}/reject [post]
func (c *BookingController) RejectBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("bookingID")
	if bookingID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing bookingID")
		return
	}
	ownerID, ok := middleware.SubjectIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.RejectRequest(r.Context(), bookingID, ownerID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "booking request not found")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "booking request already decided")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RejectBookingResponse{Status: "rejected"})
}

package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"stagebook/internal/delivery/http/helpers"
	"stagebook/internal/delivery/http/middleware"
	"stagebook/internal/domain"
)

// MonthAvailabilityResponse is the data payload for GET /subjects/{subjectID}/availability.
// Month is formatted "2006-01"; Today and the sorted BusyDays entries are
// formatted "2006-01-02". Slots holds the slots intersecting the month.
type MonthAvailabilityResponse struct {
	SubjectID string         `json:"subject_id"`
	Month     string         `json:"month"`
	Today     string         `json:"today"`
	BusyDays  []string       `json:"busy_days"`
	Slots     []*domain.Slot `json:"slots"`
}

// MonthAvailabilitySuccessResponse is the success response envelope for GET /subjects/{subjectID}/availability (200).
type MonthAvailabilitySuccessResponse struct {
	Data  MonthAvailabilityResponse `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// CreateSlotRequest is the request body for POST /subjects/{subjectID}/slots.
// DateFrom and DateTo accept a "2006-01-02" string, an RFC3339 string, an
// epoch number, or a {"seconds": ..., "nanos": ...} object; DateTo is the
// inclusive last day.
type CreateSlotRequest struct {
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Notes    string `json:"notes"`
	Status   string `json:"status"`
	DateFrom any    `json:"date_from"`
	DateTo   any    `json:"date_to"`
}

// Validate implements Validator.
func (c CreateSlotRequest) Validate() []string {
	var errs []string
	if c.DateFrom == nil {
		errs = append(errs, "date_from is required")
	}
	if c.DateTo == nil {
		errs = append(errs, "date_to is required")
	}
	switch c.Kind {
	case "", string(domain.SubjectKindArtist), string(domain.SubjectKindLocation):
	default:
		errs = append(errs, "kind must be artist or location")
	}
	return errs
}

// CreateSlotSuccessResponse is the success response envelope for POST /subjects/{subjectID}/slots (201).
type CreateSlotSuccessResponse struct {
	Data  *domain.Slot      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// DeleteSlotResponse is the data payload for DELETE /slots/{slotID} (200).
type DeleteSlotResponse struct {
	Status string `json:"status"`
}

// DeleteSlotSuccessResponse is the success response envelope for DELETE /slots/{slotID} (200).
type DeleteSlotSuccessResponse struct {
	Data  DeleteSlotResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

type AvailabilityController struct {
	Logger   *slog.Logger
	Calendar domain.CalendarService
	Bookings domain.BookingService
}

func NewAvailabilityController(logger *slog.Logger, calendar domain.CalendarService, bookings domain.BookingService) *AvailabilityController {
	return &AvailabilityController{
		Logger:   logger,
		Calendar: calendar,
		Bookings: bookings,
	}
}

// GetMonthAvailability godoc
// @Summary Get a subject's availability for a month
// @Description Returns the busy-day set and the slots intersecting the given month. Month defaults to the current one. Requires authentication.
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param subjectID path string true "Subject ID (artist or venue)"
// @Param month query string false "Month to index, formatted 2006-01"
// @Success 200 {object} controllers.MonthAvailabilitySuccessResponse "data contains busy days and slots"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /subjects/{subjectID}/availability [get]
func (c *AvailabilityController) GetMonthAvailability(w http.ResponseWriter, r *http.Request) {
	subjectID := r.PathValue("subjectID")
	if subjectID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing subjectID")
		return
	}
	anchor := time.Now()
	if s := r.URL.Query().Get("month"); s != "" {
		parsed, err := time.ParseInLocation("2006-01", s, time.Local)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "month must be formatted 2006-01")
			return
		}
		anchor = parsed
	}

	idx, err := c.Calendar.MonthAvailability(r.Context(), subjectID, anchor)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid subject")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, monthAvailabilityResponse(idx))
}

// monthAvailabilityResponse flattens a MonthIndex into the wire shape: sorted
// busy days and the deduplicated slot list.
func monthAvailabilityResponse(idx *domain.MonthIndex) MonthAvailabilityResponse {
	busy := make([]string, 0, len(idx.BusyDays))
	for k := range idx.BusyDays {
		busy = append(busy, time.Unix(k, 0).In(time.Local).Format("2006-01-02"))
	}
	sort.Strings(busy)

	seen := make(map[string]struct{})
	slots := make([]*domain.Slot, 0)
	for _, k := range sortedKeys(idx.DayEvents) {
		for _, s := range idx.DayEvents[k] {
			if _, dup := seen[s.ID]; dup {
				continue
			}
			seen[s.ID] = struct{}{}
			slots = append(slots, s)
		}
	}
	return MonthAvailabilityResponse{
		SubjectID: idx.SubjectID,
		Month:     domain.MonthKey(idx.Month),
		Today:     idx.Today.Format("2006-01-02"),
		BusyDays:  busy,
		Slots:     slots,
	}
}

func sortedKeys(m map[int64][]*domain.Slot) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// CreateSlot godoc
// @Summary Create a slot on the caller's own calendar
// @Description Marks the inclusive date range [date_from, date_to] with the given status. Only the subject itself may create slots; ranges touching an occupied day are rejected. Requires authentication.
// @Tags availability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subjectID path string true "Subject ID (must match the authenticated subject)"
// @Param slot body CreateSlotRequest true "Slot data"
// @Success 201 {object} controllers.CreateSlotSuccessResponse "data contains the created slot"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the subject)"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (range touches an occupied day)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /subjects/{subjectID}/slots [post]
func (c *AvailabilityController) CreateSlot(w http.ResponseWriter, r *http.Request) {
	subjectID := r.PathValue("subjectID")
	if subjectID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing subjectID")
		return
	}
	actorID, ok := middleware.SubjectIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req CreateSlotRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	from, ok := domain.ParseDateInput(req.DateFrom)
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "date_from is not a recognized date")
		return
	}
	to, ok := domain.ParseDateInput(req.DateTo)
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "date_to is not a recognized date")
		return
	}

	slot, err := c.Calendar.CreateOwnerSlot(r.Context(), subjectID, actorID, domain.SubjectKind(req.Kind), req.Title, req.Notes, domain.SlotStatus(req.Status), from, to)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "only the subject may edit its calendar")
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
	helpers.WriteJSONSuccess(w, http.StatusCreated, slot)
}

// DeleteSlot godoc
// @Summary Delete a slot from the caller's own calendar
// @Description Deletes the slot, cancels a linked booking if the slot was booked, and removes the linked calendar event. Only the slot's subject may delete. Requires authentication.
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param slotID path string true "Slot ID"
// @Success 200 {object} controllers.DeleteSlotSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /slots/{slotID} [delete]
func (c *AvailabilityController) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	slotID := r.PathValue("slotID")
	if slotID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing slotID")
		return
	}
	ownerID, ok := middleware.SubjectIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Bookings.DeleteOwnerSlot(r.Context(), slotID, ownerID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "slot not found")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteSlotResponse{Status: "deleted"})
}

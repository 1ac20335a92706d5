package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"mentorbooking/internal/delivery/http/helpers"
	"mentorbooking/internal/delivery/http/middleware"
	"mentorbooking/internal/domain"
)

// uuidRegex matches a canonical UUID string (8-4-4-4-12 hex).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

type SlotController struct {
	Logger  *slog.Logger
	Service domain.SlotService
}

func NewSlotController(logger *slog.Logger, svc domain.SlotService) *SlotController {
	return &SlotController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateSlotRequest is the request body for POST /slots.
type CreateSlotRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Validate implements helpers.Validator.
func (r *CreateSlotRequest) Validate() []string {
	var errs []string
	if r.StartTime.IsZero() {
		errs = append(errs, "start_time is required")
	}
	if r.EndTime.IsZero() {
		errs = append(errs, "end_time is required")
	}
	return errs
}

// SlotSuccessResponse is the success response envelope for slot endpoints.
type SlotSuccessResponse struct {
	Data  *domain.Slot      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CreateSlot godoc
// @Summary Publish a new mentorship slot
// @Description Creates an Open slot for the authenticated mentor and mirrors it as a calendar event with a meeting link. Idempotent: re-submitting an identical pending slot returns the existing one with 200 instead of creating a second calendar event.
// @Tags slots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.CreateSlotRequest true "Slot time range (RFC 3339)"
// @Success 200 {object} controllers.SlotSuccessResponse "Identical pending slot already exists"
// @Success 201 {object} controllers.SlotSuccessResponse "Slot created"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (end <= start)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (caller is not a mentor)"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway (calendar unavailable, nothing persisted)"
// @Router /slots [post]
func (c *SlotController) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req CreateSlotRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	slot, created, err := c.Service.CreateSlot(r.Context(), identity, req.StartTime, req.EndTime)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "only mentors can publish slots")
		case errors.Is(err, domain.ErrInvalidRange):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "end_time must be after start_time")
		case errors.Is(err, domain.ErrCalendarUnavailable):
			helpers.WriteJSONError(w, http.StatusBadGateway, helpers.ErrCodeBadGateway, "calendar service unavailable, please retry")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	if created {
		helpers.WriteJSONSuccess(w, http.StatusCreated, slot)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, slot)
}

// BookSlot godoc
// @Summary Book an open slot
// @Description Books the slot for the authenticated founder and attaches both attendees to the calendar event. Of two racing bookings exactly one succeeds; the other receives 409.
// @Tags slots
// @Produce json
// @Security BearerAuth
// @Param slotID path string true "Slot ID (UUID)"
// @Success 200 {object} controllers.SlotSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (mentors cannot book)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (slot no longer available)"
// @Router /slots/{slotID}/book [post]
func (c *SlotController) BookSlot(w http.ResponseWriter, r *http.Request) {
	slotID := r.PathValue("slotID")
	if slotID == "" || !uuidRegex.MatchString(slotID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid slotID")
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	slot, err := c.Service.BookSlot(r.Context(), identity, slotID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "mentors cannot book slots")
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "slot not found")
		case errors.Is(err, domain.ErrNotAvailable):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "slot not available")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, slot)
}

// CancelSlot godoc
// @Summary Cancel a slot
// @Description Cancels the slot (Open or Booked) owned by the authenticated mentor and removes the mirrored calendar event. Cancellation is terminal.
// @Tags slots
// @Produce json
// @Security BearerAuth
// @Param slotID path string true "Slot ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (caller is not a mentor)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (unknown, foreign, or already cancelled slot)"
// @Router /slots/{slotID} [delete]
func (c *SlotController) CancelSlot(w http.ResponseWriter, r *http.Request) {
	slotID := r.PathValue("slotID")
	if slotID == "" || !uuidRegex.MatchString(slotID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid slotID")
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	if err := c.Service.CancelSlot(r.Context(), identity, slotID); err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "only the owning mentor can cancel a slot")
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "slot not found")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "slot cancelled"})
}

// ListSlotsSuccessResponse is the success response envelope for GET /slots.
type ListSlotsSuccessResponse struct {
	Data  []*domain.Slot    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListSlots godoc
// @Summary List slots visible to the caller
// @Description Mentors see all of their own slots regardless of status. Founders see every Open slot plus the Booked slots they booked themselves. Names are enriched from the user directory.
// @Tags slots
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListSlotsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /slots [get]
func (c *SlotController) ListSlots(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	slots, err := c.Service.ListSlots(r.Context(), identity)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if slots == nil {
		slots = []*domain.Slot{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, slots)
}

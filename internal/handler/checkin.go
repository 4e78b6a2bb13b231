package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/courtside/league-night/internal/session"
)

// CheckinHandler exposes the check-in registry.
type CheckinHandler struct {
	Checkins *session.CheckinService
}

// NewCheckinHandler constructs a CheckinHandler.
func NewCheckinHandler(checkins *session.CheckinService) *CheckinHandler {
	if checkins == nil {
		panic("nil service passed to NewCheckinHandler")
	}
	return &CheckinHandler{Checkins: checkins}
}

// CheckIn handles POST /v1/instances/:id/checkins.  The authenticated
// player checks themselves in; a second active check-in is a 409.
func (h *CheckinHandler) CheckIn(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, envelope{Error: "unauthorized"})
	}
	instanceID, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid instance id")
	}
	ci, err := h.Checkins.CheckIn(c.Request().Context(), instanceID, userID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusCreated, echo.Map{
		"id":          ci.ID,
		"instance_id": ci.InstanceID,
		"user_id":     ci.UserID,
		"checked_in":  ci.CreatedAt,
	})
}

// UncheckIn handles DELETE /v1/instances/:id/checkins.  Soft delete:
// the row stays for history and a later re-check-in creates a new one.
func (h *CheckinHandler) UncheckIn(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, envelope{Error: "unauthorized"})
	}
	instanceID, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid instance id")
	}
	if err := h.Checkins.UncheckIn(c.Request().Context(), instanceID, userID); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, nil)
}

// List handles GET /v1/instances/:id/checkins.  Players appear in
// check-in order.
func (h *CheckinHandler) List(c echo.Context) error {
	instanceID, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid instance id")
	}
	list, err := h.Checkins.ListActive(c.Request().Context(), instanceID)
	if err != nil {
		return fail(c, err)
	}
	out := make([]echo.Map, 0, len(list))
	for _, ci := range list {
		out = append(out, echo.Map{
			"id":         ci.ID,
			"user_id":    ci.UserID,
			"name":       ci.UserName,
			"email":      ci.UserEmail,
			"checked_in": ci.CreatedAt,
		})
	}
	return ok(c, http.StatusOK, out)
}

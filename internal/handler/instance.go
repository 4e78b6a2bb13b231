package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/courtside/league-night/internal/model"
	"github.com/courtside/league-night/internal/session"
)

// InstanceHandler exposes league night instance resolution and the
// status lifecycle.
type InstanceHandler struct {
	Lifecycle *session.LifecycleService
}

// NewInstanceHandler constructs an InstanceHandler.
func NewInstanceHandler(lifecycle *session.LifecycleService) *InstanceHandler {
	if lifecycle == nil {
		panic("nil service passed to NewInstanceHandler")
	}
	return &InstanceHandler{Lifecycle: lifecycle}
}

func instanceJSON(in *model.Instance) echo.Map {
	return echo.Map{
		"id":          in.ID,
		"league_id":   in.LeagueID,
		"date":        in.Date,
		"start_time":  in.StartTime,
		"day_of_week": in.DayOfWeek,
		"court_count": in.CourtCount,
		"status":      in.Status,
		"created_at":  in.CreatedAt,
	}
}

// Resolve handles POST /v1/instances/resolve.  The body addresses a
// night either by concrete instance id or by league id plus slot
// index; the symbolic form lazily creates the instance for the slot's
// next occurrence.  force_today is a testing override that targets
// today's date regardless of the slot's weekday.
func (h *InstanceHandler) Resolve(c echo.Context) error {
	var body struct {
		LeagueID   uint64 `json:"league_id"`
		InstanceID uint64 `json:"instance_id"`
		SlotIndex  *int   `json:"slot_index"`
		ForceToday bool   `json:"force_today"`
	}
	if err := c.Bind(&body); err != nil {
		return failBadRequest(c, "invalid request body")
	}
	in, err := h.Lifecycle.Resolve(c.Request().Context(), body.LeagueID, session.ResolveTarget{
		InstanceID: body.InstanceID,
		SlotIndex:  body.SlotIndex,
		ForceToday: body.ForceToday,
	})
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, instanceJSON(in))
}

// Get handles GET /v1/instances/:id.
func (h *InstanceHandler) Get(c echo.Context) error {
	id, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid instance id")
	}
	in, err := h.Lifecycle.Resolve(c.Request().Context(), 0, session.ResolveTarget{InstanceID: id})
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, instanceJSON(in))
}

// AdvanceStatus handles POST /v1/instances/:id/status.  Only the next
// status in the monotonic lifecycle is accepted.
func (h *InstanceHandler) AdvanceStatus(c echo.Context) error {
	id, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid instance id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return failBadRequest(c, "invalid request body")
	}
	if body.Status == "" {
		return failBadRequest(c, "status is required")
	}
	in, err := h.Lifecycle.AdvanceStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, instanceJSON(in))
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/courtside/league-night/internal/model"
	"github.com/courtside/league-night/internal/session"
)

// PartnershipHandler exposes the partnership matching protocol.
type PartnershipHandler struct {
	Partnerships *session.PartnershipService
}

// NewPartnershipHandler constructs a PartnershipHandler.
func NewPartnershipHandler(partnerships *session.PartnershipService) *PartnershipHandler {
	if partnerships == nil {
		panic("nil service passed to NewPartnershipHandler")
	}
	return &PartnershipHandler{Partnerships: partnerships}
}

func requestJSON(req *model.PartnershipRequest) echo.Map {
	return echo.Map{
		"id":           req.ID,
		"instance_id":  req.InstanceID,
		"requester_id": req.RequesterID,
		"requested_id": req.RequestedID,
		"status":       req.Status,
		"created_at":   req.CreatedAt,
	}
}

func partnershipJSON(p *model.Partnership) echo.Map {
	return echo.Map{
		"id":          p.ID,
		"instance_id": p.InstanceID,
		"player1_id":  p.Player1ID,
		"player2_id":  p.Player2ID,
		"created_at":  p.CreatedAt,
	}
}

// CreateRequest handles POST /v1/instances/:id/partner-requests.  The
// authenticated player invites another checked-in player.
func (h *PartnershipHandler) CreateRequest(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, envelope{Error: "unauthorized"})
	}
	instanceID, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid instance id")
	}
	var body struct {
		RequestedID uint64 `json:"requested_id"`
	}
	if err := c.Bind(&body); err != nil {
		return failBadRequest(c, "invalid request body")
	}
	req, err := h.Partnerships.CreateRequest(c.Request().Context(), instanceID, userID, body.RequestedID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusCreated, requestJSON(req))
}

// ListRequests handles GET /v1/instances/:id/partner-requests.
func (h *PartnershipHandler) ListRequests(c echo.Context) error {
	instanceID, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid instance id")
	}
	list, err := h.Partnerships.ListRequests(c.Request().Context(), instanceID)
	if err != nil {
		return fail(c, err)
	}
	out := make([]echo.Map, 0, len(list))
	for i := range list {
		out = append(out, requestJSON(&list[i]))
	}
	return ok(c, http.StatusOK, out)
}

// Accept handles POST /v1/partner-requests/:id/accept.
func (h *PartnershipHandler) Accept(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, envelope{Error: "unauthorized"})
	}
	requestID, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid request id")
	}
	p, err := h.Partnerships.AcceptRequest(c.Request().Context(), requestID, userID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, partnershipJSON(p))
}

// Reject handles POST /v1/partner-requests/:id/reject.
func (h *PartnershipHandler) Reject(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, envelope{Error: "unauthorized"})
	}
	requestID, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid request id")
	}
	if err := h.Partnerships.RejectRequest(c.Request().Context(), requestID, userID); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, nil)
}

// Cancel handles POST /v1/partner-requests/:id/cancel.  Requester
// only.
func (h *PartnershipHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, envelope{Error: "unauthorized"})
	}
	requestID, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid request id")
	}
	if err := h.Partnerships.CancelRequest(c.Request().Context(), requestID, userID); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, nil)
}

// ListPartnerships handles GET /v1/instances/:id/partnerships.
func (h *PartnershipHandler) ListPartnerships(c echo.Context) error {
	instanceID, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid instance id")
	}
	list, err := h.Partnerships.ListPartnerships(c.Request().Context(), instanceID)
	if err != nil {
		return fail(c, err)
	}
	out := make([]echo.Map, 0, len(list))
	for i := range list {
		out = append(out, partnershipJSON(&list[i]))
	}
	return ok(c, http.StatusOK, out)
}

// Remove handles DELETE /v1/partnerships/:id.  Refused once the
// partnership is tied to an in-progress or completed match.
func (h *PartnershipHandler) Remove(c echo.Context) error {
	partnershipID, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid partnership id")
	}
	if err := h.Partnerships.RemovePartnership(c.Request().Context(), partnershipID); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, nil)
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/courtside/league-night/internal/model"
	"github.com/courtside/league-night/internal/repository"
)

// SubscriptionHandler manages Web Push device registrations for the
// authenticated player.
type SubscriptionHandler struct {
	Subs *repository.PushSubscriptionRepo
}

// NewSubscriptionHandler constructs a SubscriptionHandler.
func NewSubscriptionHandler(subs *repository.PushSubscriptionRepo) *SubscriptionHandler {
	if subs == nil {
		panic("nil repository passed to NewSubscriptionHandler")
	}
	return &SubscriptionHandler{Subs: subs}
}

// Register handles POST /v1/push-subscriptions.  Browsers re-post the
// same subscription freely; registering an existing endpoint updates
// its keys and revives it.
func (h *SubscriptionHandler) Register(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, envelope{Error: "unauthorized"})
	}
	var body struct {
		Endpoint string `json:"endpoint"`
		P256dh   string `json:"p256dh"`
		Auth     string `json:"auth"`
	}
	if err := c.Bind(&body); err != nil {
		return failBadRequest(c, "invalid request body")
	}
	if body.Endpoint == "" || body.P256dh == "" || body.Auth == "" {
		return failBadRequest(c, "endpoint, p256dh and auth are required")
	}
	sub := &model.PushSubscription{
		UserID:   userID,
		Endpoint: body.Endpoint,
		P256dh:   body.P256dh,
		Auth:     body.Auth,
	}
	if err := h.Subs.Save(c.Request().Context(), sub); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusCreated, echo.Map{"endpoint": sub.Endpoint})
}

// Unregister handles DELETE /v1/push-subscriptions.  Soft delete; the
// endpoint can be re-registered later.
func (h *SubscriptionHandler) Unregister(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, envelope{Error: "unauthorized"})
	}
	var body struct {
		Endpoint string `json:"endpoint"`
	}
	if err := c.Bind(&body); err != nil {
		return failBadRequest(c, "invalid request body")
	}
	if body.Endpoint == "" {
		return failBadRequest(c, "endpoint is required")
	}
	if err := h.Subs.DeactivateByEndpoint(c.Request().Context(), userID, body.Endpoint); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, nil)
}

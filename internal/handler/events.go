package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/courtside/league-night/internal/model"
	"github.com/courtside/league-night/internal/realtime"
)

// heartbeatInterval keeps intermediaries from timing out an idle
// stream.
const heartbeatInterval = 25 * time.Second

// EventsHandler streams an instance's change events to the client as
// server-sent events.  The stream is the thin delivery adapter over
// the fan-out registry; events carry only their kind, and clients are
// expected to re-fetch the affected resource.
type EventsHandler struct {
	Registry  *realtime.Registry
	Instances InstanceGetter
}

// InstanceGetter is the slice of the instance store the stream needs
// to verify that the subscribed instance exists.
type InstanceGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.Instance, error)
}

// NewEventsHandler constructs an EventsHandler.
func NewEventsHandler(registry *realtime.Registry, instances InstanceGetter) *EventsHandler {
	if registry == nil || instances == nil {
		panic("nil dependency passed to NewEventsHandler")
	}
	return &EventsHandler{Registry: registry, Instances: instances}
}

// Stream handles GET /v1/instances/:id/events.  The subscription is
// registered on the instance's channel and torn down when the client
// disconnects; a dropped client never affects the channel's other
// subscribers.
func (h *EventsHandler) Stream(c echo.Context) error {
	instanceID, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid instance id")
	}
	if _, err := h.Instances.GetByID(c.Request().Context(), instanceID); err != nil {
		return fail(c, err)
	}

	res := c.Response()
	flusher, okFlush := res.Writer.(http.Flusher)
	if !okFlush {
		return failBadRequest(c, "streaming unsupported")
	}
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	subID := newSubscriberID()
	sub := h.Registry.Subscribe(instanceID, subID, nil)
	defer h.Registry.Unsubscribe(instanceID, subID)

	fmt.Fprintf(res, ": connected %s\n\n", realtime.ChannelName(instanceID))
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fmt.Fprint(res, ": ping\n\n")
			flusher.Flush()
		case e, okEv := <-sub.Events:
			if !okEv {
				// Dropped by the registry (we fell behind); the client
				// should reconnect and re-fetch.
				return nil
			}
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			fmt.Fprintf(res, "event: %s\ndata: %s\n\n", e.Kind, data)
			flusher.Flush()
		}
	}
}

func newSubscriberID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

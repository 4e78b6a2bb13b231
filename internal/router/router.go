package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/courtside/league-night/internal/config"
	"github.com/courtside/league-night/internal/handler"
	"github.com/courtside/league-night/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Handlers bundles everything the route table needs.  All fields must
// be non-nil.
type Handlers struct {
	Instances     *handler.InstanceHandler
	Checkins      *handler.CheckinHandler
	Partnerships  *handler.PartnershipHandler
	Matches       *handler.MatchHandler
	Subscriptions *handler.SubscriptionHandler
	Events        *handler.EventsHandler
}

// RegisterRoutes registers routes that do not require authentication.
// Currently that is only the health check, used by load balancers and
// monitoring to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the authenticated API under /v1.  Tokens are
// issued by the external identity service; this application only
// verifies them.  Both PLAYER and ORGANIZER roles may call every
// endpoint; organizers simply act on behalf of the night.  The whole
// group sits behind the Redis token bucket.
func RegisterAPI(e *echo.Echo, h *Handlers, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RequireRole("PLAYER", "ORGANIZER"))
	v1.Use(middleware.NewTokenBucket(rlCfg, rdb))

	// Session lifecycle: instance resolution and status.
	v1.POST("/instances/resolve", h.Instances.Resolve)
	v1.GET("/instances/:id", h.Instances.Get)
	v1.POST("/instances/:id/status", h.Instances.AdvanceStatus)

	// Check-in registry.
	v1.POST("/instances/:id/checkins", h.Checkins.CheckIn)
	v1.DELETE("/instances/:id/checkins", h.Checkins.UncheckIn)
	v1.GET("/instances/:id/checkins", h.Checkins.List)

	// Partnership matching protocol.
	v1.POST("/instances/:id/partner-requests", h.Partnerships.CreateRequest)
	v1.GET("/instances/:id/partner-requests", h.Partnerships.ListRequests)
	v1.POST("/partner-requests/:id/accept", h.Partnerships.Accept)
	v1.POST("/partner-requests/:id/reject", h.Partnerships.Reject)
	v1.POST("/partner-requests/:id/cancel", h.Partnerships.Cancel)
	v1.GET("/instances/:id/partnerships", h.Partnerships.ListPartnerships)
	v1.DELETE("/partnerships/:id", h.Partnerships.Remove)

	// Match assignment and scoring workflow.
	v1.POST("/instances/:id/matches", h.Matches.Generate)
	v1.GET("/instances/:id/matches", h.Matches.List)
	v1.POST("/matches/:id/start", h.Matches.Start)
	v1.POST("/matches/:id/score", h.Matches.SubmitScore)
	v1.POST("/matches/:id/score/confirm", h.Matches.ConfirmScore)
	v1.POST("/matches/:id/score/dispute", h.Matches.DisputeScore)

	// Push device registrations.
	v1.POST("/push-subscriptions", h.Subscriptions.Register)
	v1.DELETE("/push-subscriptions", h.Subscriptions.Unregister)

	// Realtime event stream (server-sent events).
	v1.GET("/instances/:id/events", h.Events.Stream)
}

package session

import (
	"context"

	"github.com/courtside/league-night/internal/model"
	"github.com/courtside/league-night/internal/queue"
	"github.com/courtside/league-night/internal/realtime"
)

// The store interfaces below are the access contract the coordination
// core requires of persistent storage.  The MySQL repositories satisfy
// them; tests substitute in-memory fakes.  Implementations must
// enforce the uniqueness constraints documented on each method and
// report violations as ErrConflict; the core treats that as the
// authoritative signal that a concurrent caller won a race.

// LeagueStore reads leagues and their recurring day templates.
type LeagueStore interface {
	GetByID(ctx context.Context, id uint64) (*model.League, error)
	// ListDayTemplates returns templates in canonical order (day of
	// week ascending, then id); the slot index addresses this slice.
	ListDayTemplates(ctx context.Context, leagueID uint64) ([]model.LeagueDayTemplate, error)
}

// InstanceStore persists league night instances.  Create must enforce
// a unique (league, date) pair.
type InstanceStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Instance, error)
	GetByLeagueAndDate(ctx context.Context, leagueID uint64, date string) (*model.Instance, error)
	Create(ctx context.Context, in *model.Instance) error
	// UpdateStatus must pin the expected current status and report
	// ErrConflict when it no longer matches.
	UpdateStatus(ctx context.Context, id uint64, from, to string) error
}

// CheckinStore persists check-ins.  Create must enforce at most one
// active check-in per (instance, user); Deactivate must soft-delete.
type CheckinStore interface {
	Create(ctx context.Context, instanceID, userID uint64) (*model.Checkin, error)
	Deactivate(ctx context.Context, instanceID, userID uint64) error
	GetActive(ctx context.Context, instanceID, userID uint64) (*model.Checkin, error)
	ListActive(ctx context.Context, instanceID uint64) ([]model.CheckinWithUser, error)
}

// PartnershipStore persists partnership requests and confirmed
// partnerships.  Accept must atomically resolve the request and
// materialize the partnership, enforcing at most one active
// partnership per player.
type PartnershipStore interface {
	GetRequest(ctx context.Context, id uint64) (*model.PartnershipRequest, error)
	CreateRequest(ctx context.Context, req *model.PartnershipRequest) error
	HasPendingBetween(ctx context.Context, instanceID, a, b uint64) (bool, error)
	ListRequests(ctx context.Context, instanceID uint64) ([]model.PartnershipRequest, error)
	UpdateRequestStatus(ctx context.Context, id uint64, from, to string) error
	Accept(ctx context.Context, req *model.PartnershipRequest) (*model.Partnership, error)
	GetPartnership(ctx context.Context, id uint64) (*model.Partnership, error)
	GetActiveForUser(ctx context.Context, instanceID, userID uint64) (*model.Partnership, error)
	ListActive(ctx context.Context, instanceID uint64) ([]model.Partnership, error)
	Deactivate(ctx context.Context, id uint64) error
}

// MatchStore persists matches and scores.  CreatePendingScore must
// enforce at most one pending score per match.
type MatchStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Match, error)
	ListByInstance(ctx context.Context, instanceID uint64) ([]model.Match, error)
	CreateBatch(ctx context.Context, matches []*model.Match) error
	EngagedPartnershipIDs(ctx context.Context, instanceID uint64) (map[uint64]bool, error)
	OccupiedCourts(ctx context.Context, instanceID uint64) (map[int]bool, error)
	HasBlockingMatch(ctx context.Context, partnershipID uint64) (bool, error)
	UpdateStatus(ctx context.Context, id uint64, from, to string) error
	CreatePendingScore(ctx context.Context, sc *model.MatchScore) error
	GetPendingScore(ctx context.Context, matchID uint64) (*model.MatchScore, error)
	ConfirmScore(ctx context.Context, matchID, scoreID uint64) error
	DisputeScore(ctx context.Context, scoreID uint64) error
}

// UserStore resolves player profiles for notification text.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// EventSink receives one typed change event per successful mutation.
// Both *realtime.Registry and *realtime.Bridge satisfy it.  Delivery
// is fire-and-forget from the mutation's point of view.
type EventSink interface {
	Publish(ctx context.Context, e realtime.Event)
}

// Notifier enqueues push notification events for background dispatch.
// queue.Publisher satisfies it.  Failures are logged by the services
// and never surface to the mutating caller.
type Notifier interface {
	PublishNotification(ctx context.Context, e queue.NotificationEvent) error
}

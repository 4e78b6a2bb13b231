package session

import (
	"context"
	"fmt"

	"github.com/courtside/league-night/internal/model"
	"github.com/courtside/league-night/internal/push"
	"github.com/courtside/league-night/internal/queue"
	"github.com/courtside/league-night/internal/realtime"
)

// PartnershipService runs the request → accept/reject state machine
// and materializes confirmed partnerships.  The at-most-one-active-
// partnership-per-player invariant is enforced twice: re-validated
// here before committing, and authoritatively by the store's unique
// member index.  When two requests covering the same player race to
// acceptance, exactly one wins and the loser resolves as Conflict.
type PartnershipService struct {
	checkins     CheckinStore
	partnerships PartnershipStore
	matches      MatchStore
	users        UserStore
	events       EventSink
	notify       Notifier
}

// NewPartnershipService constructs a partnership service.  users and
// notify may be nil; notifications are skipped then.
func NewPartnershipService(checkins CheckinStore, partnerships PartnershipStore, matches MatchStore, users UserStore, events EventSink, notify Notifier) *PartnershipService {
	if checkins == nil || partnerships == nil || matches == nil {
		panic("nil store passed to NewPartnershipService")
	}
	return &PartnershipService{
		checkins:     checkins,
		partnerships: partnerships,
		matches:      matches,
		users:        users,
		events:       events,
		notify:       notify,
	}
}

// CreateRequest sends a partnership invitation from requester to
// requested.  Both players must hold an active check-in, neither may
// already be in an active partnership, and at most one pending request
// may exist between a pair of players at a time.
func (s *PartnershipService) CreateRequest(ctx context.Context, instanceID, requesterID, requestedID uint64) (*model.PartnershipRequest, error) {
	if instanceID == 0 || requesterID == 0 || requestedID == 0 {
		return nil, fmt.Errorf("%w: instance, requester and requested player are required", ErrInvalidArgument)
	}
	if requesterID == requestedID {
		return nil, fmt.Errorf("%w: cannot request yourself as partner", ErrInvalidArgument)
	}

	if _, err := s.checkins.GetActive(ctx, instanceID, requesterID); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: you are not checked in", ErrPreconditionFailed)
		}
		return nil, err
	}
	if _, err := s.checkins.GetActive(ctx, instanceID, requestedID); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: requested player is not checked in", ErrPreconditionFailed)
		}
		return nil, err
	}

	for _, uid := range []uint64{requesterID, requestedID} {
		if _, err := s.partnerships.GetActiveForUser(ctx, instanceID, uid); err == nil {
			return nil, fmt.Errorf("%w: player already has a partner", ErrConflict)
		} else if !isNotFound(err) {
			return nil, err
		}
	}
	if pending, err := s.partnerships.HasPendingBetween(ctx, instanceID, requesterID, requestedID); err != nil {
		return nil, err
	} else if pending {
		return nil, fmt.Errorf("%w: a request between these players is already pending", ErrConflict)
	}

	req := &model.PartnershipRequest{
		InstanceID:  instanceID,
		RequesterID: requesterID,
		RequestedID: requestedID,
	}
	if err := s.partnerships.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	s.publish(ctx, instanceID, realtime.PartnershipRequestsChanged)
	enqueue(ctx, s.notify, queue.NotificationEvent{
		Kind:          push.KindPartnershipRequested,
		InstanceID:    instanceID,
		UserIDs:       []uint64{requestedID},
		RequesterName: s.userName(ctx, requesterID),
	})
	return req, nil
}

// AcceptRequest resolves a pending request in the requested player's
// favor.  Both players' freedom is re-validated here, since state may
// have changed since the request was created, and the store's unique
// member index settles any remaining race.  When either check loses,
// the request is marked
// rejected automatically and Conflict is returned.
func (s *PartnershipService) AcceptRequest(ctx context.Context, requestID, actorID uint64) (*model.Partnership, error) {
	req, err := s.partnerships.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actorID != 0 && actorID != req.RequestedID {
		return nil, fmt.Errorf("%w: only the requested player can accept", ErrInvalidArgument)
	}
	if req.Status != model.RequestPending {
		return nil, fmt.Errorf("%w: request already resolved", ErrConflict)
	}

	for _, uid := range []uint64{req.RequesterID, req.RequestedID} {
		if _, err := s.partnerships.GetActiveForUser(ctx, req.InstanceID, uid); err == nil {
			s.autoReject(ctx, req)
			return nil, fmt.Errorf("%w: a player has since been partnered elsewhere", ErrConflict)
		} else if !isNotFound(err) {
			return nil, err
		}
	}

	p, err := s.partnerships.Accept(ctx, req)
	if err != nil {
		if isConflict(err) {
			s.autoReject(ctx, req)
			return nil, fmt.Errorf("%w: a player has since been partnered elsewhere", ErrConflict)
		}
		return nil, err
	}

	s.publish(ctx, req.InstanceID, realtime.PartnershipRequestsChanged)
	s.publish(ctx, req.InstanceID, realtime.ConfirmedPartnershipsChanged)
	enqueue(ctx, s.notify, queue.NotificationEvent{
		Kind:       push.KindPartnershipAnswered,
		InstanceID: req.InstanceID,
		UserIDs:    []uint64{req.RequesterID},
		Positive:   true,
	})
	return p, nil
}

// RejectRequest resolves a pending request against the requester.
// Terminal.
func (s *PartnershipService) RejectRequest(ctx context.Context, requestID, actorID uint64) error {
	req, err := s.partnerships.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if actorID != 0 && actorID != req.RequestedID {
		return fmt.Errorf("%w: only the requested player can reject", ErrInvalidArgument)
	}
	if err := s.partnerships.UpdateRequestStatus(ctx, requestID, model.RequestPending, model.RequestRejected); err != nil {
		if isConflict(err) {
			return fmt.Errorf("%w: request already resolved", ErrConflict)
		}
		return err
	}
	s.publish(ctx, req.InstanceID, realtime.PartnershipRequestsChanged)
	enqueue(ctx, s.notify, queue.NotificationEvent{
		Kind:       push.KindPartnershipAnswered,
		InstanceID: req.InstanceID,
		UserIDs:    []uint64{req.RequesterID},
		Positive:   false,
	})
	return nil
}

// CancelRequest lets the requester withdraw a still-pending request.
// Terminal, like rejection, but silent: the requested player gets the
// change event and no push.
func (s *PartnershipService) CancelRequest(ctx context.Context, requestID, actorID uint64) error {
	req, err := s.partnerships.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if actorID != 0 && actorID != req.RequesterID {
		return fmt.Errorf("%w: only the requester can cancel", ErrInvalidArgument)
	}
	if err := s.partnerships.UpdateRequestStatus(ctx, requestID, model.RequestPending, model.RequestCancelled); err != nil {
		if isConflict(err) {
			return fmt.Errorf("%w: request already resolved", ErrConflict)
		}
		return err
	}
	s.publish(ctx, req.InstanceID, realtime.PartnershipRequestsChanged)
	return nil
}

// RemovePartnership dissolves an active partnership, unless it is tied
// to an in-progress or completed match: partnerships must not be
// dissolved mid-match, and finished results keep their teams.
func (s *PartnershipService) RemovePartnership(ctx context.Context, partnershipID uint64) error {
	p, err := s.partnerships.GetPartnership(ctx, partnershipID)
	if err != nil {
		return err
	}
	blocked, err := s.matches.HasBlockingMatch(ctx, partnershipID)
	if err != nil {
		return err
	}
	if blocked {
		return fmt.Errorf("%w: partnership has a match in progress or completed", ErrConflict)
	}
	if err := s.partnerships.Deactivate(ctx, partnershipID); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: partnership is not active", ErrNotFound)
		}
		return err
	}
	s.publish(ctx, p.InstanceID, realtime.ConfirmedPartnershipsChanged)
	return nil
}

// ListRequests returns all partnership requests for the instance.
func (s *PartnershipService) ListRequests(ctx context.Context, instanceID uint64) ([]model.PartnershipRequest, error) {
	return s.partnerships.ListRequests(ctx, instanceID)
}

// ListPartnerships returns the instance's active partnerships in
// confirmation order.
func (s *PartnershipService) ListPartnerships(ctx context.Context, instanceID uint64) ([]model.Partnership, error) {
	return s.partnerships.ListActive(ctx, instanceID)
}

// autoReject marks a request rejected after a lost acceptance race.
// Best effort: the interesting state change already happened
// elsewhere.
func (s *PartnershipService) autoReject(ctx context.Context, req *model.PartnershipRequest) {
	_ = s.partnerships.UpdateRequestStatus(ctx, req.ID, model.RequestPending, model.RequestRejected)
	s.publish(ctx, req.InstanceID, realtime.PartnershipRequestsChanged)
}

func (s *PartnershipService) publish(ctx context.Context, instanceID uint64, kind realtime.EventKind) {
	if s.events != nil {
		s.events.Publish(ctx, realtime.Event{Kind: kind, InstanceID: instanceID})
	}
}

// userName resolves a display name for notification text, degrading
// to a generic label when the profile cannot be read.
func (s *PartnershipService) userName(ctx context.Context, userID uint64) string {
	if s.users == nil {
		return "A player"
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "A player"
	}
	return u.Name
}

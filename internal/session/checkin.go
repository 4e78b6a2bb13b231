package session

import (
	"context"
	"fmt"

	"github.com/courtside/league-night/internal/model"
	"github.com/courtside/league-night/internal/realtime"
)

// CheckinService tracks which players are present for a session
// instance.
type CheckinService struct {
	instances InstanceStore
	checkins  CheckinStore
	events    EventSink
}

// NewCheckinService constructs a check-in service.
func NewCheckinService(instances InstanceStore, checkins CheckinStore, events EventSink) *CheckinService {
	if instances == nil || checkins == nil {
		panic("nil store passed to NewCheckinService")
	}
	return &CheckinService{instances: instances, checkins: checkins, events: events}
}

// CheckIn records the player as present.  The store's one-active-
// check-in-per-player constraint makes a double check-in a Conflict
// regardless of interleaving; the row it creates is always a fresh one
// so earlier (deactivated) check-ins remain as history.
func (s *CheckinService) CheckIn(ctx context.Context, instanceID, userID uint64) (*model.Checkin, error) {
	if instanceID == 0 || userID == 0 {
		return nil, fmt.Errorf("%w: instance and user are required", ErrInvalidArgument)
	}
	if _, err := s.instances.GetByID(ctx, instanceID); err != nil {
		return nil, err
	}
	ci, err := s.checkins.Create(ctx, instanceID, userID)
	if err != nil {
		if isConflict(err) {
			return nil, fmt.Errorf("%w: already checked in", ErrConflict)
		}
		return nil, err
	}
	s.publish(ctx, instanceID)
	return ci, nil
}

// UncheckIn soft-deactivates the player's active check-in.
func (s *CheckinService) UncheckIn(ctx context.Context, instanceID, userID uint64) error {
	if instanceID == 0 || userID == 0 {
		return fmt.Errorf("%w: instance and user are required", ErrInvalidArgument)
	}
	if err := s.checkins.Deactivate(ctx, instanceID, userID); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: no active check-in", ErrNotFound)
		}
		return err
	}
	s.publish(ctx, instanceID)
	return nil
}

// ListActive returns the instance's present players joined with their
// profiles, in check-in order (first come, first served).
func (s *CheckinService) ListActive(ctx context.Context, instanceID uint64) ([]model.CheckinWithUser, error) {
	if _, err := s.instances.GetByID(ctx, instanceID); err != nil {
		return nil, err
	}
	return s.checkins.ListActive(ctx, instanceID)
}

func (s *CheckinService) publish(ctx context.Context, instanceID uint64) {
	if s.events != nil {
		s.events.Publish(ctx, realtime.Event{Kind: realtime.CheckinsChanged, InstanceID: instanceID})
	}
}

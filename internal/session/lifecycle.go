package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/courtside/league-night/internal/model"
	"github.com/courtside/league-night/internal/queue"
	"github.com/courtside/league-night/internal/realtime"
)

// dateLayout is the calendar-date format used throughout the store.
const dateLayout = "2006-01-02"

// ResolveTarget addresses a league night either by concrete instance
// id or by symbolic slot index into the league's recurring-day
// templates.  ForceToday is an explicit testing override: it computes
// the instance for today's date regardless of the slot's weekday.  It
// is part of the contract and honored in every environment.
type ResolveTarget struct {
	InstanceID uint64
	SlotIndex  *int
	ForceToday bool
}

// LifecycleService resolves, lazily creates and advances league night
// instances.
type LifecycleService struct {
	leagues   LeagueStore
	instances InstanceStore
	events    EventSink
	now       func() time.Time
}

// NewLifecycleService constructs a lifecycle service.  now may be nil,
// in which case time.Now is used; tests inject a fixed clock.
func NewLifecycleService(leagues LeagueStore, instances InstanceStore, events EventSink, now func() time.Time) *LifecycleService {
	if leagues == nil || instances == nil {
		panic("nil store passed to NewLifecycleService")
	}
	if now == nil {
		now = time.Now
	}
	return &LifecycleService{leagues: leagues, instances: instances, events: events, now: now}
}

// Resolve returns the league night instance the target addresses,
// creating it when the slot's computed date has no instance yet.
// Get-or-create is idempotent under concurrency: the store's unique
// (league, date) constraint is the authority, and a Conflict from
// Create means a concurrent caller created the instance first, so the
// winner's row is re-fetched and returned.
func (s *LifecycleService) Resolve(ctx context.Context, leagueID uint64, target ResolveTarget) (*model.Instance, error) {
	if target.InstanceID != 0 {
		in, err := s.instances.GetByID(ctx, target.InstanceID)
		if err != nil {
			return nil, err
		}
		if leagueID != 0 && in.LeagueID != leagueID {
			return nil, fmt.Errorf("%w: instance %d does not belong to league %d", ErrNotFound, target.InstanceID, leagueID)
		}
		return in, nil
	}

	if target.SlotIndex == nil {
		return nil, fmt.Errorf("%w: instance_id or slot_index is required", ErrInvalidArgument)
	}
	if leagueID == 0 {
		return nil, fmt.Errorf("%w: league_id is required", ErrInvalidArgument)
	}
	if _, err := s.leagues.GetByID(ctx, leagueID); err != nil {
		return nil, err
	}

	templates, err := s.leagues.ListDayTemplates(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	idx := *target.SlotIndex
	if idx < 0 || idx >= len(templates) {
		return nil, fmt.Errorf("%w: league %d has no slot %d", ErrConfiguration, leagueID, idx)
	}
	tpl := templates[idx]
	if tpl.DayOfWeek < 0 || tpl.DayOfWeek > 6 {
		return nil, fmt.Errorf("%w: slot %d has invalid day of week %d", ErrConfiguration, idx, tpl.DayOfWeek)
	}
	if tpl.CourtCount < 1 {
		return nil, fmt.Errorf("%w: slot %d has no courts", ErrConfiguration, idx)
	}

	date := NextOccurrence(s.now(), tpl.DayOfWeek, target.ForceToday)

	existing, err := s.instances.GetByLeagueAndDate(ctx, leagueID, date)
	if err == nil {
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	in := &model.Instance{
		LeagueID:   leagueID,
		Date:       date,
		StartTime:  tpl.StartTime,
		DayOfWeek:  tpl.DayOfWeek,
		CourtCount: tpl.CourtCount,
		Status:     model.InstanceScheduled,
	}
	if err := s.instances.Create(ctx, in); err != nil {
		if isConflict(err) {
			// Someone else created it between our lookup and insert.
			return s.instances.GetByLeagueAndDate(ctx, leagueID, date)
		}
		return nil, err
	}
	return in, nil
}

// AdvanceStatus moves an instance to the next status in the monotonic
// lifecycle.  Requesting anything other than the immediate successor
// is invalid input: regressions and skips are never legal from any
// state.  A concurrent advance surfaces as Conflict.
func (s *LifecycleService) AdvanceStatus(ctx context.Context, instanceID uint64, next string) (*model.Instance, error) {
	in, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if next != model.NextInstanceStatus(in.Status) {
		return nil, fmt.Errorf("%w: cannot move instance from %s to %s", ErrInvalidArgument, in.Status, next)
	}
	if err := s.instances.UpdateStatus(ctx, instanceID, in.Status, next); err != nil {
		if isConflict(err) {
			return nil, fmt.Errorf("%w: instance status changed concurrently", ErrConflict)
		}
		return nil, err
	}
	in.Status = next
	s.publish(ctx, realtime.Event{Kind: realtime.InstanceStatusChanged, InstanceID: instanceID})
	return in, nil
}

func (s *LifecycleService) publish(ctx context.Context, e realtime.Event) {
	if s.events != nil {
		s.events.Publish(ctx, e)
	}
}

// NextOccurrence computes the calendar date of the next occurrence of
// weekday (0=Sunday … 6=Saturday) counting from now.  When today is
// that weekday the instance is for today.  forceToday short-circuits
// the weekday math entirely and returns today's date.
func NextOccurrence(now time.Time, weekday int, forceToday bool) string {
	if forceToday {
		return now.Format(dateLayout)
	}
	ahead := (weekday - int(now.Weekday()) + 7) % 7
	return now.AddDate(0, 0, ahead).Format(dateLayout)
}

// enqueue hands a notification event to the broker.  Push dispatch is
// fire-and-forget: a broker error is logged and swallowed so it never
// reaches the mutating caller.
func enqueue(ctx context.Context, n Notifier, ev queue.NotificationEvent) {
	if n == nil {
		return
	}
	if err := n.PublishNotification(ctx, ev); err != nil {
		log.Printf("session: enqueue %s notification failed: %v", ev.Kind, err)
	}
}

func isConflict(err error) bool { return errors.Is(err, ErrConflict) }
func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

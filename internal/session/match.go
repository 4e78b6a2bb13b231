package session

import (
	"context"
	"fmt"

	"github.com/courtside/league-night/internal/model"
	"github.com/courtside/league-night/internal/push"
	"github.com/courtside/league-night/internal/queue"
	"github.com/courtside/league-night/internal/realtime"
)

// MatchService pairs confirmed partnerships into matches and runs the
// match lifecycle and score confirmation workflow.
type MatchService struct {
	instances    InstanceStore
	partnerships PartnershipStore
	matches      MatchStore
	events       EventSink
	notify       Notifier
}

// NewMatchService constructs a match service.  notify may be nil.
func NewMatchService(instances InstanceStore, partnerships PartnershipStore, matches MatchStore, events EventSink, notify Notifier) *MatchService {
	if instances == nil || partnerships == nil || matches == nil {
		panic("nil store passed to NewMatchService")
	}
	return &MatchService{
		instances:    instances,
		partnerships: partnerships,
		matches:      matches,
		events:       events,
		notify:       notify,
	}
}

// PlanMatches applies the pairing policy: confirmed partnerships not
// currently tied up in a queued or in-progress match are grouped two
// at a time, in confirmation order, into opposing teams.  Court
// numbers are consumed ascending, skipping occupied courts; when free
// courts run out, the remaining partnerships stay unmatched for a
// later round.  Pure function, exercised directly by tests.
func PlanMatches(instanceID uint64, partnerships []model.Partnership, engaged map[uint64]bool, occupied map[int]bool, courtCount int) []*model.Match {
	var free []int
	for c := 1; c <= courtCount; c++ {
		if !occupied[c] {
			free = append(free, c)
		}
	}

	var unmatched []model.Partnership
	for _, p := range partnerships {
		if !engaged[p.ID] {
			unmatched = append(unmatched, p)
		}
	}

	var out []*model.Match
	for i := 0; i+1 < len(unmatched) && len(free) > 0; i += 2 {
		t1, t2 := unmatched[i], unmatched[i+1]
		out = append(out, &model.Match{
			InstanceID:         instanceID,
			CourtNumber:        free[0],
			Status:             model.MatchQueued,
			Team1PartnershipID: t1.ID,
			Team2PartnershipID: t2.ID,
			Team1Players:       [2]uint64{t1.Player1ID, t1.Player2ID},
			Team2Players:       [2]uint64{t2.Player1ID, t2.Player2ID},
		})
		free = free[1:]
	}
	return out
}

// GenerateMatches pairs the instance's waiting partnerships into new
// queued matches and announces the assignments.  Returns the created
// matches; an empty slice when fewer than two partnerships are
// waiting or no court is free.
func (s *MatchService) GenerateMatches(ctx context.Context, instanceID uint64) ([]*model.Match, error) {
	in, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if in.Status == model.InstanceCompleted {
		return nil, fmt.Errorf("%w: the night is already completed", ErrPreconditionFailed)
	}

	partnerships, err := s.partnerships.ListActive(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	engaged, err := s.matches.EngagedPartnershipIDs(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	occupied, err := s.matches.OccupiedCourts(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	planned := PlanMatches(instanceID, partnerships, engaged, occupied, in.CourtCount)
	if len(planned) == 0 {
		return []*model.Match{}, nil
	}
	if err := s.matches.CreateBatch(ctx, planned); err != nil {
		if isConflict(err) {
			return nil, fmt.Errorf("%w: matches were generated concurrently, re-fetch and retry", ErrConflict)
		}
		return nil, err
	}

	s.publish(ctx, instanceID)
	for _, m := range planned {
		enqueue(ctx, s.notify, queue.NotificationEvent{
			Kind:        push.KindMatchAssigned,
			InstanceID:  instanceID,
			UserIDs:     append(m.Team1Players[:], m.Team2Players[:]...),
			CourtNumber: m.CourtNumber,
		})
	}
	return planned, nil
}

// StartMatch moves a queued match onto its court.  When a court
// actually frees up is a call the organizer makes; this is just the
// transition point.
func (s *MatchService) StartMatch(ctx context.Context, matchID uint64) (*model.Match, error) {
	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := s.matches.UpdateStatus(ctx, matchID, model.MatchQueued, model.MatchInProgress); err != nil {
		if isConflict(err) {
			return nil, fmt.Errorf("%w: match is not queued", ErrConflict)
		}
		return nil, err
	}
	m.Status = model.MatchInProgress
	s.publish(ctx, m.InstanceID)
	return m, nil
}

// SubmitScore records a pending score on behalf of the submitter's
// team.  The store allows a single pending score per match, so
// simultaneous submissions from both teams resolve with one winner.
// The opposing team is asked to confirm.
func (s *MatchService) SubmitScore(ctx context.Context, matchID, submitterID uint64, team1Score, team2Score int) (*model.MatchScore, error) {
	if team1Score < 0 || team2Score < 0 {
		return nil, fmt.Errorf("%w: scores must be non-negative", ErrInvalidArgument)
	}
	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	team := m.TeamOf(submitterID)
	if team == 0 {
		return nil, fmt.Errorf("%w: you are not a player in this match", ErrInvalidArgument)
	}
	if m.Status != model.MatchInProgress {
		return nil, fmt.Errorf("%w: match is not in progress", ErrPreconditionFailed)
	}

	sc := &model.MatchScore{
		MatchID:         matchID,
		SubmittedByTeam: team,
		Team1Score:      team1Score,
		Team2Score:      team2Score,
	}
	if err := s.matches.CreatePendingScore(ctx, sc); err != nil {
		if isConflict(err) {
			return nil, fmt.Errorf("%w: a score is already awaiting confirmation", ErrConflict)
		}
		return nil, err
	}

	s.publish(ctx, m.InstanceID)
	enqueue(ctx, s.notify, queue.NotificationEvent{
		Kind:       push.KindScorePending,
		InstanceID: m.InstanceID,
		UserIDs:    opposingPlayers(m, team),
		Team1Score: team1Score,
		Team2Score: team2Score,
	})
	return sc, nil
}

// ConfirmScore finalizes the pending score.  Only a player on the
// non-submitting team may confirm; on success the match completes and
// the submitter's team is told the result stands.
func (s *MatchService) ConfirmScore(ctx context.Context, matchID, confirmingUserID uint64) (*model.MatchScore, error) {
	m, sc, err := s.pendingForResolution(ctx, matchID, confirmingUserID, "confirm")
	if err != nil {
		return nil, err
	}
	if err := s.matches.ConfirmScore(ctx, matchID, sc.ID); err != nil {
		if isConflict(err) {
			return nil, fmt.Errorf("%w: score was resolved concurrently", ErrConflict)
		}
		return nil, err
	}
	sc.Status = model.ScoreConfirmed

	s.publish(ctx, m.InstanceID)
	enqueue(ctx, s.notify, queue.NotificationEvent{
		Kind:       push.KindScoreResolved,
		InstanceID: m.InstanceID,
		UserIDs:    teamPlayers(m, sc.SubmittedByTeam),
		Positive:   true,
	})
	return sc, nil
}

// DisputeScore clears the pending score, returning the match to play
// for resubmission.  Only the non-submitting team may dispute.
func (s *MatchService) DisputeScore(ctx context.Context, matchID, disputingUserID uint64) error {
	m, sc, err := s.pendingForResolution(ctx, matchID, disputingUserID, "dispute")
	if err != nil {
		return err
	}
	if err := s.matches.DisputeScore(ctx, sc.ID); err != nil {
		if isConflict(err) {
			return fmt.Errorf("%w: score was resolved concurrently", ErrConflict)
		}
		return err
	}

	s.publish(ctx, m.InstanceID)
	enqueue(ctx, s.notify, queue.NotificationEvent{
		Kind:       push.KindScoreResolved,
		InstanceID: m.InstanceID,
		UserIDs:    teamPlayers(m, sc.SubmittedByTeam),
		Positive:   false,
	})
	return nil
}

// ListMatches returns the instance's matches ordered by court.
func (s *MatchService) ListMatches(ctx context.Context, instanceID uint64) ([]model.Match, error) {
	return s.matches.ListByInstance(ctx, instanceID)
}

// pendingForResolution loads the match and its pending score and
// checks that the acting user sits on the non-submitting team.
func (s *MatchService) pendingForResolution(ctx context.Context, matchID, userID uint64, verb string) (*model.Match, *model.MatchScore, error) {
	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	sc, err := s.matches.GetPendingScore(ctx, matchID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, fmt.Errorf("%w: no score awaiting confirmation", ErrConflict)
		}
		return nil, nil, err
	}
	team := m.TeamOf(userID)
	if team == 0 {
		return nil, nil, fmt.Errorf("%w: you are not a player in this match", ErrInvalidArgument)
	}
	if team == sc.SubmittedByTeam {
		return nil, nil, fmt.Errorf("%w: only the opposing team can %s a score", ErrInvalidArgument, verb)
	}
	return m, sc, nil
}

func (s *MatchService) publish(ctx context.Context, instanceID uint64) {
	if s.events != nil {
		s.events.Publish(ctx, realtime.Event{Kind: realtime.MatchesChanged, InstanceID: instanceID})
	}
}

func teamPlayers(m *model.Match, team int) []uint64 {
	if team == 1 {
		return m.Team1Players[:]
	}
	return m.Team2Players[:]
}

func opposingPlayers(m *model.Match, team int) []uint64 {
	if team == 1 {
		return m.Team2Players[:]
	}
	return m.Team1Players[:]
}

package model

import "time"

// Match status values.
const (
	MatchQueued     = "QUEUED"
	MatchInProgress = "IN_PROGRESS"
	MatchCompleted  = "COMPLETED"
)

// Score status values.  A score sits in PENDING until a player on the
// non-submitting team confirms or disputes it.
const (
	ScorePending   = "PENDING"
	ScoreConfirmed = "CONFIRMED"
	ScoreDisputed  = "DISPUTED"
)

// Match is a contest between two confirmed partnerships on a specific
// court.  Team membership is fixed at creation; the partnership ids
// are kept so that partnership dissolution can be refused once a match
// is underway.
//
// Fields:
//  ID                 – primary key identifier.
//  InstanceID         – instance the match belongs to.
//  CourtNumber        – court assigned at creation (1-based).
//  Status             – QUEUED, IN_PROGRESS or COMPLETED.
//  Team1PartnershipID – partnership playing as team 1.
//  Team2PartnershipID – partnership playing as team 2.
//  Team1Players       – resolved member ids of team 1.
//  Team2Players       – resolved member ids of team 2.
//  CreatedAt          – when the match was formed.
type Match struct {
	ID                 uint64    // matches.id
	InstanceID         uint64    // matches.instance_id
	CourtNumber        int       // matches.court_number
	Status             string    // matches.status
	Team1PartnershipID uint64    // matches.team1_partnership_id
	Team2PartnershipID uint64    // matches.team2_partnership_id
	Team1Players       [2]uint64 // resolved from partnerships
	Team2Players       [2]uint64 // resolved from partnerships
	CreatedAt          time.Time // matches.created_at
}

// TeamOf returns 1 or 2 when userID plays on that team of the match,
// or 0 when the user is not part of it.
func (m Match) TeamOf(userID uint64) int {
	if m.Team1Players[0] == userID || m.Team1Players[1] == userID {
		return 1
	}
	if m.Team2Players[0] == userID || m.Team2Players[1] == userID {
		return 2
	}
	return 0
}

// MatchScore is a game result attached to a match.  It is created in
// PENDING by the submitting team and becomes final only when a member
// of the other team confirms it; a dispute clears the way for
// resubmission while keeping the disputed row for history.
//
// Fields:
//  ID              – primary key identifier.
//  MatchID         – match the score belongs to.
//  SubmittedByTeam – 1 or 2, the team that entered the score.
//  Team1Score      – points for team 1.
//  Team2Score      – points for team 2.
//  Status          – PENDING, CONFIRMED or DISPUTED.
//  SubmittedAt     – when the score was entered.
//  ResolvedAt      – when it was confirmed or disputed (nil while pending).
type MatchScore struct {
	ID              uint64     // match_scores.id
	MatchID         uint64     // match_scores.match_id
	SubmittedByTeam int        // match_scores.submitted_by_team
	Team1Score      int        // match_scores.team1_score
	Team2Score      int        // match_scores.team2_score
	Status          string     // match_scores.status
	SubmittedAt     time.Time  // match_scores.submitted_at
	ResolvedAt      *time.Time // match_scores.resolved_at (nullable)
}

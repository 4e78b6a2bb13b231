package model

import "time"

// Instance status values.  Status only ever advances in this order and
// never regresses.
const (
	InstanceScheduled  = "SCHEDULED"
	InstanceInProgress = "IN_PROGRESS"
	InstanceCompleted  = "COMPLETED"
)

// Instance is one concrete calendar occurrence of a league's recurring
// slot.  Instances are created lazily on first access to a
// (league, slot) pair; the unique (league_id, date) index in the store
// guarantees at most one instance per league per calendar day even
// under concurrent creation.
//
// Fields:
//  ID         – primary key identifier.
//  LeagueID   – owning league.
//  Date       – calendar date of the night ("YYYY-MM-DD", stored as DATE).
//  StartTime  – scheduled start, "HH:MM" wall-clock, seeded from the template.
//  DayOfWeek  – weekday of Date (0=Sunday … 6=Saturday).
//  CourtCount – number of courts, seeded from the template.
//  Status     – SCHEDULED, IN_PROGRESS or COMPLETED.
//  CreatedAt  – creation timestamp.
type Instance struct {
	ID         uint64    // league_night_instances.id
	LeagueID   uint64    // league_night_instances.league_id
	Date       string    // league_night_instances.date
	StartTime  string    // league_night_instances.start_time
	DayOfWeek  int       // league_night_instances.day_of_week
	CourtCount int       // league_night_instances.court_count
	Status     string    // league_night_instances.status
	CreatedAt  time.Time // league_night_instances.created_at
}

// NextInstanceStatus returns the status that follows s in the monotonic
// lifecycle, or "" when s is terminal or unknown.
func NextInstanceStatus(s string) string {
	switch s {
	case InstanceScheduled:
		return InstanceInProgress
	case InstanceInProgress:
		return InstanceCompleted
	}
	return ""
}

package model

import "time"

// League is the read model for a league row.  League creation and
// membership management live in a different service; this application
// only reads leagues when resolving a night instance.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the league.
//  CreatedAt – creation timestamp.
type League struct {
	ID        uint64    // leagues.id
	Name      string    // leagues.name
	CreatedAt time.Time // leagues.created_at
}

// LeagueDayTemplate describes one recurring weekly slot of a league:
// which weekday it plays on, when it starts and how many courts the
// venue provides.  Templates are ordered canonically by day of week
// and then by id, and the position in that ordering is the "slot
// index" clients use to address a slot symbolically.
//
// Fields:
//  ID         – primary key identifier.
//  LeagueID   – owning league.
//  DayOfWeek  – weekday the slot recurs on (0=Sunday … 6=Saturday).
//  StartTime  – scheduled start, "HH:MM" wall-clock.
//  CourtCount – number of courts available for the slot.
type LeagueDayTemplate struct {
	ID         uint64 // league_day_templates.id
	LeagueID   uint64 // league_day_templates.league_id
	DayOfWeek  int    // league_day_templates.day_of_week
	StartTime  string // league_day_templates.start_time
	CourtCount int    // league_day_templates.court_count
}

package repository

import (
	"context"
	"database/sql"

	"github.com/courtside/league-night/internal/model"
)

// LeagueRepo provides read access to leagues and their recurring day
// templates.  League administration lives in a different service, so
// this repository is intentionally read-only.
type LeagueRepo struct {
	db *sql.DB
}

// NewLeagueRepo returns a new LeagueRepo bound to the given database.
func NewLeagueRepo(db *sql.DB) *LeagueRepo { return &LeagueRepo{db: db} }

// GetByID fetches a single league.  Returns ErrNotFound when the id
// does not exist.
func (r *LeagueRepo) GetByID(ctx context.Context, id uint64) (*model.League, error) {
	const q = `SELECT id, name, created_at FROM leagues WHERE id = ?`
	var l model.League
	err := r.db.QueryRowContext(ctx, q, id).Scan(&l.ID, &l.Name, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListDayTemplates returns a league's recurring day templates in
// canonical order: day of week ascending, then id ascending.  The
// index of a template in this slice is the slot index clients use to
// address the slot symbolically, so the ordering must be stable.
func (r *LeagueRepo) ListDayTemplates(ctx context.Context, leagueID uint64) ([]model.LeagueDayTemplate, error) {
	const q = `SELECT id, league_id, day_of_week, TIME_FORMAT(start_time, '%H:%i'), court_count
               FROM league_day_templates
               WHERE league_id = ?
               ORDER BY day_of_week ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.LeagueDayTemplate
	for rows.Next() {
		var t model.LeagueDayTemplate
		if err := rows.Scan(&t.ID, &t.LeagueID, &t.DayOfWeek, &t.StartTime, &t.CourtCount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

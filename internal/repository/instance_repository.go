package repository

import (
	"context"
	"database/sql"

	"github.com/courtside/league-night/internal/model"
)

// InstanceRepo provides persistence for league night instances.  The
// unique (league_id, date) index makes get-or-create idempotent under
// concurrency: whoever inserts second receives ErrConflict and should
// re-fetch the row the winner created.
type InstanceRepo struct {
	db *sql.DB
}

// NewInstanceRepo returns a new InstanceRepo bound to the given database.
func NewInstanceRepo(db *sql.DB) *InstanceRepo { return &InstanceRepo{db: db} }

const instanceColumns = `id, league_id, DATE_FORMAT(date, '%Y-%m-%d'), TIME_FORMAT(start_time, '%H:%i'), day_of_week, court_count, status, created_at`

func scanInstance(row interface{ Scan(...any) error }) (*model.Instance, error) {
	var in model.Instance
	err := row.Scan(&in.ID, &in.LeagueID, &in.Date, &in.StartTime, &in.DayOfWeek, &in.CourtCount, &in.Status, &in.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// GetByID fetches an instance by primary key.  Returns ErrNotFound
// when the id does not exist.
func (r *InstanceRepo) GetByID(ctx context.Context, id uint64) (*model.Instance, error) {
	const q = `SELECT ` + instanceColumns + ` FROM league_night_instances WHERE id = ?`
	return scanInstance(r.db.QueryRowContext(ctx, q, id))
}

// GetByLeagueAndDate fetches the unique instance for a league on a
// calendar date.  Returns ErrNotFound when no instance exists yet.
func (r *InstanceRepo) GetByLeagueAndDate(ctx context.Context, leagueID uint64, date string) (*model.Instance, error) {
	const q = `SELECT ` + instanceColumns + ` FROM league_night_instances WHERE league_id = ? AND date = ?`
	return scanInstance(r.db.QueryRowContext(ctx, q, leagueID, date))
}

// Create inserts a new instance and populates its generated id.  A
// duplicate (league_id, date) insert returns ErrConflict; the caller
// should treat that as "a concurrent caller created it first" and
// re-fetch with GetByLeagueAndDate.
func (r *InstanceRepo) Create(ctx context.Context, in *model.Instance) error {
	const q = `INSERT INTO league_night_instances
               (league_id, date, start_time, day_of_week, court_count, status)
               VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, in.LeagueID, in.Date, in.StartTime, in.DayOfWeek, in.CourtCount, in.Status)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	in.ID = uint64(id)
	return nil
}

// UpdateStatus advances an instance's status.  The WHERE clause pins
// the current status so a concurrent advance makes the second writer
// see zero affected rows; that case is reported as ErrConflict.
func (r *InstanceRepo) UpdateStatus(ctx context.Context, id uint64, from, to string) error {
	const q = `UPDATE league_night_instances SET status = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, to, id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

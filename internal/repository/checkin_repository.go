package repository

import (
	"context"
	"database/sql"

	"github.com/courtside/league-night/internal/model"
)

// CheckinRepo provides persistence for check-ins.  The active column
// holds 1 for live rows and NULL for deactivated ones; because MySQL
// unique indexes ignore NULLs, the unique
// (instance_id, user_id, active) index only constrains live rows.
// That makes "second check-in while one is active" a duplicate-key
// error while keeping full history in place.
type CheckinRepo struct {
	db *sql.DB
}

// NewCheckinRepo returns a new CheckinRepo bound to the given database.
func NewCheckinRepo(db *sql.DB) *CheckinRepo { return &CheckinRepo{db: db} }

// Create inserts a new active check-in and populates its generated id.
// Returns ErrConflict when the player already has an active check-in
// for the instance.
func (r *CheckinRepo) Create(ctx context.Context, instanceID, userID uint64) (*model.Checkin, error) {
	const q = `INSERT INTO checkins (instance_id, user_id, active) VALUES (?, ?, 1)`
	res, err := r.db.ExecContext(ctx, q, instanceID, userID)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	const sel = `SELECT id, instance_id, user_id, (active IS NOT NULL), created_at FROM checkins WHERE id = ?`
	var ci model.Checkin
	if err := r.db.QueryRowContext(ctx, sel, id).Scan(&ci.ID, &ci.InstanceID, &ci.UserID, &ci.Active, &ci.CreatedAt); err != nil {
		return nil, err
	}
	return &ci, nil
}

// Deactivate soft-deletes the player's active check-in by clearing the
// active flag.  Returns ErrNotFound when no active check-in exists;
// the historical rows are never touched.
func (r *CheckinRepo) Deactivate(ctx context.Context, instanceID, userID uint64) error {
	const q = `UPDATE checkins SET active = NULL WHERE instance_id = ? AND user_id = ? AND active = 1`
	res, err := r.db.ExecContext(ctx, q, instanceID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetActive fetches the player's live check-in for an instance.
// Returns ErrNotFound when the player is not checked in.
func (r *CheckinRepo) GetActive(ctx context.Context, instanceID, userID uint64) (*model.Checkin, error) {
	const q = `SELECT id, instance_id, user_id, (active IS NOT NULL), created_at
               FROM checkins WHERE instance_id = ? AND user_id = ? AND active = 1`
	var ci model.Checkin
	err := r.db.QueryRowContext(ctx, q, instanceID, userID).Scan(&ci.ID, &ci.InstanceID, &ci.UserID, &ci.Active, &ci.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ci, nil
}

// ListActive returns the instance's live check-ins joined with player
// profiles, ordered by check-in time ascending.  First come, first
// served: downstream pairing relies on this ordering.
func (r *CheckinRepo) ListActive(ctx context.Context, instanceID uint64) ([]model.CheckinWithUser, error) {
	const q = `SELECT c.id, c.instance_id, c.user_id, (c.active IS NOT NULL), c.created_at, u.name, u.email
               FROM checkins c
               JOIN users u ON u.id = c.user_id
               WHERE c.instance_id = ? AND c.active = 1
               ORDER BY c.created_at ASC, c.id ASC`
	rows, err := r.db.QueryContext(ctx, q, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.CheckinWithUser
	for rows.Next() {
		var cw model.CheckinWithUser
		if err := rows.Scan(&cw.ID, &cw.InstanceID, &cw.UserID, &cw.Active, &cw.CreatedAt, &cw.UserName, &cw.UserEmail); err != nil {
			return nil, err
		}
		out = append(out, cw)
	}
	return out, rows.Err()
}

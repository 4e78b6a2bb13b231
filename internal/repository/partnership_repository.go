package repository

import (
	"context"
	"database/sql"

	"github.com/courtside/league-night/internal/model"
)

// PartnershipRepo provides persistence for partnership requests and
// confirmed partnerships.  Every confirmed partnership is written
// together with one partnership_players row per member inside a single
// transaction; the unique (instance_id, user_id, active) index on that
// member table is what actually enforces at-most-one-active-
// partnership-per-player, so two racing accepts that share a player
// resolve with exactly one winner no matter how the requests overlap.
type PartnershipRepo struct {
	db *sql.DB
}

// NewPartnershipRepo returns a new PartnershipRepo bound to the given database.
func NewPartnershipRepo(db *sql.DB) *PartnershipRepo { return &PartnershipRepo{db: db} }

const requestColumns = `id, instance_id, requester_id, requested_id, status, created_at, updated_at`

func scanRequest(row interface{ Scan(...any) error }) (*model.PartnershipRequest, error) {
	var pr model.PartnershipRequest
	err := row.Scan(&pr.ID, &pr.InstanceID, &pr.RequesterID, &pr.RequestedID, &pr.Status, &pr.CreatedAt, &pr.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

// GetRequest fetches a partnership request by id.
func (r *PartnershipRepo) GetRequest(ctx context.Context, id uint64) (*model.PartnershipRequest, error) {
	const q = `SELECT ` + requestColumns + ` FROM partnership_requests WHERE id = ?`
	return scanRequest(r.db.QueryRowContext(ctx, q, id))
}

// CreateRequest inserts a new pending request and populates its
// generated id and timestamps.
func (r *PartnershipRepo) CreateRequest(ctx context.Context, req *model.PartnershipRequest) error {
	const q = `INSERT INTO partnership_requests (instance_id, requester_id, requested_id, status)
               VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, req.InstanceID, req.RequesterID, req.RequestedID, model.RequestPending)
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
	req.ID = uint64(id)
	req.Status = model.RequestPending
	fresh, err := r.GetRequest(ctx, req.ID)
	if err != nil {
		return err
	}
	*req = *fresh
	return nil
}

// HasPendingBetween reports whether a pending request exists between
// the two players in either direction on the instance.
func (r *PartnershipRepo) HasPendingBetween(ctx context.Context, instanceID, a, b uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM partnership_requests
               WHERE instance_id = ? AND status = ?
                 AND ((requester_id = ? AND requested_id = ?) OR (requester_id = ? AND requested_id = ?))`
	var n int
	if err := r.db.QueryRowContext(ctx, q, instanceID, model.RequestPending, a, b, b, a).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListRequests returns all requests for an instance, newest first.
func (r *PartnershipRepo) ListRequests(ctx context.Context, instanceID uint64) ([]model.PartnershipRequest, error) {
	const q = `SELECT ` + requestColumns + ` FROM partnership_requests
               WHERE instance_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PartnershipRequest
	for rows.Next() {
		var pr model.PartnershipRequest
		if err := rows.Scan(&pr.ID, &pr.InstanceID, &pr.RequesterID, &pr.RequestedID, &pr.Status, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

// UpdateRequestStatus moves a request from one status to another.  The
// WHERE clause pins the current status, so a request that was resolved
// concurrently yields ErrConflict instead of silently overwriting the
// earlier outcome.
func (r *PartnershipRepo) UpdateRequestStatus(ctx context.Context, id uint64, from, to string) error {
	const q = `UPDATE partnership_requests SET status = ?, updated_at = NOW() WHERE id = ? AND status = ?`
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

// Accept atomically marks a pending request accepted and materializes
// the confirmed partnership with its member rows.  The whole operation
// runs in one transaction: if any member insert trips the unique
// active-partnership index (a racing accept already claimed one of the
// players), everything rolls back and ErrConflict is returned.  On
// success the created partnership is returned with its generated id.
func (r *PartnershipRepo) Accept(ctx context.Context, req *model.PartnershipRequest) (*model.Partnership, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const upd = `UPDATE partnership_requests SET status = ?, updated_at = NOW() WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, upd, model.RequestAccepted, req.ID, model.RequestPending)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrConflict
	}

	const ins = `INSERT INTO partnerships (instance_id, player1_id, player2_id, active) VALUES (?, ?, ?, 1)`
	pres, err := tx.ExecContext(ctx, ins, req.InstanceID, req.RequesterID, req.RequestedID)
	if err != nil {
		return nil, err
	}
	pid, err := pres.LastInsertId()
	if err != nil {
		return nil, err
	}

	const insMember = `INSERT INTO partnership_players (partnership_id, instance_id, user_id, active) VALUES (?, ?, ?, 1)`
	for _, uid := range []uint64{req.RequesterID, req.RequestedID} {
		if _, err := tx.ExecContext(ctx, insMember, pid, req.InstanceID, uid); err != nil {
			if isDuplicate(err) {
				return nil, ErrConflict
			}
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &model.Partnership{
		ID:         uint64(pid),
		InstanceID: req.InstanceID,
		Player1ID:  req.RequesterID,
		Player2ID:  req.RequestedID,
		Active:     true,
	}, nil
}

const partnershipColumns = `id, instance_id, player1_id, player2_id, (active IS NOT NULL), created_at`

func scanPartnership(row interface{ Scan(...any) error }) (*model.Partnership, error) {
	var p model.Partnership
	err := row.Scan(&p.ID, &p.InstanceID, &p.Player1ID, &p.Player2ID, &p.Active, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPartnership fetches a partnership by id regardless of active state.
func (r *PartnershipRepo) GetPartnership(ctx context.Context, id uint64) (*model.Partnership, error) {
	const q = `SELECT ` + partnershipColumns + ` FROM partnerships WHERE id = ?`
	return scanPartnership(r.db.QueryRowContext(ctx, q, id))
}

// GetActiveForUser fetches the player's live partnership on the
// instance, or ErrNotFound when the player is unpartnered.
func (r *PartnershipRepo) GetActiveForUser(ctx context.Context, instanceID, userID uint64) (*model.Partnership, error) {
	const q = `SELECT p.id, p.instance_id, p.player1_id, p.player2_id, (p.active IS NOT NULL), p.created_at
               FROM partnerships p
               JOIN partnership_players pp ON pp.partnership_id = p.id AND pp.active = 1
               WHERE p.instance_id = ? AND pp.user_id = ? AND p.active = 1`
	return scanPartnership(r.db.QueryRowContext(ctx, q, instanceID, userID))
}

// ListActive returns the instance's live partnerships ordered by
// confirmation time ascending, matching the fairness ordering used
// when pairing them into matches.
func (r *PartnershipRepo) ListActive(ctx context.Context, instanceID uint64) ([]model.Partnership, error) {
	const q = `SELECT ` + partnershipColumns + ` FROM partnerships
               WHERE instance_id = ? AND active = 1
               ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Partnership
	for rows.Next() {
		var p model.Partnership
		if err := rows.Scan(&p.ID, &p.InstanceID, &p.Player1ID, &p.Player2ID, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Deactivate soft-deletes a partnership and frees its members in one
// transaction.  Returns ErrNotFound when the partnership is not
// active.  Callers are responsible for the "not linked to a running
// match" precondition; this method only flips the flags.
func (r *PartnershipRepo) Deactivate(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const upd = `UPDATE partnerships SET active = NULL WHERE id = ? AND active = 1`
	res, err := tx.ExecContext(ctx, upd, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}

	const updMembers = `UPDATE partnership_players SET active = NULL WHERE partnership_id = ? AND active = 1`
	if _, err := tx.ExecContext(ctx, updMembers, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

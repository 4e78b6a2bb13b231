package repository

import (
	"context"
	"database/sql"

	"github.com/courtside/league-night/internal/model"
)

// PushSubscriptionRepo provides persistence for Web Push device
// registrations.  A user may register the same endpoint repeatedly
// (browsers re-post subscriptions on page load); the unique
// (user_id, endpoint) pair makes that an upsert that reactivates the
// existing row instead of accumulating duplicates.
type PushSubscriptionRepo struct {
	db *sql.DB
}

// NewPushSubscriptionRepo returns a new PushSubscriptionRepo bound to
// the given database.
func NewPushSubscriptionRepo(db *sql.DB) *PushSubscriptionRepo {
	return &PushSubscriptionRepo{db: db}
}

// Save registers a device endpoint for the user, reviving and
// re-keying the row when the endpoint was registered before.
func (r *PushSubscriptionRepo) Save(ctx context.Context, sub *model.PushSubscription) error {
	const q = `INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth, active)
               VALUES (?, ?, ?, ?, 1)
               ON DUPLICATE KEY UPDATE p256dh = VALUES(p256dh), auth = VALUES(auth), active = 1`
	res, err := r.db.ExecContext(ctx, q, sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		sub.ID = uint64(id)
	}
	sub.Active = true
	return nil
}

// ListActiveByUser returns the user's live subscriptions.
func (r *PushSubscriptionRepo) ListActiveByUser(ctx context.Context, userID uint64) ([]model.PushSubscription, error) {
	const q = `SELECT id, user_id, endpoint, p256dh, auth, active, created_at, last_used_at
               FROM push_subscriptions WHERE user_id = ? AND active = 1`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PushSubscription
	for rows.Next() {
		var s model.PushSubscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.Endpoint, &s.P256dh, &s.Auth, &s.Active, &s.CreatedAt, &s.LastUsedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Deactivate soft-deletes a subscription so future dispatches skip it.
// Used both for explicit unsubscribes and when the push service
// reports the endpoint permanently gone.
func (r *PushSubscriptionRepo) Deactivate(ctx context.Context, id uint64) error {
	const q = `UPDATE push_subscriptions SET active = 0 WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// DeactivateByEndpoint soft-deletes the user's subscription for a
// specific endpoint.  ErrNotFound when no active row matches.
func (r *PushSubscriptionRepo) DeactivateByEndpoint(ctx context.Context, userID uint64, endpoint string) error {
	const q = `UPDATE push_subscriptions SET active = 0 WHERE user_id = ? AND endpoint = ? AND active = 1`
	res, err := r.db.ExecContext(ctx, q, userID, endpoint)
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

// TouchLastUsed records a successful delivery on the subscription.
func (r *PushSubscriptionRepo) TouchLastUsed(ctx context.Context, id uint64) error {
	const q = `UPDATE push_subscriptions SET last_used_at = NOW() WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

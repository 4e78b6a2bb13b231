package repository

import (
	"context"
	"database/sql"

	"github.com/courtside/league-night/internal/model"
)

// MatchRepo provides persistence for matches and their scores.  Two
// nullable flag columns carry the uniqueness authority: a match is
// inserted with live=1 and the flag is cleared on completion, so the
// unique (instance_id, court_number, live) index lets at most one live
// match hold a court; and a score carries pending=1 until resolved, so
// the unique (match_id, pending) index guarantees at most one score
// awaits confirmation per match even when both teams submit at once.
// The live index is also what makes concurrent match generation safe:
// two generations planning the same free court collide on it, and the
// loser surfaces as ErrConflict.
type MatchRepo struct {
	db *sql.DB
}

// NewMatchRepo returns a new MatchRepo bound to the given database.
func NewMatchRepo(db *sql.DB) *MatchRepo { return &MatchRepo{db: db} }

const matchSelect = `SELECT m.id, m.instance_id, m.court_number, m.status,
                            m.team1_partnership_id, m.team2_partnership_id,
                            p1.player1_id, p1.player2_id, p2.player1_id, p2.player2_id,
                            m.created_at
                     FROM matches m
                     JOIN partnerships p1 ON p1.id = m.team1_partnership_id
                     JOIN partnerships p2 ON p2.id = m.team2_partnership_id`

func scanMatch(row interface{ Scan(...any) error }) (*model.Match, error) {
	var m model.Match
	err := row.Scan(&m.ID, &m.InstanceID, &m.CourtNumber, &m.Status,
		&m.Team1PartnershipID, &m.Team2PartnershipID,
		&m.Team1Players[0], &m.Team1Players[1], &m.Team2Players[0], &m.Team2Players[1],
		&m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByID fetches a match with its team membership resolved.
func (r *MatchRepo) GetByID(ctx context.Context, id uint64) (*model.Match, error) {
	return scanMatch(r.db.QueryRowContext(ctx, matchSelect+` WHERE m.id = ?`, id))
}

// ListByInstance returns all matches of an instance ordered by court
// number, then creation time.
func (r *MatchRepo) ListByInstance(ctx context.Context, instanceID uint64) ([]model.Match, error) {
	rows, err := r.db.QueryContext(ctx, matchSelect+` WHERE m.instance_id = ? ORDER BY m.court_number ASC, m.created_at ASC`, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Match
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(&m.ID, &m.InstanceID, &m.CourtNumber, &m.Status,
			&m.Team1PartnershipID, &m.Team2PartnershipID,
			&m.Team1Players[0], &m.Team1Players[1], &m.Team2Players[0], &m.Team2Players[1],
			&m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateBatch inserts a set of freshly paired matches in one
// transaction and populates their generated ids.  All-or-nothing: one
// failed insert rolls back the whole batch.  Each row is born live, so
// a concurrent generation that planned the same court trips the
// (instance_id, court_number, live) index and the batch resolves as
// ErrConflict.
func (r *MatchRepo) CreateBatch(ctx context.Context, matches []*model.Match) error {
	if len(matches) == 0 {
		return nil
	}
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
	const q = `INSERT INTO matches (instance_id, court_number, status, team1_partnership_id, team2_partnership_id, live)
               VALUES (?, ?, ?, ?, ?, 1)`
	for _, m := range matches {
		res, err := tx.ExecContext(ctx, q, m.InstanceID, m.CourtNumber, m.Status, m.Team1PartnershipID, m.Team2PartnershipID)
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
		m.ID = uint64(id)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// EngagedPartnershipIDs returns the ids of partnerships currently tied
// up in a queued or in-progress match on the instance.  Completed
// matches release their partnerships for another round.
func (r *MatchRepo) EngagedPartnershipIDs(ctx context.Context, instanceID uint64) (map[uint64]bool, error) {
	const q = `SELECT team1_partnership_id, team2_partnership_id FROM matches
               WHERE instance_id = ? AND status IN (?, ?)`
	rows, err := r.db.QueryContext(ctx, q, instanceID, model.MatchQueued, model.MatchInProgress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	engaged := make(map[uint64]bool)
	for rows.Next() {
		var t1, t2 uint64
		if err := rows.Scan(&t1, &t2); err != nil {
			return nil, err
		}
		engaged[t1] = true
		engaged[t2] = true
	}
	return engaged, rows.Err()
}

// OccupiedCourts returns the court numbers held by queued or
// in-progress matches on the instance.
func (r *MatchRepo) OccupiedCourts(ctx context.Context, instanceID uint64) (map[int]bool, error) {
	const q = `SELECT court_number FROM matches WHERE instance_id = ? AND status IN (?, ?)`
	rows, err := r.db.QueryContext(ctx, q, instanceID, model.MatchQueued, model.MatchInProgress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	occupied := make(map[int]bool)
	for rows.Next() {
		var court int
		if err := rows.Scan(&court); err != nil {
			return nil, err
		}
		occupied[court] = true
	}
	return occupied, rows.Err()
}

// HasBlockingMatch reports whether the partnership is linked to any
// in-progress or completed match; such a partnership must not be
// dissolved.
func (r *MatchRepo) HasBlockingMatch(ctx context.Context, partnershipID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM matches
               WHERE (team1_partnership_id = ? OR team2_partnership_id = ?) AND status IN (?, ?)`
	var n int
	if err := r.db.QueryRowContext(ctx, q, partnershipID, partnershipID, model.MatchInProgress, model.MatchCompleted).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateStatus advances a match's status with the current status
// pinned in the WHERE clause; ErrConflict when the match moved on
// concurrently.  Moving to completed also clears the live flag,
// releasing the court for the next round.
func (r *MatchRepo) UpdateStatus(ctx context.Context, id uint64, from, to string) error {
	q := `UPDATE matches SET status = ? WHERE id = ? AND status = ?`
	if to == model.MatchCompleted {
		q = `UPDATE matches SET status = ?, live = NULL WHERE id = ? AND status = ?`
	}
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

const scoreColumns = `id, match_id, submitted_by_team, team1_score, team2_score, status, submitted_at, resolved_at`

// CreatePendingScore inserts a new pending score.  The unique
// (match_id, pending) index turns a second submission while one is
// awaiting confirmation into ErrConflict.
func (r *MatchRepo) CreatePendingScore(ctx context.Context, sc *model.MatchScore) error {
	const q = `INSERT INTO match_scores (match_id, submitted_by_team, team1_score, team2_score, status, pending)
               VALUES (?, ?, ?, ?, ?, 1)`
	res, err := r.db.ExecContext(ctx, q, sc.MatchID, sc.SubmittedByTeam, sc.Team1Score, sc.Team2Score, model.ScorePending)
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
	sc.ID = uint64(id)
	sc.Status = model.ScorePending
	return nil
}

// GetPendingScore fetches the match's score awaiting confirmation, or
// ErrNotFound when none is pending.
func (r *MatchRepo) GetPendingScore(ctx context.Context, matchID uint64) (*model.MatchScore, error) {
	const q = `SELECT ` + scoreColumns + ` FROM match_scores WHERE match_id = ? AND status = ?`
	var sc model.MatchScore
	err := r.db.QueryRowContext(ctx, q, matchID, model.ScorePending).Scan(
		&sc.ID, &sc.MatchID, &sc.SubmittedByTeam, &sc.Team1Score, &sc.Team2Score, &sc.Status, &sc.SubmittedAt, &sc.ResolvedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// ConfirmScore finalizes a pending score and completes the match in
// one transaction.  Either update hitting zero rows (score already
// resolved, or the match is not in progress) aborts with ErrConflict.
func (r *MatchRepo) ConfirmScore(ctx context.Context, matchID, scoreID uint64) error {
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

	const updScore = `UPDATE match_scores SET status = ?, pending = NULL, resolved_at = NOW()
                      WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, updScore, model.ScoreConfirmed, scoreID, model.ScorePending)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrConflict
	}

	const updMatch = `UPDATE matches SET status = ?, live = NULL WHERE id = ? AND status = ?`
	res, err = tx.ExecContext(ctx, updMatch, model.MatchCompleted, matchID, model.MatchInProgress)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// DisputeScore marks a pending score disputed, clearing the way for a
// resubmission.  The match stays in progress.  ErrConflict when the
// score was already resolved.
func (r *MatchRepo) DisputeScore(ctx context.Context, scoreID uint64) error {
	const q = `UPDATE match_scores SET status = ?, pending = NULL, resolved_at = NOW()
               WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, model.ScoreDisputed, scoreID, model.ScorePending)
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

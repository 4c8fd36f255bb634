package store

import (
	"context"
)

// InsertAward appends one award to the ledger. A duplicate award id or a
// duplicate (user_id, action_id) pair is a no-op, reported through the
// inserted flag rather than an error, so relay retries stay idempotent.
func (s *Store) InsertAward(ctx context.Context, a Award) (bool, error) {
	tag, err := s.Pool.Exec(ctx,
		`INSERT INTO awards (id, user_id, action_type, action_id, idempotency_key, points)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT DO NOTHING`,
		a.ID, a.UserID, a.ActionType, a.ActionID, a.IdempotencyKey, a.Points)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ApplyUserTotalDelta folds one award's points into the durable total.
// Only called for awards whose ledger insert actually landed, which makes
// the durable total order-independent across relay workers.
func (s *Store) ApplyUserTotalDelta(ctx context.Context, userID string, delta int64) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO user_totals (user_id, total) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE
		 SET total = user_totals.total + EXCLUDED.total, updated_at = now()`,
		userID, delta)
	return err
}

// ListUserTotals streams every durable total, for seeding the in-memory
// board at startup.
func (s *Store) ListUserTotals(ctx context.Context) ([]UserTotal, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT user_id, total, updated_at FROM user_totals`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UserTotal
	for rows.Next() {
		var ut UserTotal
		if err := rows.Scan(&ut.UserID, &ut.Total, &ut.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ut)
	}
	return out, rows.Err()
}

// ListAwardsByUser returns a user's ledger rows, newest first, for the
// admin history view.
func (s *Store) ListAwardsByUser(ctx context.Context, userID string, limit int) ([]Award, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, user_id, action_type, action_id, idempotency_key, points, created_at
		 FROM awards WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Award
	for rows.Next() {
		var a Award
		if err := rows.Scan(&a.ID, &a.UserID, &a.ActionType, &a.ActionID, &a.IdempotencyKey, &a.Points, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

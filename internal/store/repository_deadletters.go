package store

import "context"

func (s *Store) InsertDeadLetter(ctx context.Context, payload []byte, reason string, attempts int) (string, error) {
	id := NewID()
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO dead_letters (id, payload, reason, attempts) VALUES ($1, $2, $3, $4)`,
		id, payload, reason, attempts)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ListDeadLetters(ctx context.Context, limit int) ([]DeadLetter, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, payload, reason, attempts, created_at
		 FROM dead_letters ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DeadLetter
	for rows.Next() {
		var dl DeadLetter
		if err := rows.Scan(&dl.ID, &dl.Payload, &dl.Reason, &dl.Attempts, &dl.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, dl)
	}
	return out, rows.Err()
}

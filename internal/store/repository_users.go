package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (s *Store) CreateUser(ctx context.Context, name, apiKey string) (string, error) {
	id := NewID()
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO users (id, name, api_key_hash) VALUES ($1, $2, $3)`,
		id, name, HashAPIKey(apiKey))
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetUserByAPIKey(ctx context.Context, apiKey string) (*User, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, name, api_key_hash, created_at FROM users WHERE api_key_hash = $1`,
		HashAPIKey(apiKey))
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.APIKeyHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, name, api_key_hash, created_at FROM users WHERE id = $1`, id)
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.APIKeyHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

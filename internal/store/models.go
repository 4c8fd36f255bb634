package store

import "time"

type User struct {
	ID         string
	Name       string
	APIKeyHash string
	CreatedAt  time.Time
}

type Award struct {
	ID             string
	UserID         string
	ActionType     string
	ActionID       string
	IdempotencyKey string
	Points         int64
	CreatedAt      time.Time
}

type UserTotal struct {
	UserID    string
	Total     int64
	UpdatedAt time.Time
}

type DeadLetter struct {
	ID        string
	Payload   []byte
	Reason    string
	Attempts  int
	CreatedAt time.Time
}

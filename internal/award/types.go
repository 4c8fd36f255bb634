package award

import "scoreboard/internal/rank"

// Request is one attempt to report a completed action. UserID is resolved
// by the authentication layer before the request reaches the coordinator;
// the remaining identity fields come from the client and are opaque.
type Request struct {
	UserID         string `json:"-"`
	ActionType     string `json:"action_type"`
	ActionID       string `json:"action_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

// Result is what the caller gets back for a successful (or transparently
// replayed) award.
type Result struct {
	UserID   string       `json:"user_id"`
	Delta    int64        `json:"delta"`
	Total    int64        `json:"total"`
	Rank     int          `json:"rank"`
	Replayed bool         `json:"replayed,omitempty"`
	TopK     []rank.Entry `json:"top_k,omitempty"`
}

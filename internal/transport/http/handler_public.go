package httptransport

import (
	"net/http"
	"strconv"

	"scoreboard/internal/rank"

	"github.com/go-chi/chi/v5"
)

// LeaderboardHandler serves the top-K snapshot. limit defaults to 10 and
// is clamped to maxLimit.
func LeaderboardHandler(board *rank.Board, maxLimit int) http.HandlerFunc {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 10
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeErr(w, http.StatusBadRequest, "invalid_limit")
				return
			}
			limit = n
		}
		if limit > maxLimit {
			limit = maxLimit
		}
		writeJSON(w, http.StatusOK, board.SnapshotTopK(limit))
	}
}

// RankHandler serves one user's total and 1-based position.
func RankHandler(board *rank.Board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")
		if userID == "" {
			writeErr(w, http.StatusBadRequest, "missing_user_id")
			return
		}
		total, ok := board.Total(userID)
		if !ok {
			writeErr(w, http.StatusNotFound, "unranked")
			return
		}
		pos, _ := board.Rank(userID)
		writeJSON(w, http.StatusOK, map[string]any{
			"user_id": userID,
			"total":   total,
			"rank":    pos,
		})
	}
}

package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"scoreboard/internal/award"
)

// AwardsHandler accepts one award submission for the authenticated user.
func AwardsHandler(coord *award.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := UserFrom(r.Context())
		if user == nil {
			writeErr(w, http.StatusUnauthorized, "missing_api_key")
			return
		}
		var req award.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid_json")
			return
		}
		req.UserID = user.ID

		res, err := coord.Submit(r.Context(), req)
		if err != nil {
			status, code := mapSubmitErr(err)
			writeErr(w, status, code)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func mapSubmitErr(err error) (int, string) {
	switch {
	case errors.Is(err, award.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, award.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, award.ErrUnknownAction):
		return http.StatusBadRequest, "unknown_action"
	case errors.Is(err, award.ErrReplayDuplicate):
		return http.StatusConflict, "action_already_awarded"
	case errors.Is(err, award.ErrKeyConflict):
		return http.StatusConflict, "idempotency_key_conflict"
	case errors.Is(err, award.ErrTryAgain):
		return http.StatusServiceUnavailable, "retry_submission"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"scoreboard/internal/award"
	"scoreboard/internal/relay"
	"scoreboard/internal/rules"
	"scoreboard/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UsersCreateHandler registers a user and mints its API key. The key is
// returned once and stored only as a hash.
func UsersCreateHandler(st *store.Store) http.HandlerFunc {
	type request struct {
		Name string `json:"name"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			writeErr(w, http.StatusBadRequest, "invalid_request")
			return
		}
		apiKey := uuid.NewString()
		id, err := st.CreateUser(r.Context(), req.Name, apiKey)
		if err != nil {
			log.Error().Err(err).Msg("create user failed")
			writeErr(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"user_id": id,
			"name":    req.Name,
			"api_key": apiKey,
		})
	}
}

// AdjustmentsHandler applies a compensating score correction.
func AdjustmentsHandler(coord *award.Coordinator) http.HandlerFunc {
	type request struct {
		UserID string `json:"user_id"`
		Delta  int64  `json:"delta"`
		Reason string `json:"reason"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if req.Reason == "" {
			req.Reason = "manual"
		}
		res, err := coord.Adjust(r.Context(), req.UserID, req.Delta, req.Reason)
		if err != nil {
			status, code := mapSubmitErr(err)
			writeErr(w, status, code)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// AwardHistoryHandler lists a user's ledger entries, newest first. This
// reads the durable ledger, not the in-memory board, so it lags the live
// total by whatever the relay has not flushed yet.
func AwardHistoryHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")
		u, err := st.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeErr(w, http.StatusNotFound, "user_not_found")
				return
			}
			log.Error().Err(err).Msg("get user failed")
			writeErr(w, http.StatusInternalServerError, "internal_error")
			return
		}
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeErr(w, http.StatusBadRequest, "invalid_limit")
				return
			}
			limit = n
		}
		awards, err := st.ListAwardsByUser(r.Context(), userID, limit)
		if err != nil {
			log.Error().Err(err).Msg("list awards failed")
			writeErr(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user_id": u.ID,
			"name":    u.Name,
			"awards":  toAwardViews(awards),
		})
	}
}

type awardView struct {
	ID         string `json:"id"`
	ActionType string `json:"action_type"`
	ActionID   string `json:"action_id"`
	Points     int64  `json:"points"`
	CreatedAt  string `json:"created_at"`
}

func toAwardViews(in []store.Award) []awardView {
	out := make([]awardView, 0, len(in))
	for _, a := range in {
		out = append(out, awardView{
			ID:         a.ID,
			ActionType: a.ActionType,
			ActionID:   a.ActionID,
			Points:     a.Points,
			CreatedAt:  a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return out
}

// RulesReloadHandler forces a rule-table reload from its backing file.
func RulesReloadHandler(tbl *rules.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := tbl.Reload(); err != nil {
			writeErr(w, http.StatusUnprocessableEntity, "rules_reload_failed")
			return
		}
		snap := tbl.Active()
		writeJSON(w, http.StatusOK, map[string]any{
			"version": snap.Version,
			"rules":   snap.Len(),
		})
	}
}

// DeadLettersHandler lists parked relay jobs, durable first, then any
// held in memory because the database itself was unreachable.
func DeadLettersHandler(st *store.Store, rel *relay.Relay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		durable, err := st.ListDeadLetters(r.Context(), 100)
		if err != nil {
			log.Error().Err(err).Msg("list dead letters failed")
			durable = nil
		}
		out := map[string]any{
			"durable":  toDeadLetterViews(durable),
			"fallback": toDeadLetterViews(rel.FallbackDeadLetters()),
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type deadLetterView struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	Reason    string          `json:"reason"`
	Attempts  int             `json:"attempts"`
	CreatedAt string          `json:"created_at"`
}

func toDeadLetterViews(in []store.DeadLetter) []deadLetterView {
	out := make([]deadLetterView, 0, len(in))
	for _, dl := range in {
		out = append(out, deadLetterView{
			ID:        dl.ID,
			Payload:   json.RawMessage(dl.Payload),
			Reason:    dl.Reason,
			Attempts:  dl.Attempts,
			CreatedAt: dl.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return out
}

// HealthHandler reports liveness plus the relay backlog.
func HealthHandler(st *store.Store, rel *relay.Relay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "relay_queue": rel.QueueLen()})
	}
}

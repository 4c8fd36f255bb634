package httptransport

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"scoreboard/internal/award"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

var ssePingInterval = 15 * time.Second

// EventsSSEHandler streams score-change events. A client resumes with the
// standard Last-Event-ID header (or ?after=); when its position has fallen
// out of the retained window it receives an explicit gap event carrying
// the oldest resumable sequence, then the retained suffix.
func EventsSSEHandler(events *award.EventLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeErr(w, http.StatusInternalServerError, "stream_not_supported")
			return
		}

		metricSSEConnectionsTotal.Add(1)
		metricSSEConnectionsActive.Add(1)
		defer metricSSEConnectionsActive.Add(-1)

		setSSEHeaders(w)
		requestID := chimw.GetReqID(r.Context())
		log.Info().Str("request_id", requestID).Msg("score event stream opened")

		after := resumePosition(r)
		replay, ch, err := events.SubscribeFrom(after)
		if errors.Is(err, award.ErrGapExpired) {
			oldest := events.OldestRetained()
			if err := writeSSE(w, 0, "gap", map[string]any{"oldest_retained": oldest}); err != nil {
				return
			}
			metricSSEGapsSignalled.Add(1)
			replay, ch, err = events.SubscribeFrom(oldest)
		}
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "stream_resume_failed")
			return
		}
		defer events.Unsubscribe(ch)

		last := after
		for _, ev := range replay {
			if err := writeSSE(w, ev.Seq, "score_change", ev); err != nil {
				return
			}
			last = ev.Seq
		}
		flusher.Flush()

		ticker := time.NewTicker(ssePingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				log.Info().Str("request_id", requestID).Err(r.Context().Err()).
					Msg("score event stream closed")
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				// The subscription is registered atomically with the replay
				// read, so live sequences always advance past the replayed
				// suffix; the guard keeps a reordered send from regressing.
				if ev.Seq <= last {
					continue
				}
				if err := writeSSE(w, ev.Seq, "score_change", ev); err != nil {
					return
				}
				last = ev.Seq
				flusher.Flush()
			case <-ticker.C:
				if err := writeSSE(w, 0, "ping", map[string]any{"ts": time.Now().UnixMilli()}); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func resumePosition(r *http.Request) int64 {
	raw := r.Header.Get("Last-Event-ID")
	if raw == "" {
		raw = r.URL.Query().Get("after")
	}
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

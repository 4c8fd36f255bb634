package award

import (
	"context"
	"errors"
	"strings"

	"scoreboard/internal/dedupe"
	"scoreboard/internal/rank"
	"scoreboard/internal/relay"
	"scoreboard/internal/rules"
	"scoreboard/internal/store"

	"github.com/rs/zerolog/log"
)

// JobQueue is the persistence hand-off surface. Enqueue must bound its own
// latency; the coordinator never waits on durable storage.
type JobQueue interface {
	Enqueue(ctx context.Context, job relay.Job) bool
}

type Options struct {
	IncludeTopK bool
	TopKSize    int
}

// Coordinator drives one award submission through rule lookup,
// deduplication, the score increment, event publication and the
// persistence hand-off, in that order.
type Coordinator struct {
	rules  *rules.Table
	guard  *dedupe.Guard
	board  *rank.Board
	events *EventLog
	queue  JobQueue
	opts   Options
}

func NewCoordinator(tbl *rules.Table, guard *dedupe.Guard, board *rank.Board, events *EventLog, queue JobQueue, opts Options) *Coordinator {
	if opts.TopKSize <= 0 {
		opts.TopKSize = 10
	}
	return &Coordinator{
		rules:  tbl,
		guard:  guard,
		board:  board,
		events: events,
		queue:  queue,
		opts:   opts,
	}
}

func (c *Coordinator) Board() *rank.Board  { return c.board }
func (c *Coordinator) Events() *EventLog   { return c.events }
func (c *Coordinator) Rules() *rules.Table { return c.rules }

// Submit runs the award state machine for one request.
//
// The idempotency reservation runs before the replay check: a client
// retrying an identical request must get the stored result back, and only
// a *different* key for an already-awarded action is rejected as a replay.
// Any exit before the increment leaves no state behind (the reservation is
// abandoned), so those failures are safe to retry.
func (c *Coordinator) Submit(ctx context.Context, req Request) (*Result, error) {
	if req.UserID == "" {
		metricAwardsRejected.Add(1)
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(req.ActionType) == "" ||
		strings.TrimSpace(req.ActionID) == "" ||
		strings.TrimSpace(req.IdempotencyKey) == "" {
		metricAwardsRejected.Add(1)
		return nil, ErrInvalidRequest
	}

	points, ok := c.rules.Lookup(req.ActionType)
	if !ok {
		metricAwardsRejected.Add(1)
		return nil, ErrUnknownAction
	}

	fingerprint := dedupe.Fingerprint(req.UserID, req.ActionType, req.ActionID)
	res, status := c.guard.CheckAndReserve(req.IdempotencyKey, fingerprint)
	switch status {
	case dedupe.StatusConflict:
		metricAwardsRejected.Add(1)
		return nil, ErrKeyConflict
	case dedupe.StatusDuplicate:
		outcome, err := res.Await(ctx)
		if err != nil {
			if errors.Is(err, dedupe.ErrAbandoned) {
				return nil, ErrTryAgain
			}
			return nil, err
		}
		prior, ok := outcome.(*Result)
		if !ok {
			return nil, ErrTryAgain
		}
		replayed := *prior
		replayed.Replayed = true
		replayed.TopK = nil
		metricAwardsReplayed.Add(1)
		return &replayed, nil
	}

	if fresh := c.guard.CheckReplay(req.UserID, req.ActionID); !fresh {
		res.Abandon()
		metricAwardsRejected.Add(1)
		return nil, ErrReplayDuplicate
	}

	// Point of no return. The increment, the rank read and the reservation
	// finalization are adjacent in-memory operations with no I/O between
	// them; a caller disconnecting here never unwinds the committed total,
	// and a retry under the same key replays the finalized result.
	total := c.board.Increment(req.UserID, points)
	position, _ := c.board.Rank(req.UserID)
	result := &Result{
		UserID: req.UserID,
		Delta:  points,
		Total:  total,
		Rank:   position,
	}
	res.Finalize(result)
	metricAwardsGranted.Add(1)

	ev := c.events.Publish(req.UserID, points, total, position)
	enqueued := c.queue.Enqueue(ctx, relay.Job{
		AwardID:        store.NewID(),
		UserID:         req.UserID,
		ActionType:     req.ActionType,
		ActionID:       req.ActionID,
		IdempotencyKey: req.IdempotencyKey,
		Points:         points,
	})
	if !enqueued {
		log.Warn().Str("user_id", req.UserID).Str("action_id", req.ActionID).
			Msg("persistence hand-off missed; job dead-lettered")
	}
	log.Info().Str("user_id", req.UserID).Str("action_type", req.ActionType).
		Int64("delta", points).Int64("total", total).Int("rank", position).
		Int64("seq", ev.Seq).Msg("award granted")

	out := *result
	if c.opts.IncludeTopK {
		out.TopK = c.board.TopK(c.opts.TopKSize)
	}
	return &out, nil
}

// Adjust applies a compensating correction outside the rule table, the
// only sanctioned way a total may decrease. Adjustments bypass the
// idempotency and replay guards; the caller owns not repeating them.
func (c *Coordinator) Adjust(ctx context.Context, userID string, delta int64, reason string) (*Result, error) {
	if userID == "" || delta == 0 {
		return nil, ErrInvalidRequest
	}
	total := c.board.Increment(userID, delta)
	position, _ := c.board.Rank(userID)
	metricAdjustments.Add(1)

	ev := c.events.Publish(userID, delta, total, position)
	actionID := store.NewID()
	c.queue.Enqueue(ctx, relay.Job{
		AwardID:        store.NewID(),
		UserID:         userID,
		ActionType:     "adjustment:" + reason,
		ActionID:       actionID,
		IdempotencyKey: actionID,
		Points:         delta,
	})
	log.Info().Str("user_id", userID).Int64("delta", delta).Str("reason", reason).
		Int64("seq", ev.Seq).Msg("score adjusted")
	return &Result{UserID: userID, Delta: delta, Total: total, Rank: position}, nil
}

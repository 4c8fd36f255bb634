package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"scoreboard/internal/store"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Job is one award to be durably recorded in the ledger. The award itself
// is already committed to the in-memory board; the relay's contract is
// eventual consistency, never blocking or failing the original request.
type Job struct {
	AwardID        string `json:"award_id"`
	UserID         string `json:"user_id"`
	ActionType     string `json:"action_type"`
	ActionID       string `json:"action_id"`
	IdempotencyKey string `json:"idempotency_key"`
	Points         int64  `json:"points"`
}

// Ledger is the durable storage surface the relay writes to.
type Ledger interface {
	InsertAward(ctx context.Context, a store.Award) (bool, error)
	ApplyUserTotalDelta(ctx context.Context, userID string, delta int64) error
	InsertDeadLetter(ctx context.Context, payload []byte, reason string, attempts int) (string, error)
}

type Config struct {
	Workers     int
	QueueSize   int
	RetryMax    int
	RetryBase   time.Duration
	EnqueueWait time.Duration
}

type jobState struct {
	Job
	attempt    int
	insertDone bool
	wasApplied bool
}

type Relay struct {
	ledger Ledger
	cfg    Config

	jobs chan jobState
	done chan struct{}

	mu       sync.Mutex
	fallback []store.DeadLetter
}

func New(ledger Ledger, cfg Config) *Relay {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 2048
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.EnqueueWait <= 0 {
		cfg.EnqueueWait = 50 * time.Millisecond
	}
	return &Relay{
		ledger: ledger,
		cfg:    cfg,
		jobs:   make(chan jobState, cfg.QueueSize),
		done:   make(chan struct{}),
	}
}

// Start launches the worker pool. Workers drain until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) {
	grp, ctx := errgroup.WithContext(ctx)
	for i := 0; i < r.cfg.Workers; i++ {
		grp.Go(func() error {
			r.worker(ctx)
			return nil
		})
	}
	go func() {
		_ = grp.Wait()
		close(r.done)
	}()
}

// Enqueue hands a job to the relay without blocking the caller past the
// configured wait. A full queue routes the job straight to the dead-letter
// destination; the award already stands either way.
func (r *Relay) Enqueue(ctx context.Context, job Job) bool {
	js := jobState{Job: job, attempt: 1}
	timer := time.NewTimer(r.cfg.EnqueueWait)
	defer timer.Stop()
	select {
	case r.jobs <- js:
		metricRelayQueued.Add(1)
		metricRelayQueueLen.Set(int64(len(r.jobs)))
		return true
	case <-ctx.Done():
	case <-timer.C:
	}
	metricRelayEnqueueTimeout.Add(1)
	r.deadLetter(js, "enqueue_timeout")
	return false
}

func (r *Relay) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case js := <-r.jobs:
			metricRelayQueueLen.Set(int64(len(r.jobs)))
			r.process(ctx, js)
		}
	}
}

func (r *Relay) process(ctx context.Context, js jobState) {
	if !js.insertDone {
		inserted, err := r.ledger.InsertAward(ctx, store.Award{
			ID:             js.AwardID,
			UserID:         js.UserID,
			ActionType:     js.ActionType,
			ActionID:       js.ActionID,
			IdempotencyKey: js.IdempotencyKey,
			Points:         js.Points,
		})
		if err != nil {
			metricRelayFailed.Add(1)
			r.retryOrDrop(js, err)
			return
		}
		js.insertDone = true
		js.wasApplied = inserted
		if !inserted {
			// Duplicate award id or (user, action) pair: the ledger
			// already holds it, so the total must not move again.
			metricRelayDuplicate.Add(1)
			return
		}
	}
	if js.wasApplied {
		if err := r.ledger.ApplyUserTotalDelta(ctx, js.UserID, js.Points); err != nil {
			metricRelayFailed.Add(1)
			r.retryOrDrop(js, err)
			return
		}
	}
	metricRelayPersisted.Add(1)
}

func (r *Relay) retryOrDrop(js jobState, cause error) {
	if js.attempt > r.cfg.RetryMax {
		log.Error().Err(cause).Str("award_id", js.AwardID).Int("attempts", js.attempt).
			Msg("relay job exhausted retries")
		r.deadLetter(js, cause.Error())
		return
	}
	delay := r.cfg.RetryBase * time.Duration(1<<(js.attempt-1))
	js.attempt++
	metricRelayRetry.Add(1)
	time.AfterFunc(delay, func() {
		select {
		case <-r.done:
		case r.jobs <- js:
			metricRelayQueueLen.Set(int64(len(r.jobs)))
		}
	})
}

func (r *Relay) deadLetter(js jobState, reason string) {
	metricRelayDeadLettered.Add(1)
	payload, err := json.Marshal(js.Job)
	if err != nil {
		payload = []byte(`{}`)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := r.ledger.InsertDeadLetter(ctx, payload, reason, js.attempt); err == nil {
		return
	}
	// Durable storage is the thing that is down; park the job in memory so
	// an operator can still inspect it.
	r.mu.Lock()
	r.fallback = append(r.fallback, store.DeadLetter{
		ID:        js.AwardID,
		Payload:   payload,
		Reason:    reason,
		Attempts:  js.attempt,
		CreatedAt: time.Now().UTC(),
	})
	r.mu.Unlock()
}

// FallbackDeadLetters returns jobs that could not even reach the durable
// dead-letter table.
func (r *Relay) FallbackDeadLetters() []store.DeadLetter {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]store.DeadLetter, len(r.fallback))
	copy(out, r.fallback)
	return out
}

// QueueLen reports the current backlog, for health reporting.
func (r *Relay) QueueLen() int {
	return len(r.jobs)
}

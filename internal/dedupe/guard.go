package dedupe

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Status of an idempotency-key reservation attempt.
type Status int

const (
	// StatusFresh means the key was reserved by this caller; exactly one
	// caller observes Fresh for a given key while the record is retained.
	StatusFresh Status = iota
	// StatusDuplicate means the key was seen before with the same payload
	// fingerprint; the original outcome can be obtained via Await.
	StatusDuplicate
	// StatusConflict means the key was reused with a different payload.
	StatusConflict
)

// ErrAbandoned is returned from Await when the original attempt gave up
// before producing an outcome. The caller may retry with the same key.
var ErrAbandoned = errors.New("original_attempt_abandoned")

type record struct {
	fingerprint string
	createdAt   time.Time
	done        chan struct{}
	outcome     any
	abandoned   bool
}

// Guard owns idempotency-key and replay records with bounded retention.
// Reservation is first-writer-wins under the guard mutex; there is no
// check-then-act window between observing a key and claiming it.
type Guard struct {
	idemTTL   time.Duration
	replayTTL time.Duration
	now       func() time.Time

	mu      sync.Mutex
	keys    map[string]*record
	replays map[replayKey]time.Time
}

type replayKey struct {
	userID   string
	actionID string
}

func NewGuard(idemTTL, replayTTL time.Duration) *Guard {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	if replayTTL <= 0 {
		replayTTL = 7 * 24 * time.Hour
	}
	return &Guard{
		idemTTL:   idemTTL,
		replayTTL: replayTTL,
		now:       time.Now,
		keys:      map[string]*record{},
		replays:   map[replayKey]time.Time{},
	}
}

// Reservation is the handle returned for a Fresh or Duplicate key.
type Reservation struct {
	g   *Guard
	key string
	rec *record
}

// CheckAndReserve claims key for this caller, or reports how it was used
// before. A Fresh reservation must be resolved with Finalize or Abandon.
func (g *Guard) CheckAndReserve(key, fingerprint string) (*Reservation, Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if rec, ok := g.keys[key]; ok {
		if g.now().Sub(rec.createdAt) <= g.idemTTL {
			if rec.fingerprint != fingerprint {
				metricConflicts.Add(1)
				return nil, StatusConflict
			}
			metricDuplicates.Add(1)
			return &Reservation{g: g, key: key, rec: rec}, StatusDuplicate
		}
		delete(g.keys, key)
	}
	rec := &record{
		fingerprint: fingerprint,
		createdAt:   g.now(),
		done:        make(chan struct{}),
	}
	g.keys[key] = rec
	metricReserved.Add(1)
	return &Reservation{g: g, key: key, rec: rec}, StatusFresh
}

// Finalize stores the outcome of the original attempt and releases any
// duplicate callers waiting in Await. Call it immediately after the score
// mutation with no intervening I/O, so a retried request always replays
// the stored outcome instead of re-applying the increment.
func (r *Reservation) Finalize(outcome any) {
	r.g.mu.Lock()
	r.rec.outcome = outcome
	r.g.mu.Unlock()
	close(r.rec.done)
}

// Abandon removes the reservation so a later retry with the same key runs
// afresh. Only valid before Finalize, on failure paths that did not mutate
// any score.
func (r *Reservation) Abandon() {
	r.g.mu.Lock()
	r.rec.abandoned = true
	if r.g.keys[r.key] == r.rec {
		delete(r.g.keys, r.key)
	}
	r.g.mu.Unlock()
	close(r.rec.done)
}

// Await blocks until the original attempt for this key finalizes, then
// returns its stored outcome. Returns ErrAbandoned if the original gave up.
func (r *Reservation) Await(ctx context.Context) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.rec.done:
	}
	r.g.mu.Lock()
	defer r.g.mu.Unlock()
	if r.rec.abandoned {
		return nil, ErrAbandoned
	}
	return r.rec.outcome, nil
}

// CheckReplay marks (userID, actionID) as awarded. Returns true on the
// first call within the retention window, false once the pair is known.
func (g *Guard) CheckReplay(userID, actionID string) bool {
	k := replayKey{userID: userID, actionID: actionID}
	g.mu.Lock()
	defer g.mu.Unlock()
	if seen, ok := g.replays[k]; ok {
		if g.now().Sub(seen) <= g.replayTTL {
			metricReplayHits.Add(1)
			return false
		}
	}
	g.replays[k] = g.now()
	return true
}

// ForgetReplay drops a replay mark. Used on failure paths where the award
// never reached the score store, so the client can legitimately retry.
func (g *Guard) ForgetReplay(userID, actionID string) {
	g.mu.Lock()
	delete(g.replays, replayKey{userID: userID, actionID: actionID})
	g.mu.Unlock()
}

// Sweep drops expired records from both maps and reports how many went.
func (g *Guard) Sweep() int {
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	removed := 0
	for key, rec := range g.keys {
		if now.Sub(rec.createdAt) > g.idemTTL {
			delete(g.keys, key)
			removed++
		}
	}
	for k, seen := range g.replays {
		if now.Sub(seen) > g.replayTTL {
			delete(g.replays, k)
			removed++
		}
	}
	if removed > 0 {
		metricSwept.Add(int64(removed))
	}
	return removed
}

// StartJanitor sweeps expired records on a ticker until ctx is cancelled.
func (g *Guard) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				g.Sweep()
			}
		}
	}()
}

package award

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"scoreboard/internal/dedupe"
	"scoreboard/internal/rank"
	"scoreboard/internal/relay"
	"scoreboard/internal/rules"
)

type captureQueue struct {
	mu   sync.Mutex
	jobs []relay.Job
	full bool
}

func (q *captureQueue) Enqueue(_ context.Context, job relay.Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.jobs = append(q.jobs, job)
	return true
}

func (q *captureQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func newTestCoordinator(t *testing.T, opts Options) (*Coordinator, *captureQueue) {
	t.Helper()
	tbl := rules.NewTableFromEntries(map[string]int64{
		"watch_video": 25,
		"share_post":  10,
	})
	queue := &captureQueue{}
	coord := NewCoordinator(tbl, dedupe.NewGuard(time.Hour, time.Hour), rank.NewBoard(), NewEventLog(64), queue, opts)
	return coord, queue
}

func submit(user, action, actionID, key string) Request {
	return Request{UserID: user, ActionType: action, ActionID: actionID, IdempotencyKey: key}
}

func TestSubmitGrantsAward(t *testing.T) {
	coord, queue := newTestCoordinator(t, Options{})
	res, err := coord.Submit(context.Background(), submit("u1", "watch_video", "a1", "k1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Total != 25 || res.Delta != 25 || res.Rank != 1 || res.Replayed {
		t.Fatalf("unexpected result: %+v", res)
	}
	if queue.count() != 1 {
		t.Fatalf("relay jobs = %d, want 1", queue.count())
	}
	events, _ := coord.Events().ReplayAfter(0)
	if len(events) != 1 || events[0].NewTotal != 25 {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestSubmitScenario(t *testing.T) {
	// rules {watch_video: 25}; U awards (A1,K1) -> 25; identical request
	// replays; (A1,K2) rejects as replay; (A2,K3) -> 50.
	coord, queue := newTestCoordinator(t, Options{})
	ctx := context.Background()

	res, err := coord.Submit(ctx, submit("U", "watch_video", "A1", "K1"))
	if err != nil || res.Total != 25 || res.Delta != 25 {
		t.Fatalf("first award: res=%+v err=%v", res, err)
	}

	res, err = coord.Submit(ctx, submit("U", "watch_video", "A1", "K1"))
	if err != nil {
		t.Fatalf("identical retry: %v", err)
	}
	if !res.Replayed || res.Total != 25 || res.Delta != 25 {
		t.Fatalf("retry result: %+v", res)
	}

	if _, err := coord.Submit(ctx, submit("U", "watch_video", "A1", "K2")); !errors.Is(err, ErrReplayDuplicate) {
		t.Fatalf("same action new key err = %v, want ErrReplayDuplicate", err)
	}

	res, err = coord.Submit(ctx, submit("U", "watch_video", "A2", "K3"))
	if err != nil || res.Total != 50 {
		t.Fatalf("second action: res=%+v err=%v", res, err)
	}

	if total, _ := coord.Board().Total("U"); total != 50 {
		t.Fatalf("board total = %d, want 50", total)
	}
	// Only the two granted awards reached the relay.
	if queue.count() != 2 {
		t.Fatalf("relay jobs = %d, want 2", queue.count())
	}
}

func TestSubmitUnknownActionNoStateChange(t *testing.T) {
	coord, queue := newTestCoordinator(t, Options{})
	if _, err := coord.Submit(context.Background(), submit("u1", "foo", "a1", "k1")); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("err = %v, want ErrUnknownAction", err)
	}
	if _, ok := coord.Board().Total("u1"); ok {
		t.Fatal("total mutated on rejected action")
	}
	if queue.count() != 0 {
		t.Fatal("relay received a job for a rejected award")
	}
	// The key was not burned: a corrected submission may reuse it.
	if _, err := coord.Submit(context.Background(), submit("u1", "watch_video", "a1", "k1")); err != nil {
		t.Fatalf("reuse after rejection: %v", err)
	}
}

func TestSubmitKeyConflict(t *testing.T) {
	coord, _ := newTestCoordinator(t, Options{})
	ctx := context.Background()
	if _, err := coord.Submit(ctx, submit("u1", "watch_video", "a1", "k1")); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := coord.Submit(ctx, submit("u1", "watch_video", "a2", "k1")); !errors.Is(err, ErrKeyConflict) {
		t.Fatalf("err = %v, want ErrKeyConflict", err)
	}
	if total, _ := coord.Board().Total("u1"); total != 25 {
		t.Fatalf("total = %d, want 25 (no extra mutation)", total)
	}
}

func TestSubmitMissingFields(t *testing.T) {
	coord, _ := newTestCoordinator(t, Options{})
	ctx := context.Background()
	if _, err := coord.Submit(ctx, submit("", "watch_video", "a1", "k1")); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("missing user err = %v", err)
	}
	for _, req := range []Request{
		submit("u1", "", "a1", "k1"),
		submit("u1", "watch_video", "", "k1"),
		submit("u1", "watch_video", "a1", ""),
	} {
		if _, err := coord.Submit(ctx, req); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("req %+v err = %v, want ErrInvalidRequest", req, err)
		}
	}
}

func TestSubmitConcurrentDuplicatesSingleMutation(t *testing.T) {
	coord, queue := newTestCoordinator(t, Options{})
	const callers = 16
	var wg sync.WaitGroup
	results := make([]*Result, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = coord.Submit(context.Background(), submit("u1", "watch_video", "a1", "k1"))
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i].Total != 25 || results[i].Delta != 25 {
			t.Fatalf("caller %d result: %+v", i, results[i])
		}
	}
	if total, _ := coord.Board().Total("u1"); total != 25 {
		t.Fatalf("total = %d, want 25", total)
	}
	if queue.count() != 1 {
		t.Fatalf("relay jobs = %d, want 1", queue.count())
	}
}

func TestSubmitDistinctActionsSumRegardlessOfInterleaving(t *testing.T) {
	coord, _ := newTestCoordinator(t, Options{})
	const actions = 40
	var wg sync.WaitGroup
	for i := 0; i < actions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := submit("u1", "share_post", "act"+strconv.Itoa(i), "key"+strconv.Itoa(i))
			if _, err := coord.Submit(context.Background(), req); err != nil {
				t.Errorf("action %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	if total, _ := coord.Board().Total("u1"); total != actions*10 {
		t.Fatalf("total = %d, want %d", total, actions*10)
	}
}

func TestSubmitIncludesTopK(t *testing.T) {
	coord, _ := newTestCoordinator(t, Options{IncludeTopK: true, TopKSize: 5})
	res, err := coord.Submit(context.Background(), submit("u1", "watch_video", "a1", "k1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(res.TopK) != 1 || res.TopK[0].UserID != "u1" {
		t.Fatalf("unexpected top_k: %+v", res.TopK)
	}
}

func TestSubmitRelayFullStillCompletes(t *testing.T) {
	coord, queue := newTestCoordinator(t, Options{})
	queue.full = true
	res, err := coord.Submit(context.Background(), submit("u1", "watch_video", "a1", "k1"))
	if err != nil {
		t.Fatalf("Submit with full queue: %v", err)
	}
	if res.Total != 25 {
		t.Fatalf("total = %d, want 25", res.Total)
	}
}

func TestAdjustAllowsNegativeDelta(t *testing.T) {
	coord, queue := newTestCoordinator(t, Options{})
	ctx := context.Background()
	if _, err := coord.Submit(ctx, submit("u1", "watch_video", "a1", "k1")); err != nil {
		t.Fatalf("seed award: %v", err)
	}
	res, err := coord.Adjust(ctx, "u1", -10, "abuse_rollback")
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if res.Total != 15 || res.Delta != -10 {
		t.Fatalf("adjust result: %+v", res)
	}
	if queue.count() != 2 {
		t.Fatalf("relay jobs = %d, want 2", queue.count())
	}
	if _, err := coord.Adjust(ctx, "u1", 0, "noop"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("zero delta err = %v, want ErrInvalidRequest", err)
	}
}

package dedupe

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestCheckAndReserveFreshThenDuplicate(t *testing.T) {
	g := NewGuard(time.Hour, time.Hour)
	res, status := g.CheckAndReserve("k1", "fp1")
	if status != StatusFresh {
		t.Fatalf("first reserve status = %v, want Fresh", status)
	}
	res.Finalize("outcome-1")

	dup, status := g.CheckAndReserve("k1", "fp1")
	if status != StatusDuplicate {
		t.Fatalf("second reserve status = %v, want Duplicate", status)
	}
	out, err := dup.Await(context.Background())
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if out != "outcome-1" {
		t.Fatalf("Await = %v, want outcome-1", out)
	}
}

func TestCheckAndReserveConflictOnDifferentFingerprint(t *testing.T) {
	g := NewGuard(time.Hour, time.Hour)
	res, _ := g.CheckAndReserve("k1", "fp1")
	res.Finalize("x")

	if _, status := g.CheckAndReserve("k1", "fp2"); status != StatusConflict {
		t.Fatalf("status = %v, want Conflict", status)
	}
}

func TestCheckAndReserveConcurrentExactlyOneFresh(t *testing.T) {
	g := NewGuard(time.Hour, time.Hour)
	const callers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	fresh := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, status := g.CheckAndReserve("race-key", "fp")
			if status == StatusFresh {
				mu.Lock()
				fresh++
				mu.Unlock()
				res.Finalize("won")
			}
		}()
	}
	wg.Wait()
	if fresh != 1 {
		t.Fatalf("fresh reservations = %d, want exactly 1", fresh)
	}
}

func TestAwaitBlocksUntilFinalize(t *testing.T) {
	g := NewGuard(time.Hour, time.Hour)
	orig, _ := g.CheckAndReserve("k1", "fp")
	dup, status := g.CheckAndReserve("k1", "fp")
	if status != StatusDuplicate {
		t.Fatalf("status = %v, want Duplicate", status)
	}

	got := make(chan any, 1)
	go func() {
		out, err := dup.Await(context.Background())
		if err != nil {
			t.Errorf("Await: %v", err)
		}
		got <- out
	}()

	time.Sleep(10 * time.Millisecond)
	orig.Finalize("late")
	select {
	case out := <-got:
		if out != "late" {
			t.Fatalf("Await = %v, want late", out)
		}
	case <-time.After(time.Second):
		t.Fatal("Await never returned after Finalize")
	}
}

func TestAbandonAllowsRetry(t *testing.T) {
	g := NewGuard(time.Hour, time.Hour)
	orig, _ := g.CheckAndReserve("k1", "fp")
	dup, _ := g.CheckAndReserve("k1", "fp")
	orig.Abandon()

	if _, err := dup.Await(context.Background()); err != ErrAbandoned {
		t.Fatalf("Await err = %v, want ErrAbandoned", err)
	}
	if _, status := g.CheckAndReserve("k1", "fp"); status != StatusFresh {
		t.Fatalf("retry after abandon status = %v, want Fresh", status)
	}
}

func TestAwaitHonorsContext(t *testing.T) {
	g := NewGuard(time.Hour, time.Hour)
	g.CheckAndReserve("k1", "fp")
	dup, _ := g.CheckAndReserve("k1", "fp")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := dup.Await(ctx); err == nil {
		t.Fatal("Await expected context error")
	}
}

func TestCheckReplayMarksOnce(t *testing.T) {
	g := NewGuard(time.Hour, time.Hour)
	if !g.CheckReplay("u1", "a1") {
		t.Fatal("first CheckReplay should be fresh")
	}
	if g.CheckReplay("u1", "a1") {
		t.Fatal("second CheckReplay should report already awarded")
	}
	if !g.CheckReplay("u1", "a2") {
		t.Fatal("different action should be fresh")
	}
	if !g.CheckReplay("u2", "a1") {
		t.Fatal("different user should be fresh")
	}
}

func TestForgetReplay(t *testing.T) {
	g := NewGuard(time.Hour, time.Hour)
	g.CheckReplay("u1", "a1")
	g.ForgetReplay("u1", "a1")
	if !g.CheckReplay("u1", "a1") {
		t.Fatal("CheckReplay after ForgetReplay should be fresh")
	}
}

func TestExpiryAndSweep(t *testing.T) {
	g := NewGuard(time.Hour, 2*time.Hour)
	now := time.Now()
	g.now = func() time.Time { return now }

	res, _ := g.CheckAndReserve("k1", "fp")
	res.Finalize("x")
	g.CheckReplay("u1", "a1")

	// Past the idempotency window but inside the replay window.
	now = now.Add(90 * time.Minute)
	if _, status := g.CheckAndReserve("k1", "fp"); status != StatusFresh {
		t.Fatalf("expired key status = %v, want Fresh", status)
	}
	if g.CheckReplay("u1", "a1") {
		t.Fatal("replay mark expired too early")
	}

	// Past both windows; Sweep drops everything.
	now = now.Add(3 * time.Hour)
	if removed := g.Sweep(); removed == 0 {
		t.Fatal("Sweep removed nothing")
	}
	if !g.CheckReplay("u1", "a1") {
		t.Fatal("replay mark survived its window")
	}
}

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint("u1", "watch_video", "a1")
	b := Fingerprint("u1", "watch_video", "a1")
	c := Fingerprint("u1", "watch_video", "a2")
	if a != b {
		t.Fatal("same parts produced different fingerprints")
	}
	if a == c {
		t.Fatal("different parts produced the same fingerprint")
	}
	// Concatenation across part boundaries must not collide.
	if Fingerprint("ab", "c") == Fingerprint("a", "bc") {
		t.Fatal("boundary collision")
	}
}

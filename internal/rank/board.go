package rank

import (
	"sync"
	"time"

	"github.com/google/btree"
)

// Entry is one user's position on the board.
type Entry struct {
	UserID string `json:"user_id"`
	Total  int64  `json:"total"`
}

// Board maintains cumulative totals and a ranked index over them. All
// access goes through its methods; a single mutex serializes writes, so
// two concurrent increments to the same user can never lose an update.
//
// Ordering is descending total; equal totals rank the lexicographically
// lower user_id first. The tie-break is deterministic and stable across
// reloads, at the cost of treating user_id order as meaningful.
type Board struct {
	mu      sync.Mutex
	entries map[string]*Entry
	ordered *btree.BTreeG[*Entry]
}

// better is the tree's Less: the best entry sorts as the minimum, so
// rank order is an ascending walk.
func better(a, b *Entry) bool {
	if a.Total != b.Total {
		return a.Total > b.Total
	}
	return a.UserID < b.UserID
}

func NewBoard() *Board {
	return &Board{
		entries: map[string]*Entry{},
		ordered: btree.NewG(32, better),
	}
}

// Increment applies delta to the user's total, creating the entry on first
// award, and returns the new total. O(log n) in the board population.
func (b *Board) Increment(userID string, delta int64) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[userID]
	if !ok {
		e = &Entry{UserID: userID}
		b.entries[userID] = e
	} else {
		b.ordered.Delete(e)
	}
	e.Total += delta
	b.ordered.ReplaceOrInsert(e)
	return e.Total
}

// SeedTotal installs an absolute total, used when reconciling the board
// from the durable ledger at startup. Existing entries are overwritten.
func (b *Board) SeedTotal(userID string, total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.entries[userID]; ok {
		b.ordered.Delete(e)
		e.Total = total
		b.ordered.ReplaceOrInsert(e)
		return
	}
	e := &Entry{UserID: userID, Total: total}
	b.entries[userID] = e
	b.ordered.ReplaceOrInsert(e)
}

// Rank returns the user's 1-based position, or ok=false for a user with no
// awards. Walks the ordered index from the top, so cost grows with the
// position being answered, not with increments elsewhere.
func (b *Board) Rank(userID string) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	target, ok := b.entries[userID]
	if !ok {
		return 0, false
	}
	pos := 0
	found := false
	b.ordered.Ascend(func(e *Entry) bool {
		pos++
		if e == target {
			found = true
			return false
		}
		return true
	})
	if !found {
		return 0, false
	}
	return pos, true
}

// Total returns the user's current total; ok=false means unranked.
func (b *Board) Total(userID string) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[userID]
	if !ok {
		return 0, false
	}
	return e.Total, true
}

// TopK returns the best k entries as a consistent snapshot taken under the
// board lock. O(k + log n); never scans the full population.
func (b *Board) TopK(k int) []Entry {
	if k <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, 0, k)
	b.ordered.Ascend(func(e *Entry) bool {
		out = append(out, *e)
		return len(out) < k
	})
	return out
}

// Snapshot pairs a TopK read with the time it was taken.
type Snapshot struct {
	TakenAt time.Time `json:"taken_at"`
	Entries []Entry   `json:"entries"`
}

func (b *Board) SnapshotTopK(k int) Snapshot {
	return Snapshot{TakenAt: time.Now().UTC(), Entries: b.TopK(k)}
}

// Len reports how many users hold an entry.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

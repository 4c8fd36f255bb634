package store

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	idEntropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	idMu      sync.Mutex
)

// NewID mints a ULID for award, user and dead-letter rows. IDs minted by
// one process sort by creation time, which keeps award listings in
// submission order without a separate sequence column.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), idEntropy).String()
}

package award

import (
	"errors"
	"sync"
	"time"
)

// ErrGapExpired reports that a resume position has fallen out of the
// retained window. Subscribers must be told explicitly rather than
// silently skipping the missing events.
var ErrGapExpired = errors.New("sequence_out_of_window")

// ChangeEvent is one score change, carrying enough for a client to
// reconcile its local view without a follow-up read.
type ChangeEvent struct {
	Seq      int64  `json:"sequence_id"`
	UserID   string `json:"user_id"`
	Delta    int64  `json:"delta"`
	NewTotal int64  `json:"new_total"`
	NewRank  int    `json:"new_rank"`
	ServerTS int64  `json:"server_ts"`
}

// EventLog is an append-only sequence of change events with a retained
// suffix window. Sequence ids are monotonically increasing per log.
// Delivery to live watchers is best-effort per channel; resumption via
// ReplayAfter gives at-least-once coverage inside the window.
type EventLog struct {
	mu       sync.Mutex
	nextSeq  int64
	max      int
	events   []ChangeEvent
	watchers map[chan ChangeEvent]struct{}
	closed   bool
}

func NewEventLog(max int) *EventLog {
	if max <= 0 {
		max = 1024
	}
	return &EventLog{
		max:      max,
		watchers: map[chan ChangeEvent]struct{}{},
	}
}

// Publish appends a change event and wakes current watchers. A watcher
// whose channel is full misses the live send and recovers via replay.
func (l *EventLog) Publish(userID string, delta, newTotal int64, newRank int) ChangeEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ChangeEvent{}
	}
	l.nextSeq++
	ev := ChangeEvent{
		Seq:      l.nextSeq,
		UserID:   userID,
		Delta:    delta,
		NewTotal: newTotal,
		NewRank:  newRank,
		ServerTS: time.Now().UnixMilli(),
	}
	l.events = append(l.events, ev)
	if len(l.events) > l.max {
		l.events = l.events[len(l.events)-l.max:]
	}
	for ch := range l.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
	metricEventsPublished.Add(1)
	return ev
}

// ReplayAfter returns every retained event with Seq > after, oldest first.
// after=0 asks for the full retained window and never gaps. A positive
// resume point below the retained floor returns ErrGapExpired.
func (l *EventLog) ReplayAfter(after int64) ([]ChangeEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.replayAfterLocked(after)
}

func (l *EventLog) replayAfterLocked(after int64) ([]ChangeEvent, error) {
	if after > 0 && after < l.floorLocked() {
		metricEventGaps.Add(1)
		return nil, ErrGapExpired
	}
	var out []ChangeEvent
	for _, ev := range l.events {
		if ev.Seq > after {
			out = append(out, ev)
		}
	}
	return out, nil
}

// SubscribeFrom registers a watcher and collects the replay suffix in one
// atomic step, so a publish racing the subscription lands either in the
// returned slice or on the channel, never in neither. A resume point below
// the retained floor returns ErrGapExpired without registering.
func (l *EventLog) SubscribeFrom(after int64) ([]ChangeEvent, chan ChangeEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	replay, err := l.replayAfterLocked(after)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan ChangeEvent, 32)
	if l.closed {
		close(ch)
		return replay, ch, nil
	}
	l.watchers[ch] = struct{}{}
	metricEventWatchers.Set(int64(len(l.watchers)))
	return replay, ch, nil
}

// OldestRetained reports the lowest resumable sequence id, zero when
// nothing has been evicted yet.
func (l *EventLog) OldestRetained() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.floorLocked()
}

// floorLocked is the lowest "after" position still fully covered by the
// retained events.
func (l *EventLog) floorLocked() int64 {
	if len(l.events) == 0 {
		return l.nextSeq
	}
	return l.events[0].Seq - 1
}

func (l *EventLog) Subscribe() chan ChangeEvent {
	ch := make(chan ChangeEvent, 32)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		close(ch)
		return ch
	}
	l.watchers[ch] = struct{}{}
	metricEventWatchers.Set(int64(len(l.watchers)))
	return ch
}

func (l *EventLog) Unsubscribe(ch chan ChangeEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.watchers[ch]; ok {
		delete(l.watchers, ch)
		close(ch)
	}
	metricEventWatchers.Set(int64(len(l.watchers)))
}

func (l *EventLog) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	for ch := range l.watchers {
		close(ch)
		delete(l.watchers, ch)
	}
	metricEventWatchers.Set(0)
}

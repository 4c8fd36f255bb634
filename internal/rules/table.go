package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
)

// Snapshot is one immutable version of the action point table. A Table
// swaps whole snapshots; entries are never mutated in place, so a reader
// holding a snapshot can never observe a mix of two versions.
type Snapshot struct {
	Version int64
	points  map[string]int64
}

// Lookup resolves the point value for an action type. ok=false means the
// action is unknown or disabled; callers must treat that as a rejection,
// never as a zero-point award.
func (s *Snapshot) Lookup(actionType string) (int64, bool) {
	pts, ok := s.points[actionType]
	return pts, ok
}

func (s *Snapshot) Len() int {
	return len(s.points)
}

type ruleFile struct {
	Rules    map[string]int64 `json:"rules"`
	Disabled []string         `json:"disabled,omitempty"`
}

// Table holds the active rule snapshot behind an atomic pointer. Reads
// never block reloads and reloads never block reads.
type Table struct {
	path    string
	active  atomic.Pointer[Snapshot]
	loads   atomic.Int64
	modTime atomic.Int64
}

func NewTable(path string) (*Table, error) {
	t := &Table{path: path}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewTableFromEntries builds a table without a backing file. Used by tests
// and by callers that manage rule content themselves.
func NewTableFromEntries(entries map[string]int64) *Table {
	t := &Table{}
	t.swap(entries)
	return t
}

// Active returns the current snapshot. The returned pointer stays valid and
// internally consistent even if a reload swaps in a newer version.
func (t *Table) Active() *Snapshot {
	return t.active.Load()
}

// Lookup is shorthand for Active().Lookup.
func (t *Table) Lookup(actionType string) (int64, bool) {
	return t.Active().Lookup(actionType)
}

// Reload re-reads the rule file and atomically swaps in a new snapshot.
// On any error the previous snapshot stays active.
func (t *Table) Reload() error {
	if t.path == "" {
		return fmt.Errorf("rule table has no backing file")
	}
	raw, err := os.ReadFile(t.path)
	if err != nil {
		metricRuleReloadErrors.Add(1)
		return fmt.Errorf("read rules %q: %w", t.path, err)
	}
	var rf ruleFile
	if err := json.Unmarshal(raw, &rf); err != nil {
		metricRuleReloadErrors.Add(1)
		return fmt.Errorf("parse rules %q: %w", t.path, err)
	}
	entries := make(map[string]int64, len(rf.Rules))
	for action, pts := range rf.Rules {
		action = strings.TrimSpace(action)
		if action == "" || pts <= 0 {
			continue
		}
		entries[action] = pts
	}
	for _, action := range rf.Disabled {
		delete(entries, strings.TrimSpace(action))
	}
	t.swap(entries)
	if info, err := os.Stat(t.path); err == nil {
		t.modTime.Store(info.ModTime().UnixNano())
	}
	return nil
}

func (t *Table) swap(entries map[string]int64) {
	version := t.loads.Add(1)
	t.active.Store(&Snapshot{Version: version, points: entries})
	metricRuleReloads.Add(1)
	metricRuleVersion.Set(version)
	metricRuleCount.Set(int64(len(entries)))
}

package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRules(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "rules.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	return path
}

func TestTableLookup(t *testing.T) {
	path := writeRules(t, t.TempDir(), `{"rules":{"watch_video":25,"daily_login":5}}`)
	tbl, err := NewTable(path)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	pts, ok := tbl.Lookup("watch_video")
	if !ok || pts != 25 {
		t.Fatalf("Lookup(watch_video) = %d,%v want 25,true", pts, ok)
	}
	if _, ok := tbl.Lookup("foo"); ok {
		t.Fatal("unknown action resolved as enabled")
	}
}

func TestTableDisabledEntries(t *testing.T) {
	path := writeRules(t, t.TempDir(), `{"rules":{"watch_video":25,"old_action":10},"disabled":["old_action"]}`)
	tbl, err := NewTable(path)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if _, ok := tbl.Lookup("old_action"); ok {
		t.Fatal("disabled action resolved as enabled")
	}
}

func TestTableRejectsNonPositivePoints(t *testing.T) {
	path := writeRules(t, t.TempDir(), `{"rules":{"watch_video":25,"broken":0,"negative":-5}}`)
	tbl, err := NewTable(path)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if _, ok := tbl.Lookup("broken"); ok {
		t.Fatal("zero-point action resolved as enabled")
	}
	if _, ok := tbl.Lookup("negative"); ok {
		t.Fatal("negative-point action resolved as enabled")
	}
}

func TestReloadSwapsVersionAtomically(t *testing.T) {
	dir := t.TempDir()
	path := writeRules(t, dir, `{"rules":{"watch_video":25}}`)
	tbl, err := NewTable(path)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	before := tbl.Active()

	writeRules(t, dir, `{"rules":{"watch_video":50,"share_post":10}}`)
	if err := tbl.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	after := tbl.Active()
	if after.Version <= before.Version {
		t.Fatalf("version did not advance: %d -> %d", before.Version, after.Version)
	}

	// The old snapshot keeps its original contents.
	if pts, _ := before.Lookup("watch_video"); pts != 25 {
		t.Fatalf("old snapshot mutated: watch_video = %d", pts)
	}
	if pts, _ := after.Lookup("watch_video"); pts != 50 {
		t.Fatalf("new snapshot wrong: watch_video = %d", pts)
	}
}

func TestReloadKeepsActiveOnParseError(t *testing.T) {
	dir := t.TempDir()
	path := writeRules(t, dir, `{"rules":{"watch_video":25}}`)
	tbl, err := NewTable(path)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	before := tbl.Active()

	writeRules(t, dir, `{not json`)
	if err := tbl.Reload(); err == nil {
		t.Fatal("Reload() expected error on bad JSON")
	}
	if tbl.Active() != before {
		t.Fatal("active snapshot changed after failed reload")
	}
}

func TestNewTableFromEntries(t *testing.T) {
	tbl := NewTableFromEntries(map[string]int64{"watch_video": 25})
	if pts, ok := tbl.Lookup("watch_video"); !ok || pts != 25 {
		t.Fatalf("Lookup = %d,%v want 25,true", pts, ok)
	}
}

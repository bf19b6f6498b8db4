package repo

import (
	"strings"
	"testing"

	"github.com/odvcencio/grit/pkg/object"
)

// Test 1: ref creation logs a zero old hash; updates chain old -> new.
func TestReflog_RecordsRefMovement(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	first := mustHash(t, strings.Repeat("a", 40))
	second := mustHash(t, strings.Repeat("b", 40))

	if err := r.UpdateRef("refs/heads/main", first); err != nil {
		t.Fatalf("UpdateRef(first): %v", err)
	}
	if err := r.UpdateRef("refs/heads/main", second); err != nil {
		t.Fatalf("UpdateRef(second): %v", err)
	}

	entries, err := r.ReadReflog("main", 0)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	// Newest first.
	if entries[0].OldHash != first || entries[0].NewHash != second {
		t.Errorf("entry 0 = %s -> %s, want %s -> %s", entries[0].OldHash, entries[0].NewHash, first, second)
	}
	if !entries[1].OldHash.IsZero() {
		t.Errorf("creation entry old hash = %s, want zero", entries[1].OldHash)
	}
	if entries[1].NewHash != first {
		t.Errorf("creation entry new hash = %s, want %s", entries[1].NewHash, first)
	}
	for _, e := range entries {
		if e.Timestamp == 0 {
			t.Error("entry missing timestamp")
		}
		if e.Reason == "" {
			t.Error("entry missing reason")
		}
	}
}

// Test 2: limit caps the returned entries from the newest side.
func TestReflog_Limit(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	hashes := []object.Hash{
		mustHash(t, strings.Repeat("1", 40)),
		mustHash(t, strings.Repeat("2", 40)),
		mustHash(t, strings.Repeat("3", 40)),
	}
	for _, h := range hashes {
		if err := r.UpdateRef("refs/heads/main", h); err != nil {
			t.Fatalf("UpdateRef(%s): %v", h, err)
		}
	}

	entries, err := r.ReadReflog("main", 2)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].NewHash != hashes[2] {
		t.Errorf("newest entry = %s, want %s", entries[0].NewHash, hashes[2])
	}
}

// Test 3: a ref with no reflog reads as empty.
func TestReflog_MissingIsEmpty(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	entries, err := r.ReadReflog("refs/heads/never-updated", 0)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %d, want 0", len(entries))
	}
}

// Test 4: querying HEAD resolves to the current branch's log.
func TestReflog_HeadResolvesToBranch(t *testing.T) {
	r := initRepoWithFile(t, "f.txt", []byte("f\n"))

	hash, err := r.Commit("initial", testAuthor())
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	entries, err := r.ReadReflog("HEAD", 0)
	if err != nil {
		t.Fatalf("ReadReflog(HEAD): %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Ref != "refs/heads/main" {
		t.Errorf("entry ref = %q, want refs/heads/main", entries[0].Ref)
	}
	if entries[0].NewHash != hash {
		t.Errorf("entry new hash = %s, want %s", entries[0].NewHash, hash)
	}
}

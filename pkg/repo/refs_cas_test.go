package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/odvcencio/grit/pkg/object"
)

func TestUpdateRefCAS_ConcurrentSingleWinner(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	base := mustHash(t, strings.Repeat("a", 40))
	if err := r.UpdateRef("refs/heads/main", base); err != nil {
		t.Fatalf("UpdateRef(base): %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)

	successCh := make(chan object.Hash, workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		i := i
		go func() {
			defer wg.Done()
			next := mustHash(t, fmt.Sprintf("%040x", i+1))
			err := r.UpdateRefCAS("refs/heads/main", next, base)
			if err != nil {
				errCh <- err
				return
			}
			successCh <- next
		}()
	}

	wg.Wait()
	close(successCh)
	close(errCh)

	var winner object.Hash
	successes := 0
	for h := range successCh {
		successes++
		winner = h
	}
	if successes != 1 {
		t.Fatalf("successful CAS updates = %d, want 1", successes)
	}

	casMismatches := 0
	for err := range errCh {
		if errors.Is(err, ErrRefCASMismatch) {
			casMismatches++
			continue
		}
		t.Fatalf("unexpected error type: %v", err)
	}
	if casMismatches != workers-1 {
		t.Fatalf("CAS mismatches = %d, want %d", casMismatches, workers-1)
	}

	got, err := r.ResolveRef("refs/heads/main")
	if err != nil {
		t.Fatalf("ResolveRef(main): %v", err)
	}
	if got != winner {
		t.Fatalf("refs/heads/main = %s, want winner %s", got, winner)
	}
}

func TestUpdateRefCAS_CleansLockOnMismatch(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	current := mustHash(t, strings.Repeat("b", 40))
	if err := r.UpdateRef("refs/heads/main", current); err != nil {
		t.Fatalf("UpdateRef(current): %v", err)
	}

	err = r.UpdateRefCAS(
		"refs/heads/main",
		mustHash(t, strings.Repeat("c", 40)),
		mustHash(t, strings.Repeat("d", 40)),
	)
	if !errors.Is(err, ErrRefCASMismatch) {
		t.Fatalf("expected CAS mismatch, got: %v", err)
	}

	lockPath := filepath.Join(r.GritDir, "refs", "heads", "main.lock")
	if _, statErr := os.Stat(lockPath); !os.IsNotExist(statErr) {
		t.Fatalf("expected no lingering lockfile at %q, stat err=%v", lockPath, statErr)
	}
}

func TestUpdateRefCAS_ZeroHashMeansRefMustNotExist(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	h := mustHash(t, strings.Repeat("e", 40))

	// First create succeeds: the ref is absent.
	if err := r.UpdateRefCAS("refs/heads/topic", h, object.ZeroHash); err != nil {
		t.Fatalf("create with zero CAS: %v", err)
	}

	// Second create fails: the ref now holds a hash.
	err = r.UpdateRefCAS("refs/heads/topic", mustHash(t, strings.Repeat("f", 40)), object.ZeroHash)
	if !errors.Is(err, ErrRefCASMismatch) {
		t.Fatalf("expected CAS mismatch, got: %v", err)
	}
}

func TestUpdateRefCAS_StaleParentLosesToMovedRef(t *testing.T) {
	r := initRepoWithFile(t, "main.go", []byte("package main\n\nfunc main() {}\n"))

	firstHash, err := r.Commit("first commit", testAuthor())
	if err != nil {
		t.Fatalf("Commit(first): %v", err)
	}

	// Another writer moves the branch. An advance still expecting the
	// first commit as the ref value must refuse.
	movedHash := mustHash(t, strings.Repeat("e", 40))
	if err := r.UpdateRef("refs/heads/main", movedHash); err != nil {
		t.Fatalf("UpdateRef(moved): %v", err)
	}

	err = r.UpdateRefCAS("refs/heads/main", mustHash(t, strings.Repeat("b", 40)), firstHash)
	if !errors.Is(err, ErrRefCASMismatch) {
		t.Fatalf("expected CAS mismatch, got: %v", err)
	}

	head, err := r.ResolveRef("refs/heads/main")
	if err != nil {
		t.Fatalf("ResolveRef(main): %v", err)
	}
	if head != movedHash {
		t.Fatalf("main ref = %s, want moved hash %s", head, movedHash)
	}
}

func TestCreateBranch_ConcurrentSingleWinner(t *testing.T) {
	r := initRepoWithFile(t, "main.go", []byte("package main\n\nfunc main() {}\n"))

	headHash, err := r.Commit("initial commit", testAuthor())
	if err != nil {
		t.Fatalf("Commit(initial): %v", err)
	}

	const workers = 12
	var wg sync.WaitGroup
	wg.Add(workers)

	successCh := make(chan struct{}, workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if err := r.CreateBranch("feature", headHash); err != nil {
				errCh <- err
				return
			}
			successCh <- struct{}{}
		}()
	}

	wg.Wait()
	close(successCh)
	close(errCh)

	successes := len(successCh)
	if successes != 1 {
		t.Fatalf("CreateBranch successes = %d, want 1", successes)
	}

	duplicates := 0
	for err := range errCh {
		if strings.Contains(err.Error(), "already exists") {
			duplicates++
			continue
		}
		t.Fatalf("unexpected CreateBranch error: %v", err)
	}
	if duplicates != workers-1 {
		t.Fatalf("duplicate errors = %d, want %d", duplicates, workers-1)
	}

	got, err := r.ResolveRef("refs/heads/feature")
	if err != nil {
		t.Fatalf("ResolveRef(feature): %v", err)
	}
	if got != headHash {
		t.Fatalf("feature ref = %s, want %s", got, headHash)
	}
}

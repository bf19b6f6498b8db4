package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
)

// Checkout switches the working directory to the state of the target.
// The target can be a branch name or a raw commit hash.
//
// Algorithm:
//  1. Resolve target: try as branch name first, then as raw hash.
//  2. Read the target commit, flatten its tree.
//  3. Remove all files tracked by the current HEAD commit.
//  4. Write all files from the target tree to the working directory.
//  5. Update HEAD (symbolic ref for branch, raw hash for detached).
func (r *Repo) Checkout(target string) error {
	// 1. Resolve target.
	isBranch := false
	var targetHash object.Hash

	// Try as branch name first.
	if branchHash, err := r.ResolveRef("refs/heads/" + target); err == nil {
		targetHash = branchHash
		isBranch = true
	} else {
		// Try as raw hash.
		h, err := object.ParseHash(target)
		if err != nil {
			return fmt.Errorf("checkout: %q is not a branch or commit hash", target)
		}
		targetHash = h
	}

	// 2. Read the target commit and flatten its tree.
	commit, err := r.Store.ReadCommit(targetHash)
	if err != nil {
		return fmt.Errorf("checkout: cannot read commit %s: %w", targetHash, err)
	}

	targetFiles, err := r.FlattenTree(commit.Tree)
	if err != nil {
		return fmt.Errorf("checkout: flatten target tree: %w", err)
	}

	// 3. Remove files tracked by the current HEAD commit. A fresh repo has
	// no resolvable HEAD and nothing to remove.
	if headHash, err := r.ResolveRef("HEAD"); err == nil {
		if err := r.removeTrackedFiles(headHash); err != nil {
			return fmt.Errorf("checkout: %w", err)
		}
	}

	// 4. Write all files from the target tree.
	for _, f := range targetFiles {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(f.Path))

		dir := filepath.Dir(absPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("checkout: mkdir %q: %w", dir, err)
		}

		blob, err := r.Store.ReadBlob(f.Hash)
		if err != nil {
			return fmt.Errorf("checkout: read blob for %q: %w", f.Path, err)
		}

		if err := os.WriteFile(absPath, []byte(blob.Content), filePermFromMode(f.Mode)); err != nil {
			return fmt.Errorf("checkout: write %q: %w", f.Path, err)
		}
	}

	// 5. Update HEAD.
	headPath := filepath.Join(r.GritDir, "HEAD")
	var headContent string
	if isBranch {
		headContent = "ref: refs/heads/" + target + "\n"
	} else {
		headContent = targetHash.String() + "\n"
	}
	if err := os.WriteFile(headPath, []byte(headContent), 0o644); err != nil {
		return fmt.Errorf("checkout: update HEAD: %w", err)
	}

	return nil
}

// removeTrackedFiles deletes every file the given commit's tree tracks,
// cleaning up directories it empties along the way.
func (r *Repo) removeTrackedFiles(commitHash object.Hash) error {
	commit, err := r.Store.ReadCommit(commitHash)
	if err != nil {
		return fmt.Errorf("read current commit %s: %w", commitHash, err)
	}
	files, err := r.FlattenTree(commit.Tree)
	if err != nil {
		return fmt.Errorf("flatten current tree: %w", err)
	}

	for _, f := range files {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(f.Path))
		if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %q: %w", f.Path, err)
		}
		r.removeEmptyParents(filepath.Dir(absPath))
	}
	return nil
}

// removeEmptyParents removes empty directories up to (but not including)
// the repository root.
func (r *Repo) removeEmptyParents(dir string) {
	for {
		// Never remove the repo root itself.
		if dir == r.RootDir || !strings.HasPrefix(dir, r.RootDir) {
			return
		}

		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}

		os.Remove(dir)
		dir = filepath.Dir(dir)
	}
}

package repo

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
)

// Commit snapshots the working directory and records it as a new commit.
//
//  1. WriteTree snapshots the worktree into tree objects
//  2. Resolve HEAD to get the parent commit hash (if any)
//  3. Build the commit with tree, parent, identity, message
//  4. Write the commit to the store
//  5. Advance the current branch ref (CAS against the parent)
func (r *Repo) Commit(message string, author object.Signature) (object.Hash, error) {
	treeHash, err := r.WriteTree()
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit: %w", err)
	}

	// Resolve HEAD to get the parent. A failed resolve means the branch
	// has no commits yet.
	var parent *object.Hash
	if parentHash, err := r.ResolveRef("HEAD"); err == nil && !parentHash.IsZero() {
		parent = &parentHash
	}

	commit := &object.Commit{
		Tree:      treeHash,
		Parent:    parent,
		Author:    author,
		Committer: author,
		Message:   normalizeMessage(message),
	}

	commitHash, err := r.Store.Write(commit)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit: write commit: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit: read HEAD: %w", err)
	}

	// head is either a ref path ("refs/heads/main") or a detached hash.
	if strings.HasPrefix(head, "refs/") {
		expectedOld := object.ZeroHash
		if parent != nil {
			expectedOld = *parent
		}
		if err := r.UpdateRefCAS(head, commitHash, expectedOld); err != nil {
			return object.ZeroHash, fmt.Errorf("commit: update ref %q: %w", head, err)
		}
	} else {
		// Detached HEAD: update HEAD directly with a CAS against the old hash.
		oldHead, err := object.ParseHash(head)
		if err != nil {
			return object.ZeroHash, fmt.Errorf("commit: detached HEAD: %w", err)
		}
		if err := r.UpdateRefCAS("HEAD", commitHash, oldHead); err != nil {
			return object.ZeroHash, fmt.Errorf("commit: update detached HEAD: %w", err)
		}
	}

	return commitHash, nil
}

// normalizeMessage guarantees a non-empty message ends with a newline.
func normalizeMessage(message string) string {
	if message != "" && !strings.HasSuffix(message, "\n") {
		return message + "\n"
	}
	return message
}

// LogEntry pairs a commit with the hash it is stored under.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.Commit
}

// Log walks the commit history starting from the given hash, following
// parent links, returning commits in reverse-chronological order (newest
// first). A limit of zero or less means no limit.
func (r *Repo) Log(start object.Hash, limit int) ([]LogEntry, error) {
	var entries []LogEntry
	current := start

	for limit <= 0 || len(entries) < limit {
		c, err := r.Store.ReadCommit(current)
		if err != nil {
			// If we can't read the commit (e.g., doesn't exist), stop.
			if errors.Is(err, os.ErrNotExist) {
				break
			}
			return nil, fmt.Errorf("log: read commit %s: %w", current, err)
		}
		entries = append(entries, LogEntry{Hash: current, Commit: c})

		if c.Parent == nil {
			break
		}
		current = *c.Parent
	}

	return entries, nil
}

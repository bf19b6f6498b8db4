package repo

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/odvcencio/grit/pkg/object"
)

// TreeFileEntry represents a single file in a flattened tree.
type TreeFileEntry struct {
	Path string
	Mode uint32
	Hash object.Hash
}

// WriteTree snapshots the working directory into blob and tree objects and
// returns the root tree hash. An empty working directory snapshots to the
// empty tree.
func (r *Repo) WriteTree() (object.Hash, error) {
	h, ok, err := r.snapshotDir(r.RootDir)
	if err != nil {
		return object.ZeroHash, err
	}
	if !ok {
		return r.Store.Write(&object.Tree{})
	}
	return h, nil
}

// snapshotDir writes the tree object for dir and everything under it,
// returning the tree hash. Directory entries are taken in sorted listing
// order. The .grit directory and irregular entries (symlinks, devices) are
// skipped; a directory with nothing storable in it reports ok=false and is
// left out of its parent.
func (r *Repo) snapshotDir(dir string) (object.Hash, bool, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return object.ZeroHash, false, fmt.Errorf("snapshot %q: %w", dir, err)
	}

	var entries []object.TreeEntry
	for _, de := range dirents {
		name := de.Name()
		if name == gritDirName {
			continue
		}
		full := filepath.Join(dir, name)

		switch {
		case de.IsDir():
			subHash, ok, err := r.snapshotDir(full)
			if err != nil {
				return object.ZeroHash, false, err
			}
			if !ok {
				continue
			}
			entries = append(entries, object.TreeEntry{
				Mode: object.TreeModeDir,
				Name: name,
				Hash: subHash,
			})
		case de.Type().IsRegular():
			info, err := de.Info()
			if err != nil {
				return object.ZeroHash, false, fmt.Errorf("snapshot %q: %w", full, err)
			}
			data, err := os.ReadFile(full)
			if err != nil {
				return object.ZeroHash, false, fmt.Errorf("snapshot %q: %w", full, err)
			}
			blob, err := object.NewBlobFromBytes(data)
			if err != nil {
				return object.ZeroHash, false, fmt.Errorf("snapshot %q: %w", full, err)
			}
			blobHash, err := r.Store.Write(blob)
			if err != nil {
				return object.ZeroHash, false, err
			}
			entries = append(entries, object.TreeEntry{
				Mode: modeFromFileInfo(info),
				Name: name,
				Hash: blobHash,
			})
		}
	}

	if len(entries) == 0 {
		return object.ZeroHash, false, nil
	}
	h, err := r.Store.Write(&object.Tree{Entries: entries})
	if err != nil {
		return object.ZeroHash, false, err
	}
	return h, true, nil
}

// FlattenTree walks a tree object recursively, returning all file entries
// with their full paths (using forward slashes).
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	return r.flattenTreeRec(h, "")
}

func (r *Repo) flattenTreeRec(h object.Hash, prefix string) ([]TreeFileEntry, error) {
	tree, err := r.Store.ReadTree(h)
	if err != nil {
		return nil, fmt.Errorf("flatten tree: read %s: %w", h, err)
	}

	var result []TreeFileEntry
	for _, entry := range tree.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = path.Join(prefix, entry.Name)
		}

		if entry.IsDir() {
			sub, err := r.flattenTreeRec(entry.Hash, fullPath)
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
		} else {
			result = append(result, TreeFileEntry{
				Path: fullPath,
				Mode: entry.Mode,
				Hash: entry.Hash,
			})
		}
	}
	return result, nil
}

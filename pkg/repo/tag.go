package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
)

// CreateTag creates a lightweight tag ref under refs/tags/. An existing tag
// is only overwritten when force is set.
func (r *Repo) CreateTag(name string, target object.Hash, force bool) error {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	if target.IsZero() {
		return fmt.Errorf("create tag: target hash is required")
	}

	refName := "refs/tags/" + name
	if !force {
		if _, err := r.ResolveRef(refName); err == nil {
			return fmt.Errorf("create tag: tag %q already exists", name)
		}
	}
	if err := r.UpdateRef(refName, target); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// DeleteTag removes a tag ref from refs/tags/.
func (r *Repo) DeleteTag(name string) error {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	refPath := filepath.Join(r.GritDir, "refs", "tags", filepath.FromSlash(name))
	if err := os.Remove(refPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("delete tag: tag %q does not exist", name)
		}
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// ResolveTag resolves a tag name under refs/tags/.
func (r *Repo) ResolveTag(name string) (object.Hash, error) {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return object.ZeroHash, fmt.Errorf("resolve tag: %w", err)
	}
	return r.ResolveRef("refs/tags/" + name)
}

// ListTags lists tag names sorted alphabetically.
func (r *Repo) ListTags() ([]string, error) {
	refs, err := r.ListRefs("tags")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	names := make([]string, 0, len(refs))
	for full := range refs {
		name := strings.TrimPrefix(full, "tags/")
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ListTagsWithHashes returns tag name -> target hash.
func (r *Repo) ListTagsWithHashes() (map[string]object.Hash, error) {
	refs, err := r.ListRefs("tags")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	out := make(map[string]object.Hash, len(refs))
	for full, hash := range refs {
		name := strings.TrimPrefix(full, "tags/")
		out[name] = hash
	}
	return out, nil
}

func validateTagName(name string) error {
	if name == "" {
		return fmt.Errorf("tag name is required")
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fmt.Errorf("invalid tag name %q", name)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("invalid tag name %q", name)
	}
	if strings.ContainsAny(name, " \t\n\r") {
		return fmt.Errorf("invalid tag name %q", name)
	}
	return nil
}

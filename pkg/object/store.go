package object

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zlib"
)

// Store is a content-addressed loose-object store. Objects live under a
// two-character fan-out layout, objects/ab/cdef0123..., as the
// zlib-compressed full encoding ("type len\0" + body).
type Store struct {
	root string
}

// NewStore returns a Store rooted at the given directory. The objects/
// subtree is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) objectPath(h Hash) string {
	hx := h.String()
	return filepath.Join(s.root, "objects", hx[:2], hx[2:])
}

// Has reports whether the store already holds an object with the given
// hash.
func (s *Store) Has(h Hash) bool {
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Write stores an object and returns its content hash. Identical content
// hits the existing file and is not rewritten. Writes are atomic: the
// compressed bytes go to a temp file in the final directory which is then
// renamed into place.
func (s *Store) Write(o Object) (Hash, error) {
	raw := EncodeObject(o)
	h := HashBytes(raw)

	if s.Has(h) {
		return h, nil
	}

	hx := h.String()
	dir := filepath.Join(s.root, "objects", hx[:2])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Hash{}, fmt.Errorf("object write %s: %w", h, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return Hash{}, fmt.Errorf("object write %s: %w", h, err)
	}
	tmpName := tmp.Name()

	zw := zlib.NewWriter(tmp)
	if _, err := zw.Write(raw); err != nil {
		zw.Close()
		tmp.Close()
		os.Remove(tmpName)
		return Hash{}, fmt.Errorf("object write %s: compress: %w", h, err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return Hash{}, fmt.Errorf("object write %s: compress: %w", h, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return Hash{}, fmt.Errorf("object write %s: %w", h, err)
	}

	if err := os.Rename(tmpName, s.objectPath(h)); err != nil {
		os.Remove(tmpName)
		return Hash{}, fmt.Errorf("object write %s: %w", h, err)
	}
	return h, nil
}

// readRaw loads and decompresses the stored encoding for h.
func (s *Store) readRaw(h Hash) ([]byte, error) {
	f, err := os.Open(s.objectPath(h))
	if err != nil {
		return nil, fmt.Errorf("object read %s: %w", h, err)
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("object read %s: decompress: %w", h, err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("object read %s: decompress: %w", h, err)
	}
	return raw, nil
}

// Read retrieves an object by hash, returning its type and body with the
// storage envelope validated and stripped.
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	raw, err := s.readRaw(h)
	if err != nil {
		return "", nil, err
	}
	objType, body, err := parseObjectEnvelope(raw)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	return objType, body, nil
}

// ReadObject retrieves and decodes an object by hash.
func (s *Store) ReadObject(h Hash) (Object, error) {
	raw, err := s.readRaw(h)
	if err != nil {
		return nil, err
	}
	o, err := DecodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("object read %s: %w", h, err)
	}
	return o, nil
}

// ---------------------------------------------------------------------------
// Typed reads
// ---------------------------------------------------------------------------

// ReadBlob reads an object and asserts it is a blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	o, err := s.ReadObject(h)
	if err != nil {
		return nil, err
	}
	b, ok := o.(*Blob)
	if !ok {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, o.Type(), TypeBlob)
	}
	return b, nil
}

// ReadTree reads an object and asserts it is a tree.
func (s *Store) ReadTree(h Hash) (*Tree, error) {
	o, err := s.ReadObject(h)
	if err != nil {
		return nil, err
	}
	t, ok := o.(*Tree)
	if !ok {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, o.Type(), TypeTree)
	}
	return t, nil
}

// ReadCommit reads an object and asserts it is a commit.
func (s *Store) ReadCommit(h Hash) (*Commit, error) {
	o, err := s.ReadObject(h)
	if err != nil {
		return nil, err
	}
	c, ok := o.(*Commit)
	if !ok {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, o.Type(), TypeCommit)
	}
	return c, nil
}

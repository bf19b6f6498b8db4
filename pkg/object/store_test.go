package object

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zlib"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func TestStoreWriteRead(t *testing.T) {
	s := newTestStore(t)

	h, err := s.Write(NewBlob("stored content\n"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	b, err := s.ReadBlob(h)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if b.Content != "stored content\n" {
		t.Errorf("content: got %q", b.Content)
	}

	objType, body, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if objType != TypeBlob {
		t.Errorf("type: got %s, want %s", objType, TypeBlob)
	}
	if string(body) != "stored content\n" {
		t.Errorf("body: got %q", body)
	}
}

func TestStoreFanOutLayout(t *testing.T) {
	s := newTestStore(t)

	h, err := s.Write(NewBlob("fan out\n"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	hx := h.String()
	path := filepath.Join(s.root, "objects", hx[:2], hx[2:])
	if _, err := os.Stat(path); err != nil {
		t.Errorf("object file not at fan-out path %s: %v", path, err)
	}
}

func TestStoreWriteIdempotent(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Write(NewBlob("same bytes"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	second, err := s.Write(NewBlob("same bytes"))
	if err != nil {
		t.Fatalf("second Write: %v", err)
	}
	if first != second {
		t.Errorf("hashes differ: %s vs %s", first, second)
	}

	hx := first.String()
	dir := filepath.Join(s.root, "objects", hx[:2])
	names, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(names) != 1 {
		t.Errorf("fan-out dir holds %d files, want 1", len(names))
	}
}

func TestStoreHas(t *testing.T) {
	s := newTestStore(t)

	h, err := s.Write(NewBlob("present"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !s.Has(h) {
		t.Error("Has: stored object not found")
	}
	if s.Has(mustParseHash(t, "0123456789012345678901234567890123456789")) {
		t.Error("Has: reported a missing object")
	}
}

func TestStoreReadMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ReadObject(mustParseHash(t, "0123456789012345678901234567890123456789"))
	if err == nil {
		t.Fatal("expected error for missing object")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist, got %v", err)
	}
}

func TestStoreTypedReadMismatch(t *testing.T) {
	s := newTestStore(t)

	h, err := s.Write(NewBlob("not a commit"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := s.ReadCommit(h); err == nil || !strings.Contains(err.Error(), "type mismatch") {
		t.Errorf("ReadCommit on blob: got %v, want type mismatch", err)
	}
	if _, err := s.ReadTree(h); err == nil || !strings.Contains(err.Error(), "type mismatch") {
		t.Errorf("ReadTree on blob: got %v, want type mismatch", err)
	}
	if _, err := s.ReadBlob(h); err != nil {
		t.Errorf("ReadBlob on blob: %v", err)
	}
}

func TestStoreOnDiskBytesAreCompressed(t *testing.T) {
	s := newTestStore(t)

	b := NewBlob("compressed on disk\n")
	h, err := s.Write(b)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := os.Open(s.objectPath(h))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		t.Fatalf("zlib.NewReader: %v", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(raw, EncodeObject(b)) {
		t.Errorf("decompressed bytes: got %q, want %q", raw, EncodeObject(b))
	}
}

func TestStoreRoundTripsAllKinds(t *testing.T) {
	s := newTestStore(t)

	blobHash, err := s.Write(NewBlob("file body\n"))
	if err != nil {
		t.Fatalf("write blob: %v", err)
	}

	tree := &Tree{Entries: []TreeEntry{{Mode: TreeModeFile, Name: "file.txt", Hash: blobHash}}}
	treeHash, err := s.Write(tree)
	if err != nil {
		t.Fatalf("write tree: %v", err)
	}

	commit := &Commit{
		Tree:      treeHash,
		Author:    testSignature(1700000000),
		Committer: testSignature(1700000000),
		Message:   "snapshot\n",
	}
	commitHash, err := s.Write(commit)
	if err != nil {
		t.Fatalf("write commit: %v", err)
	}

	gotTree, err := s.ReadTree(treeHash)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	if gotTree.Entries[0].Hash != blobHash {
		t.Errorf("tree entry hash: got %s, want %s", gotTree.Entries[0].Hash, blobHash)
	}

	gotCommit, err := s.ReadCommit(commitHash)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	if gotCommit.Tree != treeHash {
		t.Errorf("commit tree: got %s, want %s", gotCommit.Tree, treeHash)
	}
	if gotCommit.Message != "snapshot\n" {
		t.Errorf("commit message: got %q", gotCommit.Message)
	}

	o, err := s.ReadObject(commitHash)
	if err != nil {
		t.Fatalf("ReadObject: %v", err)
	}
	if _, ok := o.(*Commit); !ok {
		t.Errorf("ReadObject kind: got %T, want *Commit", o)
	}
}

func TestStoreWriteMatchesObjectID(t *testing.T) {
	s := newTestStore(t)

	b := NewBlob("addressed\n")
	h, err := s.Write(b)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if want := ObjectID(b); h != want {
		t.Errorf("stored hash %s, ObjectID %s", h, want)
	}
	if want := HashObject(TypeBlob, []byte(b.Content)); h != want {
		t.Errorf("stored hash %s, HashObject %s", h, want)
	}
}

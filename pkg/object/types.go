package object

import (
	"encoding/hex"
	"fmt"
)

// Hash is a raw 20-byte SHA-1 digest identifying an object.
type Hash [20]byte

// ZeroHash is the all-zero hash, used where "no object" must be spelled
// out on disk (reflog entries for newly created refs).
var ZeroHash Hash

// String renders the hash as 40 lowercase hex characters.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is the all-zero value.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// ParseHash parses a 40-character hex string into a Hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	if len(s) != 40 {
		return h, fmt.Errorf("parse hash %q: want 40 hex characters, got %d", s, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("parse hash %q: %w", s, err)
	}
	copy(h[:], raw)
	return h, nil
}

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
)

const (
	// Tree mode constants. The values are the decimal reading of the
	// canonical mode strings, so %d formatting reproduces them exactly.
	TreeModeDir        uint32 = 40000
	TreeModeFile       uint32 = 100644
	TreeModeExecutable uint32 = 100755
)

// Object is the closed union over the three object kinds. Only Blob, Tree,
// and Commit implement it; callers dispatch with a type switch.
type Object interface {
	Type() ObjectType
	isObject()
}

// Blob holds a file's literal text. Size always equals len(Content).
type Blob struct {
	Size    int
	Content string
}

// NewBlob wraps content in a Blob, recording its byte length.
func NewBlob(content string) *Blob {
	return &Blob{Size: len(content), Content: content}
}

// NewBlobFromBytes builds a Blob from raw content bytes; no header is
// expected on the input. It fails if the bytes are not valid text.
func NewBlobFromBytes(raw []byte) (*Blob, error) {
	return decodeBlobContent(raw)
}

func (b *Blob) Type() ObjectType { return TypeBlob }
func (b *Blob) isObject()        {}

// TreeEntry is one row of a tree: a mode, a name, and the raw hash of the
// child object. Name must be non-empty and free of null bytes.
type TreeEntry struct {
	Mode uint32
	Name string
	Hash Hash
}

// IsDir reports whether the entry points at a subtree.
func (e TreeEntry) IsDir() bool { return e.Mode == TreeModeDir }

// Tree is an ordered sequence of entries. The codec preserves entry order;
// builders that want stable hashes must feed entries in a fixed order.
type Tree struct {
	Entries []TreeEntry
}

func (t *Tree) Type() ObjectType { return TypeTree }
func (t *Tree) isObject()        {}

// Signature is one author-or-committer identity line: display name, email,
// unix timestamp, and the UTC offset in minutes east of UTC. The offset is
// kept only to reconstruct the ±HHMM token, never for comparison.
type Signature struct {
	Name      string
	Email     string
	Timestamp int64
	TZOffset  int
}

// Commit links a tree into history: an optional single parent (nil for a
// root commit), author and committer identities, and a free-text message.
type Commit struct {
	Tree      Hash
	Parent    *Hash
	Author    Signature
	Committer Signature
	Message   string
}

func (c *Commit) Type() ObjectType { return TypeCommit }
func (c *Commit) isObject()        {}

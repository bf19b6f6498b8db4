package object

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Storage envelope
// ---------------------------------------------------------------------------

// objectEnvelope prepends the "type len\0" storage header to a body.
func objectEnvelope(objType ObjectType, body []byte) []byte {
	out := make([]byte, 0, len(body)+16)
	out = append(out, fmt.Sprintf("%s %d\x00", objType, len(body))...)
	return append(out, body...)
}

// parseObjectEnvelope splits "type len\0body", checking the declared length
// against the actual body length.
func parseObjectEnvelope(data []byte) (ObjectType, []byte, error) {
	nulIdx := bytes.IndexByte(data, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("object envelope: missing NUL terminator")
	}
	header := string(data[:nulIdx])
	body := data[nulIdx+1:]

	typ, lenText, ok := strings.Cut(header, " ")
	if !ok {
		return "", nil, fmt.Errorf("object envelope: invalid header %q", header)
	}
	length, err := strconv.Atoi(lenText)
	if err != nil {
		return "", nil, fmt.Errorf("object envelope: invalid length %q: %w", lenText, err)
	}
	if len(body) != length {
		return "", nil, fmt.Errorf("object envelope: length mismatch (header=%d, actual=%d)", length, len(body))
	}
	return ObjectType(typ), body, nil
}

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to its canonical "blob {size}\0{content}"
// bytes.
func MarshalBlob(b *Blob) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "blob %d\x00", b.Size)
	buf.WriteString(b.Content)
	return buf.Bytes()
}

// UnmarshalBlob parses the header-prefixed form produced by MarshalBlob.
// The declared size must match the content length and the content must be
// valid text.
func UnmarshalBlob(data []byte) (*Blob, error) {
	objType, body, err := parseObjectEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal blob: %w", err)
	}
	if objType != TypeBlob {
		return nil, fmt.Errorf("unmarshal blob: unexpected type %q", objType)
	}
	b, err := decodeBlobContent(body)
	if err != nil {
		return nil, fmt.Errorf("unmarshal blob: %w", err)
	}
	return b, nil
}

// decodeBlobContent interprets the whole buffer as blob content.
func decodeBlobContent(raw []byte) (*Blob, error) {
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("blob content is not valid UTF-8")
	}
	return &Blob{Size: len(raw), Content: string(raw)}, nil
}

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// MarshalTree serializes a Tree: each entry as "{mode} {name}\0" plus its
// raw 20-byte hash, in entry order, prefixed with a "tree {bodylen}\0"
// header whose length counts only the concatenated entries.
func MarshalTree(t *Tree) []byte {
	var body bytes.Buffer
	for _, e := range t.Entries {
		fmt.Fprintf(&body, "%d %s\x00", e.Mode, e.Name)
		body.Write(e.Hash[:])
	}
	return objectEnvelope(TypeTree, body.Bytes())
}

// UnmarshalTree parses the header-prefixed form produced by MarshalTree.
func UnmarshalTree(data []byte) (*Tree, error) {
	objType, body, err := parseObjectEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal tree: %w", err)
	}
	if objType != TypeTree {
		return nil, fmt.Errorf("unmarshal tree: unexpected type %q", objType)
	}
	entries, err := decodeTreeEntries(body)
	if err != nil {
		return nil, fmt.Errorf("unmarshal tree: %w", err)
	}
	return &Tree{Entries: entries}, nil
}

// decodeTreeEntries walks the tree body with an explicit cursor. A NUL ends
// each "{mode} {name}" header; the 20 bytes after it are the entry hash and
// are skipped wholesale, so hash bytes that happen to contain NULs cannot
// confuse the framing.
func decodeTreeEntries(body []byte) ([]TreeEntry, error) {
	var entries []TreeEntry
	rest := body
	for len(rest) > 0 {
		nulIdx := bytes.IndexByte(rest, 0)
		if nulIdx < 0 {
			return nil, fmt.Errorf("entry %d: header not NUL-terminated", len(entries))
		}
		if len(rest) < nulIdx+1+20 {
			return nil, fmt.Errorf("entry %d: truncated hash (%d bytes left, want 20)", len(entries), len(rest)-nulIdx-1)
		}
		entry, err := ParseTreeEntry(rest[:nulIdx], rest[nulIdx+1:nulIdx+1+20])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", len(entries), err)
		}
		entries = append(entries, entry)
		rest = rest[nulIdx+1+20:]
	}
	return entries, nil
}

// ParseTreeEntry parses one entry from its "{mode} {name}" header bytes and
// its raw 20-byte hash.
func ParseTreeEntry(header, hash []byte) (TreeEntry, error) {
	if !utf8.Valid(header) {
		return TreeEntry{}, fmt.Errorf("tree entry header is not valid UTF-8")
	}
	modeText, name, ok := strings.Cut(string(header), " ")
	if !ok || name == "" {
		return TreeEntry{}, fmt.Errorf("tree entry header %q: want \"mode name\"", header)
	}
	mode, err := strconv.ParseUint(modeText, 10, 32)
	if err != nil {
		return TreeEntry{}, fmt.Errorf("tree entry mode %q: %w", modeText, err)
	}
	if len(hash) != 20 {
		return TreeEntry{}, fmt.Errorf("tree entry hash: want 20 bytes, got %d", len(hash))
	}
	e := TreeEntry{Mode: uint32(mode), Name: name}
	copy(e.Hash[:], hash)
	return e, nil
}

// ---------------------------------------------------------------------------
// Signature
// ---------------------------------------------------------------------------

// NewSignature builds an identity stamped with the current time and local
// UTC offset. Bytes that would corrupt the line format are stripped from
// name and email; values assembled directly into the struct are the
// caller's obligation.
func NewSignature(name, email string) Signature {
	now := time.Now()
	_, offsetSeconds := now.Zone()
	return Signature{
		Name:      sanitizeIdent(name),
		Email:     sanitizeIdent(email),
		Timestamp: now.Unix(),
		TZOffset:  offsetSeconds / 60,
	}
}

func sanitizeIdent(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '\n', '\x00':
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// String renders the canonical identity line:
//
//	{name} <{email}> {unix_seconds} {±HHMM}
func (s Signature) String() string {
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.Timestamp, formatTZOffset(s.TZOffset))
}

// ParseSignature parses an identity line. The name is everything before the
// first '<' with surrounding whitespace trimmed; the remainder splits into
// an email token, a unix timestamp, and a ±HHMM offset.
func ParseSignature(data []byte) (Signature, error) {
	if !utf8.Valid(data) {
		return Signature{}, fmt.Errorf("parse signature: not valid UTF-8")
	}
	line := string(data)

	lt := strings.IndexByte(line, '<')
	if lt < 0 {
		return Signature{}, fmt.Errorf("parse signature %q: missing email", line)
	}
	name := strings.TrimSpace(line[:lt])

	parts := strings.SplitN(line[lt:], " ", 3)
	if len(parts) != 3 {
		return Signature{}, fmt.Errorf("parse signature %q: want email, timestamp, offset", line)
	}
	email := strings.TrimSuffix(strings.TrimPrefix(parts[0], "<"), ">")

	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("parse signature timestamp %q: %w", parts[1], err)
	}
	offset, err := parseTZOffset(parts[2])
	if err != nil {
		return Signature{}, fmt.Errorf("parse signature offset %q: %w", parts[2], err)
	}

	return Signature{Name: name, Email: email, Timestamp: ts, TZOffset: offset}, nil
}

// parseTZOffset reads a ±HHMM token into minutes east of UTC. The hundreds
// component is hours and the tens/units component minutes, with the sign
// carried through: -0500 is five hours west.
func parseTZOffset(token string) (int, error) {
	v, err := strconv.Atoi(token)
	if err != nil {
		return 0, err
	}
	return (v/100)*60 + v%100, nil
}

func formatTZOffset(minutes int) string {
	sign := "+"
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%02d%02d", sign, minutes/60, minutes%60)
}

// ---------------------------------------------------------------------------
// Commit
// ---------------------------------------------------------------------------

// MarshalCommit serializes a Commit to its line-oriented canonical form,
// which carries no storage envelope of its own:
//
//	tree H
//	parent H    (omitted for a root commit)
//	author A
//	committer C
//
//	message
func MarshalCommit(c *Commit) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.Tree)
	if c.Parent != nil {
		fmt.Fprintf(&buf, "parent %s\n", c.Parent)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// UnmarshalCommit parses the canonical commit form. Lines are consumed in
// strict order; the optional parent line is handled with one line of
// lookahead, so a missing parent leaves the line in place to be read as the
// author line.
func UnmarshalCommit(data []byte) (*Commit, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("unmarshal commit: not valid UTF-8")
	}
	lines := strings.Split(string(data), "\n")
	i := 0

	if i >= len(lines) || !strings.HasPrefix(lines[i], "tree ") {
		return nil, fmt.Errorf("unmarshal commit: missing tree line")
	}
	tree, err := ParseHash(strings.TrimPrefix(lines[i], "tree "))
	if err != nil {
		return nil, fmt.Errorf("unmarshal commit: tree ref: %w", err)
	}
	i++

	c := &Commit{Tree: tree}

	if i < len(lines) && strings.HasPrefix(lines[i], "parent ") {
		parent, err := ParseHash(strings.TrimPrefix(lines[i], "parent "))
		if err != nil {
			return nil, fmt.Errorf("unmarshal commit: parent ref: %w", err)
		}
		c.Parent = &parent
		i++
	}

	if i >= len(lines) || !strings.HasPrefix(lines[i], "author ") {
		return nil, fmt.Errorf("unmarshal commit: missing author line")
	}
	c.Author, err = ParseSignature([]byte(strings.TrimPrefix(lines[i], "author ")))
	if err != nil {
		return nil, fmt.Errorf("unmarshal commit: author: %w", err)
	}
	i++

	if i >= len(lines) || !strings.HasPrefix(lines[i], "committer ") {
		return nil, fmt.Errorf("unmarshal commit: missing committer line")
	}
	c.Committer, err = ParseSignature([]byte(strings.TrimPrefix(lines[i], "committer ")))
	if err != nil {
		return nil, fmt.Errorf("unmarshal commit: committer: %w", err)
	}
	i++

	// The blank separator is consumed as a delimiter, never kept in the
	// message.
	if i < len(lines) && lines[i] == "" {
		i++
	}
	c.Message = strings.Join(lines[i:], "\n")
	return c, nil
}

// ---------------------------------------------------------------------------
// Object union
// ---------------------------------------------------------------------------

// EncodeObject produces the full stored encoding ("type len\0" + body) for
// any object kind.
func EncodeObject(o Object) []byte {
	switch v := o.(type) {
	case *Blob:
		return MarshalBlob(v)
	case *Tree:
		return MarshalTree(v)
	case *Commit:
		return objectEnvelope(TypeCommit, MarshalCommit(v))
	default:
		panic(fmt.Sprintf("object: unhandled kind %T", o))
	}
}

// DecodeObject parses a stored encoding into the matching variant.
func DecodeObject(data []byte) (Object, error) {
	objType, body, err := parseObjectEnvelope(data)
	if err != nil {
		return nil, err
	}
	switch objType {
	case TypeBlob:
		b, err := decodeBlobContent(body)
		if err != nil {
			return nil, fmt.Errorf("decode blob: %w", err)
		}
		return b, nil
	case TypeTree:
		entries, err := decodeTreeEntries(body)
		if err != nil {
			return nil, fmt.Errorf("decode tree: %w", err)
		}
		return &Tree{Entries: entries}, nil
	case TypeCommit:
		return UnmarshalCommit(body)
	default:
		return nil, fmt.Errorf("decode object: unknown type %q", objType)
	}
}

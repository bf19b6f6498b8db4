package object

import (
	"crypto/sha1"
	"fmt"
)

// HashBytes computes the raw SHA-1 digest of data.
func HashBytes(data []byte) Hash {
	return Hash(sha1.Sum(data))
}

// HashObject computes the id an object with the given type and body would
// be stored under: the SHA-1 of "type len\0" followed by the body.
func HashObject(objType ObjectType, body []byte) Hash {
	h := sha1.New()
	fmt.Fprintf(h, "%s %d\x00", objType, len(body))
	h.Write(body)
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// ObjectID computes an object's content address: the SHA-1 of its full
// stored encoding. Commits hash with the envelope included, exactly like
// blobs and trees, even though MarshalCommit alone does not produce one.
func ObjectID(o Object) Hash {
	return HashBytes(EncodeObject(o))
}

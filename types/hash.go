package types

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashSize is the size of a chain hash in bytes.
const HashSize = sha256.Size

// Hash is the fixed-size digest identifying headers and blocks.
type Hash [HashSize]byte

// BytesToHash copies b into a Hash. If b is longer than HashSize it is
// truncated, if shorter the remaining bytes are zero.
func BytesToHash(b []byte) Hash {
	var h Hash
	copy(h[:], b)
	return h
}

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte { return h[:] }

// IsZero reports whether the hash is the zero value.
func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns an abbreviated hex form of the hash for log output.
func (h Hash) Short() string {
	return hex.EncodeToString(h[:3])
}

package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Header is a chain block header. Only the fields the download pipeline needs
// are modeled; consensus-specific fields live with the import pipeline.
type Header struct {
	ParentHash Hash
	StateRoot  Hash
	TxRoot     Hash
	Number     uint64
	Time       uint64
	Extra      []byte
}

// Hash returns the digest of the header's canonical encoding.
func (h *Header) Hash() Hash {
	var buf bytes.Buffer
	buf.Write(h.ParentHash[:])
	buf.Write(h.StateRoot[:])
	buf.Write(h.TxRoot[:])

	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], h.Number)
	buf.Write(scratch[:])
	binary.BigEndian.PutUint64(scratch[:], h.Time)
	buf.Write(scratch[:])

	buf.Write(h.Extra)
	return sha256.Sum256(buf.Bytes())
}

func (h *Header) String() string {
	return fmt.Sprintf("#%d (%s)", h.Number, h.Hash().Short())
}

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderHashDeterministic(t *testing.T) {
	h := &Header{
		ParentHash: BytesToHash([]byte("parent")),
		Number:     42,
		Time:       1700000000,
		Extra:      []byte("extra"),
	}

	require.Equal(t, h.Hash(), h.Hash())

	other := *h
	other.Number = 43
	assert.NotEqual(t, h.Hash(), other.Hash())

	other = *h
	other.ParentHash = BytesToHash([]byte("other parent"))
	assert.NotEqual(t, h.Hash(), other.Hash())
}

func TestHashHelpers(t *testing.T) {
	var zero Hash
	assert.True(t, zero.IsZero())

	h := BytesToHash([]byte{0xde, 0xad, 0xbe, 0xef})
	assert.False(t, h.IsZero())
	assert.Equal(t, "deadbe", h.Short())
	assert.Len(t, h.String(), HashSize*2)
}

func TestBlockSize(t *testing.T) {
	b := &Block{
		Header: &Header{Number: 7},
		Body:   Body{Transactions: [][]byte{{1, 2, 3}, {4, 5}}},
	}
	assert.Equal(t, 5, b.Size())
	assert.Equal(t, uint64(7), b.Number())
	assert.Equal(t, b.Header.Hash(), b.Hash())
}

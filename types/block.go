package types

// Body holds the transactions carried by a block.
type Body struct {
	Transactions [][]byte
}

// Block pairs a header with its body.
type Block struct {
	Header *Header
	Body   Body
}

// Number returns the block's height.
func (b *Block) Number() uint64 { return b.Header.Number }

// Hash returns the hash of the block's header.
func (b *Block) Hash() Hash { return b.Header.Hash() }

// Size returns the approximate byte size of the block's payload.
func (b *Block) Size() int {
	size := 0
	for _, tx := range b.Body.Transactions {
		size += len(tx)
	}
	return size
}

func (b *Block) String() string { return b.Header.String() }

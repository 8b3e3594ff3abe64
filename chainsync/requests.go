package chainsync

import "github.com/emberchain/ember/types"

// HeaderRangeRequest describes a unit of header-fetch work: a contiguous or
// strided run of headers anchored either at a block number or at a hash.
type HeaderRangeRequest struct {
	Start   uint64
	Hash    types.Hash // anchor hash; zero means anchored by number
	Count   int
	Step    int // headers skipped between results when anchored by hash
	Reverse bool
}

// ByHash reports whether the request is anchored at a hash.
func (r HeaderRangeRequest) ByHash() bool { return !r.Hash.IsZero() }

// HeaderEnvelope is a validated header together with the identity of the
// peer that supplied it.
type HeaderEnvelope struct {
	Header *types.Header
	Origin PeerID
}

// BlockEnvelope is a fetched block together with the identity of the peer
// that supplied it.
type BlockEnvelope struct {
	Block  *types.Block
	Origin PeerID
}

// BodyBatchRequest describes a unit of body-fetch work: an ordered run of
// headers whose bodies still need fetching.
type BodyBatchRequest struct {
	Headers []HeaderEnvelope
}

// Empty reports whether the batch holds no headers.
func (r BodyBatchRequest) Empty() bool { return len(r.Headers) == 0 }

// Split breaks the batch into chunks of at most size headers, preserving
// order. The chunks share the batch's backing array.
func (r BodyBatchRequest) Split(size int) []BodyBatchRequest {
	if size <= 0 || r.Empty() {
		return nil
	}

	chunks := make([]BodyBatchRequest, 0, (len(r.Headers)+size-1)/size)
	for start := 0; start < len(r.Headers); start += size {
		end := min(start+size, len(r.Headers))
		chunks = append(chunks, BodyBatchRequest{Headers: r.Headers[start:end]})
	}
	return chunks
}

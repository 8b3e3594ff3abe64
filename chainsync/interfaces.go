package chainsync

import (
	"context"

	"github.com/emberchain/ember/types"
)

// PeerID uniquely identifies a connected peer. It is stable for the lifetime
// of the peer's connection.
type PeerID string

// Peer is a connected remote endpoint the engine can request headers and
// block bodies from. Requests block until the response arrives, the context
// is canceled, or the peer's transport gives up; the engine always issues
// them from dedicated goroutines.
type Peer interface {
	ID() PeerID

	// RequestHeadersByNumber fetches a contiguous run of headers anchored at
	// a block number.
	RequestHeadersByNumber(ctx context.Context, start uint64, amount int, reverse bool) ([]*types.Header, error)

	// RequestHeadersByHash fetches a run of headers anchored at a block hash,
	// with skip headers between consecutive results.
	RequestHeadersByHash(ctx context.Context, start types.Hash, amount, skip int, reverse bool) ([]*types.Header, error)

	// RequestBodies fetches the block bodies for the given headers.
	RequestBodies(ctx context.Context, headers []HeaderEnvelope) ([]*types.Block, error)

	// Disconnect drops the peer's connection.
	Disconnect()
}

// PeerPool hands out idle peers. Membership, scoring and connection lifecycle
// are the pool's concern; the engine only selects and commands peers.
type PeerPool interface {
	// AnyIdle returns an idle peer chosen without preference, or nil if all
	// peers are busy.
	AnyIdle() Peer

	// BestIdle returns the highest-scored idle peer, or nil if all peers are
	// busy.
	BestIdle() Peer

	// ByID returns the peer with the given ID if it is still connected.
	ByID(id PeerID) Peer

	// Close disconnects all peers.
	Close()
}

// WorkQueue tracks which header ranges and block bodies still need fetching,
// reassembles out-of-order responses into delivery-ready sequences, and
// deduplicates already-seen data.
//
// Implementations must be safe for concurrent use: both retrieval loops
// reserve work while response goroutines commit results.
type WorkQueue interface {
	// PendingHeaderCount returns the number of headers the queue is tracking.
	PendingHeaderCount() int

	// ReserveHeaderRanges returns up to maxRequests header range requests of
	// at most maxSpan headers each. An empty result means no header work
	// remains.
	ReserveHeaderRanges(maxSpan, maxRequests int) []HeaderRangeRequest

	// ReserveBodyBatch returns up to maxHeaders headers whose bodies still
	// need fetching. An empty batch means no body work remains.
	ReserveBodyBatch(maxHeaders int) BodyBatchRequest

	// CommitHeaders ingests validated headers and returns the subsequence
	// that is now ready for delivery, possibly out of submission order.
	CommitHeaders(headers []HeaderEnvelope) []HeaderEnvelope

	// CommitBlocks ingests fetched blocks and returns the newly accepted
	// ones, with duplicates filtered out.
	CommitBlocks(blocks []*types.Block) []*types.Block
}

// HeaderValidator runs structural checks against a header before it enters
// the work queue.
type HeaderValidator interface {
	Validate(header *types.Header) bool

	// LastErrors describes the failures of the most recent Validate call,
	// for diagnostics only.
	LastErrors() string
}

// ImportSink is the downstream consumer of delivered headers and blocks.
type ImportSink interface {
	// PushHeaders hands over headers the work queue judged ready.
	PushHeaders(headers []HeaderEnvelope)

	// PushBlocks hands over newly accepted blocks.
	PushBlocks(blocks []BlockEnvelope)

	// BlockQueueFree returns the free capacity of the block import queue.
	BlockQueueFree() int

	// DownloadFinished is called exactly once when the download completes.
	DownloadFinished()
}

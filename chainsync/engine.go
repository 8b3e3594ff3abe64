// Package chainsync drives the acquisition of chain headers and block bodies
// from a pool of remote peers. Two independent retrieval loops keep a bounded
// pipeline of in-flight requests busy: one polls the work queue for header
// ranges, the other for block bodies. Responses arrive asynchronously on
// per-request goroutines and are ingested under a single critical section so
// queue mutation and downstream delivery appear atomic to the import
// pipeline.
package chainsync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emberchain/ember/libs/log"
	"github.com/emberchain/ember/libs/service"
	embersync "github.com/emberchain/ember/libs/sync"
	"github.com/emberchain/ember/types"
)

const (
	// maxHeadersInRequest caps the number of headers or bodies in a single
	// request.
	maxHeadersInRequest = 192

	// maxConcurrentRequests caps the number of requests dispatched per loop
	// iteration.
	maxConcurrentRequests = 32

	// directFetchThreshold is the body batch size at or below which bodies
	// are additionally requested straight from the peers that supplied the
	// headers. The header sender is likely to already have the body, so the
	// extra in-flight duplicates buy latency on small batches.
	directFetchThreshold = 3
)

var (
	// fetchPollTimeout bounds how long a loop sleeps on its gate between
	// iterations. Not const so tests can override.
	fetchPollTimeout = 2 * time.Second

	// steadyPollTimeout replaces fetchPollTimeout for the header loop once
	// sync is nearly complete and fewer concurrent peers are expected.
	steadyPollTimeout = 10 * time.Second
)

// Engine schedules header range and block body requests against idle peers
// and feeds validated results to the import sink. It runs until stopped or
// until the work queue reports both downloads drained.
type Engine struct {
	service.BaseService

	cfg       Config
	queue     WorkQueue
	peers     PeerPool
	validator HeaderValidator
	sink      ImportSink
	metrics   *Metrics

	// syncComplete reports whether the node considers itself near the chain
	// tip. Injected; defaults to never.
	syncComplete func() bool

	ctx    context.Context
	cancel context.CancelFunc

	// ingestMtx serializes response ingestion: work queue commits and the
	// downstream push must appear atomic across both response streams. It
	// never covers network I/O or peer selection.
	ingestMtx embersync.Mutex

	headerGate atomic.Pointer[Gate]
	blockGate  atomic.Pointer[Gate]

	headersComplete  atomic.Bool
	downloadComplete atomic.Bool
	completeOnce     sync.Once

	loopWg    sync.WaitGroup
	requestWg sync.WaitGroup
}

// Option sets an optional parameter on the Engine.
type Option func(*Engine)

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(e *Engine) { e.metrics = metrics }
}

// WithSyncCompleteFn injects the predicate reporting whether the node is near
// the chain tip. It drives the header loop's longer steady-state wait and, if
// Config.PreferBestNearTip is set, the preferred-peer selector.
func WithSyncCompleteFn(fn func() bool) Option {
	return func(e *Engine) { e.syncComplete = fn }
}

// NewEngine returns an unstarted download engine. Non-positive config limits
// are replaced with defaults.
func NewEngine(
	cfg Config,
	queue WorkQueue,
	peers PeerPool,
	validator HeaderValidator,
	sink ImportSink,
	options ...Option,
) *Engine {
	if cfg.HeaderQueueLimit <= 0 {
		cfg.HeaderQueueLimit = DefaultHeaderQueueLimit
	}
	if cfg.BlockQueueLimit <= 0 {
		cfg.BlockQueueLimit = DefaultBlockQueueLimit
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		cfg:          cfg,
		queue:        queue,
		peers:        peers,
		validator:    validator,
		sink:         sink,
		metrics:      NopMetrics(),
		syncComplete: func() bool { return false },
		ctx:          ctx,
		cancel:       cancel,
	}
	e.headerGate.Store(NewGate(0))
	e.blockGate.Store(NewGate(0))
	e.BaseService = *service.NewBaseService(nil, "Engine", e)

	for _, option := range options {
		option(e)
	}
	return e
}

// OnStart implements service.Service by spawning the retrieval loops.
func (e *Engine) OnStart() error {
	e.Logger.Info("Starting chain download",
		"headers", e.cfg.DownloadHeaders,
		"bodies", e.cfg.DownloadBodies,
		"headerQueueLimit", e.cfg.HeaderQueueLimit)
	e.metrics.Syncing.Set(1)

	if e.cfg.DownloadHeaders {
		e.loopWg.Add(1)
		go func() {
			defer e.loopWg.Done()
			e.headerRetrieveLoop()
		}()
	} else {
		// Body download alone must be able to terminate once the queue
		// drains.
		e.headersComplete.Store(true)
	}

	if e.cfg.DownloadBodies {
		e.loopWg.Add(1)
		go func() {
			defer e.loopWg.Done()
			e.blockRetrieveLoop()
		}()
	}

	return nil
}

// OnStop implements service.Service. It returns only after both retrieval
// loops and all in-flight response goroutines have exited; Quit() is the
// earlier "stop was requested" notification.
func (e *Engine) OnStop() {
	e.cancel()
	e.loopWg.Wait()
	e.requestWg.Wait()
	e.metrics.Syncing.Set(0)
}

// Close disconnects all peers and stops the engine.
func (e *Engine) Close() {
	e.peers.Close()
	if err := e.Stop(); err != nil && !errors.Is(err, service.ErrAlreadyStopped) {
		e.Logger.Error("Error stopping engine", "err", err)
	}
}

// IsDownloadComplete reports whether the download finished. Once true it
// never reverts.
func (e *Engine) IsDownloadComplete() bool {
	return e.downloadComplete.Load()
}

// SetLogger implements service.Service.
func (e *Engine) SetLogger(l log.Logger) {
	e.Logger = l
}

//---------------------------------------------------------------------------
// header retrieval

func (e *Engine) headerRetrieveLoop() {
	var pending []HeaderRangeRequest
	for {
		var done bool
		pending, done = e.headerIteration(pending)
		if done {
			return
		}

		timeout := fetchPollTimeout
		if e.syncComplete() {
			timeout = steadyPollTimeout
		}
		if !e.headerGate.Load().Wait(timeout, e.Quit()) {
			return
		}
	}
}

// headerIteration runs one pass of the header loop: back off if the queue is
// at capacity, otherwise fan the pending header ranges out to idle peers and
// arm the gate for the next wait. Ranges that found no peer are carried over
// to the next iteration so no request is lost and order is preserved.
// Returns done=true when header download has completed.
func (e *Engine) headerIteration(pending []HeaderRangeRequest) (remaining []HeaderRangeRequest, done bool) {
	if e.queue.PendingHeaderCount() >= e.cfg.HeaderQueueLimit {
		e.Logger.Debug("Header queue at limit", "limit", e.cfg.HeaderQueueLimit)
		e.headerGate.Store(NewGate(1))
		return pending, false
	}

	if len(pending) == 0 {
		pending = e.queue.ReserveHeaderRanges(maxHeadersInRequest, maxConcurrentRequests)
	}
	if len(pending) == 0 {
		e.Logger.Info("Header download complete")
		e.headersComplete.Store(true)
		if !e.cfg.DownloadBodies {
			e.finishDownload()
		}
		return nil, true
	}

	dispatched := 0
	for len(pending) > 0 {
		peer := e.pickIdlePeer()
		if peer == nil {
			e.Logger.Debug("No idle peers for header request", "queued", len(pending))
			break
		}
		e.dispatchHeaders(peer, pending[0])
		pending = pending[1:]
		dispatched++
	}
	e.metrics.HeaderRequests.Add(float64(dispatched))

	// A quarter of the dispatched requests completing is enough to re-poll;
	// waiting for all of them would stall the loop on a single slow peer.
	e.headerGate.Store(NewGate(max(dispatched/4, 1)))
	return pending, false
}

// dispatchHeaders fires an asynchronous header request. The continuation
// ingests the response or, on failure, drops the peer.
func (e *Engine) dispatchHeaders(peer Peer, req HeaderRangeRequest) {
	e.Logger.Debug("Requesting headers",
		"peer", peer.ID(), "start", req.Start, "count", req.Count, "byHash", req.ByHash())

	e.requestWg.Add(1)
	go func() {
		defer e.requestWg.Done()

		var (
			headers []*types.Header
			err     error
		)
		if req.ByHash() {
			headers, err = peer.RequestHeadersByHash(e.ctx, req.Hash, req.Count, req.Step, req.Reverse)
		} else {
			headers, err = peer.RequestHeadersByNumber(e.ctx, req.Start, req.Count, req.Reverse)
		}
		if err != nil {
			e.dropPeer(peer, "Error receiving headers", err)
			return
		}
		if !e.ingestHeaders(headers, peer.ID()) {
			e.dropPeer(peer, "Received headers failed validation", nil)
		}
	}()
}

//---------------------------------------------------------------------------
// block retrieval

func (e *Engine) blockRetrieveLoop() {
	for {
		if e.blockIteration() {
			return
		}
		if !e.blockGate.Load().Wait(fetchPollTimeout, e.Quit()) {
			return
		}
	}
}

// blockIteration runs one pass of the block loop: back off if the import
// queue has no room for a full request, otherwise reserve a body batch sized
// to the free capacity and fan it out. Unlike header ranges, chunks that
// found no peer are not cached; the queue re-offers them on a later reserve.
// Returns true when block download has completed.
func (e *Engine) blockIteration() bool {
	free := e.sink.BlockQueueFree()
	if free <= maxHeadersInRequest {
		e.Logger.Debug("Block import queue full", "free", free)
		e.blockGate.Store(NewGate(1))
		return false
	}

	maxRequests := min(free/maxHeadersInRequest, maxConcurrentRequests)
	batch := e.queue.ReserveBodyBatch(maxRequests * maxHeadersInRequest)

	if batch.Empty() && e.headersComplete.Load() {
		e.Logger.Info("Block download complete")
		e.finishDownload()
		return true
	}

	if len(batch.Headers) <= directFetchThreshold {
		// Near the tip bodies are better requested from the header senders
		// first, for more chances to receive them promptly. The batch is
		// still covered by the general dispatch below.
		for _, env := range batch.Headers {
			if peer := e.peers.ByID(env.Origin); peer != nil {
				e.dispatchBodies(peer, BodyBatchRequest{Headers: []HeaderEnvelope{env}})
			}
		}
	}

	dispatched := 0
	for _, chunk := range batch.Split(maxHeadersInRequest) {
		peer := e.pickIdlePeer()
		if peer == nil {
			e.Logger.Debug("No idle peers for body request")
			break
		}
		e.dispatchBodies(peer, chunk)
		dispatched++
	}
	e.metrics.BodyRequests.Add(float64(dispatched))

	// Bodies cannot be partially trusted to resolve the backlog, so every
	// dispatched request must count before the gate opens.
	e.blockGate.Store(NewGate(max(dispatched, 1)))
	return false
}

// dispatchBodies fires an asynchronous body request. The continuation ingests
// the returned blocks or, on failure, drops the peer.
func (e *Engine) dispatchBodies(peer Peer, req BodyBatchRequest) {
	e.Logger.Debug("Requesting bodies", "peer", peer.ID(), "count", len(req.Headers))

	e.requestWg.Add(1)
	go func() {
		defer e.requestWg.Done()

		blocks, err := peer.RequestBodies(e.ctx, req.Headers)
		if err != nil {
			e.dropPeer(peer, "Error receiving blocks", err)
			return
		}
		e.ingestBlocks(blocks, peer.ID())
	}()
}

//---------------------------------------------------------------------------
// response ingestion

// ingestHeaders validates headers received from a peer and hands them to the
// work queue as a unit. The first validation failure aborts the whole call
// with no partial mutation; the caller treats that as a peer failure. Headers
// the queue judges ready for delivery are pushed downstream inside the same
// critical section as block ingestion.
func (e *Engine) ingestHeaders(headers []*types.Header, origin PeerID) bool {
	if len(headers) == 0 {
		e.headerGate.Load().Release()
		return true
	}

	envelopes := make([]HeaderEnvelope, 0, len(headers))
	for _, header := range headers {
		if !e.validator.Validate(header) {
			e.metrics.ValidationFailures.Add(1)
			e.Logger.Debug("Invalid header",
				"header", header, "origin", origin, "errs", e.validator.LastErrors())
			return false
		}
		envelopes = append(envelopes, HeaderEnvelope{Header: header, Origin: origin})
	}

	e.ingestMtx.Lock()
	ready := e.queue.CommitHeaders(envelopes)
	if len(ready) > 0 {
		e.sink.PushHeaders(ready)
	}
	e.ingestMtx.Unlock()

	e.headerGate.Load().Release()
	e.metrics.HeadersFetched.Add(float64(len(headers)))
	e.Logger.Debug("Headers added", "count", len(headers), "ready", len(ready), "origin", origin)
	return true
}

// ingestBlocks hands blocks received from a peer to the work queue and pushes
// the newly accepted ones downstream, wrapped with provenance. Runs under the
// same critical section as header ingestion.
func (e *Engine) ingestBlocks(blocks []*types.Block, origin PeerID) {
	if len(blocks) == 0 {
		return
	}

	e.ingestMtx.Lock()
	accepted := e.queue.CommitBlocks(blocks)
	envelopes := make([]BlockEnvelope, 0, len(accepted))
	for _, block := range accepted {
		envelopes = append(envelopes, BlockEnvelope{Block: block, Origin: origin})
	}
	e.sink.PushBlocks(envelopes)
	e.ingestMtx.Unlock()

	e.blockGate.Load().Release()
	e.metrics.BlocksFetched.Add(float64(len(accepted)))
	e.Logger.Debug("Blocks added",
		"received", len(blocks), "accepted", len(accepted), "origin", origin)
}

//---------------------------------------------------------------------------
// peers, completion

// pickIdlePeer selects an idle peer for dispatch. During active multi-peer
// sync an arbitrary idle peer spreads load; near the tip, when configured,
// the highest-scored one is preferred since fewer peers are needed and
// determinism is acceptable.
func (e *Engine) pickIdlePeer() Peer {
	if e.cfg.PreferBestNearTip && e.syncComplete() {
		if peer := e.peers.BestIdle(); peer != nil {
			return peer
		}
	}
	return e.peers.AnyIdle()
}

// dropPeer disconnects a peer after a failed or invalid response. The lost
// unit of work is not retried here; the work queue re-offers it on a later
// reserve.
func (e *Engine) dropPeer(peer Peer, reason string, err error) {
	if err != nil && errors.Is(err, context.Canceled) {
		return
	}
	e.Logger.Debug(reason+"; dropping the peer", "peer", peer.ID(), "err", err)
	e.metrics.PeerDrops.Add(1)
	peer.Disconnect()
}

// finishDownload flips the completion flag and notifies the sink, exactly
// once regardless of which loop terminates first.
func (e *Engine) finishDownload() {
	e.completeOnce.Do(func() {
		e.downloadComplete.Store(true)
		e.metrics.Syncing.Set(0)
		e.sink.DownloadFinished()
	})
}

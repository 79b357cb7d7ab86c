// Package sync owns reconciliation between the in-memory repository, the
// local persistent cache and the remote store. Every mutation persists
// locally at once; remote pushes ride a debounce window; pulls replace the
// working set wholly; the shared-clip inbox drains with merge-before-delete,
// at-least-once.
package sync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"secondbrain-backend/application/repository"
	"secondbrain-backend/domain/events"
	"secondbrain-backend/domain/memory"
	"secondbrain-backend/infrastructure/persistence/localcache"
	"secondbrain-backend/infrastructure/remote"
	"secondbrain-backend/pkg/observability"
)

// Options tune the engine's timing. Zero values pick the defaults.
type Options struct {
	// DebounceWindow is the quiet period after the last mutation before a
	// remote push goes out.
	DebounceWindow time.Duration

	// PollInterval is how often the inbox is polled for the pending count.
	PollInterval time.Duration

	// RemoteTimeout bounds each remote call.
	RemoteTimeout time.Duration
}

func (o *Options) applyDefaults() {
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = 2 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 30 * time.Second
	}
	if o.RemoteTimeout <= 0 {
		o.RemoteTimeout = 15 * time.Second
	}
}

// Engine keeps local and remote state eventually consistent. All
// dependencies are constructor-injected; lifecycle is Start/Close.
type Engine struct {
	repo    *repository.Repository
	cache   localcache.DocumentCache
	store   remote.Store
	inbox   remote.Inbox
	logger  *zap.Logger
	metrics *observability.Collector
	opts    Options

	debouncer *Debouncer
	pushing   atomic.Bool
	pending   atomic.Int64

	mu     sync.Mutex
	syncID string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine wires an engine; nothing runs until Start.
func NewEngine(
	repo *repository.Repository,
	cache localcache.DocumentCache,
	store remote.Store,
	inbox remote.Inbox,
	metrics *observability.Collector,
	logger *zap.Logger,
	opts Options,
) *Engine {
	opts.applyDefaults()
	return &Engine{
		repo:      repo,
		cache:     cache,
		store:     store,
		inbox:     inbox,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
		debouncer: NewDebouncer(opts.DebounceWindow),
	}
}

// Start hydrates the repository from the local cache, subscribes to
// repository changes, pulls if a syncId is already known, and starts the
// inbox poller. The cache hydration happens before any network activity so
// the UI is usable offline with last-known data.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	doc, err := e.cache.Load(e.ctx)
	if err != nil {
		// Load already degrades corruption to empty; anything else is still
		// non-fatal per the bootstrap contract.
		e.logger.Warn("local cache load failed, starting empty", zap.Error(err))
		doc = memory.EmptyDocument()
	}
	e.repo.ReplaceAll(doc)

	e.repo.Subscribe(e.onEvent)

	if id := e.SyncID(); id != "" {
		e.Pull(e.ctx)
	}

	e.wg.Add(1)
	go e.pollLoop()

	e.logger.Info("sync engine started",
		zap.Duration("debounceWindow", e.opts.DebounceWindow),
		zap.Duration("pollInterval", e.opts.PollInterval),
	)
	return nil
}

// Close stops the poller and cancels any pending debounced push. An
// in-flight push is not aborted; it finishes or times out on its own.
func (e *Engine) Close() error {
	if e.cancel != nil {
		e.cancel()
	}
	e.debouncer.Stop()
	e.wg.Wait()
	return nil
}

// SyncID returns the active sync identity, empty in local-only mode
func (e *Engine) SyncID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncID
}

// SetSyncID switches the sync identity and pulls the new document. An empty
// id switches to local-only mode: pulls and pushes are simply not attempted.
func (e *Engine) SetSyncID(ctx context.Context, id string) {
	e.mu.Lock()
	changed := e.syncID != id
	e.syncID = id
	e.mu.Unlock()

	if changed && id != "" {
		e.Pull(ctx)
	}
}

// Pull fetches the remote document and replaces the repository and local
// cache with it. The remote is authoritative on pull: no merge with pending
// local edits. Failures keep existing state and are logged only.
func (e *Engine) Pull(ctx context.Context) {
	syncID := e.SyncID()
	if syncID == "" {
		return
	}

	e.metrics.Pulls.Inc()
	callCtx, cancel := context.WithTimeout(ctx, e.opts.RemoteTimeout)
	defer cancel()

	doc, err := e.store.Fetch(callCtx, syncID)
	if err != nil {
		e.metrics.PullFailures.Inc()
		e.logger.Warn("pull failed, keeping local state", zap.Error(err))
		return
	}

	// ReplaceAll publishes DocumentReplaced, which writes the cache without
	// feeding back into a push.
	e.repo.ReplaceAll(doc)
	e.logger.Info("pulled remote document",
		zap.Int("memories", len(doc.Memories)),
		zap.Int("courses", len(doc.Courses)),
	)
}

// onEvent is the repository subscriber: local cache write on every change,
// debounced remote push on local edits only.
func (e *Engine) onEvent(ev events.DomainEvent) {
	switch ev.(type) {
	case events.TaskChanged:
		// Tasks live outside the sync document.
		return
	case events.DocumentReplaced:
		e.persistLocal()
		return
	default:
		e.persistLocal()
		if e.SyncID() != "" {
			e.debouncer.Schedule(e.push)
		}
	}
}

// persistLocal writes the current document to the local cache. This runs
// synchronously on the mutating call path: every mutation persists locally
// regardless of network state.
func (e *Engine) persistLocal() {
	ctx := e.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	e.metrics.CacheWrites.Inc()
	if err := e.cache.Store(ctx, e.repo.Document()); err != nil {
		e.metrics.CacheWriteErrors.Inc()
		e.logger.Error("local cache write failed", zap.Error(err))
	}
}

// push sends the current document to the remote store. Concurrent fires are
// suppressed by an in-flight guard: a timer firing while a push runs exits
// early and relies on the next debounce cycle to carry the latest state.
// Back-to-back pushes are therefore not strictly serialized; only eventual
// convergence to the latest state is guaranteed.
func (e *Engine) push() {
	syncID := e.SyncID()
	if syncID == "" {
		return
	}
	if !e.pushing.CompareAndSwap(false, true) {
		e.metrics.PushSkipped.Inc()
		e.logger.Debug("push already in flight, skipping")
		return
	}
	defer e.pushing.Store(false)

	ctx, cancel := context.WithTimeout(e.ctx, e.opts.RemoteTimeout)
	defer cancel()

	start := time.Now()
	doc := e.repo.Document()
	err := e.store.Replace(ctx, syncID, doc)
	e.metrics.ObservePush(start, err)
	if err != nil {
		// No retry here; the next mutation's debounce is the retry.
		e.logger.Warn("push failed", zap.Error(err))
		return
	}

	e.logger.Debug("pushed document",
		zap.Int("memories", len(doc.Memories)),
		zap.Duration("took", time.Since(start)),
	)
}

// Document snapshots the current syncable working set
func (e *Engine) Document() memory.SyncDocument {
	return e.repo.Document()
}

// PendingCount reports the number of clips seen waiting in the inbox at the
// last poll or drain.
func (e *Engine) PendingCount() int {
	return int(e.pending.Load())
}

// pollLoop refreshes the pending-clip count for UI badging
func (e *Engine) pollLoop() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.refreshPending()
		}
	}
}

func (e *Engine) refreshPending() {
	ctx, cancel := context.WithTimeout(e.ctx, e.opts.RemoteTimeout)
	defer cancel()

	clips, err := e.inbox.List(ctx)
	if err != nil {
		e.logger.Debug("inbox poll failed", zap.Error(err))
		return
	}
	e.setPending(len(clips))
}

func (e *Engine) setPending(n int) {
	e.pending.Store(int64(n))
	e.metrics.PendingClips.Set(float64(n))
}

// DrainInbox moves all pending clips into the repository and then deletes
// them from the inbox. The merge is applied locally before any delete is
// issued; a failed delete is left for the next cycle, which re-ingests the
// clip. That duplicate-on-retry is the documented at-least-once contract —
// the merge does not deduplicate by clip key.
func (e *Engine) DrainInbox(ctx context.Context) (int, error) {
	listCtx, cancel := context.WithTimeout(ctx, e.opts.RemoteTimeout)
	defer cancel()

	clips, err := e.inbox.List(listCtx)
	if err != nil {
		e.logger.Warn("inbox drain: list failed", zap.Error(err))
		return 0, err
	}
	if len(clips) == 0 {
		e.setPending(0)
		return 0, nil
	}

	now := time.Now()
	merged := make([]memory.Memory, 0, len(clips))
	for _, clip := range clips {
		merged = append(merged, memory.FromSharedClip(clip, now))
	}

	// Merge first. From here on the content is safe locally (the merge
	// event also triggers the cache write and a debounced push).
	e.repo.MergeMemories(merged)
	e.metrics.ClipsIngested.Add(float64(len(merged)))

	remaining := 0
	for _, clip := range clips {
		delCtx, cancel := context.WithTimeout(ctx, e.opts.RemoteTimeout)
		err := e.inbox.Delete(delCtx, clip.Key)
		cancel()
		if err != nil {
			// Not retried in this pass; the next drain picks it up again.
			remaining++
			e.metrics.ClipDeleteFailures.Inc()
			e.logger.Warn("inbox drain: delete failed",
				zap.String("key", clip.Key),
				zap.Error(err),
			)
		}
	}
	e.setPending(remaining)

	e.logger.Info("drained shared-clip inbox",
		zap.Int("ingested", len(merged)),
		zap.Int("remaining", remaining),
	)
	return len(merged), nil
}

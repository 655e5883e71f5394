package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vk/tfindex/internal/cache"
	"github.com/vk/tfindex/internal/config"
	"github.com/vk/tfindex/internal/ctxlog"
	"github.com/vk/tfindex/internal/fsutil"
	"github.com/vk/tfindex/internal/index"
	"github.com/vk/tfindex/internal/parser"
	"github.com/vk/tfindex/internal/update"
	"github.com/vk/tfindex/internal/watch"
)

// buildFunc is the full-build entry point. A field rather than a direct
// call so tests can substitute slow or failing builds.
type buildFunc func(ctx context.Context, paths []string, opts index.Options) (*index.Result, error)

// Session owns one indexing pipeline and its current ProjectIndex.
type Session struct {
	cfg      *config.Config
	cache    *cache.ParseCache
	builder  *index.Builder
	updater  *update.Updater
	build    buildFunc

	mu           sync.Mutex
	current      *index.ProjectIndex
	listeners    map[int]func(Event)
	nextListener int
	inflight     *inflightBuild
	// gen increments whenever a new build supersedes the pipeline. A build
	// may only install its result while its generation is still current, so
	// an abandoned build that eventually finishes cannot clobber a
	// successor's index.
	gen uint64

	// updateMu serializes incremental updates against each other.
	updateMu sync.Mutex
}

type inflightBuild struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a session from a validated config.
func New(cfg *config.Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}
	pc, err := cache.New(cfg.CacheMaxEntries, cfg.CacheMaxAge)
	if err != nil {
		return nil, fmt.Errorf("create parse cache: %w", err)
	}

	b := index.NewBuilder(parser.NewRegistry(), pc, cfg)
	s := &Session{
		cfg:       cfg,
		cache:     pc,
		builder:   b,
		updater:   update.NewUpdater(b, pc),
		current:   index.New(),
		listeners: make(map[int]func(Event)),
	}
	s.build = b.Build
	return s, nil
}

// Index returns the current index. Callers must treat it as a read-only
// snapshot; it is replaced wholesale by full builds and mutated in place by
// updates.
func (s *Session) Index() *index.ProjectIndex {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CacheStats exposes the parse cache counters.
func (s *Session) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// DiscoverFiles walks root for indexable configuration files, honoring the
// session's ignore configuration.
func (s *Session) DiscoverFiles(ctx context.Context, root string) ([]string, error) {
	return fsutil.FindConfigFiles(ctx, root, s.cfg)
}

// BuildIndex runs a full build synchronously and installs the result as the
// current index. Any in-flight async build is cancelled first.
func (s *Session) BuildIndex(ctx context.Context, paths []string, opts index.Options) (*index.Result, error) {
	s.cancelInflight(ctx)
	gen := s.newGeneration(nil)

	res, err := s.build(ctx, paths, opts)
	if res != nil && ctx.Err() == nil {
		s.install(res, gen)
	}
	return res, err
}

// Handle tracks one async build. Progress carries fire-and-forget updates
// and is closed on completion.
type Handle struct {
	Progress <-chan index.Progress

	done   chan struct{}
	mu     sync.Mutex
	result *index.Result
	err    error
}

// Done is closed when the build finished, failed, or was cancelled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result blocks until the build completes and returns its outcome. A
// cancelled build returns a nil result and nil error.
func (h *Handle) Result() (*index.Result, error) {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

func (h *Handle) finish(res *index.Result, err error) {
	h.mu.Lock()
	h.result = res
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// BuildIndexAsync starts a background build. A prior in-flight build is
// cancelled and awaited up to the configured cancel timeout; if it does not
// acknowledge in time it is abandoned, never reported as an error.
func (s *Session) BuildIndexAsync(ctx context.Context, paths []string, opts index.Options) *Handle {
	logger := ctxlog.FromContext(ctx)
	s.cancelInflight(ctx)

	progress := make(chan index.Progress, 64)
	h := &Handle{Progress: progress, done: make(chan struct{})}

	buildCtx, cancel := context.WithCancel(ctx)
	fl := &inflightBuild{cancel: cancel, done: make(chan struct{})}
	gen := s.newGeneration(fl)

	userProgress := opts.Progress
	opts.Progress = func(p index.Progress) {
		select {
		case progress <- p:
		default:
			// Fire-and-forget: a slow consumer loses updates, the build
			// never stalls on it.
		}
		if userProgress != nil {
			userProgress(p)
		}
	}

	go func() {
		defer close(fl.done)
		defer close(progress)
		defer cancel()

		res, err := s.build(buildCtx, paths, opts)
		if buildCtx.Err() != nil {
			logger.Debug("async build cancelled", "files", len(paths))
			h.finish(nil, nil)
			return
		}
		if res != nil {
			s.install(res, gen)
		}
		h.finish(res, err)
	}()

	return h
}

// Cancel requests cancellation of any in-flight async build and waits for
// it to wind down, bounded by the cancel timeout.
func (s *Session) Cancel(ctx context.Context) {
	s.cancelInflight(ctx)
}

// newGeneration marks the start of a build and records it as the in-flight
// one (fl may be nil for synchronous builds).
func (s *Session) newGeneration(fl *inflightBuild) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.inflight = fl
	return s.gen
}

func (s *Session) cancelInflight(ctx context.Context) {
	s.mu.Lock()
	fl := s.inflight
	s.inflight = nil
	s.mu.Unlock()

	if fl == nil {
		return
	}
	fl.cancel()
	select {
	case <-fl.done:
	case <-time.After(s.cfg.CancelTimeout):
		// No acknowledgment within the timeout: treat the build as
		// cancelled and move on. Its stale generation keeps it from
		// installing anything later.
		ctxlog.FromContext(ctx).Warn("abandoning unresponsive build after timeout",
			"timeout", s.cfg.CancelTimeout)
	}
}

// install makes a build result current, unless a newer build superseded the
// given generation, and publishes the events for it.
func (s *Session) install(res *index.Result, gen uint64) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.current = res.Index
	s.mu.Unlock()

	s.publish(Event{Kind: EventIndexBuilt, Stats: res.Stats})
	if len(res.ParseErrors) > 0 {
		s.publish(Event{Kind: EventParseErrors, Errors: res.ParseErrors})
	}
}

// ApplyBatch feeds one debounced change batch through the incremental
// updater against the current index and publishes the matching events.
func (s *Session) ApplyBatch(ctx context.Context, batch watch.Batch) (*update.Result, error) {
	if batch.Empty() {
		return &update.Result{}, nil
	}
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	s.mu.Lock()
	ix := s.current
	s.mu.Unlock()

	res, err := s.updater.Apply(ctx, ix, batch)

	if len(batch.Deleted) > 0 {
		s.publish(Event{Kind: EventFilesDeleted, Paths: batch.Deleted})
	}
	if len(batch.Created) > 0 {
		s.publish(Event{Kind: EventFilesAdded, Paths: batch.Created})
	}
	if len(batch.Changed) > 0 {
		s.publish(Event{Kind: EventFilesUpdated, Paths: batch.Changed})
	}
	if len(res.ParseErrors) > 0 {
		s.publish(Event{Kind: EventParseErrors, Errors: res.ParseErrors})
	}
	return res, err
}

// Debouncer returns a watch debouncer wired to ApplyBatch, using the
// session's configured quiet period. The caller owns its lifecycle.
func (s *Session) Debouncer(ctx context.Context) *watch.Debouncer {
	logger := ctxlog.FromContext(ctx)
	return watch.NewDebouncer(s.cfg.DebounceInterval, func(b watch.Batch) {
		if _, err := s.ApplyBatch(ctx, b); err != nil {
			logger.Warn("incremental update finished with errors", "error", err)
		}
	})
}

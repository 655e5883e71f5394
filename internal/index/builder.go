package index

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/vk/tfindex/internal/block"
	"github.com/vk/tfindex/internal/cache"
	"github.com/vk/tfindex/internal/config"
	"github.com/vk/tfindex/internal/ctxlog"
	"github.com/vk/tfindex/internal/parser"
	"github.com/vk/tfindex/internal/refs"
)

// Progress describes one unit of batch progress. Notifications are
// fire-and-forget; when the build runs on the worker pool the callback may
// be invoked from multiple goroutines.
type Progress struct {
	Processed   int
	Total       int
	CurrentFile string
}

// ProgressFunc receives progress notifications during a build.
type ProgressFunc func(Progress)

// Options controls a single Build invocation.
type Options struct {
	// UseCache routes parses through the ParseCache. Disabled builds always
	// parse fresh and leave the cache untouched.
	UseCache bool
	// ContinueOnError keeps the batch going past file-level parse failures.
	// When false the batch halts at the first failed file and returns the
	// partial index accumulated up to that point.
	ContinueOnError bool
	// ModulePath is attached to every parsed block, for batches rooted
	// inside a resolved module directory.
	ModulePath block.ModulePath
	// Progress, when set, is notified after each file completes.
	Progress ProgressFunc
}

// Stats aggregates the outcome of one build.
type Stats struct {
	FilesProcessed int
	ErrorFiles     int
	TotalBlocks    int
	CountsByKind   map[block.Kind]int
	CountsByFile   map[string]int
	StartedAt      time.Time
	FinishedAt     time.Time
	Duration       time.Duration
}

// Result is what Build returns: the index (possibly partial on a halted
// batch), build statistics, and every accumulated soft parse error.
type Result struct {
	Index       *ProjectIndex
	Stats       Stats
	ParseErrors []*block.ParseError
}

// Builder runs full batch builds. It is safe to reuse across builds but not
// to call concurrently; callers wanting overlap must serialize (see the
// session package).
type Builder struct {
	registry  *parser.Registry
	cache     *cache.ParseCache
	cfg       *config.Config
	extractor *refs.Extractor
}

// NewBuilder wires a builder from its collaborators. The cache may be nil,
// in which case every build parses fresh.
func NewBuilder(reg *parser.Registry, pc *cache.ParseCache, cfg *config.Config) *Builder {
	return &Builder{
		registry:  reg,
		cache:     pc,
		cfg:       cfg,
		extractor: refs.NewExtractor(),
	}
}

// fileOutcome holds the per-file result slot. Slots are filled in parallel
// but accumulated strictly in input order, so edge attribution stays
// deterministic regardless of pool scheduling.
type fileOutcome struct {
	path   string
	result *block.ParseResult
	err    error
}

// Build parses every path, assembles the index maps, and runs reference
// extraction. The returned error aggregates file-level failures; soft
// block-level errors live in Result.ParseErrors and never fail the build.
func (b *Builder) Build(ctx context.Context, paths []string, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	started := time.Now()

	outcomes := make([]*fileOutcome, len(paths))
	if len(paths) > b.cfg.WorkerThreshold {
		logger.Debug("building with worker pool",
			"files", len(paths), "threshold", b.cfg.WorkerThreshold, "parallelism", b.cfg.WorkerParallelism)
		b.runParallel(ctx, paths, opts, outcomes)
	} else {
		b.runSequential(ctx, paths, opts, outcomes)
	}

	res := &Result{Index: New()}
	res.Stats.CountsByKind = make(map[block.Kind]int)
	res.Stats.CountsByFile = make(map[string]int)
	res.Stats.StartedAt = started

	var errs *multierror.Error
	for _, out := range outcomes {
		if out == nil {
			// Slot never ran: the batch halted (or the context was
			// cancelled) before reaching it.
			continue
		}
		res.Stats.FilesProcessed++
		if out.err != nil {
			res.Stats.ErrorFiles++
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", out.path, out.err))
			res.ParseErrors = append(res.ParseErrors, &block.ParseError{
				Message: out.err.Error(),
				File:    out.path,
			})
			continue
		}
		res.Index.Blocks = append(res.Index.Blocks, out.result.Blocks...)
		for i := range out.result.Errors {
			res.ParseErrors = append(res.ParseErrors, &out.result.Errors[i])
		}
		res.Stats.CountsByFile[out.path] = len(out.result.Blocks)
		for _, blk := range out.result.Blocks {
			res.Stats.CountsByKind[blk.BlockKind]++
		}
	}

	res.Index.Remap()
	res.Index.Refs = b.extractor.Extract(ctx, res.Index.Blocks)

	res.Stats.TotalBlocks = len(res.Index.Blocks)
	res.Stats.FinishedAt = time.Now()
	res.Stats.Duration = res.Stats.FinishedAt.Sub(started)

	logger.Debug("build finished",
		"files", res.Stats.FilesProcessed,
		"blocks", res.Stats.TotalBlocks,
		"edges", len(res.Index.Refs),
		"error_files", res.Stats.ErrorFiles,
		"duration", res.Stats.Duration)

	return res, errs.ErrorOrNil()
}

// Parse runs only the per-file parse stage over paths: no index assembly,
// no map building, no reference extraction. The incremental updater uses it
// to reparse a changed subset. Failures are aggregated into the returned
// error; the batch always continues past them.
func (b *Builder) Parse(ctx context.Context, paths []string, opts Options) ([]*block.Block, []*block.ParseError, error) {
	opts.ContinueOnError = true
	outcomes := make([]*fileOutcome, len(paths))
	if len(paths) > b.cfg.WorkerThreshold {
		b.runParallel(ctx, paths, opts, outcomes)
	} else {
		b.runSequential(ctx, paths, opts, outcomes)
	}

	var blocks []*block.Block
	var parseErrs []*block.ParseError
	var errs *multierror.Error
	for _, out := range outcomes {
		if out == nil {
			continue
		}
		if out.err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", out.path, out.err))
			parseErrs = append(parseErrs, &block.ParseError{
				Message: out.err.Error(),
				File:    out.path,
			})
			continue
		}
		blocks = append(blocks, out.result.Blocks...)
		for i := range out.result.Errors {
			parseErrs = append(parseErrs, &out.result.Errors[i])
		}
	}
	return blocks, parseErrs, errs.ErrorOrNil()
}

func (b *Builder) runSequential(ctx context.Context, paths []string, opts Options, outcomes []*fileOutcome) {
	done := 0
	for i, p := range paths {
		if ctx.Err() != nil {
			return
		}
		out := b.processFile(p, opts)
		outcomes[i] = out
		done++
		notify(opts, done, len(paths), p)
		if out.err != nil && !opts.ContinueOnError {
			return
		}
	}
}

func (b *Builder) runParallel(ctx context.Context, paths []string, opts Options, outcomes []*fileOutcome) {
	g, ctx := errgroup.WithContext(ctx)
	limit := b.cfg.WorkerParallelism
	if limit <= 0 {
		// Zero means one worker per CPU; SetLimit(0) would block every
		// worker on the group's semaphore.
		limit = runtime.NumCPU()
	}
	g.SetLimit(limit)

	var mu sync.Mutex
	done := 0
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			out := b.processFile(p, opts)
			outcomes[i] = out

			mu.Lock()
			done++
			d := done
			mu.Unlock()
			notify(opts, d, len(paths), p)

			if out.err != nil && !opts.ContinueOnError {
				// Cancels the group; in-flight files finish, unstarted
				// slots stay nil.
				return out.err
			}
			return nil
		})
	}
	// The first failure is re-reported during accumulation.
	_ = g.Wait()
}

func (b *Builder) processFile(path string, opts Options) *fileOutcome {
	out := &fileOutcome{path: path}

	if opts.UseCache && b.cache != nil {
		if cached := b.cache.Get(path); cached != nil {
			out.result = cached
			return out
		}
	}

	p, ok := b.registry.ParserFor(path)
	if !ok {
		out.err = fmt.Errorf("no parser registered for %q", path)
		return out
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		out.err = fmt.Errorf("reading file: %w", err)
		return out
	}

	popts := parser.OptionsFrom(b.cfg)
	popts.ModulePath = opts.ModulePath
	result, err := p.Parse(path, string(raw), popts)
	if err != nil {
		out.err = err
		return out
	}

	if opts.UseCache && b.cache != nil {
		b.cache.Set(path, result)
	}
	out.result = result
	return out
}

func notify(opts Options, processed, total int, current string) {
	if opts.Progress == nil {
		return
	}
	opts.Progress(Progress{Processed: processed, Total: total, CurrentFile: current})
}

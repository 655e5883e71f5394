package update

import (
	"context"

	"github.com/vk/tfindex/internal/block"
	"github.com/vk/tfindex/internal/cache"
	"github.com/vk/tfindex/internal/ctxlog"
	"github.com/vk/tfindex/internal/index"
	"github.com/vk/tfindex/internal/refs"
	"github.com/vk/tfindex/internal/watch"
)

// Result summarizes one applied batch.
type Result struct {
	RemovedBlocks int
	AddedBlocks   int
	Reparsed      []string
	Deleted       []string
	ParseErrors   []*block.ParseError
}

// Updater mutates a ProjectIndex in place from watch batches. It shares the
// builder's parse stage (and therefore the parse cache) with full builds.
// Not safe for concurrent use with anything else touching the same index.
type Updater struct {
	builder   *index.Builder
	cache     *cache.ParseCache
	extractor *refs.Extractor
}

// NewUpdater wires an updater around the given builder. The cache may be
// nil when builds run uncached.
func NewUpdater(b *index.Builder, pc *cache.ParseCache) *Updater {
	return &Updater{
		builder:   b,
		cache:     pc,
		extractor: refs.NewExtractor(),
	}
}

// Apply processes one debounced batch against ix. Deletions run first, then
// changed and created files are reparsed through the cache (changed paths
// are pre-evicted so the reparse cannot hit a stale entry). The lookup maps
// and the edge list are rebuilt from scratch afterwards. Parse failures are
// aggregated into the returned error; the update itself still completes.
func (u *Updater) Apply(ctx context.Context, ix *index.ProjectIndex, batch watch.Batch) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	res := &Result{Deleted: batch.Deleted}

	removed := ix.DropFiles(batch.Deleted)
	res.RemovedBlocks += len(removed)
	if u.cache != nil {
		for _, p := range batch.Deleted {
			u.cache.Evict(p)
		}
		for _, p := range batch.Changed {
			u.cache.Evict(p)
		}
	}

	reparse := make([]string, 0, len(batch.Changed)+len(batch.Created))
	reparse = append(reparse, batch.Changed...)
	reparse = append(reparse, batch.Created...)
	res.Reparsed = reparse

	var err error
	if len(reparse) > 0 {
		// Prior blocks for reparsed files are discarded wholesale, never
		// patched.
		res.RemovedBlocks += len(ix.DropFiles(reparse))

		var blocks []*block.Block
		blocks, res.ParseErrors, err = u.builder.Parse(ctx, reparse, index.Options{UseCache: u.cache != nil})
		ix.Blocks = append(ix.Blocks, blocks...)
		res.AddedBlocks = len(blocks)
	}

	ix.Remap()
	ix.Refs = u.extractor.Extract(ctx, ix.Blocks)

	logger.Debug("incremental update applied",
		"deleted", len(batch.Deleted),
		"reparsed", len(reparse),
		"removed_blocks", res.RemovedBlocks,
		"added_blocks", res.AddedBlocks,
		"blocks", ix.Len(),
		"edges", len(ix.Refs))

	return res, err
}

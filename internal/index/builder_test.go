package index

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/tfindex/internal/block"
	"github.com/vk/tfindex/internal/cache"
	"github.com/vk/tfindex/internal/config"
	"github.com/vk/tfindex/internal/parser"
	"github.com/vk/tfindex/internal/refs"
	"github.com/vk/tfindex/internal/testutil"
)

func writeProject(t *testing.T, files map[string]string) (string, []string) {
	t.Helper()
	root := t.TempDir()
	return root, testutil.WriteTree(t, root, files)
}

func newTestBuilder(t *testing.T, cfg *config.Config) *Builder {
	t.Helper()
	pc, err := cache.New(cfg.CacheMaxEntries, cfg.CacheMaxAge)
	require.NoError(t, err)
	return NewBuilder(parser.NewRegistry(), pc, cfg)
}

const vpcProject = `resource "aws_vpc" "main" {
  cidr_block = var.cidr
}

resource "aws_subnet" "public" {
  vpc_id = aws_vpc.main.id
}

variable "cidr" {
  default = "10.0.0.0/16"
}
`

func TestBuildFullProject(t *testing.T) {
	_, paths := writeProject(t, map[string]string{"main.tf": vpcProject})
	cfg := config.New()
	b := newTestBuilder(t, cfg)

	res, err := b.Build(context.Background(), paths, Options{UseCache: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Stats.FilesProcessed)
	assert.Equal(t, 0, res.Stats.ErrorFiles)
	assert.Equal(t, 3, res.Stats.TotalBlocks)
	assert.Equal(t, 2, res.Stats.CountsByKind[block.KindResource])
	assert.Equal(t, 1, res.Stats.CountsByKind[block.KindVariable])
	assert.Equal(t, 3, res.Stats.CountsByFile[paths[0]])
	assert.False(t, res.Stats.FinishedAt.Before(res.Stats.StartedAt))

	total := 0
	for _, bs := range res.Index.ByType {
		total += len(bs)
	}
	assert.Equal(t, res.Index.Len(), total)
	assert.Len(t, res.Index.ByFile[paths[0]], 3)

	wantEdges := map[string]refs.ReferenceType{
		"aws_vpc.main -> var.cidr":          refs.RefVar,
		"aws_subnet.public -> aws_vpc.main": refs.RefResource,
	}
	require.Len(t, res.Index.Refs, len(wantEdges))
	for _, e := range res.Index.Refs {
		key := block.Address(e.From) + " -> " + block.Address(e.To)
		assert.Equal(t, wantEdges[key], e.ReferenceType, key)
	}
}

func TestBuildUsesCacheOnRepeat(t *testing.T) {
	_, paths := writeProject(t, map[string]string{"main.tf": vpcProject})
	cfg := config.New()
	pc, err := cache.New(cfg.CacheMaxEntries, cfg.CacheMaxAge)
	require.NoError(t, err)
	b := NewBuilder(parser.NewRegistry(), pc, cfg)

	_, err = b.Build(context.Background(), paths, Options{UseCache: true})
	require.NoError(t, err)
	misses := pc.Stats().Misses
	assert.Equal(t, int64(1), misses)

	res, err := b.Build(context.Background(), paths, Options{UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), pc.Stats().Hits)
	assert.Equal(t, misses, pc.Stats().Misses, "second build must not re-miss")
	assert.Equal(t, 3, res.Stats.TotalBlocks)

	// Cache disabled: parses fresh without touching the cache counters.
	before := pc.Stats()
	_, err = b.Build(context.Background(), paths, Options{UseCache: false})
	require.NoError(t, err)
	assert.Equal(t, before, pc.Stats())
}

func TestBuildHaltsOnFileError(t *testing.T) {
	_, paths := writeProject(t, map[string]string{
		"a.tf":      `resource "aws_vpc" "main" {}`,
		"b.tf.json": `{not json`,
		"c.tf":      `resource "aws_subnet" "public" {}`,
	})
	// writeProject iterates a map; fix the order explicitly.
	ordered := make([]string, 3)
	for _, p := range paths {
		switch filepath.Base(p) {
		case "a.tf":
			ordered[0] = p
		case "b.tf.json":
			ordered[1] = p
		case "c.tf":
			ordered[2] = p
		}
	}
	cfg := config.New()

	t.Run("halts by default", func(t *testing.T) {
		res, err := newTestBuilder(t, cfg).Build(context.Background(), ordered, Options{})
		require.Error(t, err)
		assert.Equal(t, 2, res.Stats.FilesProcessed, "halts right after the failing file")
		assert.Equal(t, 1, res.Stats.ErrorFiles)
		assert.Equal(t, 1, res.Stats.TotalBlocks, "partial results survive the halt")
		require.Len(t, res.ParseErrors, 1)
		assert.Equal(t, ordered[1], res.ParseErrors[0].File)
	})

	t.Run("continueOnError processes the rest", func(t *testing.T) {
		res, err := newTestBuilder(t, cfg).Build(context.Background(), ordered, Options{ContinueOnError: true})
		require.Error(t, err, "file-level failures are still reported")
		assert.Equal(t, 3, res.Stats.FilesProcessed)
		assert.Equal(t, 2, res.Stats.TotalBlocks)
	})
}

func TestBuildReportsProgress(t *testing.T) {
	_, paths := writeProject(t, map[string]string{
		"a.tf": `resource "aws_vpc" "a" {}`,
		"b.tf": `resource "aws_vpc" "b" {}`,
	})
	cfg := config.New()

	var mu sync.Mutex
	var seen []Progress
	opts := Options{Progress: func(p Progress) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
	}}

	_, err := newTestBuilder(t, cfg).Build(context.Background(), paths, opts)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, 1, seen[0].Processed)
	assert.Equal(t, 2, seen[1].Processed)
	for _, p := range seen {
		assert.Equal(t, 2, p.Total)
		assert.NotEmpty(t, p.CurrentFile)
	}
}

func TestBuildParallelMatchesSequential(t *testing.T) {
	files := map[string]string{
		"network.tf": vpcProject,
		"compute.tf": `resource "aws_instance" "web" {
  subnet_id = aws_subnet.public.id
}`,
		"variables.tf": `variable "env" {}`,
	}
	_, paths := writeProject(t, files)
	sort.Strings(paths)

	seqCfg := config.New()
	seq, err := newTestBuilder(t, seqCfg).Build(context.Background(), paths, Options{})
	require.NoError(t, err)

	parCfg := config.New()
	parCfg.WorkerThreshold = 0
	par, err := newTestBuilder(t, parCfg).Build(context.Background(), paths, Options{})
	require.NoError(t, err)

	assert.Equal(t, seq.Stats.TotalBlocks, par.Stats.TotalBlocks)
	assert.Empty(t, cmp.Diff(addresses(seq.Index), addresses(par.Index)))
	assert.Empty(t, cmp.Diff(edgeKeys(seq.Index), edgeKeys(par.Index)),
		"edge attribution must not depend on pool scheduling")
}

func TestBuildParallelZeroParallelismFallsBackToCPUs(t *testing.T) {
	_, paths := writeProject(t, map[string]string{
		"network.tf":   vpcProject,
		"variables.tf": `variable "env" {}`,
	})
	sort.Strings(paths)

	// Zero is a Validate-accepted value meaning one worker per CPU. A
	// hand-built config takes this path; only New() fills in NumCPU.
	cfg := config.New()
	cfg.WorkerThreshold = 0
	cfg.WorkerParallelism = 0
	b := newTestBuilder(t, cfg)

	done := make(chan struct{})
	var res *Result
	var err error
	go func() {
		defer close(done)
		res, err = b.Build(context.Background(), paths, Options{})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("build never completed with zero worker parallelism")
	}
	require.NoError(t, err)
	assert.Equal(t, len(paths), res.Stats.FilesProcessed)
}

func TestBuildCancelledContext(t *testing.T) {
	_, paths := writeProject(t, map[string]string{"a.tf": `resource "aws_vpc" "a" {}`})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestBuilder(t, config.New()).Build(ctx, paths, Options{})
	require.NoError(t, err, "cancellation is not an error")
	assert.Equal(t, 0, res.Stats.FilesProcessed)
	assert.Equal(t, 0, res.Index.Len())
}

func addresses(ix *ProjectIndex) []string {
	out := make([]string, len(ix.Blocks))
	for i, b := range ix.Blocks {
		out[i] = block.Address(b)
	}
	return out
}

func edgeKeys(ix *ProjectIndex) []string {
	out := make([]string, len(ix.Refs))
	for i, e := range ix.Refs {
		out[i] = block.Address(e.From) + " -> " + block.Address(e.To)
	}
	return out
}

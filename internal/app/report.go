package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/tfindex/internal/block"
	"github.com/vk/tfindex/internal/index"
	"github.com/vk/tfindex/internal/modres"
)

// writeReport renders the one-shot build summary to the output writer.
func (a *App) writeReport(ctx context.Context, res *index.Result) {
	fmt.Fprintf(a.outW, "\nIndexed %d blocks across %d files in %s\n",
		res.Stats.TotalBlocks, res.Stats.FilesProcessed, res.Stats.Duration.Round(0))

	for _, kind := range block.Kinds {
		if n := res.Stats.CountsByKind[kind]; n > 0 {
			fmt.Fprintf(a.outW, "  %-8s %d\n", kind, n)
		}
	}

	fmt.Fprintf(a.outW, "Reference edges: %d\n", len(res.Index.Refs))
	a.writeModuleSummary(ctx, res)

	if len(res.ParseErrors) > 0 {
		fmt.Fprintf(a.outW, "Parse errors: %d\n", len(res.ParseErrors))
		for _, pe := range res.ParseErrors {
			if pe.Line > 0 {
				fmt.Fprintf(a.outW, "  %s:%d: %s\n", pe.File, pe.Line, pe.Message)
			} else {
				fmt.Fprintf(a.outW, "  %s: %s\n", pe.File, pe.Message)
			}
		}
	}

	if !a.config.NoCache {
		cs := a.session.CacheStats()
		fmt.Fprintf(a.outW, "Cache: %d entries, %d hits, %d misses\n", cs.Entries, cs.Hits, cs.Misses)
	}
}

// writeModuleSummary resolves every module call's source and prints how many
// landed in each resolution class. Remote sources are expected to stay
// unresolved; the summary makes that visible instead of silent.
func (a *App) writeModuleSummary(ctx context.Context, res *index.Result) {
	mods := res.Index.ByType[block.KindModule]
	if len(mods) == 0 {
		return
	}

	resolver := modres.NewResolver()
	counts := make(map[modres.ResolutionType]int)
	for _, m := range mods {
		r := resolver.Resolve(ctx, m.SourceExpr, filepath.Dir(m.File))
		counts[r.Type]++
	}

	fmt.Fprintf(a.outW, "Module calls: %d", len(mods))
	for _, rt := range []modres.ResolutionType{
		modres.TypeLocal, modres.TypeCached,
		modres.TypeRegistry, modres.TypeGit, modres.TypeUnknown,
	} {
		if n := counts[rt]; n > 0 {
			fmt.Fprintf(a.outW, " (%s: %d)", rt, n)
		}
	}
	fmt.Fprintln(a.outW)
}

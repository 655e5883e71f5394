package index

import (
	"sort"
	"strings"

	"github.com/vk/tfindex/internal/block"
	"github.com/vk/tfindex/internal/refs"
)

// ProjectIndex is the aggregate produced by a full build and mutated in
// place by incremental updates. ByType and ByFile are always a complete
// re-partitioning of Blocks; Remap rebuilds them from scratch.
//
// The index is exclusively owned by one builder/updater lineage at a time.
// Readers must treat it as a snapshot between updates and must not rely on
// block identity surviving an update.
type ProjectIndex struct {
	Blocks []*block.Block
	ByType map[block.Kind][]*block.Block
	ByFile map[string][]*block.Block
	Refs   []*refs.Edge
}

// New returns an empty, valid index.
func New() *ProjectIndex {
	return &ProjectIndex{
		Blocks: []*block.Block{},
		ByType: make(map[block.Kind][]*block.Block),
		ByFile: make(map[string][]*block.Block),
	}
}

// Remap rebuilds ByType and ByFile from Blocks. ByType entries are sorted
// by name, then type, then file path; ByFile entries by range start, then
// end. Both orderings are part of the index contract.
func (ix *ProjectIndex) Remap() {
	byType := make(map[block.Kind][]*block.Block)
	byFile := make(map[string][]*block.Block)

	for _, b := range ix.Blocks {
		byType[b.BlockKind] = append(byType[b.BlockKind], b)
		byFile[b.File] = append(byFile[b.File], b)
	}

	for _, bs := range byType {
		sort.SliceStable(bs, func(i, j int) bool {
			if c := strings.Compare(bs[i].Name, bs[j].Name); c != 0 {
				return c < 0
			}
			if c := strings.Compare(bs[i].Type, bs[j].Type); c != 0 {
				return c < 0
			}
			return bs[i].File < bs[j].File
		})
	}
	for _, bs := range byFile {
		sort.SliceStable(bs, func(i, j int) bool {
			if bs[i].Range.Start != bs[j].Range.Start {
				return bs[i].Range.Start < bs[j].Range.Start
			}
			return bs[i].Range.End < bs[j].Range.End
		})
	}

	ix.ByType = byType
	ix.ByFile = byFile
}

// DropFiles removes every block owned by one of the given files and returns
// the removed blocks. The caller is responsible for calling Remap afterwards.
func (ix *ProjectIndex) DropFiles(paths []string) []*block.Block {
	if len(paths) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		drop[p] = struct{}{}
	}

	kept := ix.Blocks[:0]
	var removed []*block.Block
	for _, b := range ix.Blocks {
		if _, gone := drop[b.File]; gone {
			removed = append(removed, b)
			continue
		}
		kept = append(kept, b)
	}
	ix.Blocks = kept
	return removed
}

// Len returns the number of indexed blocks.
func (ix *ProjectIndex) Len() int {
	return len(ix.Blocks)
}

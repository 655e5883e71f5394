package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/tfindex/internal/block"
)

func blk(kind block.Kind, typ, name, file string, start, end int) *block.Block {
	return &block.Block{
		BlockKind: kind,
		Type:      typ,
		Name:      name,
		File:      file,
		Range:     block.Range{Start: start, End: end},
	}
}

func TestRemapPartitionsCompletely(t *testing.T) {
	ix := New()
	ix.Blocks = []*block.Block{
		blk(block.KindResource, "aws_vpc", "main", "/p/main.tf", 0, 40),
		blk(block.KindResource, "aws_subnet", "public", "/p/main.tf", 42, 90),
		blk(block.KindVariable, "", "region", "/p/variables.tf", 0, 20),
		blk(block.KindOutput, "", "vpc_id", "/p/outputs.tf", 0, 30),
	}
	ix.Remap()

	total := 0
	for _, bs := range ix.ByType {
		total += len(bs)
	}
	assert.Equal(t, len(ix.Blocks), total, "ByType must re-partition Blocks")

	total = 0
	for _, bs := range ix.ByFile {
		total += len(bs)
	}
	assert.Equal(t, len(ix.Blocks), total, "ByFile must re-partition Blocks")
}

func TestRemapByTypeOrdering(t *testing.T) {
	ix := New()
	ix.Blocks = []*block.Block{
		blk(block.KindResource, "aws_vpc", "zeta", "/p/b.tf", 0, 10),
		blk(block.KindResource, "aws_subnet", "alpha", "/p/a.tf", 0, 10),
		blk(block.KindResource, "aws_vpc", "alpha", "/p/b.tf", 20, 30),
		blk(block.KindResource, "aws_subnet", "alpha", "/p/b.tf", 40, 50),
	}
	ix.Remap()

	got := ix.ByType[block.KindResource]
	require.Len(t, got, 4)
	// name, then type, then file.
	assert.Equal(t, "alpha", got[0].Name)
	assert.Equal(t, "aws_subnet", got[0].Type)
	assert.Equal(t, "/p/a.tf", got[0].File)
	assert.Equal(t, "aws_subnet", got[1].Type)
	assert.Equal(t, "/p/b.tf", got[1].File)
	assert.Equal(t, "aws_vpc", got[2].Type)
	assert.Equal(t, "zeta", got[3].Name)
}

func TestRemapByFileOrdering(t *testing.T) {
	ix := New()
	ix.Blocks = []*block.Block{
		blk(block.KindResource, "aws_vpc", "b", "/p/main.tf", 50, 90),
		blk(block.KindResource, "aws_vpc", "a", "/p/main.tf", 0, 40),
		blk(block.KindResource, "aws_vpc", "c", "/p/main.tf", 0, 20),
	}
	ix.Remap()

	got := ix.ByFile["/p/main.tf"]
	require.Len(t, got, 3)
	// start ascending, end breaks ties.
	assert.Equal(t, "c", got[0].Name)
	assert.Equal(t, "a", got[1].Name)
	assert.Equal(t, "b", got[2].Name)
}

func TestDropFiles(t *testing.T) {
	ix := New()
	ix.Blocks = []*block.Block{
		blk(block.KindResource, "aws_vpc", "a", "/p/main.tf", 0, 10),
		blk(block.KindVariable, "", "region", "/p/variables.tf", 0, 10),
		blk(block.KindResource, "aws_subnet", "b", "/p/main.tf", 20, 30),
	}
	ix.Remap()

	removed := ix.DropFiles([]string{"/p/main.tf"})
	ix.Remap()

	assert.Len(t, removed, 2)
	require.Len(t, ix.Blocks, 1)
	assert.Equal(t, "region", ix.Blocks[0].Name)
	assert.NotContains(t, ix.ByFile, "/p/main.tf")
	assert.Len(t, ix.ByType[block.KindVariable], 1)

	assert.Nil(t, ix.DropFiles(nil))
}

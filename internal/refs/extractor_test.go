package refs

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/tfindex/internal/block"
)

// memExtractor returns an extractor reading from an in-memory file map.
func memExtractor(files map[string]string) *Extractor {
	return NewExtractorWithReader(func(path string) (string, error) {
		if text, ok := files[path]; ok {
			return text, nil
		}
		return "", fmt.Errorf("no such file: %s", path)
	})
}

// mkBlock builds a block whose range covers the given marker-delimited
// region of the file text. The region is located by substring search, so
// fixtures stay ASCII.
func mkBlock(t *testing.T, files map[string]string, file string, kind block.Kind, typ, name string, modPath block.ModulePath, body string) *block.Block {
	t.Helper()
	text := files[file]
	start := strings.Index(text, body)
	require.GreaterOrEqual(t, start, 0, "fixture body not found in %s", file)
	return &block.Block{
		BlockKind:  kind,
		Type:       typ,
		Name:       name,
		Provider:   block.ProviderForType(typ),
		ModulePath: modPath,
		File:       file,
		Range:      block.Range{Start: start, End: start + len(body)},
	}
}

func edgeStrings(edges []*Edge) []string {
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = fmt.Sprintf("%s -> %s [%s/%s]", block.Address(e.From), block.Address(e.To), e.Type, e.ReferenceType)
	}
	return out
}

func TestExtractResourceReference(t *testing.T) {
	vpcBody := "resource \"aws_vpc\" \"main\" {\n  cidr_block = \"10.0.0.0/16\"\n}"
	subnetBody := "resource \"aws_subnet\" \"public\" {\n  vpc_id = aws_vpc.main.id\n}"
	files := map[string]string{
		"/work/main.tf": vpcBody + "\n\n" + subnetBody + "\n",
	}
	vpc := mkBlock(t, files, "/work/main.tf", block.KindResource, "aws_vpc", "main", nil, vpcBody)
	subnet := mkBlock(t, files, "/work/main.tf", block.KindResource, "aws_subnet", "public", nil, subnetBody)

	edges := memExtractor(files).Extract(context.Background(), []*block.Block{vpc, subnet})

	require.Len(t, edges, 1)
	e := edges[0]
	assert.Same(t, subnet, e.From)
	assert.Same(t, vpc, e.To)
	assert.Equal(t, EdgeReference, e.Type)
	assert.Equal(t, RefResource, e.ReferenceType)
	assert.Equal(t, "id", e.Attribute)
}

func TestExtractVarDataAndLocalReferences(t *testing.T) {
	resBody := `resource "aws_instance" "web" {
  ami           = data.aws_ami.ubuntu.id
  instance_type = var.instance_type
  tags          = { Name = local.name_prefix }
}`
	files := map[string]string{
		"/work/main.tf": resBody + "\n\nvariable \"instance_type\" {}\n\ndata \"aws_ami\" \"ubuntu\" {}\n\nlocals {\n  name_prefix = \"web\"\n}\n",
	}
	res := mkBlock(t, files, "/work/main.tf", block.KindResource, "aws_instance", "web", nil, resBody)
	v := mkBlock(t, files, "/work/main.tf", block.KindVariable, "", "instance_type", nil, `variable "instance_type" {}`)
	d := mkBlock(t, files, "/work/main.tf", block.KindData, "aws_ami", "ubuntu", nil, `data "aws_ami" "ubuntu" {}`)
	l := mkBlock(t, files, "/work/main.tf", block.KindLocals, "", "", nil, "locals {\n  name_prefix = \"web\"\n}")

	edges := memExtractor(files).Extract(context.Background(), []*block.Block{res, v, d, l})

	byType := make(map[ReferenceType]*Edge)
	for _, e := range edges {
		if e.From == res {
			byType[e.ReferenceType] = e
		}
	}

	require.NotNil(t, byType[RefVar], "edges: %v", edgeStrings(edges))
	assert.Same(t, v, byType[RefVar].To)

	require.NotNil(t, byType[RefData])
	assert.Same(t, d, byType[RefData].To)
	assert.Equal(t, "id", byType[RefData].Attribute)

	require.NotNil(t, byType[RefLocal])
	assert.Same(t, l, byType[RefLocal].To)
	assert.Equal(t, "name_prefix", byType[RefLocal].Attribute)
}

func TestExtractModuleContainment(t *testing.T) {
	t.Run("by module path segment", func(t *testing.T) {
		modBody := "module \"vpc\" {\n  source = \"./modules/vpc\"\n}"
		innerBody := "resource \"aws_vpc\" \"main\" {}"
		files := map[string]string{
			"/work/main.tf":             modBody + "\n",
			"/work/modules/vpc/main.tf": innerBody + "\n",
		}
		mod := mkBlock(t, files, "/work/main.tf", block.KindModule, "", "vpc", nil, modBody)
		mod.SourceExpr = "./modules/vpc"
		inner := mkBlock(t, files, "/work/modules/vpc/main.tf", block.KindResource, "aws_vpc", "main", block.ModulePath{"module.vpc"}, innerBody)

		edges := memExtractor(files).Extract(context.Background(), []*block.Block{mod, inner})

		require.Len(t, edges, 1, "edges: %v", edgeStrings(edges))
		e := edges[0]
		assert.Same(t, mod, e.From)
		assert.Same(t, inner, e.To)
		assert.Equal(t, EdgeContains, e.Type)
		assert.Equal(t, RefModuleContainment, e.ReferenceType)
	})

	t.Run("fallback to source directory", func(t *testing.T) {
		modBody := "module \"net\" {\n  source = \"./nets\"\n}"
		innerBody := "resource \"aws_subnet\" \"a\" {}"
		files := map[string]string{
			"/work/main.tf":      modBody + "\n",
			"/work/nets/main.tf": innerBody + "\n",
		}
		mod := mkBlock(t, files, "/work/main.tf", block.KindModule, "", "net", nil, modBody)
		mod.SourceExpr = "./nets"
		// Parsed without module-path context, e.g. before resolution ran.
		inner := mkBlock(t, files, "/work/nets/main.tf", block.KindResource, "aws_subnet", "a", nil, innerBody)

		edges := memExtractor(files).Extract(context.Background(), []*block.Block{mod, inner})

		require.Len(t, edges, 1, "edges: %v", edgeStrings(edges))
		assert.Equal(t, EdgeContains, edges[0].Type)
		assert.Same(t, inner, edges[0].To)
	})
}

func TestExtractModuleToModuleReference(t *testing.T) {
	aBody := "module \"a\" {\n  source = \"./a\"\n  vpc_id = module.b.output_x\n}"
	bBody := "module \"b\" {\n  source = \"./b\"\n}"
	files := map[string]string{
		"/work/main.tf": aBody + "\n\n" + bBody + "\n",
	}
	a := mkBlock(t, files, "/work/main.tf", block.KindModule, "", "a", nil, aBody)
	b := mkBlock(t, files, "/work/main.tf", block.KindModule, "", "b", nil, bBody)

	edges := memExtractor(files).Extract(context.Background(), []*block.Block{a, b})

	require.Len(t, edges, 1, "edges: %v", edgeStrings(edges))
	e := edges[0]
	assert.Same(t, a, e.From)
	assert.Same(t, b, e.To)
	assert.Equal(t, EdgeReference, e.Type)
	assert.Equal(t, RefModuleReference, e.ReferenceType)
	assert.Equal(t, "output_x", e.Attribute)
}

func TestExtractScopeMismatchDoesNotResolve(t *testing.T) {
	resBody := "resource \"aws_instance\" \"web\" {\n  az = var.region\n}"
	files := map[string]string{
		"/work/main.tf":          resBody + "\n\nvariable \"region\" {}\n",
		"/work/mod/variables.tf": "variable \"region\" {}\n",
	}
	res := mkBlock(t, files, "/work/main.tf", block.KindResource, "aws_instance", "web", nil, resBody)
	sameScope := mkBlock(t, files, "/work/main.tf", block.KindVariable, "", "region", nil, `variable "region" {}`)
	deeper := mkBlock(t, files, "/work/mod/variables.tf", block.KindVariable, "", "region", block.ModulePath{"module.mod"}, `variable "region" {}`)

	t.Run("same-scope variable resolves", func(t *testing.T) {
		edges := memExtractor(files).Extract(context.Background(), []*block.Block{res, sameScope, deeper})
		require.Len(t, edges, 1)
		assert.Same(t, sameScope, edges[0].To)
	})

	t.Run("only deeper variable present resolves nothing", func(t *testing.T) {
		edges := memExtractor(files).Extract(context.Background(), []*block.Block{res, deeper})
		assert.Empty(t, edges, "module-path length mismatch must not resolve")
	})
}

func TestExtractDeduplicatesRepeatedMentions(t *testing.T) {
	vpcBody := "resource \"aws_vpc\" \"main\" {}"
	subnetBody := "resource \"aws_subnet\" \"public\" {\n  a = aws_vpc.main.id\n  b = aws_vpc.main.arn\n}"
	files := map[string]string{
		"/work/main.tf": vpcBody + "\n\n" + subnetBody + "\n",
	}
	vpc := mkBlock(t, files, "/work/main.tf", block.KindResource, "aws_vpc", "main", nil, vpcBody)
	subnet := mkBlock(t, files, "/work/main.tf", block.KindResource, "aws_subnet", "public", nil, subnetBody)

	edges := memExtractor(files).Extract(context.Background(), []*block.Block{vpc, subnet})

	require.Len(t, edges, 1, "one edge per address pair, first mention wins")
	assert.Equal(t, "id", edges[0].Attribute)
}

func TestExtractDanglingReferencesDropped(t *testing.T) {
	body := "resource \"aws_subnet\" \"public\" {\n  vpc_id = aws_vpc.missing.id\n  x = var.absent\n  y = module.ghost.out\n}"
	files := map[string]string{"/work/main.tf": body + "\n"}
	subnet := mkBlock(t, files, "/work/main.tf", block.KindResource, "aws_subnet", "public", nil, body)

	edges := memExtractor(files).Extract(context.Background(), []*block.Block{subnet})
	assert.Empty(t, edges)
}

func TestExtractUnreadableFileSkipped(t *testing.T) {
	b := &block.Block{
		BlockKind: block.KindResource,
		Type:      "aws_vpc",
		Name:      "main",
		File:      "/gone/main.tf",
		Range:     block.Range{Start: 0, End: 10},
	}
	edges := memExtractor(map[string]string{}).Extract(context.Background(), []*block.Block{b})
	assert.Empty(t, edges)
}

func TestExtractVariablesAndOutputsAreNotScanned(t *testing.T) {
	// A variable default mentioning another block must not produce edges.
	varBody := "variable \"ref\" {\n  default = aws_vpc.main.id\n}"
	vpcBody := "resource \"aws_vpc\" \"main\" {}"
	files := map[string]string{"/work/main.tf": varBody + "\n\n" + vpcBody + "\n"}
	v := mkBlock(t, files, "/work/main.tf", block.KindVariable, "", "ref", nil, varBody)
	vpc := mkBlock(t, files, "/work/main.tf", block.KindResource, "aws_vpc", "main", nil, vpcBody)

	edges := memExtractor(files).Extract(context.Background(), []*block.Block{v, vpc})
	assert.Empty(t, edges)
}

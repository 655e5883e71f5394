package refs

import (
	"context"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/vk/tfindex/internal/block"
	"github.com/vk/tfindex/internal/ctxlog"
)

// Extractor runs the three extraction passes over a block list. The file
// reader is injectable for tests; the default reads from disk.
type Extractor struct {
	readFile func(path string) (string, error)
}

// NewExtractor returns an Extractor reading block source from disk.
func NewExtractor() *Extractor {
	return &Extractor{
		readFile: func(path string) (string, error) {
			raw, err := os.ReadFile(path)
			if err != nil {
				return "", err
			}
			return string(raw), nil
		},
	}
}

// NewExtractorWithReader returns an Extractor using a custom file reader.
func NewExtractorWithReader(read func(path string) (string, error)) *Extractor {
	return &Extractor{readFile: read}
}

// Extract derives the deduplicated edge list for blocks. Containment runs
// first, then module references, then the per-block scan: the first producer
// of an address pair wins. Unresolvable references are silently dropped; a
// dangling reference is an expected outcome, not an error.
func (e *Extractor) Extract(ctx context.Context, blocks []*block.Block) []*Edge {
	r := &run{
		extractor: e,
		logger:    ctxlog.FromContext(ctx),
		blocks:    blocks,
		texts:     make(map[string]string),
		seen:      make(map[string]struct{}),
		edges:     []*Edge{},
	}
	r.buildLookups()
	r.containmentPass()
	r.moduleReferencePass()
	r.blockScanPass()
	return r.edges
}

// run holds the per-extraction state.
type run struct {
	extractor *Extractor
	logger    *slog.Logger

	blocks []*block.Block
	texts  map[string]string

	edges []*Edge
	seen  map[string]struct{}

	modules       []*block.Block
	modulesByName map[string][]*block.Block
	varsByName    map[string][]*block.Block
	resByKey      map[string][]*block.Block
	dataByKey     map[string][]*block.Block
	locals        []*block.Block
}

func (r *run) buildLookups() {
	r.modulesByName = make(map[string][]*block.Block)
	r.varsByName = make(map[string][]*block.Block)
	r.resByKey = make(map[string][]*block.Block)
	r.dataByKey = make(map[string][]*block.Block)

	for _, b := range r.blocks {
		switch b.BlockKind {
		case block.KindModule:
			r.modules = append(r.modules, b)
			r.modulesByName[b.Name] = append(r.modulesByName[b.Name], b)
		case block.KindVariable:
			r.varsByName[b.Name] = append(r.varsByName[b.Name], b)
		case block.KindResource:
			key := b.Type + "." + b.Name
			r.resByKey[key] = append(r.resByKey[key], b)
		case block.KindData:
			key := b.Type + "." + b.Name
			r.dataByKey[key] = append(r.dataByKey[key], b)
		case block.KindLocals:
			r.locals = append(r.locals, b)
		}
	}
}

// add records an edge unless its address pair was already produced or it
// would be a self-loop.
func (r *run) add(edge *Edge) {
	if block.Address(edge.From) == block.Address(edge.To) {
		return
	}
	key := edge.Key()
	if _, dup := r.seen[key]; dup {
		return
	}
	r.seen[key] = struct{}{}
	r.edges = append(r.edges, edge)
}

// text returns the full decoded text of a file, reading it at most once per
// extraction. Unreadable files yield "" and are skipped by the scanners.
func (r *run) text(path string) string {
	if t, ok := r.texts[path]; ok {
		return t
	}
	t, err := r.extractor.readFile(path)
	if err != nil {
		r.logger.Debug("cannot read source for reference scan", "path", path, "error", err)
		t = ""
	}
	r.texts[path] = t
	return t
}

// slice returns the block's own source text.
func (r *run) slice(b *block.Block) string {
	text := r.text(b.File)
	if text == "" {
		return ""
	}
	return b.Range.Slice(text)
}

// containmentPass emits a contains edge from every module block to each
// block belonging to it. Three fallback strategies are tried in order; the
// first one that yields any blocks wins.
func (r *run) containmentPass() {
	for _, mod := range r.modules {
		segment := "module." + mod.Name

		contained := r.containedByLastSegment(mod, segment)
		if len(contained) == 0 {
			contained = r.containedByAnySegment(mod, segment)
		}
		if len(contained) == 0 {
			contained = r.containedBySourceDir(mod)
		}

		for _, b := range contained {
			r.add(&Edge{
				From:          mod,
				To:            b,
				Type:          EdgeContains,
				ReferenceType: RefModuleContainment,
				Relationship:  "contains",
			})
		}
	}
}

func (r *run) containedByLastSegment(mod *block.Block, segment string) []*block.Block {
	var out []*block.Block
	for _, b := range r.blocks {
		if b != mod && b.ModulePath.Last() == segment {
			out = append(out, b)
		}
	}
	return out
}

func (r *run) containedByAnySegment(mod *block.Block, segment string) []*block.Block {
	var out []*block.Block
	for _, b := range r.blocks {
		if b != mod && b.ModulePath.Contains(segment) {
			out = append(out, b)
		}
	}
	return out
}

// containedBySourceDir matches blocks whose file path passes through the
// module's local source directory. Only applies to local-path sources.
func (r *run) containedBySourceDir(mod *block.Block) []*block.Block {
	src := mod.SourceExpr
	if !strings.HasPrefix(src, "./") && !strings.HasPrefix(src, "../") {
		return nil
	}
	dirSeg := path.Clean(strings.TrimPrefix(src, "./"))
	if dirSeg == "" || dirSeg == "." {
		return nil
	}
	var out []*block.Block
	for _, b := range r.blocks {
		if b == mod {
			continue
		}
		if strings.Contains(filepath.ToSlash(b.File), dirSeg) {
			out = append(out, b)
		}
	}
	return out
}

// moduleReferencePass scans each module block's own source for
// module.NAME[.ATTR] mentions and links same-scope module blocks. Missing
// targets are expected (external or registry modules) and dropped.
func (r *run) moduleReferencePass() {
	for _, mod := range r.modules {
		src := r.slice(mod)
		if src == "" {
			continue
		}
		for _, m := range moduleRefPattern.FindAllStringSubmatch(src, -1) {
			name, attr := m[1], m[2]
			if name == mod.Name {
				continue
			}
			target := r.findModule(name, mod.ModulePath)
			if target == nil {
				continue
			}
			r.add(&Edge{
				From:          mod,
				To:            target,
				Type:          EdgeReference,
				ReferenceType: RefModuleReference,
				Attribute:     attr,
			})
		}
	}
}

// blockScanPass scans every block that can hold references: resources, data
// sources, module calls, and locals. Variable and output bodies are not
// scanned.
func (r *run) blockScanPass() {
	for _, b := range r.blocks {
		switch b.BlockKind {
		case block.KindResource, block.KindData, block.KindModule, block.KindLocals:
		default:
			continue
		}
		src := r.slice(b)
		if src == "" {
			continue
		}
		r.scanVariables(b, src)
		r.scanResources(b, src)
		r.scanData(b, src)
		r.scanLocals(b, src)
	}
}

func (r *run) scanVariables(b *block.Block, src string) {
	for _, m := range varPattern.FindAllStringSubmatch(src, -1) {
		target := firstInScope(r.varsByName[m[1]], b.ModulePath)
		if target == nil {
			continue
		}
		r.add(&Edge{
			From:          b,
			To:            target,
			Type:          EdgeReference,
			ReferenceType: RefVar,
		})
	}
}

func (r *run) scanResources(b *block.Block, src string) {
	for _, m := range resourcePattern.FindAllStringSubmatch(src, -1) {
		leading := m[1]
		// var/local/data shapes have dedicated scanners.
		if leading == "var" || leading == "local" || leading == "data" {
			continue
		}
		target := firstInScope(r.resByKey[leading+"."+m[2]], b.ModulePath)
		if target == nil {
			continue
		}
		r.add(&Edge{
			From:          b,
			To:            target,
			Type:          EdgeReference,
			ReferenceType: RefResource,
			Attribute:     m[3],
		})
	}
}

func (r *run) scanData(b *block.Block, src string) {
	for _, m := range dataPattern.FindAllStringSubmatch(src, -1) {
		target := firstInScope(r.dataByKey[m[1]+"."+m[2]], b.ModulePath)
		if target == nil {
			continue
		}
		r.add(&Edge{
			From:          b,
			To:            target,
			Type:          EdgeReference,
			ReferenceType: RefData,
			Attribute:     m[3],
		})
	}
}

// scanLocals resolves local.NAME to the nearest locals block in the same
// module scope. Locals blocks carry no per-entry identity, so the edge
// records the referenced name in Attribute instead.
func (r *run) scanLocals(b *block.Block, src string) {
	for _, m := range localPattern.FindAllStringSubmatch(src, -1) {
		target := firstInScope(r.locals, b.ModulePath)
		if target == nil {
			continue
		}
		r.add(&Edge{
			From:          b,
			To:            target,
			Type:          EdgeReference,
			ReferenceType: RefLocal,
			Attribute:     m[1],
		})
	}
}

func (r *run) findModule(name string, scope block.ModulePath) *block.Block {
	for _, cand := range r.modulesByName[name] {
		if cand.ModulePath.Equal(scope) {
			return cand
		}
	}
	return nil
}

// firstInScope returns the first candidate whose module path matches the
// scope exactly. Exact-length positional matching is the scoping rule
// everywhere: a same-named block one level deeper never resolves.
func firstInScope(candidates []*block.Block, scope block.ModulePath) *block.Block {
	for _, c := range candidates {
		if c.ModulePath.Equal(scope) {
			return c
		}
	}
	return nil
}

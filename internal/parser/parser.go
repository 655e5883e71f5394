package parser

import (
	"sort"
	"strings"

	"github.com/vk/tfindex/internal/block"
	"github.com/vk/tfindex/internal/config"
)

// Options carries the caller-supplied context for one Parse call.
type Options struct {
	// ModulePath is copied verbatim onto every emitted block. It is set
	// when parsing files that live inside a resolved module directory.
	ModulePath block.ModulePath

	// Per-kind emission toggles. Resources and module calls are always
	// emitted.
	IncludeDataSources bool
	IncludeVariables   bool
	IncludeOutputs     bool
	IncludeLocals      bool
}

// DefaultOptions returns Options with every kind included.
func DefaultOptions() Options {
	return Options{
		IncludeDataSources: true,
		IncludeVariables:   true,
		IncludeOutputs:     true,
		IncludeLocals:      true,
	}
}

// OptionsFrom derives Options from the core configuration.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		IncludeDataSources: cfg.IncludeDataSources,
		IncludeVariables:   cfg.IncludeVariables,
		IncludeOutputs:     cfg.IncludeOutputs,
		IncludeLocals:      cfg.IncludeLocals,
	}
}

// includes reports whether blocks of the given kind should be emitted.
func (o Options) includes(kind block.Kind) bool {
	switch kind {
	case block.KindData:
		return o.IncludeDataSources
	case block.KindVariable:
		return o.IncludeVariables
	case block.KindOutput:
		return o.IncludeOutputs
	case block.KindLocals:
		return o.IncludeLocals
	}
	return true
}

// Parser extracts blocks from a single file's text.
//
// The returned error is reserved for whole-file decode failures: the file
// could not be understood at all and zero blocks are returned. Anything
// narrower (one malformed block, a failed range estimate) is accumulated in
// ParseResult.Errors and never aborts the file.
type Parser interface {
	Parse(path string, src string, opts Options) (*block.ParseResult, error)
}

// Registry maps file-name suffixes to Parser implementations. It is a plain
// constructor-injected dependency owned by the indexing session; there is no
// package-level registry.
type Registry struct {
	entries []registryEntry
}

type registryEntry struct {
	suffix string
	parser Parser
}

// NewRegistry returns a registry with the two stock parsers registered:
// ".tf.json" for the JSON dialect and ".tf" for native syntax.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(".tf.json", newJSONParser())
	r.Register(".tf", newHCLParser())
	return r
}

// Register adds a parser for a suffix, replacing any previous registration
// for the same suffix. Longer suffixes always win lookup, so ".tf.json"
// shadows ".tf".
func (r *Registry) Register(suffix string, p Parser) {
	for i, e := range r.entries {
		if e.suffix == suffix {
			r.entries[i].parser = p
			return
		}
	}
	r.entries = append(r.entries, registryEntry{suffix: suffix, parser: p})
	sort.SliceStable(r.entries, func(i, j int) bool {
		return len(r.entries[i].suffix) > len(r.entries[j].suffix)
	})
}

// ParserFor returns the parser registered for the path's suffix.
func (r *Registry) ParserFor(path string) (Parser, bool) {
	for _, e := range r.entries {
		if strings.HasSuffix(path, e.suffix) {
			return e.parser, true
		}
	}
	return nil, false
}

// Suffixes returns the registered suffixes, longest first.
func (r *Registry) Suffixes() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.suffix
	}
	return out
}

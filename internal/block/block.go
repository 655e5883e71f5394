package block

import "strings"

// Kind identifies which top-level Terraform construct a Block was declared as.
// The set is closed; it is locked in at ingestion time.
type Kind string

const (
	KindResource Kind = "resource"
	KindData     Kind = "data"
	KindModule   Kind = "module"
	KindVariable Kind = "variable"
	KindOutput   Kind = "output"
	KindLocals   Kind = "locals"
)

// Kinds lists every valid Kind in declaration order.
var Kinds = []Kind{KindResource, KindData, KindModule, KindVariable, KindOutput, KindLocals}

// ParseKind maps a raw block keyword to its Kind. The second return value is
// false for keywords outside the closed set (provider, terraform, ...).
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindResource, KindData, KindModule, KindVariable, KindOutput, KindLocals:
		return Kind(s), true
	}
	return "", false
}

// Range is a half-open [Start, End) character-index range into a file's
// decoded UTF-8 text. Offsets count runes, not bytes, so positions line up
// with editor columns even for non-ASCII content. A degenerate range
// (Start >= End, or the zero value) marks a block whose extent could not be
// estimated; consumers must tolerate it.
type Range struct {
	Start int
	End   int
}

// IsValid reports whether the range delimits a non-empty span.
func (r Range) IsValid() bool {
	return r.Start >= 0 && r.Start < r.End
}

// Slice returns the substring of text covered by the range, interpreting the
// offsets as rune indices. Out-of-bounds offsets are clamped.
func (r Range) Slice(text string) string {
	runes := []rune(text)
	start, end := r.Start, r.End
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}

// ModulePath is the ordered, outer-to-inner list of enclosing module
// references (e.g. ["module.vpc", "module.subnets"]). Empty for root-level
// blocks. It establishes the scoping namespace for name resolution.
type ModulePath []string

// Equal reports whether two paths are the same scope: equal length and equal
// elements at every position. Prefix or suffix overlap never counts as a
// match; this is what prevents cross-module name collisions from resolving.
func (p ModulePath) Equal(other ModulePath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Contains reports whether segment appears at any position of the path.
func (p ModulePath) Contains(segment string) bool {
	for _, s := range p {
		if s == segment {
			return true
		}
	}
	return false
}

// Last returns the innermost segment, or "" for a root path.
func (p ModulePath) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Copy returns an independent copy of the path.
func (p ModulePath) Copy() ModulePath {
	if p == nil {
		return nil
	}
	out := make(ModulePath, len(p))
	copy(out, p)
	return out
}

// Block is one declared Terraform construct as seen by the indexer.
type Block struct {
	// BlockKind is the construct keyword the block was declared with.
	BlockKind Kind

	// Type is the resource or data source type (e.g. "aws_instance").
	// Empty for module/variable/output/locals blocks.
	Type string

	// Name is the declared label. Empty for locals blocks, which carry no
	// per-entry identity in this model.
	Name string

	// Provider is derived from Type by taking the prefix before the first
	// underscore ("aws_instance" -> "aws"). Only meaningful for resource
	// and data blocks.
	Provider string

	// ModulePath scopes the block inside nested module calls.
	ModulePath ModulePath

	// SourceExpr is the literal `source` attribute value of a module call.
	// Empty for every other kind.
	SourceExpr string

	// File is the absolute path of the defining file. Advisory link; the
	// block does not own the file.
	File string

	// Range delimits the block's text inside File.
	Range Range
}

// Copy returns a deep copy of the block.
func (b *Block) Copy() *Block {
	if b == nil {
		return nil
	}
	out := *b
	out.ModulePath = b.ModulePath.Copy()
	return &out
}

// ProviderForType derives a provider hint from a resource or data source
// type: the prefix before the first underscore, or the whole type when it
// has no underscore.
func ProviderForType(t string) string {
	if i := strings.Index(t, "_"); i > 0 {
		return t[:i]
	}
	return t
}

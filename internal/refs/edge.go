package refs

import "github.com/vk/tfindex/internal/block"

// EdgeType distinguishes structural containment from symbolic reads.
type EdgeType string

const (
	// EdgeReference marks a symbolic read of one block by another.
	EdgeReference EdgeType = "reference"
	// EdgeContains marks module-to-internal-block containment.
	EdgeContains EdgeType = "contains"
)

// ReferenceType names the pattern that produced an edge.
type ReferenceType string

const (
	RefVar               ReferenceType = "var"
	RefResource          ReferenceType = "resource"
	RefData              ReferenceType = "data"
	RefLocal             ReferenceType = "local"
	RefModuleContainment ReferenceType = "module_containment"
	RefModuleReference   ReferenceType = "module_reference"
)

// Edge is one directed, deduplicated dependency between two blocks. From and
// To are handles into the index, not independent clones; their identity for
// deduplication is the fully-qualified address string, never the pointer.
type Edge struct {
	From *block.Block
	To   *block.Block

	Type          EdgeType
	ReferenceType ReferenceType

	// Attribute is the attribute name read on the target, when the match
	// captured one. For local references it carries the referenced local
	// value name, since locals blocks have no per-entry identity.
	Attribute string

	// Relationship is a free-form label for presentation layers.
	Relationship string
}

// Key returns the dedup identity of the edge: the ordered address pair.
func (e *Edge) Key() string {
	return block.Address(e.From) + "\x00" + block.Address(e.To)
}

// Package refs infers directed dependency edges between indexed blocks.
//
// The engine is deliberately lexical: each block's own source slice is
// scanned with regular expressions for reference shapes (var.x, type.name,
// data.type.name, local.x, module.x.attr) and every match is resolved
// against the block index under exact module-scope matching. No expression
// evaluation happens, so the result both under- and over-matches; every
// edge records which pattern produced it so a semantic layer could replace
// this one without changing the edge shape.
//
// Extraction runs in a fixed pass order: module containment, then
// module-to-module references, then the per-block scan. Edges are
// deduplicated by the ordered pair of fully-qualified addresses, first
// producer winning.
package refs

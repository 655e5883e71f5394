// Package update applies debounced filesystem change batches to an existing
// ProjectIndex: deleted files drop their blocks, changed and created files
// are reparsed, the lookup maps are rebuilt from scratch, and references are
// re-extracted in full. Edges are never patched incrementally because one
// renamed block can invalidate edges anywhere in the project.
package update

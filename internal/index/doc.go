// Package index assembles parsed blocks into a ProjectIndex and exposes the
// Builder that drives a full batch build: parse every file (through the
// cache), accumulate blocks and statistics, derive the sorted lookup maps,
// and run reference extraction over the result.
package index

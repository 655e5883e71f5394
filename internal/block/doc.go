// Package block defines the core data model of the indexer: one Block per
// declared Terraform construct (resource, data source, module call, variable,
// output, locals), its module-scope path, its character range inside the
// defining file, and the fully-qualified address string used for display and
// edge deduplication.
package block

// Package config defines the configuration model for the indexing core:
// parse-time block filters, discovery ignore rules, parse-cache bounds, the
// worker-offload threshold for large batches, and the timing knobs of the
// incremental-update pipeline.
//
// The `config.Config` is the single source of truth for the parser, cache,
// index, and session packages. It is plain data; translating CLI flags into
// it is the cli package's job.
package config

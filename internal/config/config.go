package config

import (
	"fmt"
	"runtime"
	"time"
)

// Defaults applied by New.
const (
	DefaultCacheMaxEntries  = 1000
	DefaultCacheMaxAge      = 5 * time.Minute
	DefaultWorkerThreshold  = 500
	DefaultDebounceInterval = 250 * time.Millisecond
	DefaultCancelTimeout    = time.Second
)

// Config holds every knob the indexing core consumes.
type Config struct {
	// Parse-time filters. Each toggle suppresses emission of one block
	// kind entirely; resources and module calls are always emitted.
	IncludeDataSources bool
	IncludeVariables   bool
	IncludeOutputs     bool
	IncludeLocals      bool

	// IncludeTerraformCache lets the local .terraform module cache
	// participate in file discovery. Off by default: the cache directory
	// can dwarf the workspace itself.
	IncludeTerraformCache bool

	// IgnoreGlobs are doublestar patterns matched against slash-separated
	// paths relative to the discovery root.
	IgnoreGlobs []string

	// Parse-cache bounds.
	CacheMaxEntries int
	CacheMaxAge     time.Duration

	// WorkerThreshold is the batch size at which a build moves off the
	// caller onto the parallel worker pool. WorkerParallelism bounds the
	// pool; zero means one worker per CPU.
	WorkerThreshold   int
	WorkerParallelism int

	// DebounceInterval is the quiet period the watcher-side debouncer
	// waits before delivering a coalesced change batch.
	DebounceInterval time.Duration

	// CancelTimeout bounds how long a build cancellation waits for the
	// in-flight worker to acknowledge before it is abandoned.
	CancelTimeout time.Duration

	// ContinueOnError keeps a batch going past file-level parse failures,
	// accumulating them as diagnostics instead of halting.
	ContinueOnError bool
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		IncludeDataSources: true,
		IncludeVariables:   true,
		IncludeOutputs:     true,
		IncludeLocals:      true,
		CacheMaxEntries:    DefaultCacheMaxEntries,
		CacheMaxAge:        DefaultCacheMaxAge,
		WorkerThreshold:    DefaultWorkerThreshold,
		WorkerParallelism:  runtime.NumCPU(),
		DebounceInterval:   DefaultDebounceInterval,
		CancelTimeout:      DefaultCancelTimeout,
		ContinueOnError:    true,
	}
}

// Validate checks the numeric knobs for values that would wedge the core.
func (c *Config) Validate() error {
	if c.CacheMaxEntries <= 0 {
		return fmt.Errorf("CacheMaxEntries must be positive, got %d", c.CacheMaxEntries)
	}
	if c.CacheMaxAge <= 0 {
		return fmt.Errorf("CacheMaxAge must be positive, got %s", c.CacheMaxAge)
	}
	if c.WorkerThreshold < 0 {
		return fmt.Errorf("WorkerThreshold must not be negative, got %d", c.WorkerThreshold)
	}
	if c.WorkerParallelism < 0 {
		return fmt.Errorf("WorkerParallelism must not be negative, got %d", c.WorkerParallelism)
	}
	if c.DebounceInterval <= 0 {
		return fmt.Errorf("DebounceInterval must be positive, got %s", c.DebounceInterval)
	}
	if c.CancelTimeout <= 0 {
		return fmt.Errorf("CancelTimeout must be positive, got %s", c.CancelTimeout)
	}
	return nil
}

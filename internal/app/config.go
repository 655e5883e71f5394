package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Path string // project root to index

	Watch           bool
	PollInterval    time.Duration
	HealthcheckPort int

	LogFormat string
	LogLevel  string

	NoCache               bool
	ContinueOnError       bool
	IncludeTerraformCache bool
	IgnoreGlobs           []string
	Workers               int
}

// DefaultPollInterval is how often watch mode rescans the project root.
const DefaultPollInterval = 2 * time.Second

func NewConfig(cfg Config) (*Config, error) {
	if cfg.Path == "" {
		return nil, errors.New("Path is a required configuration field and cannot be empty")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	return &cfg, nil
}

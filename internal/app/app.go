package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/tfindex/internal/config"
	"github.com/vk/tfindex/internal/session"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	core    *config.Config
	session *session.Session
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and indexing
// session.
func NewApp(outW io.Writer, appConfig *Config) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	core := config.New()
	core.IgnoreGlobs = appConfig.IgnoreGlobs
	core.IncludeTerraformCache = appConfig.IncludeTerraformCache
	core.ContinueOnError = appConfig.ContinueOnError
	if appConfig.Workers > 0 {
		core.WorkerParallelism = appConfig.Workers
	}

	sess, err := session.New(core)
	if err != nil {
		// A failure to assemble the pipeline is a fatal startup error.
		panic(fmt.Errorf("failed to configure indexing session: %w", err))
	}
	logger.Debug("Indexing session configured.", "parallelism", core.WorkerParallelism)

	return &App{
		outW:    outW,
		logger:  logger,
		config:  appConfig,
		core:    core,
		session: sess,
	}
}

// Session returns the application's indexing session. This is primarily for
// testing.
func (a *App) Session() *session.Session {
	return a.session
}

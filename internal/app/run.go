package app

import (
	"context"
	"fmt"

	"github.com/vk/tfindex/internal/ctxlog"
	"github.com/vk/tfindex/internal/graph"
	"github.com/vk/tfindex/internal/index"
	"github.com/vk/tfindex/internal/session"
	"github.com/vk/tfindex/internal/watch"
)

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	files, err := a.session.DiscoverFiles(ctx, a.config.Path)
	if err != nil {
		return fmt.Errorf("discovering configuration files: %w", err)
	}
	a.logger.Info("Discovered configuration files.", "count", len(files), "root", a.config.Path)

	opts := index.Options{
		UseCache:        !a.config.NoCache,
		ContinueOnError: a.config.ContinueOnError,
		Progress: func(p index.Progress) {
			a.logger.Debug("indexing", "processed", p.Processed, "total", p.Total, "file", p.CurrentFile)
		},
	}
	res, buildErr := a.session.BuildIndex(ctx, files, opts)
	a.writeReport(ctx, res)

	g := graph.FromEdges(res.Index.Refs)
	if cycleErr := g.DetectCycles(); cycleErr != nil {
		a.logger.Warn("Configuration contains a reference cycle.", "error", cycleErr)
	}

	if buildErr != nil {
		if !a.config.ContinueOnError {
			return fmt.Errorf("indexing failed: %w", buildErr)
		}
		a.logger.Warn("Indexing finished with file errors.", "error", buildErr)
	}

	if !a.config.Watch {
		a.logger.Debug("App.Run method finished.")
		return nil
	}
	return a.watchLoop(ctx)
}

// watchLoop keeps the index current until ctx is cancelled.
func (a *App) watchLoop(ctx context.Context) error {
	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
	}

	unsubscribe := a.session.Subscribe(func(ev session.Event) {
		switch ev.Kind {
		case session.EventParseErrors:
			a.logger.Warn("Update produced parse errors.", "count", len(ev.Errors))
		default:
			a.logger.Info("Index updated.", "event", string(ev.Kind), "paths", len(ev.Paths))
		}
	})
	defer unsubscribe()

	debouncer := a.session.Debouncer(ctx)
	defer debouncer.Stop()

	poller := watch.NewPoller(a.config.Path, a.config.PollInterval, a.core, debouncer)
	a.logger.Info("👀 Watching for configuration changes...", "interval", a.config.PollInterval)
	return poller.Run(ctx)
}

package watch

import (
	"context"
	"os"
	"time"

	"github.com/vk/tfindex/internal/config"
	"github.com/vk/tfindex/internal/ctxlog"
	"github.com/vk/tfindex/internal/fsutil"
)

// Poller is a portable change source: it rescans the project root on an
// interval, diffs modification times against the previous pass, and feeds
// the differences into a Debouncer. It trades latency for zero OS-specific
// watcher plumbing.
type Poller struct {
	root      string
	cfg       *config.Config
	interval  time.Duration
	debouncer *Debouncer

	mtimes map[string]time.Time
}

// NewPoller returns a poller over root feeding d. The first scan only primes
// the modification-time table; pre-existing files are not reported as
// created.
func NewPoller(root string, interval time.Duration, cfg *config.Config, d *Debouncer) *Poller {
	return &Poller{
		root:      root,
		cfg:       cfg,
		interval:  interval,
		debouncer: d,
		mtimes:    make(map[string]time.Time),
	}
}

// Run scans until ctx is cancelled. Failed scans are logged and retried on
// the next tick rather than terminating the loop.
func (p *Poller) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	if err := p.scan(ctx, false); err != nil {
		return err
	}
	logger.Debug("poller primed", "root", p.root, "files", len(p.mtimes), "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.scan(ctx, true); err != nil {
				logger.Warn("poll scan failed", "error", err)
			}
		}
	}
}

func (p *Poller) scan(ctx context.Context, emit bool) error {
	files, err := fsutil.FindConfigFiles(ctx, p.root, p.cfg)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			// Raced a deletion; the next pass reports it.
			continue
		}
		seen[f] = struct{}{}

		prev, known := p.mtimes[f]
		mtime := info.ModTime()
		switch {
		case !known:
			if emit {
				p.debouncer.Created(f)
			}
		case !mtime.Equal(prev):
			if emit {
				p.debouncer.Changed(f)
			}
		}
		p.mtimes[f] = mtime
	}

	for f := range p.mtimes {
		if _, ok := seen[f]; !ok {
			delete(p.mtimes, f)
			if emit {
				p.debouncer.Deleted(f)
			}
		}
	}
	return nil
}

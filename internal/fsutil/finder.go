// Package fsutil provides workspace file discovery for the indexer.
package fsutil

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/vk/tfindex/internal/config"
	"github.com/vk/tfindex/internal/ctxlog"
)

// terraformCacheDir is excluded from discovery unless explicitly opted in;
// it can hold orders of magnitude more files than the workspace.
const terraformCacheDir = ".terraform"

// FindConfigFiles recursively collects the .tf and .tf.json files under
// root, honoring the configured ignore globs. The result is absolute,
// deduplicated, and sorted, which keeps downstream processing order (and
// therefore edge attribution) deterministic.
func FindConfigFiles(ctx context.Context, root string, cfg *config.Config) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var files []string

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				// An unreadable or missing root is not a skippable entry.
				return err
			}
			logger.Debug("skipping unreadable path during discovery", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if d.Name() == terraformCacheDir && !cfg.IncludeTerraformCache {
				return filepath.SkipDir
			}
			if ignored(rel, cfg.IgnoreGlobs) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".tf") && !strings.HasSuffix(d.Name(), ".tf.json") {
			return nil
		}
		if ignored(rel, cfg.IgnoreGlobs) {
			return nil
		}
		if _, dup := seen[path]; dup {
			return nil
		}
		seen[path] = struct{}{}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ignored matches a slash-separated relative path against the ignore globs.
// Invalid patterns are treated as non-matching.
func ignored(rel string, globs []string) bool {
	for _, g := range globs {
		if ok, err := doublestar.Match(g, rel); err == nil && ok {
			return true
		}
	}
	return false
}

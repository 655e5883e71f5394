package modres

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/tfindex/internal/ctxlog"
)

// skipDirNames are cache, VCS, and dependency-manager directories that never
// contain indexable configuration of the module itself.
var skipDirNames = map[string]struct{}{
	".git":              {},
	".svn":              {},
	".terraform":        {},
	".terragrunt-cache": {},
	"node_modules":      {},
}

// FindModuleFiles walks dir recursively collecting .tf and .tf.json paths.
// Unreadable subdirectories are logged and skipped; a partial listing beats
// an aborted walk.
func FindModuleFiles(ctx context.Context, dir string) []string {
	logger := ctxlog.FromContext(ctx)

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug("skipping unreadable path during module walk", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if _, skip := skipDirNames[d.Name()]; skip {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".tf") || strings.HasSuffix(d.Name(), ".tf.json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		logger.Debug("module file walk ended early", "dir", dir, "error", err)
	}

	sort.Strings(files)
	return files
}

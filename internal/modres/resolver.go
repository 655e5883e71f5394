package modres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/tfindex/internal/ctxlog"
)

// ResolutionType classifies how (or why not) a source string resolved.
type ResolutionType string

const (
	TypeLocal    ResolutionType = "local"
	TypeCached   ResolutionType = "cached"
	TypeRegistry ResolutionType = "registry"
	TypeGit      ResolutionType = "git"
	TypeUnknown  ResolutionType = "unknown"
)

// Resolution is the outcome of resolving one module source. Err is
// informational, consumed for diagnostics and logging only; an unresolved
// source is an expected outcome, not a failure of the caller's operation.
type Resolution struct {
	Resolved bool
	Dir      string
	Type     ResolutionType

	// Version is the normalized installed version from the cache manifest,
	// when the record carried a parseable one.
	Version string

	Err string
}

// Resolver resolves module source strings against the local filesystem.
type Resolver struct{}

// NewResolver returns a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve maps source to a local directory, relative to baseDir (the
// directory of the file declaring the module call).
func (r *Resolver) Resolve(ctx context.Context, source, baseDir string) Resolution {
	logger := ctxlog.FromContext(ctx)

	if isLocalSource(source) {
		return r.resolveLocal(source, baseDir)
	}

	if res, ok := r.resolveCached(ctx, source, baseDir); ok {
		return res
	}

	res := classifyRemote(source)
	logger.Debug("module source not locally resolvable", "source", source, "type", res.Type)
	return res
}

func isLocalSource(source string) bool {
	return strings.HasPrefix(source, "./") ||
		strings.HasPrefix(source, "../") ||
		strings.HasPrefix(source, "/")
}

func (r *Resolver) resolveLocal(source, baseDir string) Resolution {
	dir := source
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(baseDir, source)
	}
	dir = filepath.Clean(dir)

	info, err := os.Stat(dir)
	if err != nil {
		return Resolution{
			Type: TypeLocal,
			Err:  fmt.Sprintf("local module path %s does not exist: %v", dir, err),
		}
	}
	if !info.IsDir() {
		return Resolution{
			Type: TypeLocal,
			Err:  fmt.Sprintf("local module path %s is not a directory", dir),
		}
	}
	return Resolution{Resolved: true, Dir: dir, Type: TypeLocal}
}

// resolveCached looks the source up in the nearest module-cache manifest.
// The second return value is false when no cache root exists above baseDir
// or the manifest has no matching record; the caller then falls through to
// classification.
func (r *Resolver) resolveCached(ctx context.Context, source, baseDir string) (Resolution, bool) {
	logger := ctxlog.FromContext(ctx)

	root, ok := findCacheRoot(baseDir)
	if !ok {
		return Resolution{}, false
	}

	manifest, err := loadManifest(manifestPath(root))
	if err != nil {
		logger.Debug("module manifest unreadable", "root", root, "error", err)
		return Resolution{}, false
	}

	rec, ok := manifest.lookup(source)
	if !ok {
		return Resolution{}, false
	}

	dir := rec.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	dir = filepath.Clean(dir)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Resolution{
			Type: TypeCached,
			Err:  fmt.Sprintf("cached module dir %s for source %q is missing", dir, source),
		}, true
	}

	res := Resolution{Resolved: true, Dir: dir, Type: TypeCached}
	if v := rec.version(); v != nil {
		res.Version = v.String()
	}
	return res, true
}

// classifyRemote buckets a source that cannot be resolved locally.
func classifyRemote(source string) Resolution {
	switch {
	case strings.HasPrefix(source, "git::") || strings.Contains(source, "://"):
		return Resolution{
			Type: TypeGit,
			Err:  fmt.Sprintf("module source %q is a git/remote address; fetching is not supported", source),
		}
	case strings.Contains(source, "/"):
		return Resolution{
			Type: TypeRegistry,
			Err:  fmt.Sprintf("module source %q looks like a registry address; fetching is not supported", source),
		}
	default:
		return Resolution{
			Type: TypeUnknown,
			Err:  fmt.Sprintf("module source %q is not resolvable", source),
		}
	}
}

// findCacheRoot walks upward from dir looking for a directory containing the
// well-known cache marker. Reaching the filesystem root without finding one
// yields no result, not an error.
func findCacheRoot(dir string) (string, bool) {
	dir = filepath.Clean(dir)
	for {
		marker := filepath.Join(dir, cacheDirName)
		if info, err := os.Stat(marker); err == nil && info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

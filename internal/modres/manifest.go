package modres

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	goversion "github.com/hashicorp/go-version"
)

const (
	// cacheDirName marks a module cache root, as written by `terraform init`.
	cacheDirName = ".terraform"

	manifestRelPath = "modules/modules.json"
)

// manifestRecord is one installed-module entry of the cache manifest.
type manifestRecord struct {
	Key     string `json:"Key"`
	Source  string `json:"Source"`
	Dir     string `json:"Dir"`
	Version string `json:"Version,omitempty"`
}

type manifestFile struct {
	Modules []manifestRecord `json:"Modules"`
}

func manifestPath(cacheRoot string) string {
	return filepath.Join(cacheRoot, cacheDirName, manifestRelPath)
}

// loadManifest reads and decodes a modules.json manifest. Records carrying a
// malformed Version are kept; the version is advisory metadata here.
func loadManifest(path string) (*manifestFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module manifest: %w", err)
	}
	var m manifestFile
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode module manifest %s: %w", path, err)
	}
	return &m, nil
}

// lookup matches a requested source string by exact Source or Key equality.
func (m *manifestFile) lookup(source string) (manifestRecord, bool) {
	for _, rec := range m.Modules {
		if rec.Source == source || rec.Key == source {
			return rec, true
		}
	}
	return manifestRecord{}, false
}

// version parses the record's Version field, or nil when absent or
// malformed.
func (r manifestRecord) version() *goversion.Version {
	if r.Version == "" {
		return nil
	}
	v, err := goversion.NewVersion(r.Version)
	if err != nil {
		return nil
	}
	return v
}

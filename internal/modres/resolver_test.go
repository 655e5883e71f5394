package modres

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirAll(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0o755))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	mkdirAll(t, filepath.Dir(path))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolveLocal(t *testing.T) {
	dir := t.TempDir()
	mkdirAll(t, filepath.Join(dir, "modules", "vpc"))
	ctx := context.Background()
	r := NewResolver()

	t.Run("relative path resolves", func(t *testing.T) {
		res := r.Resolve(ctx, "./modules/vpc", dir)
		require.True(t, res.Resolved)
		assert.Equal(t, TypeLocal, res.Type)
		assert.Equal(t, filepath.Join(dir, "modules", "vpc"), res.Dir)
	})

	t.Run("parent-relative path resolves", func(t *testing.T) {
		res := r.Resolve(ctx, "../vpc", filepath.Join(dir, "modules", "vpc"))
		require.True(t, res.Resolved)
		assert.Equal(t, filepath.Join(dir, "modules", "vpc"), res.Dir)
	})

	t.Run("absolute path resolves", func(t *testing.T) {
		res := r.Resolve(ctx, filepath.Join(dir, "modules", "vpc"), "/elsewhere")
		require.True(t, res.Resolved)
	})

	t.Run("missing path is unresolved with explanation", func(t *testing.T) {
		res := r.Resolve(ctx, "./modules/nope", dir)
		assert.False(t, res.Resolved)
		assert.Equal(t, TypeLocal, res.Type)
		assert.Contains(t, res.Err, "does not exist")
	})

	t.Run("file instead of directory is unresolved", func(t *testing.T) {
		writeFile(t, filepath.Join(dir, "modules", "file.tf"), "")
		res := r.Resolve(ctx, "./modules/file.tf", dir)
		assert.False(t, res.Resolved)
		assert.Contains(t, res.Err, "not a directory")
	})
}

func TestResolveCached(t *testing.T) {
	root := t.TempDir()
	moduleDir := filepath.Join(root, ".terraform", "modules", "vpc")
	mkdirAll(t, moduleDir)
	writeFile(t, filepath.Join(root, ".terraform", "modules", "modules.json"), `{
  "Modules": [
    {"Key": "", "Source": "", "Dir": "."},
    {"Key": "vpc", "Source": "registry.example.com/org/vpc/aws", "Dir": ".terraform/modules/vpc", "Version": "2.1.0"}
  ]
}`)
	nested := filepath.Join(root, "envs", "prod")
	mkdirAll(t, nested)

	ctx := context.Background()
	r := NewResolver()

	t.Run("match by source", func(t *testing.T) {
		res := r.Resolve(ctx, "registry.example.com/org/vpc/aws", root)
		require.True(t, res.Resolved)
		assert.Equal(t, TypeCached, res.Type)
		assert.Equal(t, moduleDir, res.Dir)
		assert.Equal(t, "2.1.0", res.Version)
	})

	t.Run("match by key", func(t *testing.T) {
		res := r.Resolve(ctx, "vpc", root)
		require.True(t, res.Resolved)
		assert.Equal(t, moduleDir, res.Dir)
	})

	t.Run("cache root found by upward walk", func(t *testing.T) {
		res := r.Resolve(ctx, "registry.example.com/org/vpc/aws", nested)
		require.True(t, res.Resolved)
		assert.Equal(t, moduleDir, res.Dir)
	})

	t.Run("manifest dir missing on disk", func(t *testing.T) {
		writeFile(t, filepath.Join(root, ".terraform", "modules", "modules.json"), `{
  "Modules": [{"Key": "gone", "Source": "example.com/org/gone/aws", "Dir": ".terraform/modules/gone"}]
}`)
		res := r.Resolve(ctx, "example.com/org/gone/aws", root)
		assert.False(t, res.Resolved)
		assert.Equal(t, TypeCached, res.Type)
		assert.Contains(t, res.Err, "missing")
	})
}

func TestClassifyUnresolvable(t *testing.T) {
	ctx := context.Background()
	r := NewResolver()
	base := t.TempDir() // no .terraform anywhere above a temp dir's content

	testCases := []struct {
		name     string
		source   string
		expected ResolutionType
	}{
		{name: "registry shorthand", source: "terraform-aws-modules/vpc/aws", expected: TypeRegistry},
		{name: "git prefix", source: "git::https://example.com/vpc.git", expected: TypeGit},
		{name: "scheme url", source: "https://example.com/vpc.zip", expected: TypeGit},
		{name: "bare word", source: "mystery", expected: TypeUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := r.Resolve(ctx, tc.source, base)
			assert.False(t, res.Resolved)
			assert.Equal(t, tc.expected, res.Type)
			assert.NotEmpty(t, res.Err)
		})
	}
}

func TestFindModuleFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.tf"), "")
	writeFile(t, filepath.Join(dir, "vars.tf.json"), "{}")
	writeFile(t, filepath.Join(dir, "sub", "outputs.tf"), "")
	writeFile(t, filepath.Join(dir, "README.md"), "")
	writeFile(t, filepath.Join(dir, ".terraform", "modules", "x", "main.tf"), "")
	writeFile(t, filepath.Join(dir, ".git", "config.tf"), "")
	writeFile(t, filepath.Join(dir, "node_modules", "pkg", "odd.tf"), "")

	files := FindModuleFiles(context.Background(), dir)
	assert.Equal(t, []string{
		filepath.Join(dir, "main.tf"),
		filepath.Join(dir, "sub", "outputs.tf"),
		filepath.Join(dir, "vars.tf.json"),
	}, files)
}

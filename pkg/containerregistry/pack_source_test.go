package containerregistry

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func archiveEntries(t *testing.T, archivePath string) map[string]string {
	t.Helper()

	f, err := os.Open(archivePath)
	require.NoError(t, err)
	defer f.Close()

	gr, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gr)

	entries := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[hdr.Name] = string(body)
	}

	return entries
}

func TestPackRemoteBuildSource(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Dockerfile"), "FROM python:3.12-slim")
	writeFile(t, filepath.Join(root, "worker.py"), "print('hi')")
	writeFile(t, filepath.Join(root, "data", "cache.json"), "{}")
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/main")

	archive, dockerfilePath, err := PackRemoteBuildSource(context.Background(), root, filepath.Join(root, "Dockerfile"))
	if archive != "" {
		defer os.Remove(archive)
	}
	require.NoError(t, err)

	assert.Equal(t, "Dockerfile", dockerfilePath)

	entries := archiveEntries(t, archive)
	assert.Contains(t, entries, "worker.py")
	assert.Contains(t, entries, "data/cache.json")
	assert.NotContains(t, entries, ".git/HEAD")
	assert.Equal(t, "FROM python:3.12-slim", entries["Dockerfile"])
}

func TestPackRemoteBuildSourceRelativeContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Dockerfile"), "FROM python:3.12-slim")
	writeFile(t, filepath.Join(root, "worker.py"), "print('hi')")
	writeFile(t, filepath.Join(root, "a"), "short name")
	// testing.T.Chdir requires Go 1.24; emulate it on the local toolchain.
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	archive, dockerfilePath, err := PackRemoteBuildSource(context.Background(), ".", "Dockerfile")
	if archive != "" {
		defer os.Remove(archive)
	}
	require.NoError(t, err)

	assert.Equal(t, "Dockerfile", dockerfilePath)

	entries := archiveEntries(t, archive)
	assert.Equal(t, "FROM python:3.12-slim", entries["Dockerfile"])
	assert.Equal(t, "print('hi')", entries["worker.py"])
	assert.Equal(t, "short name", entries["a"])
}

func TestPackRemoteBuildSourceHonorsDockerignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Dockerfile"), "FROM python:3.12-slim")
	writeFile(t, filepath.Join(root, "worker.py"), "print('hi')")
	writeFile(t, filepath.Join(root, "results", "out.json"), "{}")
	writeFile(t, filepath.Join(root, ".dockerignore"), "results/\n")

	archive, _, err := PackRemoteBuildSource(context.Background(), root, filepath.Join(root, "Dockerfile"))
	if archive != "" {
		defer os.Remove(archive)
	}
	require.NoError(t, err)

	entries := archiveEntries(t, archive)
	assert.Contains(t, entries, "worker.py")
	assert.NotContains(t, entries, "results/out.json")
}

func TestPackRemoteBuildSourceDockerfileOutsideContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "worker.py"), "print('hi')")

	outside := filepath.Join(t.TempDir(), "Dockerfile.worker")
	writeFile(t, outside, "FROM python:3.12-slim")

	archive, dockerfilePath, err := PackRemoteBuildSource(context.Background(), root, outside)
	if archive != "" {
		defer os.Remove(archive)
	}
	require.NoError(t, err)

	assert.NotEmpty(t, dockerfilePath)
	entries := archiveEntries(t, archive)
	assert.Equal(t, "FROM python:3.12-slim", entries[dockerfilePath])
}

package release

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func hexDigest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func TestFileDigest(t *testing.T) {
	dir := t.TempDir()
	path := writeArtifact(t, dir, "gridx-1.0.0-linux.tar.xz", "artifact bytes")

	digest, err := FileDigest(path)
	require.NoError(t, err)
	assert.Equal(t, hexDigest("artifact bytes"), digest)

	_, err = FileDigest(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestUpdateChecksumsWritesSidecars(t *testing.T) {
	dir := t.TempDir()
	tarball := writeArtifact(t, dir, "gridx-1.0.0-linux.tar.xz", "tar bytes")
	zipfile := writeArtifact(t, dir, "gridx-1.0.0-windows.zip", "zip bytes")
	writeArtifact(t, dir, "notes.txt", "not an artifact")

	digests, err := UpdateChecksums(DefaultPatterns(dir))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"gridx-1.0.0-linux.tar.xz": hexDigest("tar bytes"),
		"gridx-1.0.0-windows.zip":  hexDigest("zip bytes"),
	}, digests)

	raw, err := os.ReadFile(tarball + SidecarSuffix)
	require.NoError(t, err)
	assert.Equal(t, hexDigest("tar bytes")+"  "+tarball+"\n", string(raw))

	_, err = os.Stat(zipfile + SidecarSuffix)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "notes.txt"+SidecarSuffix))
	assert.True(t, os.IsNotExist(err))
}

func TestUpdateChecksumsIdempotent(t *testing.T) {
	dir := t.TempDir()
	tarball := writeArtifact(t, dir, "gridx-1.0.0-linux.tar.xz", "tar bytes")

	_, err := UpdateChecksums(DefaultPatterns(dir))
	require.NoError(t, err)
	first, err := os.ReadFile(tarball + SidecarSuffix)
	require.NoError(t, err)

	_, err = UpdateChecksums(DefaultPatterns(dir))
	require.NoError(t, err)
	second, err := os.ReadFile(tarball + SidecarSuffix)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestUpdateChecksumsEmptyDir(t *testing.T) {
	digests, err := UpdateChecksums(DefaultPatterns(t.TempDir()))
	require.NoError(t, err)
	assert.Empty(t, digests)
}

const manifestJSON = `{
  "schema": 1,
  "releases": [
    {
      "version": "1.0.0",
      "artifacts": ["gridx-1.0.0-linux.tar.xz", "gridx-1.0.0-windows.zip"]
    }
  ],
  "artifacts": {
    "gridx-1.0.0-linux.tar.xz": {
      "os": "linux",
      "checksums": {"sha256": "stale"}
    },
    "gridx-1.0.0-windows.zip": {
      "os": "windows",
      "checksums": {"sha256": "stale"}
    }
  }
}`

func TestUpdateManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte(manifestJSON), 0o644))

	digests := map[string]string{
		"gridx-1.0.0-linux.tar.xz": hexDigest("tar bytes"),
	}
	require.NoError(t, UpdateManifest(path, digests))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	artifacts := doc["artifacts"].(map[string]any)
	linux := artifacts["gridx-1.0.0-linux.tar.xz"].(map[string]any)
	assert.Equal(t, hexDigest("tar bytes"),
		linux["checksums"].(map[string]any)["sha256"])

	// Artifacts without a fresh digest keep their recorded value
	windows := artifacts["gridx-1.0.0-windows.zip"].(map[string]any)
	assert.Equal(t, "stale", windows["checksums"].(map[string]any)["sha256"])

	// Unrelated fields round-trip
	assert.Equal(t, float64(1), doc["schema"])
	assert.Equal(t, "linux", linux["os"])
}

func TestUpdateManifestMissingFile(t *testing.T) {
	assert.NoError(t, UpdateManifest(filepath.Join(t.TempDir(), "manifest.json"), nil))
}

func TestUpdateManifestMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
	assert.Error(t, UpdateManifest(path, nil))
}

func TestUpdateManifestAddsChecksumObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	doc := `{
  "releases": [{"artifacts": ["gridx-1.0.0-linux.tar.xz"]}],
  "artifacts": {"gridx-1.0.0-linux.tar.xz": {"os": "linux"}}
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	require.NoError(t, UpdateManifest(path, map[string]string{
		"gridx-1.0.0-linux.tar.xz": "abc123",
	}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	record := out["artifacts"].(map[string]any)["gridx-1.0.0-linux.tar.xz"].(map[string]any)
	assert.Equal(t, "abc123", record["checksums"].(map[string]any)["sha256"])
}

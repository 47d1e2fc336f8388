// Package release maintains the checksum sidecars and release manifest
// for distribution artifacts. Each artifact gets a ".sha256" sidecar in
// the conventional two-space digest format, and the manifest's recorded
// checksums are rewritten to match the files on disk.
package release

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/voltmesh/gridx/errors"
	"github.com/voltmesh/gridx/logger"
)

// SidecarSuffix is appended to an artifact path to name its digest file.
const SidecarSuffix = ".sha256"

// DefaultPatterns returns the glob patterns matching distribution
// artifacts under distDir.
func DefaultPatterns(distDir string) []string {
	return []string{
		filepath.Join(distDir, "gridx-*.tar.xz"),
		filepath.Join(distDir, "gridx-*.zip"),
	}
}

// FileDigest computes the SHA-256 digest of the file at path, returned
// as lowercase hex.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "open artifact %s", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "digest artifact %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteSidecar writes the digest file next to the artifact, in the
// two-space format shasum-style tools verify: "<hexdigest>  <path>\n".
// The recorded path is the artifact path as given, so verification runs
// from the same directory the sidecar was produced from.
func WriteSidecar(path, digest string) error {
	sidecar := path + SidecarSuffix
	content := digest + "  " + path + "\n"
	if err := os.WriteFile(sidecar, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "write sidecar %s", sidecar)
	}
	return nil
}

// UpdateChecksums digests every artifact matching patterns, writes or
// rewrites its sidecar, and returns artifact base names mapped to their
// digests. Re-running against unchanged artifacts rewrites identical
// sidecars, so the operation is idempotent.
func UpdateChecksums(patterns []string) (map[string]string, error) {
	digests := make(map[string]string)
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "bad artifact pattern %q", pattern)
		}
		for _, path := range matches {
			digest, err := FileDigest(path)
			if err != nil {
				return nil, err
			}
			if err := WriteSidecar(path, digest); err != nil {
				return nil, err
			}
			digests[filepath.Base(path)] = digest
			logger.Logger.Infow("Updated artifact checksum",
				"artifact", path,
				"sha256", digest,
			)
		}
	}
	return digests, nil
}

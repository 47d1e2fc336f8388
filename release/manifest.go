package release

import (
	"encoding/json"
	"os"

	"github.com/voltmesh/gridx/errors"
)

// UpdateManifest rewrites the SHA-256 checksums recorded in the release
// manifest at path to the given digests (artifact base name to digest).
//
// The manifest lists artifact names under each release; the per-artifact
// records live in a top-level "artifacts" object keyed by name. Only the
// "checksums.sha256" leaf of artifacts named by a release and present in
// digests is touched; everything else round-trips untouched. A missing
// manifest is not an error, since checksum refresh also runs on partial
// build trees.
func UpdateManifest(path string, digests map[string]string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "read manifest %s", path)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errors.Wrapf(err, "parse manifest %s", path)
	}

	artifacts, _ := doc["artifacts"].(map[string]any)
	releases, _ := doc["releases"].([]any)
	for _, rel := range releases {
		relDoc, ok := rel.(map[string]any)
		if !ok {
			continue
		}
		names, _ := relDoc["artifacts"].([]any)
		for _, n := range names {
			name, ok := n.(string)
			if !ok {
				continue
			}
			digest, ok := digests[name]
			if !ok {
				continue
			}
			record, ok := artifacts[name].(map[string]any)
			if !ok {
				continue
			}
			checksums, ok := record["checksums"].(map[string]any)
			if !ok {
				checksums = map[string]any{}
				record["checksums"] = checksums
			}
			checksums["sha256"] = digest
		}
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "render manifest %s", path)
	}
	out = append(out, '\n')
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.Wrapf(err, "write manifest %s", path)
	}
	return nil
}

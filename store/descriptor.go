package store

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/voltmesh/gridx/errors"
)

// DescriptorFile is the well-known descriptor name inside a dataset root.
const DescriptorFile = "dataset.yaml"

// ZeroVersion is the schema version assumed for datasets without a
// descriptor: every upgrade ladder applies from the beginning.
const ZeroVersion = "0.0.0"

// Descriptor records what a dataset folder contains: its source format,
// current schema version, and free-form metadata. The upgrade pipeline
// rewrites SchemaVersion as its final act, which is what makes re-running
// a full ladder safe.
type Descriptor struct {
	Format        string            `yaml:"format,omitempty"`
	SchemaVersion string            `yaml:"schema_version"`
	Metadata      map[string]string `yaml:"metadata,omitempty"`
}

// Descriptor reads the dataset descriptor from the store root. A missing
// descriptor yields a zero-version descriptor rather than an error; a
// malformed one is an error.
func (s *FolderStore) Descriptor() (*Descriptor, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(s.path, DescriptorFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &Descriptor{SchemaVersion: ZeroVersion}, nil
		}
		return nil, errors.Wrapf(err, "read %s", DescriptorFile)
	}

	var d Descriptor
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrapf(err, "parse %s", DescriptorFile)
	}
	if d.SchemaVersion == "" {
		d.SchemaVersion = ZeroVersion
	}
	return &d, nil
}

// WriteDescriptor persists the descriptor into the store root.
func (s *FolderStore) WriteDescriptor(d *Descriptor) error {
	if err := s.Validate(); err != nil {
		return err
	}
	raw, err := yaml.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "marshal descriptor")
	}
	if err := os.WriteFile(filepath.Join(s.path, DescriptorFile), raw, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", DescriptorFile)
	}
	return nil
}

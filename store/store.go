// Package store abstracts a dataset's backing location. Parsers and
// upgrade steps receive a DataStore instead of touching the filesystem
// directly; exactly one DataStore exists per dataset instance, owned by
// the host and borrowed by the plugins that process it.
package store

import (
	"os"
	"path/filepath"

	"github.com/voltmesh/gridx/errors"
)

// DataStore wraps one dataset root plus format-specific construction
// parameters. Implementations must not require the path to exist at
// construction time; Validate is the existence check, and every operation
// that touches data surfaces ErrStoreMissing rather than proceeding
// against a missing root.
type DataStore interface {
	// Path returns the dataset root
	Path() string

	// Validate fails with ErrStoreMissing if the root does not exist or
	// is not a readable directory
	Validate() error

	// Descriptor reads the dataset descriptor. A missing descriptor file
	// is not an error: it yields a zero-version descriptor.
	Descriptor() (*Descriptor, error)

	// WriteDescriptor persists the descriptor. Only upgrade machinery may
	// call this; parsers treat the store as read-only.
	WriteDescriptor(*Descriptor) error

	// List returns store-relative paths matching a glob pattern
	List(pattern string) ([]string, error)

	// ReadFile reads a store-relative file
	ReadFile(name string) ([]byte, error)

	// WriteFile writes a store-relative file. Upgrade steps use this to
	// rewrite dataset files in place; parsers never do.
	WriteFile(name string, data []byte) error

	// Rename renames a store-relative file
	Rename(oldName, newName string) error

	// Param returns a format-specific construction parameter
	Param(key string) (string, bool)
}

// PluginConfig is the slice of a format config a store needs for the
// from-plugin-config construction convention: the config surfaces its
// store-relevant parameters, the store takes the root path positionally.
type PluginConfig interface {
	StoreParams() map[string]string
}

// FolderStore is the default DataStore over a local directory.
type FolderStore struct {
	path   string
	params map[string]string
}

// NewFolderStore creates a store over root. The root is not required to
// exist yet; call Validate before reading.
func NewFolderStore(root string, params map[string]string) *FolderStore {
	return &FolderStore{path: filepath.Clean(root), params: params}
}

// FromPluginConfig builds a FolderStore from a format config plus the root
// path, without knowledge of the concrete config type. A nil config means
// no store parameters.
func FromPluginConfig(cfg PluginConfig, root string) (*FolderStore, error) {
	if root == "" {
		return nil, errors.New("store root path is required")
	}
	var params map[string]string
	if cfg != nil {
		params = cfg.StoreParams()
	}
	return NewFolderStore(root, params), nil
}

// Path returns the dataset root.
func (s *FolderStore) Path() string {
	return s.path
}

// Validate checks that the root exists and is a readable directory.
func (s *FolderStore) Validate() error {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(errors.ErrStoreMissing, "%s", s.path)
		}
		return errors.Wrapf(err, "stat %s", s.path)
	}
	if !info.IsDir() {
		return errors.Wrapf(errors.ErrStoreMissing, "%s is not a directory", s.path)
	}
	if _, err := os.ReadDir(s.path); err != nil {
		return errors.Wrapf(errors.ErrStoreMissing, "%s is not readable: %v", s.path, err)
	}
	return nil
}

// List returns store-relative paths matching pattern.
func (s *FolderStore) List(pattern string) ([]string, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(s.path, pattern))
	if err != nil {
		return nil, errors.Wrapf(err, "glob %s", pattern)
	}
	rel := make([]string, 0, len(matches))
	for _, m := range matches {
		r, err := filepath.Rel(s.path, m)
		if err != nil {
			return nil, errors.Wrapf(err, "relativize %s", m)
		}
		rel = append(rel, r)
	}
	return rel, nil
}

// ReadFile reads a store-relative file.
func (s *FolderStore) ReadFile(name string) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(s.path, name))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	return raw, nil
}

// WriteFile writes a store-relative file. Used by upgrade steps that
// rewrite dataset files in place.
func (s *FolderStore) WriteFile(name string, data []byte) error {
	if err := s.Validate(); err != nil {
		return err
	}
	full := filepath.Join(s.path, name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errors.Wrapf(err, "mkdir for %s", name)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", name)
	}
	return nil
}

// Rename renames a store-relative file. Missing sources are reported, not
// silently ignored; idempotent steps check List first.
func (s *FolderStore) Rename(oldName, newName string) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := os.Rename(filepath.Join(s.path, oldName), filepath.Join(s.path, newName)); err != nil {
		return errors.Wrapf(err, "rename %s to %s", oldName, newName)
	}
	return nil
}

// Param returns a format-specific construction parameter.
func (s *FolderStore) Param(key string) (string, bool) {
	v, ok := s.params[key]
	return v, ok
}

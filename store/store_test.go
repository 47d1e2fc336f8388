package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltmesh/gridx/errors"
)

type fakeConfig struct {
	params map[string]string
}

func (f *fakeConfig) StoreParams() map[string]string { return f.params }

func TestValidateExistingDir(t *testing.T) {
	s := NewFolderStore(t.TempDir(), nil)
	assert.NoError(t, s.Validate())
}

func TestValidateMissingDir(t *testing.T) {
	s := NewFolderStore(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	err := s.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsStoreMissing(err))
}

func TestValidateFileNotDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.csv")
	require.NoError(t, os.WriteFile(file, []byte("a,b\n"), 0o644))

	s := NewFolderStore(file, nil)
	err := s.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsStoreMissing(err))
}

func TestOperationsRefuseMissingRoot(t *testing.T) {
	s := NewFolderStore(filepath.Join(t.TempDir(), "gone"), nil)

	_, err := s.List("*.csv")
	assert.True(t, errors.IsStoreMissing(err))

	_, err = s.ReadFile("x.csv")
	assert.True(t, errors.IsStoreMissing(err))

	_, err = s.Descriptor()
	assert.True(t, errors.IsStoreMissing(err))

	assert.True(t, errors.IsStoreMissing(s.WriteFile("x.csv", nil)))
	assert.True(t, errors.IsStoreMissing(s.WriteDescriptor(&Descriptor{})))
}

func TestListAndReadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cap.csv"), []byte("tech,mw\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gen.csv"), []byte("name\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))

	s := NewFolderStore(dir, nil)
	matches, err := s.List("*.csv")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cap.csv", "gen.csv"}, matches)

	raw, err := s.ReadFile("cap.csv")
	require.NoError(t, err)
	assert.Equal(t, "tech,mw\n", string(raw))
}

func TestWriteAndRename(t *testing.T) {
	s := NewFolderStore(t.TempDir(), nil)
	require.NoError(t, s.WriteFile("sub/old.csv", []byte("x\n")))
	require.NoError(t, s.Rename("sub/old.csv", "sub/new.csv"))

	matches, err := s.List("sub/*.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("sub", "new.csv")}, matches)
}

func TestFromPluginConfig(t *testing.T) {
	cfg := &fakeConfig{params: map[string]string{"case": "high_re"}}
	s, err := FromPluginConfig(cfg, t.TempDir())
	require.NoError(t, err)

	v, ok := s.Param("case")
	require.True(t, ok)
	assert.Equal(t, "high_re", v)

	_, ok = s.Param("missing")
	assert.False(t, ok)
}

func TestFromPluginConfigNilConfig(t *testing.T) {
	s, err := FromPluginConfig(nil, t.TempDir())
	require.NoError(t, err)
	_, ok := s.Param("anything")
	assert.False(t, ok)
}

func TestFromPluginConfigRequiresPath(t *testing.T) {
	_, err := FromPluginConfig(nil, "")
	assert.Error(t, err)
}

func TestDescriptorDefaultsWhenAbsent(t *testing.T) {
	s := NewFolderStore(t.TempDir(), nil)
	d, err := s.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, ZeroVersion, d.SchemaVersion)
	assert.Empty(t, d.Format)
}

func TestDescriptorRoundTrip(t *testing.T) {
	s := NewFolderStore(t.TempDir(), nil)
	in := &Descriptor{
		Format:        "reeds",
		SchemaVersion: "1.1.0",
		Metadata:      map[string]string{"case": "ref_seq"},
	}
	require.NoError(t, s.WriteDescriptor(in))

	out, err := s.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, in.Format, out.Format)
	assert.Equal(t, in.SchemaVersion, out.SchemaVersion)
	assert.Equal(t, in.Metadata, out.Metadata)
}

func TestDescriptorMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DescriptorFile), []byte(":\tnot yaml"), 0o644))

	s := NewFolderStore(dir, nil)
	_, err := s.Descriptor()
	assert.Error(t, err)
}

func TestDescriptorEmptyVersionDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DescriptorFile), []byte("format: sienna\n"), 0o644))

	s := NewFolderStore(dir, nil)
	d, err := s.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, "sienna", d.Format)
	assert.Equal(t, ZeroVersion, d.SchemaVersion)
}

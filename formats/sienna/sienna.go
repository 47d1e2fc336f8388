// Package sienna implements the Sienna production-cost export format: a
// path holding JSON component files, already versioned by its exporter,
// parsed into the canonical system document.
//
// Sienna exports carry their schema version in the descriptor from day
// one, so the default upgrade ladder is empty: a run validates the path
// and reports it, migrating nothing.
package sienna

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/voltmesh/gridx/errors"
	"github.com/voltmesh/gridx/store"
	"github.com/voltmesh/gridx/system"
	"github.com/voltmesh/gridx/upgrade"
)

// FormatName is the registry identifier for Sienna datasets.
const FormatName = "sienna"

// SchemaVersion is the dataset schema version the parser expects.
const SchemaVersion = "3.0.0"

// Config holds the caller-supplied parameters for one Sienna conversion.
type Config struct {
	// SystemName overrides the system name recorded in the document
	// metadata (default: the dataset folder name)
	SystemName string

	// Extra carries forward-compatible parameters the parser ignores
	Extra map[string]any
}

// Format returns the format identifier.
func (c *Config) Format() string { return FormatName }

// Validate checks the config for internal consistency.
func (c *Config) Validate() error { return nil }

// StoreParams surfaces store-relevant parameters for the
// from-plugin-config construction convention.
func (c *Config) StoreParams() map[string]string {
	if c.SystemName == "" {
		return nil
	}
	return map[string]string{"system_name": c.SystemName}
}

// Parser materializes the canonical system document from a Sienna export.
type Parser struct {
	cfg    *Config
	ds     store.DataStore
	strict bool
}

// NewParser constructs a parser. A nil config gets dataset defaults.
func NewParser(cfg *Config, ds store.DataStore, strict bool) (*Parser, error) {
	if ds == nil {
		return nil, errors.New("sienna parser requires a data store")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	return &Parser{cfg: cfg, ds: ds, strict: strict}, nil
}

// BuildSystem parses the JSON component files under the store path.
func (p *Parser) BuildSystem(ctx context.Context) (*system.System, error) {
	if err := p.ds.Validate(); err != nil {
		return nil, err
	}
	desc, err := p.ds.Descriptor()
	if err != nil {
		return nil, err
	}
	if p.strict && desc.SchemaVersion != SchemaVersion {
		return nil, errors.NewVersionMismatch(FormatName, SchemaVersion, desc.SchemaVersion)
	}

	doc := system.New(FormatName)
	doc.SchemaVersion = desc.SchemaVersion
	name := p.cfg.SystemName
	if name == "" {
		name = filepath.Base(p.ds.Path())
	}
	doc.SetMetadata("system_name", name)

	files, err := p.ds.List("*.json")
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "parse interrupted")
		}
		comps, err := p.readComponents(file)
		if err != nil {
			return nil, err
		}
		doc.Components = append(doc.Components, comps...)
	}
	return doc, nil
}

// componentFile is the on-disk shape of one Sienna component listing.
type componentFile struct {
	Components []struct {
		Name string            `json:"name"`
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	} `json:"components"`
}

func (p *Parser) readComponents(name string) ([]system.Component, error) {
	raw, err := p.ds.ReadFile(name)
	if err != nil {
		return nil, err
	}
	var cf componentFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, errors.Wrapf(err, "parse component file %s", name)
	}

	kind := strings.TrimSuffix(filepath.Base(name), ".json")
	comps := make([]system.Component, 0, len(cf.Components))
	for _, c := range cf.Components {
		k := c.Type
		if k == "" {
			k = kind
		}
		comps = append(comps, system.Component{Kind: k, Name: c.Name, Attrs: c.Data})
	}
	return comps, nil
}

// Upgrader validates a Sienna path and reports it. The default ladder is
// empty; callers may supply steps for bespoke migrations.
type Upgrader struct {
	ds       store.DataStore
	pipeline *upgrade.Pipeline
}

// NewUpgrader constructs an upgrader over ds.
func NewUpgrader(ds store.DataStore, steps []upgrade.Step, opts ...upgrade.PipelineOption) (*Upgrader, error) {
	if ds == nil {
		return nil, errors.New("sienna upgrader requires a data store")
	}
	p, err := upgrade.NewPipeline(ds, steps, opts...)
	if err != nil {
		return nil, err
	}
	return &Upgrader{ds: ds, pipeline: p}, nil
}

// Run executes the (usually empty) ladder and returns the serialized
// report, e.g. {"upgraded":"sienna","path":"/data/sys"}. Sienna datasets
// are path-oriented, so the location field is "path". A run that applied
// no steps reports just the format and path.
func (u *Upgrader) Run(ctx context.Context) (string, error) {
	outcome, err := u.pipeline.Run(ctx)
	if err != nil {
		return "", err
	}
	report := upgrade.Report{
		Upgraded: FormatName,
		Path:     u.ds.Path(),
	}
	if len(outcome.Applied) > 0 {
		report.FromVersion = outcome.FromVersion
		report.ToVersion = outcome.FinalVersion
		report.Steps = outcome.Applied
	}
	return report.Render()
}

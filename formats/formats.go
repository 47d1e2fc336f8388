// Package formats wires the built-in dataset format plugins into a
// registry. Registration is a static, compile-time table: adding a format
// means adding an entry here and linking its package into the binary.
package formats

import (
	"github.com/voltmesh/gridx/conf"
	"github.com/voltmesh/gridx/errors"
	"github.com/voltmesh/gridx/formats/reeds"
	"github.com/voltmesh/gridx/formats/sienna"
	"github.com/voltmesh/gridx/plugin"
	"github.com/voltmesh/gridx/store"
	"github.com/voltmesh/gridx/upgrade"
)

// builtins is the static registration table for formats shipped with the
// gridx binary.
var builtins = []plugin.Registration{
	{
		Metadata: plugin.Metadata{
			Name:        reeds.FormatName,
			Version:     "1.0.0",
			Description: "ReEDS capacity-expansion model exports",
			Author:      "gridx",
			License:     "BSD-3-Clause",
		},
		Parser:   newReedsParser,
		Upgrader: newReedsUpgrader,
		Store:    newReedsStore,
	},
	{
		Metadata: plugin.Metadata{
			Name:        sienna.FormatName,
			Version:     "1.0.0",
			Description: "Sienna production-cost model exports",
			Author:      "gridx",
			License:     "BSD-3-Clause",
		},
		Parser:   newSiennaParser,
		Upgrader: newSiennaUpgrader,
	},
}

// Register adds every built-in format to the registry.
func Register(r *plugin.Registry) error {
	return RegisterEnabled(r, nil)
}

// RegisterEnabled adds built-in formats to the registry, honoring the
// config's plugin whitelist and override policy. A nil config enables
// every format.
func RegisterEnabled(r *plugin.Registry, cfg *conf.Config) error {
	for _, reg := range builtins {
		if cfg != nil && !cfg.FormatEnabled(reg.Metadata.Name) {
			continue
		}
		register := r.Register
		if cfg != nil && cfg.Plugins.AllowOverride {
			register = r.RegisterOverride
		}
		if err := register(reg); err != nil {
			return errors.Wrapf(err, "register built-in format %s", reg.Metadata.Name)
		}
	}
	return nil
}

// Names returns the built-in format identifiers.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for _, reg := range builtins {
		names = append(names, reg.Metadata.Name)
	}
	return names
}

func reedsConfig(cfg plugin.FormatConfig) (*reeds.Config, error) {
	switch c := cfg.(type) {
	case nil:
		return &reeds.Config{}, nil
	case *reeds.Config:
		return c, nil
	default:
		return nil, errors.Newf("reeds plugin received %s config", cfg.Format())
	}
}

func newReedsParser(cfg plugin.FormatConfig, ds store.DataStore, opts plugin.Options) (plugin.Parser, error) {
	rc, err := reedsConfig(cfg)
	if err != nil {
		return nil, err
	}
	return reeds.NewParser(rc, ds, opts.Strict)
}

func newReedsUpgrader(cfg plugin.FormatConfig, ds store.DataStore, opts plugin.Options) (plugin.Upgrader, error) {
	if _, err := reedsConfig(cfg); err != nil {
		return nil, err
	}
	var popts []upgrade.PipelineOption
	if opts.TargetVersion != "" {
		popts = append(popts, upgrade.WithTarget(opts.TargetVersion))
	}
	if rec := recorderOption(opts); rec != nil {
		popts = append(popts, rec)
	}
	return reeds.NewUpgrader(ds, nil, popts...)
}

// recorderOption extracts a step recorder from the options extras, the
// hook hosts use to journal upgrade runs.
func recorderOption(opts plugin.Options) upgrade.PipelineOption {
	if rec, ok := opts.Extra["recorder"].(upgrade.Recorder); ok && rec != nil {
		return upgrade.WithRecorder(rec)
	}
	return nil
}

func newReedsStore(cfg plugin.FormatConfig, path string, opts plugin.Options) (store.DataStore, error) {
	rc, err := reedsConfig(cfg)
	if err != nil {
		return nil, err
	}
	return store.FromPluginConfig(rc, path)
}

func siennaConfig(cfg plugin.FormatConfig) (*sienna.Config, error) {
	switch c := cfg.(type) {
	case nil:
		return &sienna.Config{}, nil
	case *sienna.Config:
		return c, nil
	default:
		return nil, errors.Newf("sienna plugin received %s config", cfg.Format())
	}
}

func newSiennaParser(cfg plugin.FormatConfig, ds store.DataStore, opts plugin.Options) (plugin.Parser, error) {
	sc, err := siennaConfig(cfg)
	if err != nil {
		return nil, err
	}
	return sienna.NewParser(sc, ds, opts.Strict)
}

func newSiennaUpgrader(cfg plugin.FormatConfig, ds store.DataStore, opts plugin.Options) (plugin.Upgrader, error) {
	if _, err := siennaConfig(cfg); err != nil {
		return nil, err
	}
	var popts []upgrade.PipelineOption
	if rec := recorderOption(opts); rec != nil {
		popts = append(popts, rec)
	}
	return sienna.NewUpgrader(ds, nil, popts...)
}

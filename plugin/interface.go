// Package plugin provides the plugin architecture for gridx dataset formats.
//
// A format plugin represents one dataset format (e.g. reeds, sienna). Each
// format contributes up to three capabilities, constructed generically by
// the registry through uniform factory signatures:
//
//   - store: wraps the dataset's backing location
//   - upgrader: migrates stored data across schema versions
//   - parser: materializes the canonical system document
//
// Architecture:
//   - All plugins are linked into the binary and registered at startup
//     (static registration table, no runtime discovery)
//   - The registry is populated once, then frozen; resolution is read-only
//     and safe for concurrent use across dataset instances
//   - Capabilities interact with a dataset only through its DataStore
package plugin

import (
	"context"

	"github.com/voltmesh/gridx/store"
	"github.com/voltmesh/gridx/system"
)

// Capability identifies one of the constructible plugin roles.
type Capability string

const (
	// CapabilityParser builds the canonical system document
	CapabilityParser Capability = "parser"
	// CapabilityUpgrader migrates datasets across schema versions
	CapabilityUpgrader Capability = "upgrader"
	// CapabilityStore wraps the dataset's backing location
	CapabilityStore Capability = "store"
)

// Capabilities lists all capability kinds in resolution order.
var Capabilities = []Capability{CapabilityParser, CapabilityUpgrader, CapabilityStore}

// FormatConfig is the immutable, format-specific parameter set a caller
// constructs before invoking a plugin. Implementations are plain structs
// owned by the caller and never mutated after construction.
type FormatConfig interface {
	// Format returns the format identifier this config belongs to
	Format() string

	// Validate checks the config's parameters for internal consistency
	Validate() error
}

// Options is the structured construction-options record passed to every
// factory. It replaces an open-ended keyword sink with typed fields plus
// a forward-compatible extension channel.
type Options struct {
	// TargetVersion overrides the schema version the upgrader migrates to.
	// Empty means the ladder's final rung.
	TargetVersion string

	// Strict makes parsers fail with ErrVersionMismatch instead of
	// attempting a best-effort parse of an unexpected schema version.
	Strict bool

	// Extra carries forward-compatible construction arguments that the
	// host does not interpret. Plugins must tolerate unknown keys.
	Extra map[string]any
}

// Metadata describes a format plugin.
type Metadata struct {
	// Name is the format identifier (e.g. "reeds", "sienna")
	Name string

	// Version is the plugin version (semver)
	Version string

	// HostVersion is the required gridx version (semver constraint)
	HostVersion string

	// Description is a human-readable description
	Description string

	// Author is the plugin author/maintainer
	Author string

	// License is the plugin license (e.g. "MIT", "BSD-3-Clause")
	License string
}

// Parser consumes a (possibly just-upgraded) DataStore plus config and
// materializes the canonical system document.
type Parser interface {
	// BuildSystem is a pure function of the store's current contents and
	// the config: it must not mutate the store, and repeated calls must
	// not corrupt state even though only one call is required to work.
	BuildSystem(ctx context.Context) (*system.System, error)
}

// Upgrader brings a dataset from its current schema version to the version
// the format's parser expects.
type Upgrader interface {
	// Run executes the upgrade and returns a serialized report document,
	// e.g. {"upgraded":"reeds","folder":"/data/case"}. Fail-fast: the
	// first failing step aborts the run.
	Run(ctx context.Context) (string, error)
}

// Factory signatures. The registry calls these polymorphically; every
// implementation must accept exactly this shape (config, positional
// argument(s), options record).
type (
	// ParserFactory constructs a parser from a config and a borrowed store
	ParserFactory func(cfg FormatConfig, ds store.DataStore, opts Options) (Parser, error)

	// UpgraderFactory constructs an upgrader from a config and a borrowed store
	UpgraderFactory func(cfg FormatConfig, ds store.DataStore, opts Options) (Upgrader, error)

	// StoreFactory constructs a store from a config and the root path
	// (the from-plugin-config convention)
	StoreFactory func(cfg FormatConfig, path string, opts Options) (store.DataStore, error)
)

// Registration bundles a plugin's metadata with the capability factories
// it provides. Any subset of factories may be set; each non-nil factory
// occupies one (format, capability) slot.
type Registration struct {
	Metadata Metadata

	Parser   ParserFactory
	Upgrader UpgraderFactory
	Store    StoreFactory
}

// capabilities returns the capability kinds this registration provides.
func (reg Registration) capabilities() []Capability {
	var caps []Capability
	if reg.Parser != nil {
		caps = append(caps, CapabilityParser)
	}
	if reg.Upgrader != nil {
		caps = append(caps, CapabilityUpgrader)
	}
	if reg.Store != nil {
		caps = append(caps, CapabilityStore)
	}
	return caps
}

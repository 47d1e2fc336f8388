package plugin

import (
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/voltmesh/gridx/errors"
	"github.com/voltmesh/gridx/store"
)

type slotKey struct {
	format     string
	capability Capability
}

type slot struct {
	metadata Metadata
	parser   ParserFactory
	upgrader UpgraderFactory
	store    StoreFactory
}

// Registry maps format identifiers to constructible plugin capabilities.
//
// Lifecycle: populate with Register calls at startup, then Freeze. After
// freezing, registration fails and the read path (Lookup, New*) is safe
// for concurrent use across dataset instances.
type Registry struct {
	mu          sync.RWMutex
	slots       map[slotKey]*slot
	hostVersion string
	frozen      bool
}

// NewRegistry creates a registry that validates plugin compatibility
// against the given host version.
func NewRegistry(hostVersion string) *Registry {
	return &Registry{
		slots:       make(map[slotKey]*slot),
		hostVersion: hostVersion,
	}
}

// Register associates a plugin's factories with its format identifier.
// Each non-nil factory occupies one (format, capability) slot; an occupied
// slot fails with ErrDuplicateRegistration and leaves the registry
// unchanged. Registration after Freeze fails with ErrRegistryFrozen.
func (r *Registry) Register(reg Registration) error {
	return r.register(reg, false)
}

// RegisterOverride is Register with explicit permission to replace
// occupied slots. Intended for hosts that deliberately shadow a built-in
// format with a custom implementation.
func (r *Registry) RegisterOverride(reg Registration) error {
	return r.register(reg, true)
}

func (r *Registry) register(reg Registration, override bool) error {
	if reg.Metadata.Name == "" {
		return errors.New("plugin registration requires a format name")
	}
	caps := reg.capabilities()
	if len(caps) == 0 {
		return errors.Newf("plugin %s registers no capabilities", reg.Metadata.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.Wrapf(errors.ErrRegistryFrozen, "cannot register %s", reg.Metadata.Name)
	}

	if err := r.validateVersion(reg.Metadata); err != nil {
		return errors.Wrapf(err, "version incompatible for %s", reg.Metadata.Name)
	}

	// Check every slot before touching any, so a duplicate leaves the
	// registry unchanged
	if !override {
		for _, c := range caps {
			if _, exists := r.slots[slotKey{reg.Metadata.Name, c}]; exists {
				return errors.Wrapf(errors.ErrDuplicateRegistration, "%s/%s", reg.Metadata.Name, c)
			}
		}
	}

	for _, c := range caps {
		s := &slot{metadata: reg.Metadata}
		switch c {
		case CapabilityParser:
			s.parser = reg.Parser
		case CapabilityUpgrader:
			s.upgrader = reg.Upgrader
		case CapabilityStore:
			s.store = reg.Store
		}
		r.slots[slotKey{reg.Metadata.Name, c}] = s
	}
	return nil
}

// Freeze ends the registration phase. The registry becomes read-only;
// further Register calls fail with ErrRegistryFrozen.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether the registration phase has ended.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// resolve returns the slot for (format, capability) or ErrUnknownFormat.
func (r *Registry) resolve(format string, capability Capability) (*slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[slotKey{format, capability}]
	if !ok {
		return nil, errors.NewUnknownFormat(format, string(capability))
	}
	return s, nil
}

// Lookup returns the metadata registered for (format, capability).
func (r *Registry) Lookup(format string, capability Capability) (Metadata, error) {
	s, err := r.resolve(format, capability)
	if err != nil {
		return Metadata{}, err
	}
	return s.metadata, nil
}

// Has reports whether any capability is registered for format.
func (r *Registry) Has(format string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for key := range r.slots {
		if key.format == format {
			return true
		}
	}
	return false
}

// Formats returns all registered format identifiers in sorted order.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for key := range r.slots {
		seen[key.format] = true
	}
	formats := make([]string, 0, len(seen))
	for f := range seen {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// FormatCapabilities returns the capabilities registered for format, in
// resolution order.
func (r *Registry) FormatCapabilities(format string) []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var caps []Capability
	for _, c := range Capabilities {
		if _, ok := r.slots[slotKey{format, c}]; ok {
			caps = append(caps, c)
		}
	}
	return caps
}

// NewParser resolves the parser factory for format and constructs an
// instance. Fails with ErrUnknownFormat if no parser is registered.
func (r *Registry) NewParser(format string, cfg FormatConfig, ds store.DataStore, opts Options) (Parser, error) {
	s, err := r.resolve(format, CapabilityParser)
	if err != nil {
		return nil, err
	}
	p, err := s.parser(cfg, ds, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "construct %s parser", format)
	}
	return p, nil
}

// NewUpgrader resolves the upgrader factory for format and constructs an
// instance.
func (r *Registry) NewUpgrader(format string, cfg FormatConfig, ds store.DataStore, opts Options) (Upgrader, error) {
	s, err := r.resolve(format, CapabilityUpgrader)
	if err != nil {
		return nil, err
	}
	u, err := s.upgrader(cfg, ds, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "construct %s upgrader", format)
	}
	return u, nil
}

// NewStore resolves the store factory for format and constructs an
// instance rooted at path. Formats without a registered store capability
// fall back to the default folder store.
func (r *Registry) NewStore(format string, cfg FormatConfig, path string, opts Options) (store.DataStore, error) {
	s, err := r.resolve(format, CapabilityStore)
	if err != nil {
		if errors.IsUnknownFormat(err) && r.Has(format) {
			return defaultStore(cfg, path)
		}
		return nil, err
	}
	ds, err := s.store(cfg, path, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "construct %s store", format)
	}
	return ds, nil
}

// defaultStore builds a plain folder store through the from-plugin-config
// convention.
func defaultStore(cfg FormatConfig, path string) (store.DataStore, error) {
	if pc, ok := cfg.(store.PluginConfig); ok {
		return store.FromPluginConfig(pc, path)
	}
	return store.FromPluginConfig(nil, path)
}

// validateVersion checks if a plugin's host constraint is compatible with
// the running gridx version. Dev builds (prerelease "dev") skip the check
// so local builds can load any plugin.
func (r *Registry) validateVersion(metadata Metadata) error {
	if metadata.HostVersion == "" {
		// No version constraint specified
		return nil
	}

	hostVer, err := semver.NewVersion(r.hostVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid host version %s", r.hostVersion)
	}
	if strings.HasPrefix(hostVer.Prerelease(), "dev") {
		return nil
	}

	constraint, err := semver.NewConstraint(metadata.HostVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %s", metadata.HostVersion)
	}

	if !constraint.Check(hostVer) {
		return errors.Newf("plugin requires gridx %s, but running %s", metadata.HostVersion, r.hostVersion)
	}
	return nil
}

// Global registry instance. Initialized once at startup, frozen before the
// first dataset is processed.
var (
	defaultRegistry *Registry
	registryMu      sync.RWMutex
)

// SetDefaultRegistry sets the global registry. Calling it twice is a
// startup wiring bug and panics.
func SetDefaultRegistry(registry *Registry) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if defaultRegistry != nil {
		panic("default registry already initialized - call SetDefaultRegistry only once")
	}
	defaultRegistry = registry
}

// DefaultRegistry returns the global registry, or nil before startup
// wiring completes.
func DefaultRegistry() *Registry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return defaultRegistry
}

// ResetDefaultRegistry clears the global registry. Test use only.
func ResetDefaultRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	defaultRegistry = nil
}

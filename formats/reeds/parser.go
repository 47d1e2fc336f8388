package reeds

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/voltmesh/gridx/errors"
	"github.com/voltmesh/gridx/store"
	"github.com/voltmesh/gridx/system"
)

// Parser materializes the canonical system document from an upgraded
// ReEDS export. It borrows the store and never mutates it.
type Parser struct {
	cfg    *Config
	ds     store.DataStore
	strict bool
}

// NewParser constructs a parser. A nil config gets dataset defaults.
func NewParser(cfg *Config, ds store.DataStore, strict bool) (*Parser, error) {
	if ds == nil {
		return nil, errors.New("reeds parser requires a data store")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Parser{cfg: cfg, ds: ds, strict: strict}, nil
}

// BuildSystem parses the store's current contents into the canonical
// document. In strict mode a schema version other than SchemaVersion
// fails with ErrVersionMismatch instead of parsing best-effort.
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
	if p.cfg.WeatherYear != 0 {
		doc.SetMetadata("weather_year", strconv.Itoa(p.cfg.WeatherYear))
	}
	if p.cfg.SolveYear != 0 {
		doc.SetMetadata("solve_year", strconv.Itoa(p.cfg.SolveYear))
	}

	tables, err := p.ds.List("*.csv")
	if err != nil {
		return nil, err
	}
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "parse interrupted")
		}
		rows, err := p.countRows(table)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(table), ".csv")
		doc.AddComponent("input_table", name, map[string]string{
			"file": table,
			"rows": strconv.Itoa(rows),
		})
	}

	return doc, nil
}

// countRows counts data rows in a CSV table, excluding the header.
func (p *Parser) countRows(name string) (int, error) {
	raw, err := p.ds.ReadFile(name)
	if err != nil {
		return 0, err
	}
	rows := 0
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) != "" {
			rows++
		}
	}
	if rows > 0 {
		rows-- // header
	}
	return rows, nil
}

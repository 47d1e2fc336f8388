// Package reeds implements the ReEDS capacity-expansion export format:
// a folder of CSV input tables plus switch settings, parsed into the
// canonical system document after its upgrade ladder has run.
package reeds

import (
	"strconv"

	"github.com/voltmesh/gridx/errors"
)

// FormatName is the registry identifier for ReEDS datasets.
const FormatName = "reeds"

// SchemaVersion is the dataset schema version the parser expects, the
// final rung of the upgrade ladder.
const SchemaVersion = "2.0.0"

// Config holds the caller-supplied parameters for one ReEDS conversion.
// Immutable after construction; passed by reference into the parser and
// upgrader factories.
type Config struct {
	// WeatherYear selects the weather profile year (0 = dataset default)
	WeatherYear int

	// SolveYear selects the capacity-expansion solve year to extract
	// (0 = last solved year)
	SolveYear int

	// Extra carries forward-compatible parameters the parser ignores
	Extra map[string]any
}

// Format returns the format identifier.
func (c *Config) Format() string { return FormatName }

// Validate checks year parameters for plausibility. Zero means unset.
func (c *Config) Validate() error {
	for name, year := range map[string]int{"weather_year": c.WeatherYear, "solve_year": c.SolveYear} {
		if year != 0 && (year < 1900 || year > 2200) {
			return errors.Newf("reeds config: implausible %s %d", name, year)
		}
	}
	return nil
}

// StoreParams surfaces store-relevant parameters for the
// from-plugin-config construction convention.
func (c *Config) StoreParams() map[string]string {
	params := make(map[string]string)
	if c.WeatherYear != 0 {
		params["weather_year"] = strconv.Itoa(c.WeatherYear)
	}
	if c.SolveYear != 0 {
		params["solve_year"] = strconv.Itoa(c.SolveYear)
	}
	return params
}

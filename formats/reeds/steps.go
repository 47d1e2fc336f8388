package reeds

import (
	"context"
	"strings"

	"github.com/voltmesh/gridx/result"
	"github.com/voltmesh/gridx/upgrade"
)

// Legacy and current file names handled by the ladder.
const (
	legacyCapacityFile = "cap.csv"
	capacityFile       = "capacity.csv"
	timesliceFile      = "timeslices.csv"
)

// Ladder returns the ReEDS upgrade ladder in execution order, from a bare
// export up to SchemaVersion. The sequence order is the execution order;
// each step is idempotent when entered at its own rung.
func Ladder() []upgrade.Step {
	return []upgrade.Step{
		upgrade.StepFunc{
			StepName:    "stamp-descriptor",
			FromVersion: "0.0.0",
			ToVersion:   "1.0.0",
			Fn:          stampDescriptor,
		},
		upgrade.StepFunc{
			StepName:    "rename-capacity-table",
			FromVersion: "1.0.0",
			ToVersion:   "1.1.0",
			Fn:          renameCapacityTable,
		},
		upgrade.StepFunc{
			StepName:    "fold-h17-timeslices",
			FromVersion: "1.1.0",
			ToVersion:   SchemaVersion,
			Fn:          foldTimeslices,
		},
	}
}

// stampDescriptor makes the dataset self-describing: bare ReEDS exports
// ship without a descriptor, so the first rung writes one carrying the
// format name. The pipeline maintains the schema version itself.
func stampDescriptor(ctx context.Context, payload upgrade.Payload, sc *upgrade.StepContext) result.Result[upgrade.Payload] {
	desc, err := sc.Store.Descriptor()
	if err != nil {
		return result.Err[upgrade.Payload](err)
	}
	if desc.Format == "" {
		desc.Format = FormatName
		if err := sc.Store.WriteDescriptor(desc); err != nil {
			return result.Err[upgrade.Payload](err)
		}
	}
	return result.Ok(payload)
}

// renameCapacityTable moves the pre-1.1 cap.csv to its current name.
// Entered at its rung the legacy name exists at most once, so the rename
// happens at most once.
func renameCapacityTable(ctx context.Context, payload upgrade.Payload, sc *upgrade.StepContext) result.Result[upgrade.Payload] {
	matches, err := sc.Store.List(legacyCapacityFile)
	if err != nil {
		return result.Err[upgrade.Payload](err)
	}
	if len(matches) == 0 {
		return result.Ok(payload)
	}
	if err := sc.Store.Rename(legacyCapacityFile, capacityFile); err != nil {
		return result.Err[upgrade.Payload](err)
	}
	payload["renamed_capacity_table"] = true
	return result.Ok(payload)
}

// foldTimeslices rewrites the pre-2.0 h17 timeslice labels (h1..h17) to
// the hourly naming scheme. Rows already hourly pass through unchanged.
func foldTimeslices(ctx context.Context, payload upgrade.Payload, sc *upgrade.StepContext) result.Result[upgrade.Payload] {
	matches, err := sc.Store.List(timesliceFile)
	if err != nil {
		return result.Err[upgrade.Payload](err)
	}
	if len(matches) == 0 {
		return result.Ok(payload)
	}

	raw, err := sc.Store.ReadFile(timesliceFile)
	if err != nil {
		return result.Err[upgrade.Payload](err)
	}

	lines := strings.Split(string(raw), "\n")
	changed := false
	for i, line := range lines {
		fields := strings.Split(line, ",")
		if len(fields) == 0 {
			continue
		}
		if name, ok := strings.CutPrefix(fields[0], "h"); ok && isH17Slice(name) {
			fields[0] = "slice_" + name
			lines[i] = strings.Join(fields, ",")
			changed = true
		}
	}
	if changed {
		if err := sc.Store.WriteFile(timesliceFile, []byte(strings.Join(lines, "\n"))); err != nil {
			return result.Err[upgrade.Payload](err)
		}
	}
	payload["timeslices_folded"] = changed
	return result.Ok(payload)
}

// isH17Slice reports whether name is one of the 17 legacy slice indices.
func isH17Slice(name string) bool {
	if name == "" || len(name) > 2 {
		return false
	}
	n := 0
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
		n = n*10 + int(r-'0')
	}
	return n >= 1 && n <= 17
}

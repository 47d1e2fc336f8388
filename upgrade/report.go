package upgrade

import (
	"encoding/json"

	"github.com/voltmesh/gridx/errors"
)

// Report is the serialized result document a format upgrader returns from
// Run. Folder and Path are alternative location fields: folder-oriented
// formats report Folder, path-oriented formats report Path.
type Report struct {
	Upgraded    string   `json:"upgraded"`
	Folder      string   `json:"folder,omitempty"`
	Path        string   `json:"path,omitempty"`
	FromVersion string   `json:"from_version,omitempty"`
	ToVersion   string   `json:"to_version,omitempty"`
	Steps       []string `json:"steps,omitempty"`
}

// Render serializes the report.
func (r Report) Render() (string, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return "", errors.Wrap(err, "render upgrade report")
	}
	return string(raw), nil
}

// ParseReport decodes a serialized report.
func ParseReport(raw string) (*Report, error) {
	var r Report
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, errors.Wrap(err, "parse upgrade report")
	}
	return &r, nil
}

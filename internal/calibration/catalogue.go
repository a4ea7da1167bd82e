// Package calibration supplements the core protocol stack with two
// non-core facilities borrowed from the teacher's device-registry
// flow: a JSON5 catalogue naming softpot types and display regions by
// a human label, and an optional Redis mirror of softpot reads for
// external dashboards.
package calibration

import (
	"fmt"
	"os"

	"github.com/flynn/json5"

	"github.com/w3axl/xcmpgo/internal/xcmp"
)

// SoftpotEntry names a single softpot type's calibration metadata.
type SoftpotEntry struct {
	Type  xcmp.SoftpotType `json:"type"`
	Width byte             `json:"width"`
	Label string           `json:"label"`
}

// DisplayEntry names a single display region/id pair.
type DisplayEntry struct {
	Region xcmp.DisplayRegion `json:"region"`
	ID     xcmp.DisplayID     `json:"id"`
	Label  string             `json:"label"`
}

// Catalogue is the decoded form of a JSON5 document listing softpots
// and displays, mirroring the teacher's Cache.Init flow of loading one
// JSON5 file at startup and registering everything it names.
type Catalogue struct {
	Softpots []SoftpotEntry `json:"softpots"`
	Displays []DisplayEntry `json:"displays"`
}

// Load reads and parses a JSON5 catalogue file.
func Load(path string) (Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalogue{}, fmt.Errorf("calibration: read catalogue %s: %w", path, err)
	}
	var cat Catalogue
	if err := json5.Unmarshal(data, &cat); err != nil {
		return Catalogue{}, fmt.Errorf("calibration: parse catalogue %s: %w", path, err)
	}
	return cat, nil
}

// SoftpotByLabel looks up a catalogue entry by its human label.
func (c Catalogue) SoftpotByLabel(label string) (SoftpotEntry, bool) {
	for _, e := range c.Softpots {
		if e.Label == label {
			return e, true
		}
	}
	return SoftpotEntry{}, false
}

package regions

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/i474232898/kma-forecast/internal/common"
	"github.com/i474232898/kma-forecast/internal/forecast"
)

//go:embed regions.yaml
var builtin []byte

// ErrUnknownRegion is returned when a name matches no region in the table.
var ErrUnknownRegion = errors.New("unknown region")

const earthRadiusKm = 6371.0

// Region is a named place the service can answer for without a geocoder.
type Region struct {
	Name      string   `yaml:"name" json:"name"`
	Aliases   []string `yaml:"aliases" json:"aliases,omitempty"`
	Latitude  float64  `yaml:"latitude" json:"latitude"`
	Longitude float64  `yaml:"longitude" json:"longitude"`
}

// Coordinate returns the region's reference point.
func (r Region) Coordinate() forecast.Coordinate {
	return forecast.Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
}

func (r Region) keywords() []string {
	out := make([]string, 0, len(r.Aliases)+1)
	out = append(out, common.Normalize(r.Name))
	for _, a := range r.Aliases {
		out = append(out, common.Normalize(a))
	}
	return out
}

// Table is an ordered, read-only list of regions.
type Table struct {
	regions []Region
}

// Default returns the built-in table.
func Default() *Table {
	t, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("built-in region table: %v", err))
	}
	return t
}

// Load reads a region table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read region table: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML list of regions. Every region needs a unique name and a
// coordinate inside the forecast grid.
func Parse(data []byte) (*Table, error) {
	var list []Region
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode region table: %w", err)
	}
	if len(list) == 0 {
		return nil, errors.New("region table is empty")
	}

	seen := make(map[string]bool, len(list))
	for _, r := range list {
		key := common.Normalize(r.Name)
		if key == "" {
			return nil, errors.New("region without a name")
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate region %q", r.Name)
		}
		seen[key] = true
		if _, err := forecast.Project(r.Coordinate()); err != nil {
			return nil, fmt.Errorf("region %q: %w", r.Name, err)
		}
	}
	return &Table{regions: list}, nil
}

// All returns a copy of the regions in table order.
func (t *Table) All() []Region {
	out := make([]Region, len(t.regions))
	copy(out, t.regions)
	return out
}

// Get finds a region by its name or one of its aliases.
func (t *Table) Get(name string) (Region, error) {
	key := common.Normalize(name)
	for _, r := range t.regions {
		for _, k := range r.keywords() {
			if k == key {
				return r, nil
			}
		}
	}
	return Region{}, fmt.Errorf("%w: %q", ErrUnknownRegion, name)
}

// Lookup returns the first region, in table order, whose name or alias occurs in text.
func (t *Table) Lookup(text string) (Region, bool) {
	text = common.Normalize(text)
	for _, r := range t.regions {
		if common.HasAny(text, r.keywords()...) {
			return r, true
		}
	}
	return Region{}, false
}

// Nearest returns the region closest to c and its great-circle distance in km.
func (t *Table) Nearest(c forecast.Coordinate) (Region, float64) {
	best, bestKm := t.regions[0], math.Inf(1)
	for _, r := range t.regions {
		if d := distanceKm(c, r.Coordinate()); d < bestKm {
			best, bestKm = r, d
		}
	}
	return best, bestKm
}

func distanceKm(a, b forecast.Coordinate) float64 {
	const rad = math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * rad
	dLon := (b.Longitude - a.Longitude) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Latitude*rad)*math.Cos(b.Latitude*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Names lists region names, used for error messages and the CLI.
func (t *Table) Names() string {
	names := make([]string, 0, len(t.regions))
	for _, r := range t.regions {
		names = append(names, r.Name)
	}
	return strings.Join(names, ", ")
}

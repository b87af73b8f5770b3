package weather

import (
	"time"

	"github.com/i474232898/kma-forecast/internal/common"
	"github.com/i474232898/kma-forecast/internal/forecast"
)

// LocationSource records how a Location was determined.
type LocationSource string

const (
	SourceCoordinate LocationSource = "coordinate"
	SourceRegion     LocationSource = "region"
	SourceGeocoder   LocationSource = "geocoder"
	SourceDefault    LocationSource = "default"
)

// Location is a named point for which answers are resolved and stored.
type Location struct {
	Name       string              `json:"name"`
	Coordinate forecast.Coordinate `json:"coordinate"`
	Source     LocationSource      `json:"source"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return common.Normalize(l.Name)
}

// Query is one weather question.
type Query struct {
	Phrase string
	// Location is a region name, alias or free-form address. Empty means the
	// location is taken from the phrase, then the default region.
	Location   string
	Coordinate *forecast.Coordinate
	// At overrides the service clock.
	At time.Time
}

// Answer is a resolved question as returned to clients and kept in history.
type Answer struct {
	ID         string          `json:"id"`
	Phrase     string          `json:"phrase"`
	Location   Location        `json:"location"`
	Result     forecast.Result `json:"result"`
	Summary    string          `json:"summary"`
	ResolvedAt time.Time       `json:"resolvedAt"`
}

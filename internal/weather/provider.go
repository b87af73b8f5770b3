package weather

import (
	"context"
	"time"

	"github.com/i474232898/kma-forecast/internal/forecast"
)

// DataSource abstracts the forecast provider (the KMA open API).
type DataSource interface {
	Name() string
	Fetch(ctx context.Context, issue forecast.IssueDescriptor, cell forecast.GridCell) ([]forecast.ForecastRecord, error)
}

// Geocoder resolves place names the region table does not know.
type Geocoder interface {
	CityToCoordinates(ctx context.Context, name string) (forecast.Coordinate, error)
	CoordinatesToCity(ctx context.Context, c forecast.Coordinate) (string, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveAnswer(loc Location, answer Answer)
	GetLatest(loc Location) (Answer, error)
	GetRange(loc Location, from, to time.Time) ([]Answer, error)
}

// Recorder receives resolution metrics. Outcome is "ok" or an error class.
type Recorder interface {
	ObserveResolve(product forecast.Product, outcome string, took time.Duration)
	ObserveFetch(source string, product forecast.Product, err error, took time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveResolve(forecast.Product, string, time.Duration)       {}
func (nopRecorder) ObserveFetch(string, forecast.Product, error, time.Duration) {}

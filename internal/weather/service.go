package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/kma-forecast/internal/forecast"
	"github.com/i474232898/kma-forecast/internal/regions"
)

// ErrUnknownLocation is returned when a location name matches no region and
// no geocoder could resolve it.
var ErrUnknownLocation = errors.New("unknown location")

const defaultFetchTimeout = 10 * time.Second

// Service orchestrates locating a question, fetching from the data source and
// persisting answers.
type Service struct {
	resolver *forecast.Resolver
	source   DataSource
	store    Store
	regions  *regions.Table
	geocoder Geocoder

	defaultRegion string
	fetchTimeout  time.Duration
	now           func() time.Time
	log           *zap.Logger
	metrics       Recorder
}

// Option customises a Service.
type Option func(*Service)

func WithGeocoder(g Geocoder) Option { return func(s *Service) { s.geocoder = g } }

func WithRegions(t *regions.Table) Option { return func(s *Service) { s.regions = t } }

func WithDefaultRegion(name string) Option { return func(s *Service) { s.defaultRegion = name } }

func WithFetchTimeout(d time.Duration) Option { return func(s *Service) { s.fetchTimeout = d } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

func WithMetrics(r Recorder) Option { return func(s *Service) { s.metrics = r } }

// NewService creates a new Service. Without WithRegions the built-in region table is used.
func NewService(resolver *forecast.Resolver, source DataSource, store Store, opts ...Option) *Service {
	s := &Service{
		resolver:      resolver,
		source:        source,
		store:         store,
		defaultRegion: "춘천",
		fetchTimeout:  defaultFetchTimeout,
		now:           time.Now,
		log:           zap.NewNop(),
		metrics:       nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.regions == nil {
		s.regions = regions.Default()
	}
	return s
}

// Resolver exposes the engine the service runs on.
func (s *Service) Resolver() *forecast.Resolver { return s.resolver }

// Regions exposes the region table.
func (s *Service) Regions() *regions.Table { return s.regions }

// Locate decides where a question is about. An explicit coordinate wins, then
// an explicit location, then a region named in the phrase, then the default region.
func (s *Service) Locate(ctx context.Context, q Query) (Location, error) {
	if q.Coordinate != nil {
		return s.locateCoordinate(ctx, *q.Coordinate), nil
	}

	if q.Location != "" {
		if r, err := s.regions.Get(q.Location); err == nil {
			return regionLocation(r, SourceRegion), nil
		}
		if r, ok := s.regions.Lookup(q.Location); ok {
			return regionLocation(r, SourceRegion), nil
		}
		if s.geocoder == nil {
			return Location{}, fmt.Errorf("%w: %q", ErrUnknownLocation, q.Location)
		}
		c, err := s.geocoder.CityToCoordinates(ctx, q.Location)
		if err != nil {
			return Location{}, fmt.Errorf("%w: %q: %v", ErrUnknownLocation, q.Location, err)
		}
		return Location{Name: q.Location, Coordinate: c, Source: SourceGeocoder}, nil
	}

	if r, ok := s.regions.Lookup(q.Phrase); ok {
		return regionLocation(r, SourceRegion), nil
	}

	r, err := s.regions.Get(s.defaultRegion)
	if err != nil {
		return Location{}, fmt.Errorf("default region: %w", err)
	}
	return regionLocation(r, SourceDefault), nil
}

func (s *Service) locateCoordinate(ctx context.Context, c forecast.Coordinate) Location {
	loc := Location{Coordinate: c, Source: SourceCoordinate}
	if s.geocoder != nil {
		name, err := s.geocoder.CoordinatesToCity(ctx, c)
		if err == nil && name != "" {
			loc.Name = name
			return loc
		}
		s.log.Debug("reverse geocoding failed", zap.Float64("lat", c.Latitude), zap.Float64("lon", c.Longitude), zap.Error(err))
	}
	nearest, _ := s.regions.Nearest(c)
	loc.Name = nearest.Name
	return loc
}

func regionLocation(r regions.Region, src LocationSource) Location {
	return Location{Name: r.Name, Coordinate: r.Coordinate(), Source: src}
}

// Resolve answers a question end to end and records the answer in history.
func (s *Service) Resolve(ctx context.Context, q Query) (Answer, error) {
	start := time.Now()
	now := q.At
	if now.IsZero() {
		now = s.now()
	}

	loc, err := s.Locate(ctx, q)
	if err != nil {
		s.metrics.ObserveResolve(forecast.Nowcast, Outcome(err), time.Since(start))
		return Answer{}, err
	}

	fetch := func(issue forecast.IssueDescriptor, cell forecast.GridCell) ([]forecast.ForecastRecord, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()

		began := time.Now()
		records, err := s.source.Fetch(fetchCtx, issue, cell)
		s.metrics.ObserveFetch(s.source.Name(), issue.Product, err, time.Since(began))
		return records, err
	}

	result, err := s.resolver.Resolve(loc.Coordinate, q.Phrase, now, fetch)
	s.metrics.ObserveResolve(result.Plan.Issue.Product, Outcome(err), time.Since(start))
	if err != nil {
		s.log.Warn("resolve failed",
			zap.String("location", loc.Name),
			zap.String("phrase", q.Phrase),
			zap.Stringer("product", result.Plan.Issue.Product),
			zap.Error(err))
		return Answer{}, err
	}

	answer := Answer{
		ID:         uuid.NewString(),
		Phrase:     q.Phrase,
		Location:   loc,
		Result:     result,
		Summary:    result.Summary(),
		ResolvedAt: now,
	}
	s.store.SaveAnswer(loc, answer)

	s.log.Debug("resolved",
		zap.String("id", answer.ID),
		zap.String("location", loc.Name),
		zap.Stringer("grid", result.Plan.Grid),
		zap.Stringer("product", result.Plan.Issue.Product),
		zap.String("issue", result.Plan.Issue.Date+result.Plan.Issue.Time),
		zap.Bool("ambiguous", result.Ambiguous))
	return answer, nil
}

// RefreshCurrent resolves the current conditions of a region and stores them.
func (s *Service) RefreshCurrent(ctx context.Context, region string) error {
	_, err := s.Resolve(ctx, Query{Location: region})
	return err
}

// GetLatest returns the most recent stored answer for a region.
func (s *Service) GetLatest(region string) (Answer, error) {
	loc, err := s.historyLocation(region)
	if err != nil {
		return Answer{}, err
	}
	return s.store.GetLatest(loc)
}

// GetRange returns stored answers for a region resolved between from and to.
func (s *Service) GetRange(region string, from, to time.Time) ([]Answer, error) {
	loc, err := s.historyLocation(region)
	if err != nil {
		return nil, err
	}
	return s.store.GetRange(loc, from, to)
}

// historyLocation maps aliases onto the canonical region name so history is
// shared between "서울" and "seoul". Unknown names are looked up verbatim.
func (s *Service) historyLocation(region string) (Location, error) {
	if region == "" {
		return Location{}, fmt.Errorf("%w: empty name", ErrUnknownLocation)
	}
	if r, err := s.regions.Get(region); err == nil {
		return regionLocation(r, SourceRegion), nil
	}
	return Location{Name: region}, nil
}

// Outcome classifies an error for metrics and logs.
func Outcome(err error) string {
	var (
		perr *forecast.ProjectionError
		serr *forecast.ScheduleError
		uerr *forecast.UpstreamError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, forecast.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnknownLocation):
		return "unknown_location"
	case errors.As(err, &perr):
		return "projection"
	case errors.As(err, &uerr):
		return "upstream"
	case errors.As(err, &serr):
		return "schedule"
	default:
		return "error"
	}
}

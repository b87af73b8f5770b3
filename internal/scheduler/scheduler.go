package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/kma-forecast/internal/weather"
)

// DefaultCron runs ten minutes past every hour, when the new nowcast is published.
const DefaultCron = "10 * * * *"

const (
	jobTimeout  = 30 * time.Second
	parallelism = 4
)

// Refresher stores the current conditions of one region.
type Refresher interface {
	RefreshCurrent(ctx context.Context, region string) error
}

// Recorder counts refresh outcomes.
type Recorder interface {
	RecordRefresh(region, outcome string)
}

// Scheduler periodically refreshes current conditions for tracked regions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	regions   []string
	cron      string
	log       *zap.Logger
	metrics   Recorder
}

// Location is the zone cron expressions are evaluated in. It must be a named
// zone: gocron passes it to the cron parser as CRON_TZ.
const Location = "Asia/Seoul"

// New creates a new Scheduler. Jobs run in Korean time.
func New(regions []string, cron string, service Refresher, log *zap.Logger, metrics Recorder) *Scheduler {
	if cron == "" {
		cron = DefaultCron
	}
	if log == nil {
		log = zap.NewNop()
	}
	loc, err := time.LoadLocation(Location)
	if err != nil {
		// unreachable with the embedded tzdata
		loc = time.UTC
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		service:   service,
		regions:   regions,
		cron:      cron,
		log:       log,
		metrics:   metrics,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.regions) == 0 {
		s.log.Info("scheduler: no regions configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Cron(s.cron).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler: refresh finished with failures", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule refresh %q: %w", s.cron, err)
	}

	s.scheduler.StartAsync()
	s.log.Info("scheduler: started", zap.String("cron", s.cron), zap.Strings("regions", s.regions))
	return nil
}

// RunOnce refreshes every tracked region, a few at a time. One region failing
// does not stop the others; all failures are returned joined.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.log.Debug("scheduler: running refresh job")

	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	g.SetLimit(parallelism)
	for _, region := range s.regions {
		region := region
		g.Go(func() error {
			err := s.service.RefreshCurrent(ctx, region)
			if s.metrics != nil {
				s.metrics.RecordRefresh(region, weather.Outcome(err))
			}
			if err != nil {
				s.log.Warn("scheduler: refresh failed", zap.String("region", region), zap.Error(err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", region, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	s.log.Debug("scheduler: completed refresh job")
	return errors.Join(errs...)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

package scheduler

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
)

type fakeRefresher struct {
	mu      sync.Mutex
	seen    []string
	failing map[string]bool
}

func (f *fakeRefresher) RefreshCurrent(_ context.Context, region string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, region)
	if f.failing[region] {
		return errors.New("upstream down")
	}
	return nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes map[string]string
}

func (r *fakeRecorder) RecordRefresh(region, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[region] = outcome
}

func TestRunOnceRefreshesEveryRegion(t *testing.T) {
	regions := []string{"서울", "춘천", "노원", "부산", "제주", "대전"}
	ref := &fakeRefresher{failing: map[string]bool{"부산": true}}
	rec := &fakeRecorder{outcomes: map[string]string{}}
	s := New(regions, "", ref, nil, rec)

	err := s.RunOnce(context.Background())
	if err == nil || !strings.Contains(err.Error(), "부산") {
		t.Fatalf("expected the 부산 failure to be reported, got %v", err)
	}

	sort.Strings(ref.seen)
	want := append([]string(nil), regions...)
	sort.Strings(want)
	if strings.Join(ref.seen, ",") != strings.Join(want, ",") {
		t.Fatalf("expected every region refreshed once, got %v", ref.seen)
	}
	if rec.outcomes["부산"] != "error" || rec.outcomes["서울"] != "ok" {
		t.Fatalf("unexpected outcomes %v", rec.outcomes)
	}
}

func TestStartWithoutRegions(t *testing.T) {
	s := New(nil, "", &fakeRefresher{}, nil, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Stop()
}

func TestStartRejectsBadCron(t *testing.T) {
	s := New([]string{"서울"}, "every now and then", &fakeRefresher{}, nil, nil)
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatalf("expected an error for an invalid cron expression")
	}
}

func TestStartSchedulesJob(t *testing.T) {
	s := New([]string{"서울"}, DefaultCron, &fakeRefresher{}, nil, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()
	if got := len(s.scheduler.Jobs()); got != 1 {
		t.Fatalf("expected 1 job, got %d", got)
	}
	if got := s.scheduler.Location().String(); got != Location {
		t.Fatalf("expected jobs in %s, got %s", Location, got)
	}
}

func TestStartWithKoreanWallClockCron(t *testing.T) {
	// hour fields are read in Korean time, so 02:10 KST must parse and schedule
	s := New([]string{"춘천", "서울", "노원"}, "10 2 * * *", &fakeRefresher{}, nil, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	next := s.scheduler.Jobs()[0].NextRun().In(s.scheduler.Location())
	if next.Hour() != 2 || next.Minute() != 10 {
		t.Fatalf("expected the next run at 02:10 KST, got %s", next)
	}
}

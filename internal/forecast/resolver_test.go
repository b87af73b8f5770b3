package forecast

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var seoul = Coordinate{Latitude: 37.5665, Longitude: 126.9780}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	return NewResolver(defaultScheduler(t), newTestParser(t, "en"), NewSelector(0))
}

func TestPlanChoosesProduct(t *testing.T) {
	r := newTestResolver(t)
	now := kst(2024, 5, 1, 10, 5)

	tests := []struct {
		phrase      string
		wantProduct Product
		wantIssue   string
	}{
		{"how's the weather?", Nowcast, "202405010900"},
		{"3 hours later", UltraForecast, "202405010930"},
		{"5 hours later", UltraForecast, "202405010930"},
		{"6 hours later", ShortTerm, "202405010800"},
		{"tomorrow", ShortTerm, "202405010800"},
		{"all day", ShortTerm, "202405010800"},
		{"weather forecast", UltraForecast, "202405010930"},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			plan, err := r.Plan(seoul, tt.phrase, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if plan.Grid != (GridCell{NX: 60, NY: 127}) {
				t.Fatalf("expected cell 60,127, got %s", plan.Grid)
			}
			if plan.Issue.Product != tt.wantProduct {
				t.Fatalf("expected product %s, got %s", tt.wantProduct, plan.Issue.Product)
			}
			if got := plan.Issue.Date + plan.Issue.Time; got != tt.wantIssue {
				t.Fatalf("expected issue %s, got %s", tt.wantIssue, got)
			}
		})
	}
}

func TestResolveForecast(t *testing.T) {
	r := newTestResolver(t)
	now := kst(2024, 5, 1, 10, 5)

	var gotIssue IssueDescriptor
	var gotCell GridCell
	fetch := func(issue IssueDescriptor, cell GridCell) ([]ForecastRecord, error) {
		gotIssue, gotCell = issue, cell
		var out []ForecastRecord
		out = append(out, sunnySlot("20240501", "1200", "19")...)
		out = append(out, sunnySlot("20240501", "1300", "21")...)
		return out, nil
	}

	res, err := r.Resolve(seoul, "3 hours later", now, fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotIssue.Product != UltraForecast || gotCell != (GridCell{NX: 60, NY: 127}) {
		t.Fatalf("fetched %s at %s", gotIssue.Product, gotCell)
	}
	want := "temperature 21°C, clear, precipitation probability 10%"
	if res.Summary() != want {
		t.Fatalf("expected %q, got %q", want, res.Summary())
	}
	if res.Ambiguous {
		t.Fatalf("did not expect an ambiguous result")
	}
}

func TestResolveNowcastUsesIssueSlot(t *testing.T) {
	r := newTestResolver(t)
	now := kst(2024, 5, 1, 10, 5)

	fetch := func(issue IssueDescriptor, _ GridCell) ([]ForecastRecord, error) {
		return slotRecords(issue.Date, issue.Time, map[Category]string{
			CategoryTemperature: "17.3",
			CategoryPrecipType:  "0",
			CategoryHumidity:    "55",
		}), nil
	}

	res, err := r.Resolve(seoul, "how's the weather?", now, fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Snapshot.Timestamp.Equal(kst(2024, 5, 1, 9, 0)) {
		t.Fatalf("expected the 09:00 observation, got %s", res.Snapshot.Timestamp)
	}
	if want := "temperature 17.3°C, humidity 55%"; res.Summary() != want {
		t.Fatalf("expected %q, got %q", want, res.Summary())
	}
}

func TestResolveStaleRecords(t *testing.T) {
	r := newTestResolver(t)
	fetch := func(IssueDescriptor, GridCell) ([]ForecastRecord, error) {
		return sunnySlot("20240501", "0800", "15"), nil
	}
	_, err := r.Resolve(seoul, "3 hours later", kst(2024, 5, 1, 10, 5), fetch)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveUpstreamFailure(t *testing.T) {
	r := newTestResolver(t)
	boom := errors.New("connection reset")
	fetch := func(IssueDescriptor, GridCell) ([]ForecastRecord, error) {
		return nil, boom
	}

	_, err := r.Resolve(seoul, "3 hours later", kst(2024, 5, 1, 10, 5), fetch)
	var uerr *UpstreamError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected the fetch error to be wrapped unchanged")
	}
	if uerr.Issue.Product != UltraForecast {
		t.Fatalf("expected the ultra issue, got %s", uerr.Issue.Product)
	}
}

func TestResolveOutsideGridSkipsFetch(t *testing.T) {
	r := newTestResolver(t)
	called := false
	fetch := func(IssueDescriptor, GridCell) ([]ForecastRecord, error) {
		called = true
		return nil, nil
	}

	_, err := r.Resolve(Coordinate{Latitude: 35.6762, Longitude: 139.6503}, "3 hours later", time.Now(), fetch)
	var perr *ProjectionError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ProjectionError, got %v", err)
	}
	if called {
		t.Fatalf("fetch must not run for a coordinate outside the grid")
	}
}

func TestResultSummaryFullDay(t *testing.T) {
	r := newTestResolver(t)
	fetch := func(IssueDescriptor, GridCell) ([]ForecastRecord, error) {
		var out []ForecastRecord
		out = append(out, sunnySlot("20240501", "1200", "20")...)
		out = append(out, sunnySlot("20240501", "1800", "16")...)
		return out, nil
	}

	res, err := r.Resolve(seoul, "all day", kst(2024, 5, 1, 10, 5), fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(res.Summary(), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", res.Summary())
	}
	if !strings.HasPrefix(lines[0], "05/01 12:00 temperature 20°C") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
}

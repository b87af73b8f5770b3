package forecast

import (
	"errors"
	"testing"
	"time"
)

func defaultScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler(DefaultScheduleTable())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return s
}

func TestResolveIssue(t *testing.T) {
	s := defaultScheduler(t)

	tests := []struct {
		name     string
		product  Product
		now      time.Time
		wantDate string
		wantTime string
	}{
		{"nowcast before lag", Nowcast, kst(2024, 5, 1, 10, 5), "20240501", "0900"},
		{"nowcast at lag", Nowcast, kst(2024, 5, 1, 10, 10), "20240501", "1000"},
		{"nowcast rolls back a day", Nowcast, kst(2024, 5, 1, 0, 5), "20240430", "2300"},
		{"nowcast from utc input", Nowcast, time.Date(2024, 5, 1, 1, 5, 0, 0, time.UTC), "20240501", "0900"},
		{"ultra before lag", UltraForecast, kst(2024, 5, 1, 10, 44), "20240501", "0930"},
		{"ultra at lag", UltraForecast, kst(2024, 5, 1, 10, 45), "20240501", "1030"},
		{"ultra rolls back a day", UltraForecast, kst(2024, 5, 1, 0, 10), "20240430", "2330"},
		{"ultra after midnight issue", UltraForecast, kst(2024, 5, 1, 0, 50), "20240501", "0030"},
		{"short before first release", ShortTerm, kst(2024, 5, 1, 2, 9), "20240430", "2300"},
		{"short at first release", ShortTerm, kst(2024, 5, 1, 2, 10), "20240501", "0200"},
		{"short mid afternoon", ShortTerm, kst(2024, 5, 1, 14, 30), "20240501", "1400"},
		{"short late evening", ShortTerm, kst(2024, 5, 1, 23, 59), "20240501", "2300"},
		{"short leap day rollback", ShortTerm, kst(2024, 3, 1, 0, 30), "20240229", "2300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ResolveIssue(tt.product, tt.now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Product != tt.product || got.Date != tt.wantDate || got.Time != tt.wantTime {
				t.Fatalf("expected %s %s%s, got %s %s%s",
					tt.product, tt.wantDate, tt.wantTime, got.Product, got.Date, got.Time)
			}
		})
	}
}

func TestResolveIssueIsMonotonicAndNeverAhead(t *testing.T) {
	s := defaultScheduler(t)
	start := kst(2024, 12, 31, 0, 0)

	for _, p := range []Product{Nowcast, UltraForecast, ShortTerm} {
		var prev time.Time
		for m := 0; m < 2*24*60; m++ {
			now := start.Add(time.Duration(m) * time.Minute)
			issue, err := s.ResolveIssue(p, now)
			if err != nil {
				t.Fatalf("%s at %s: %v", p, now, err)
			}
			at := issue.At()
			if at.After(now) {
				t.Fatalf("%s at %s: issue %s is in the future", p, now, at)
			}
			if at.Before(prev) {
				t.Fatalf("%s at %s: issue went back from %s to %s", p, now, prev, at)
			}
			prev = at
		}
	}
}

func TestNewSchedulerRejectsBrokenTables(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ScheduleTable)
	}{
		{"no short releases", func(tb *ScheduleTable) { tb.ShortTerm = nil }},
		{"duplicate short hour", func(tb *ScheduleTable) {
			tb.ShortTerm = append(tb.ShortTerm, DailyRelease{Hour: 2, Lag: time.Minute})
		}},
		{"short hour out of range", func(tb *ScheduleTable) { tb.ShortTerm[0].Hour = 24 }},
		{"nowcast minute out of range", func(tb *ScheduleTable) { tb.Nowcast.IssueMinute = 60 }},
		{"ultra negative lag", func(tb *ScheduleTable) { tb.UltraForecast.Lag = -time.Minute }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := DefaultScheduleTable()
			tt.mutate(&table)
			_, err := NewScheduler(table)
			var serr *ScheduleError
			if !errors.As(err, &serr) {
				t.Fatalf("expected *ScheduleError, got %v", err)
			}
		})
	}
}

func TestResolveIssueUnknownProduct(t *testing.T) {
	s := defaultScheduler(t)
	_, err := s.ResolveIssue(Product(9), kst(2024, 5, 1, 12, 0))
	var serr *ScheduleError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *ScheduleError, got %v", err)
	}
}

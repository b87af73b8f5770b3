package forecast

import (
	"fmt"
	"sort"
	"time"
)

// HourlyRelease describes a product issued every hour at a fixed minute.
type HourlyRelease struct {
	IssueMinute int           `yaml:"issueMinute" json:"issueMinute"`
	Lag         time.Duration `yaml:"lag" json:"lag"`
}

// DailyRelease is one of the fixed issue hours of a product published a few times a day.
type DailyRelease struct {
	Hour int           `yaml:"hour" json:"hour"`
	Lag  time.Duration `yaml:"lag" json:"lag"`
}

// ScheduleTable holds the publication cadence of every product.
type ScheduleTable struct {
	Nowcast       HourlyRelease
	UltraForecast HourlyRelease
	ShortTerm     []DailyRelease
}

// DefaultScheduleTable returns the cadence published in the provider's API guide:
// nowcast HH00 from HH10, ultra-short HH30 from HH45, short-term eight times a day
// with data available ten minutes after each issue hour.
func DefaultScheduleTable() ScheduleTable {
	short := make([]DailyRelease, 0, 8)
	for _, h := range []int{2, 5, 8, 11, 14, 17, 20, 23} {
		short = append(short, DailyRelease{Hour: h, Lag: 10 * time.Minute})
	}
	return ScheduleTable{
		Nowcast:       HourlyRelease{IssueMinute: 0, Lag: 10 * time.Minute},
		UltraForecast: HourlyRelease{IssueMinute: 30, Lag: 15 * time.Minute},
		ShortTerm:     short,
	}
}

// Scheduler answers which issue of a product is the latest one available.
type Scheduler struct {
	nowcast HourlyRelease
	ultra   HourlyRelease
	short   []DailyRelease // sorted by hour, descending
}

// NewScheduler validates the table once so that ResolveIssue can only fail on a defect.
func NewScheduler(t ScheduleTable) (*Scheduler, error) {
	if err := validateHourly(Nowcast, t.Nowcast); err != nil {
		return nil, err
	}
	if err := validateHourly(UltraForecast, t.UltraForecast); err != nil {
		return nil, err
	}
	if len(t.ShortTerm) == 0 {
		return nil, &ScheduleError{Product: ShortTerm, Reason: "no release hours"}
	}

	short := make([]DailyRelease, len(t.ShortTerm))
	copy(short, t.ShortTerm)
	sort.Slice(short, func(i, j int) bool { return short[i].Hour > short[j].Hour })

	seen := make(map[int]bool, len(short))
	for _, r := range short {
		if r.Hour < 0 || r.Hour > 23 {
			return nil, &ScheduleError{Product: ShortTerm, Reason: fmt.Sprintf("release hour %d out of range", r.Hour)}
		}
		if seen[r.Hour] {
			return nil, &ScheduleError{Product: ShortTerm, Reason: fmt.Sprintf("duplicate release hour %d", r.Hour)}
		}
		if r.Lag < 0 || r.Lag >= 24*time.Hour {
			return nil, &ScheduleError{Product: ShortTerm, Reason: fmt.Sprintf("lag %s out of range", r.Lag)}
		}
		seen[r.Hour] = true
	}

	return &Scheduler{nowcast: t.Nowcast, ultra: t.UltraForecast, short: short}, nil
}

func validateHourly(p Product, r HourlyRelease) error {
	if r.IssueMinute < 0 || r.IssueMinute > 59 {
		return &ScheduleError{Product: p, Reason: fmt.Sprintf("issue minute %d out of range", r.IssueMinute)}
	}
	if r.Lag < 0 || r.Lag >= 24*time.Hour {
		return &ScheduleError{Product: p, Reason: fmt.Sprintf("lag %s out of range", r.Lag)}
	}
	return nil
}

// ResolveIssue returns the most recent issue of p that is available at now.
func (s *Scheduler) ResolveIssue(p Product, now time.Time) (IssueDescriptor, error) {
	now = now.In(KST)
	switch p {
	case Nowcast:
		return newIssue(p, latestHourly(s.nowcast, now)), nil
	case UltraForecast:
		return newIssue(p, latestHourly(s.ultra, now)), nil
	case ShortTerm:
		at, ok := s.latestDaily(now)
		if !ok {
			return IssueDescriptor{}, &ScheduleError{Product: p, Reason: "no release available within two days"}
		}
		return newIssue(p, at), nil
	}
	return IssueDescriptor{}, &ScheduleError{Product: p, Reason: "unknown product"}
}

// Release returns the configured cadence for hourly products.
func (s *Scheduler) Release(p Product) (HourlyRelease, bool) {
	switch p {
	case Nowcast:
		return s.nowcast, true
	case UltraForecast:
		return s.ultra, true
	}
	return HourlyRelease{}, false
}

func latestHourly(r HourlyRelease, now time.Time) time.Time {
	issue := now.Truncate(time.Hour).Add(time.Duration(r.IssueMinute) * time.Minute)
	for issue.Add(r.Lag).After(now) {
		issue = issue.Add(-time.Hour)
	}
	return issue
}

func (s *Scheduler) latestDaily(now time.Time) (time.Time, bool) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, KST)
	for back := 0; back <= 2; back++ {
		day := midnight.AddDate(0, 0, -back)
		for _, r := range s.short {
			issue := day.Add(time.Duration(r.Hour) * time.Hour)
			if !issue.Add(r.Lag).After(now) {
				return issue, true
			}
		}
	}
	return time.Time{}, false
}

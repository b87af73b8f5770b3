package forecast

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultFullDayCap bounds the slots returned per date in full-day mode.
const DefaultFullDayCap = 8

// canonical slots preferred for a full-day overview.
var canonicalHours = map[int]bool{0: true, 6: true, 12: true, 18: true}

// Selection is the outcome of Select: either one snapshot or a per-date list.
type Selection struct {
	Target   time.Time        `json:"target"`
	Snapshot *WeatherSnapshot `json:"snapshot,omitempty"`
	Days     []DaySnapshots   `json:"days,omitempty"`
}

// Selector picks the records matching a time window.
type Selector struct {
	FullDayCap int
}

// NewSelector returns a selector; a non-positive cap uses DefaultFullDayCap.
func NewSelector(fullDayCap int) Selector {
	if fullDayCap <= 0 {
		fullDayCap = DefaultFullDayCap
	}
	return Selector{FullDayCap: fullDayCap}
}

type slot struct {
	at      time.Time
	records []ForecastRecord
}

// Select never returns a slot earlier than the window's target. When nothing
// qualifies it returns ErrNotFound.
func (s Selector) Select(records []ForecastRecord, w TimeWindowRequest) (Selection, error) {
	slots := groupSlots(records)
	target := w.Target()
	if w.FullDay {
		return s.selectFullDay(slots, w)
	}

	i := sort.Search(len(slots), func(i int) bool { return !slots[i].at.Before(target) })
	if i == len(slots) {
		return Selection{Target: target}, ErrNotFound
	}
	snap := buildSnapshot(slots[i].at, slots[i].records)
	return Selection{Target: target, Snapshot: &snap}, nil
}

func (s Selector) selectFullDay(slots []slot, w TimeWindowRequest) (Selection, error) {
	limit := s.FullDayCap
	if limit <= 0 {
		limit = DefaultFullDayCap
	}

	ref := w.Reference.In(KST)
	firstDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, KST)

	var (
		days    []DaySnapshots
		current []slot
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		picked := pickDaySlots(current, limit)
		day := DaySnapshots{Date: current[0].at.Format(dateLayout)}
		for _, sl := range picked {
			day.Snapshots = append(day.Snapshots, buildSnapshot(sl.at, sl.records))
		}
		days = append(days, day)
		current = nil
	}

	for _, sl := range slots {
		if sl.at.Before(firstDay) {
			continue
		}
		if len(current) > 0 && sl.at.Format(dateLayout) != current[0].at.Format(dateLayout) {
			flush()
		}
		current = append(current, sl)
	}
	flush()

	if len(days) == 0 {
		return Selection{Target: firstDay}, ErrNotFound
	}
	return Selection{Target: firstDay, Days: days}, nil
}

func pickDaySlots(day []slot, limit int) []slot {
	var canonical []slot
	for _, sl := range day {
		if sl.at.Minute() == 0 && canonicalHours[sl.at.Hour()] {
			canonical = append(canonical, sl)
		}
	}
	picked := day
	if len(canonical) > 0 {
		picked = canonical
	}
	if len(picked) > limit {
		picked = picked[:limit]
	}
	return picked
}

// groupSlots buckets records by timestamp in ascending order. Records with a
// malformed date or time are dropped.
func groupSlots(records []ForecastRecord) []slot {
	index := make(map[int64]int)
	var slots []slot
	for _, r := range records {
		at, ok := r.At()
		if !ok {
			continue
		}
		key := at.Unix()
		i, seen := index[key]
		if !seen {
			i = len(slots)
			index[key] = i
			slots = append(slots, slot{at: at})
		}
		slots[i].records = append(slots[i].records, r)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].at.Before(slots[j].at) })
	return slots
}

func buildSnapshot(at time.Time, records []ForecastRecord) WeatherSnapshot {
	snap := WeatherSnapshot{Timestamp: at}
	for _, r := range records {
		value := strings.TrimSpace(r.Value)
		switch r.Category {
		case CategoryTemperature, CategoryTemperatureHour:
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				snap.TemperatureC = &v
			}
		case CategorySky:
			label := Translate(r.Category, value)
			snap.SkyState = &label
		case CategoryPrecipType:
			label := Translate(r.Category, value)
			snap.PrecipType = &label
		case CategoryPrecipProb:
			if v, ok := parseInt(value); ok {
				snap.PrecipProbability = &v
			}
		case CategoryHumidity:
			if v, ok := parseInt(value); ok {
				snap.Humidity = &v
			}
		case CategoryWindSpeed:
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				snap.WindSpeed = &v
			}
		case CategoryRainHour, CategoryPrecipAmount:
			label := Translate(r.Category, value)
			snap.PrecipAmount = &label
		case CategoryWindDirection:
			if v, ok := parseInt(value); ok {
				snap.WindDirection = &v
			}
		}
	}
	return snap
}

// parseInt accepts integral and decimal spellings ("60", "270.5").
func parseInt(s string) (int, bool) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(math.Round(f)), true
}

package forecast

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/i474232898/kma-forecast/internal/common"
)

// Rule names reported in TimeWindowRequest.Rule.
const (
	RuleRelative  = "relative"
	RuleWallClock = "wall-clock"
	RuleTomorrow  = "tomorrow"
	RuleDayAfter  = "day-after-tomorrow"
	RulePeriod    = "period"
	RuleMorning   = "morning"
	RuleFullDay   = "full-day"
	RuleNone      = "none"
)

// MaxOffsetHours is the longest horizon any product can serve.
const MaxOffsetHours = 120

// Parser turns a free-form phrase into a TimeWindowRequest using one vocabulary.
// A Parser is immutable and safe for concurrent use.
type Parser struct {
	vocab     Vocabulary
	relative  []*regexp.Regexp
	wallClock []*regexp.Regexp
}

type ruleResult struct {
	offset    int
	fullDay   bool
	ambiguous bool
}

// NewParser compiles the vocabulary's patterns.
func NewParser(v Vocabulary) (*Parser, error) {
	p := &Parser{vocab: v}
	for _, expr := range v.RelativeHours {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("vocabulary %s: relative pattern %q: %w", v.Name, expr, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("vocabulary %s: relative pattern %q has no capture group", v.Name, expr)
		}
		p.relative = append(p.relative, re)
	}
	for _, expr := range v.WallClock {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("vocabulary %s: wall-clock pattern %q: %w", v.Name, expr, err)
		}
		if re.SubexpIndex("hour") < 0 || re.SubexpIndex("meridiem") < 0 {
			return nil, fmt.Errorf("vocabulary %s: wall-clock pattern %q needs hour and meridiem groups", v.Name, expr)
		}
		p.wallClock = append(p.wallClock, re)
	}
	for _, q := range append(append([]PeriodWords{v.Morning}, v.Qualifiers...), v.Periods...) {
		if q.Hour < 0 || q.Hour > 23 {
			return nil, fmt.Errorf("vocabulary %s: hour %d out of range for %v", v.Name, q.Hour, q.Words)
		}
	}
	return p, nil
}

// Vocabulary returns the name of the locale this parser understands.
func (p *Parser) Vocabulary() string {
	return p.vocab.Name
}

// Parse interprets phrase relative to now. The rules run in a fixed order and
// the first one that matches decides the offset.
func (p *Parser) Parse(phrase string, now time.Time) TimeWindowRequest {
	text := common.Normalize(phrase)
	now = now.In(KST)

	rules := []struct {
		name  string
		apply func(string, time.Time) (ruleResult, bool)
	}{
		{RuleRelative, p.matchRelative},
		{RuleWallClock, p.matchWallClock},
		{RuleTomorrow, p.matchTomorrow},
		{RuleDayAfter, p.matchDayAfter},
		{RulePeriod, p.matchPeriod},
		{RuleMorning, p.matchMorning},
		{RuleFullDay, p.matchFullDay},
	}

	req := TimeWindowRequest{Reference: now, Rule: RuleNone}
	for _, r := range rules {
		res, ok := r.apply(text, now)
		if !ok {
			continue
		}
		req.Rule = r.name
		req.TargetOffsetHours = res.offset
		req.FullDay = res.fullDay
		req.Ambiguous = res.ambiguous
		break
	}

	if req.TargetOffsetHours < 0 || req.TargetOffsetHours > MaxOffsetHours {
		req.TargetOffsetHours = 0
		req.Ambiguous = true
	}
	if req.FullDay {
		req.TargetOffsetHours = 0
	}

	req.Kind = p.kind(text, req.TargetOffsetHours)
	return req
}

func (p *Parser) kind(text string, offset int) RequestKind {
	switch {
	case offset > 0 || common.HasAny(text, p.vocab.ForecastWords...):
		return KindForecast
	case common.HasAny(text, p.vocab.SummaryWords...):
		return KindComprehensive
	default:
		return KindCurrent
	}
}

func (p *Parser) matchRelative(text string, _ time.Time) (ruleResult, bool) {
	for _, re := range p.relative {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n > MaxOffsetHours {
			return ruleResult{ambiguous: true}, true
		}
		return ruleResult{offset: n}, true
	}
	return ruleResult{}, false
}

func (p *Parser) matchWallClock(text string, now time.Time) (ruleResult, bool) {
	for _, re := range p.wallClock {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		hour, err := strconv.Atoi(m[re.SubexpIndex("hour")])
		if err != nil {
			return ruleResult{ambiguous: true}, true
		}
		hour, ok := to24Hour(p.vocab.Meridiem[m[re.SubexpIndex("meridiem")]], hour)
		if !ok {
			return ruleResult{ambiguous: true}, true
		}
		minute := 0
		if i := re.SubexpIndex("half"); i >= 0 && m[i] != "" {
			minute = 30
		}

		target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, KST)
		if !target.After(now) {
			target = target.AddDate(0, 0, 1)
		}
		return ruleResult{offset: hoursBetween(now, target)}, true
	}
	return ruleResult{}, false
}

// to24Hour converts a 12-hour clock reading. Readings already past noon
// ("오후 15시") are accepted as 24-hour values.
func to24Hour(meridiem string, hour int) (int, bool) {
	switch {
	case hour < 0 || hour > 23:
		return 0, false
	case meridiem == "pm" && hour < 12:
		return hour + 12, true
	case meridiem == "am" && hour == 12:
		return 0, true
	case meridiem == "am" && hour > 12:
		return 0, false
	}
	return hour, true
}

func (p *Parser) matchTomorrow(text string, now time.Time) (ruleResult, bool) {
	if !common.HasAny(text, p.vocab.Tomorrow...) || common.HasAny(text, p.vocab.DayAfterTomorrow...) {
		return ruleResult{}, false
	}
	for _, q := range p.vocab.Qualifiers {
		if common.HasAny(text, q.Words...) {
			return ruleResult{offset: 24 + q.Hour - now.Hour()}, true
		}
	}
	return ruleResult{offset: 24}, true
}

func (p *Parser) matchDayAfter(text string, _ time.Time) (ruleResult, bool) {
	if !common.HasAny(text, p.vocab.DayAfterTomorrow...) {
		return ruleResult{}, false
	}
	return ruleResult{offset: 48}, true
}

func (p *Parser) matchPeriod(text string, now time.Time) (ruleResult, bool) {
	for _, period := range p.vocab.Periods {
		if common.HasAny(text, period.Words...) {
			return ruleResult{offset: hoursUntil(now.Hour(), period.Hour)}, true
		}
	}
	return ruleResult{}, false
}

func (p *Parser) matchMorning(text string, now time.Time) (ruleResult, bool) {
	if !common.HasAny(text, p.vocab.Morning.Words...) {
		return ruleResult{}, false
	}
	return ruleResult{offset: hoursUntil(now.Hour(), p.vocab.Morning.Hour)}, true
}

func (p *Parser) matchFullDay(text string, _ time.Time) (ruleResult, bool) {
	if !common.HasAny(text, p.vocab.FullDay...) {
		return ruleResult{}, false
	}
	return ruleResult{fullDay: true}, true
}

// hoursUntil counts whole hours from the current hour to target today, or to
// target tomorrow when it has already passed. The current hour itself is 0.
func hoursUntil(current, target int) int {
	if target >= current {
		return target - current
	}
	return 24 - current + target
}

// hoursBetween measures in hour slots, so 14:40 -> 15:30 is one hour.
func hoursBetween(from, to time.Time) int {
	return int(to.Truncate(time.Hour).Sub(from.Truncate(time.Hour)) / time.Hour)
}

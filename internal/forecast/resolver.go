package forecast

import (
	"fmt"
	"strings"
	"time"
)

// Plan is everything a caller needs to fetch the right raw records.
type Plan struct {
	Coordinate Coordinate        `json:"coordinate"`
	Grid       GridCell          `json:"grid"`
	Window     TimeWindowRequest `json:"window"`
	Issue      IssueDescriptor   `json:"issue"`
}

// Result is a completed resolution.
type Result struct {
	Plan      Plan `json:"plan"`
	Selection `json:"selection"`
	Ambiguous bool `json:"ambiguous,omitempty"`
}

// Summary renders the selection as display text, one line per slot.
func (r Result) Summary() string {
	if r.Snapshot != nil {
		return r.Snapshot.Summary()
	}
	var lines []string
	for _, day := range r.Days {
		for _, s := range day.Snapshots {
			lines = append(lines, s.Timestamp.In(KST).Format("01/02 15:04")+" "+s.Summary())
		}
	}
	return strings.Join(lines, "\n")
}

// RecordFetcher obtains the raw records of one issue for one grid cell.
type RecordFetcher func(issue IssueDescriptor, cell GridCell) ([]ForecastRecord, error)

// Resolver composes projection, scheduling, parsing and selection.
// It keeps no state between calls.
type Resolver struct {
	scheduler *Scheduler
	parser    *Parser
	selector  Selector
}

func NewResolver(scheduler *Scheduler, parser *Parser, selector Selector) *Resolver {
	return &Resolver{
		scheduler: scheduler,
		parser:    parser,
		selector:  selector,
	}
}

// Parser exposes the resolver's phrase parser.
func (r *Resolver) Parser() *Parser { return r.parser }

// Scheduler exposes the resolver's publication scheduler.
func (r *Resolver) Scheduler() *Scheduler { return r.scheduler }

// ChooseProduct routes a window to the product whose horizon covers it.
func ChooseProduct(w TimeWindowRequest) Product {
	switch {
	case w.FullDay || w.TargetOffsetHours > UltraForecast.MaxOffsetHours():
		return ShortTerm
	case w.TargetOffsetHours > 0:
		return UltraForecast
	case w.Kind == KindCurrent:
		return Nowcast
	default:
		return UltraForecast
	}
}

// Plan projects the coordinate, parses the phrase and picks the issue to fetch.
func (r *Resolver) Plan(c Coordinate, phrase string, now time.Time) (Plan, error) {
	cell, err := Project(c)
	if err != nil {
		return Plan{}, err
	}
	window := r.parser.Parse(phrase, now)

	product := ChooseProduct(window)
	issue, err := r.scheduler.ResolveIssue(product, now)
	if err != nil {
		return Plan{}, err
	}

	// An ultra-short issue covers the six hours after its issue hour; a target
	// beyond that is only published in the short-term feed.
	if product == UltraForecast {
		horizon := issue.At().Truncate(time.Hour).Add(time.Duration(UltraForecast.MaxOffsetHours()) * time.Hour)
		if window.Target().After(horizon) {
			if issue, err = r.scheduler.ResolveIssue(ShortTerm, now); err != nil {
				return Plan{}, err
			}
		}
	}

	return Plan{Coordinate: c, Grid: cell, Window: window, Issue: issue}, nil
}

// Complete selects from records fetched for plan.
func (r *Resolver) Complete(plan Plan, records []ForecastRecord) (Result, error) {
	window := plan.Window
	// Nowcast records are observations stamped with the issue hour, which is
	// the current-conditions slot the caller asked for.
	if plan.Issue.Product == Nowcast && !window.FullDay {
		window.Reference = plan.Issue.At()
		window.TargetOffsetHours = 0
	}

	sel, err := r.selector.Select(records, window)
	return Result{Plan: plan, Selection: sel, Ambiguous: plan.Window.Ambiguous}, err
}

// Resolve runs Plan, fetch and Complete. Fetch failures come back as *UpstreamError.
func (r *Resolver) Resolve(c Coordinate, phrase string, now time.Time, fetch RecordFetcher) (Result, error) {
	plan, err := r.Plan(c, phrase, now)
	if err != nil {
		return Result{}, err
	}
	if fetch == nil {
		return Result{Plan: plan}, fmt.Errorf("resolve: no record fetcher")
	}
	records, err := fetch(plan.Issue, plan.Grid)
	if err != nil {
		return Result{Plan: plan}, &UpstreamError{Issue: plan.Issue, Cell: plan.Grid, Err: err}
	}
	return r.Complete(plan, records)
}

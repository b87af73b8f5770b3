package forecast

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no record exists at or after the requested target.
var ErrNotFound = errors.New("no forecast record at or after the requested time")

// ProjectionError reports a coordinate outside the provider's grid domain.
type ProjectionError struct {
	Coordinate Coordinate
	Cell       *GridCell
	Reason     string
}

func (e *ProjectionError) Error() string {
	if e.Cell != nil {
		return fmt.Sprintf("projection of (%.4f, %.4f) to cell %s: %s",
			e.Coordinate.Latitude, e.Coordinate.Longitude, e.Cell, e.Reason)
	}
	return fmt.Sprintf("projection of (%.4f, %.4f): %s",
		e.Coordinate.Latitude, e.Coordinate.Longitude, e.Reason)
}

// ScheduleError means the publication table itself is broken. It is a
// configuration defect and never the result of user input.
type ScheduleError struct {
	Product Product
	Reason  string
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("schedule for %s: %s", e.Product, e.Reason)
}

// UpstreamError wraps a failure of the record source unchanged.
type UpstreamError struct {
	Issue IssueDescriptor
	Cell  GridCell
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("fetch %s %s%s at %s: %v", e.Issue.Product, e.Issue.Date, e.Issue.Time, e.Cell, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

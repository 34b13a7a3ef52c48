// Package calendar removes flight candidates that collide with the user's
// busy intervals and provides the sources those intervals come from.
package calendar

import (
	"fmt"
	"time"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// Interval is an inclusive range of calendar dates
type Interval struct {
	Start time.Time
	End   time.Time
	Title string
}

// Overlaps reports whether two inclusive date ranges intersect
func (i Interval) Overlaps(o Interval) bool {
	return !i.Start.After(o.End) && !i.End.Before(o.Start)
}

// EventInterval converts an event into an inclusive date range. When
// either marker is all-day the stored end date is exclusive, so one day
// is taken off it.
func EventInterval(e models.CalendarEvent) (Interval, error) {
	start, err := models.ParseDate(e.Start.Value())
	if err != nil {
		return Interval{}, fmt.Errorf("event %q start: %w", e.Title, err)
	}
	end, err := models.ParseDate(e.End.Value())
	if err != nil {
		return Interval{}, fmt.Errorf("event %q end: %w", e.Title, err)
	}
	if e.Start.IsAllDay() || e.End.IsAllDay() {
		end = end.AddDate(0, 0, -1)
	}
	if end.Before(start) {
		end = start
	}
	return Interval{Start: start, End: end, Title: e.Title}, nil
}

// FlightInterval is the date span of a candidate trip. A candidate
// without a return date spans its departure day only.
func FlightInterval(c models.FlightCandidate) (Interval, error) {
	start, err := models.ParseDate(c.DepartureDate)
	if err != nil {
		return Interval{}, fmt.Errorf("departure date: %w", err)
	}
	end := start
	if c.ReturnDate != "" {
		end, err = models.ParseDate(c.ReturnDate)
		if err != nil {
			return Interval{}, fmt.Errorf("return date: %w", err)
		}
	}
	if end.Before(start) {
		end = start
	}
	return Interval{Start: start, End: end, Title: c.ID}, nil
}

// Conflict records why a candidate was removed
type Conflict struct {
	CandidateID string `json:"candidateId"`
	Event       string `json:"event"`
}

// Result is the outcome of the calendar stage
type Result struct {
	Status     models.CalendarStatus
	Candidates []models.FlightCandidate
	Conflicts  []Conflict
	Warnings   []string
}

// FilterConflicts drops candidates whose trip overlaps any event. The
// stage is advisory: with no usable events it is skipped, and when it
// would remove every candidate the input is returned unchanged.
func FilterConflicts(cands []models.FlightCandidate, events []models.CalendarEvent) Result {
	res := Result{Status: models.CalendarSkipped, Candidates: cands}
	if len(cands) == 0 || len(events) == 0 {
		return res
	}

	intervals := make([]Interval, 0, len(events))
	for _, e := range events {
		iv, err := EventInterval(e)
		if err != nil {
			res.Warnings = append(res.Warnings, "ignoring "+err.Error())
			continue
		}
		intervals = append(intervals, iv)
	}
	if len(intervals) == 0 {
		return res
	}

	survivors := make([]models.FlightCandidate, 0, len(cands))
	for _, c := range cands {
		trip, err := FlightInterval(c)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("candidate %s dropped: %v", c.ID, err))
			continue
		}
		if ev, ok := firstConflict(trip, intervals); ok {
			res.Conflicts = append(res.Conflicts, Conflict{CandidateID: c.ID, Event: ev.Title})
			continue
		}
		survivors = append(survivors, c)
	}

	if len(survivors) == 0 {
		res.Status = models.CalendarReverted
		return res
	}
	res.Status = models.CalendarApplied
	res.Candidates = survivors
	return res
}

func firstConflict(trip Interval, events []Interval) (Interval, bool) {
	for _, ev := range events {
		if trip.Overlaps(ev) {
			return ev, true
		}
	}
	return Interval{}, false
}

package calendar

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

var base = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

func day(offset int) string {
	return base.AddDate(0, 0, offset).Format(models.DateLayout)
}

func trip(id, departure, ret string) models.FlightCandidate {
	return models.FlightCandidate{ID: id, Airline: "KLM", DepartureDate: departure, ReturnDate: ret}
}

func allDay(title, start, endExclusive string) models.CalendarEvent {
	return models.CalendarEvent{
		Title: title,
		Start: models.TimeMarker{Date: start},
		End:   models.TimeMarker{Date: endExclusive},
	}
}

func timed(title, start, end string) models.CalendarEvent {
	return models.CalendarEvent{
		Title: title,
		Start: models.TimeMarker{DateTime: start},
		End:   models.TimeMarker{DateTime: end},
	}
}

func ids(cands []models.FlightCandidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.ID
	}
	return out
}

func TestScenario_AllDayEventConflict(t *testing.T) {
	event := allDay("Family dinner", "2025-12-26", "2025-12-27")
	conflicting := trip("f_1", "2025-12-26 08:00", "2025-12-28")
	clear := trip("f_2", "2025-12-27", "2025-12-30")

	iv, err := EventInterval(event)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-26", models.FormatDate(iv.Start))
	assert.Equal(t, "2025-12-26", models.FormatDate(iv.End), "all-day end is exclusive")

	res := FilterConflicts([]models.FlightCandidate{conflicting, clear}, []models.CalendarEvent{event})
	assert.Equal(t, models.CalendarApplied, res.Status)
	assert.Equal(t, []string{"f_2"}, ids(res.Candidates))
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, Conflict{CandidateID: "f_1", Event: "Family dinner"}, res.Conflicts[0])
}

func TestFilterConflicts_Cases(t *testing.T) {
	tests := []struct {
		name   string
		cands  []models.FlightCandidate
		events []models.CalendarEvent
		want   []string
		status models.CalendarStatus
	}{
		{
			name:   "no events skips stage",
			cands:  []models.FlightCandidate{trip("a", "2025-12-26", "2025-12-28")},
			want:   []string{"a"},
			status: models.CalendarSkipped,
		},
		{
			name:   "timed event touching return day conflicts",
			cands:  []models.FlightCandidate{trip("a", "2025-12-20", "2025-12-24"), trip("b", "2025-12-01", "2025-12-05")},
			events: []models.CalendarEvent{timed("Offsite", "2025-12-24T09:00:00+01:00", "2025-12-24T17:00:00+01:00")},
			want:   []string{"b"},
			status: models.CalendarApplied,
		},
		{
			name:   "day after all-day event is free",
			cands:  []models.FlightCandidate{trip("a", "2025-12-27", "2025-12-29")},
			events: []models.CalendarEvent{allDay("Holiday", "2025-12-25", "2025-12-27")},
			want:   []string{"a"},
			status: models.CalendarApplied,
		},
		{
			name:   "every candidate conflicts reverts",
			cands:  []models.FlightCandidate{trip("a", "2025-12-26", "2025-12-28"), trip("b", "2025-12-25", "2025-12-27")},
			events: []models.CalendarEvent{allDay("Trip", "2025-12-20", "2026-01-10")},
			want:   []string{"a", "b"},
			status: models.CalendarReverted,
		},
		{
			name:   "unparseable candidate date dropped",
			cands:  []models.FlightCandidate{trip("a", "soon", "2025-12-28"), trip("b", "2025-12-01", "bad"), trip("c", "2025-12-01", "2025-12-02")},
			events: []models.CalendarEvent{allDay("Party", "2025-12-26", "2025-12-27")},
			want:   []string{"c"},
			status: models.CalendarApplied,
		},
		{
			name:   "missing return means single day trip",
			cands:  []models.FlightCandidate{trip("a", "2025-12-25", ""), trip("b", "2025-12-26", "")},
			events: []models.CalendarEvent{allDay("Party", "2025-12-26", "2025-12-27")},
			want:   []string{"a"},
			status: models.CalendarApplied,
		},
		{
			name:   "only malformed events skips stage",
			cands:  []models.FlightCandidate{trip("a", "2025-12-26", "2025-12-28")},
			events: []models.CalendarEvent{timed("Broken", "yesterday", "")},
			want:   []string{"a"},
			status: models.CalendarSkipped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := FilterConflicts(tt.cands, tt.events)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.want, ids(res.Candidates))
		})
	}
}

func TestFilterConflicts_WarnsOnBadInput(t *testing.T) {
	res := FilterConflicts(
		[]models.FlightCandidate{trip("a", "later", ""), trip("b", "2025-12-01", "")},
		[]models.CalendarEvent{allDay("Party", "2025-12-26", "2025-12-27"), timed("Broken", "x", "y")},
	)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "Broken")
	assert.Contains(t, res.Warnings[1], "candidate a dropped")
}

func eventFor(start, length int, isAllDay bool) models.CalendarEvent {
	if isAllDay {
		return allDay("busy", day(start), day(start+length+1))
	}
	return timed("busy",
		fmt.Sprintf("%sT09:00:00Z", day(start)),
		fmt.Sprintf("%sT18:00:00Z", day(start+length)))
}

func TestFilterConflicts_OverlapProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("candidate survives exactly when it does not intersect the event", prop.ForAll(
		func(depart, length, evStart, evLength int, isAllDay bool) bool {
			probe := trip("probe", day(depart), day(depart+length))
			anchor := trip("anchor", day(400), day(401))
			event := eventFor(evStart, evLength, isAllDay)

			res := FilterConflicts([]models.FlightCandidate{probe, anchor}, []models.CalendarEvent{event})

			intersects := depart <= evStart+evLength && depart+length >= evStart
			survived := false
			for _, c := range res.Candidates {
				if c.ID == "probe" {
					survived = true
				}
			}
			return survived == !intersects && res.Status == models.CalendarApplied
		},
		gen.IntRange(0, 30),
		gen.IntRange(0, 10),
		gen.IntRange(0, 30),
		gen.IntRange(0, 5),
		gen.Bool(),
	))

	properties.Property("removing everything returns the input unchanged", prop.ForAll(
		func(departs []int) bool {
			if len(departs) == 0 {
				return true
			}
			cands := make([]models.FlightCandidate, len(departs))
			for i, d := range departs {
				cands[i] = trip(fmt.Sprintf("c%d", i), day(d), day(d+2))
			}
			event := allDay("sabbatical", day(0), day(60))

			res := FilterConflicts(cands, []models.CalendarEvent{event})
			return res.Status == models.CalendarReverted && assert.ObjectsAreEqual(cands, res.Candidates)
		},
		gen.SliceOf(gen.IntRange(0, 50)),
	))

	properties.Property("filtering is idempotent", prop.ForAll(
		func(departs []int, evStart int) bool {
			cands := make([]models.FlightCandidate, len(departs))
			for i, d := range departs {
				cands[i] = trip(fmt.Sprintf("c%d", i), day(d), day(d+3))
			}
			events := []models.CalendarEvent{eventFor(evStart, 2, true)}

			once := FilterConflicts(cands, events)
			twice := FilterConflicts(once.Candidates, events)
			if once.Status != models.CalendarApplied {
				return true
			}
			return assert.ObjectsAreEqual(once.Candidates, twice.Candidates)
		},
		gen.SliceOf(gen.IntRange(0, 40)),
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}

package candidates

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

func prefs(budget *float64) models.TravelPreferences {
	return models.TravelPreferences{
		DepartureCode: "AMS",
		ArrivalCode:   "ATL",
		OutboundDate:  "2025-12-25",
		ReturnDate:    "2026-01-04",
		TripDays:      10,
		Currency:      "USD",
		Budget:        budget,
	}
}

func candidate(id string, price *float64, departure string) models.FlightCandidate {
	return models.FlightCandidate{
		ID:            id,
		Airline:       "KLM",
		Price:         price,
		Route:         "AMS → ATL",
		DepartureCode: "AMS",
		ArrivalCode:   "ATL",
		DepartureDate: departure,
	}
}

func prices(cands []models.FlightCandidate) []any {
	out := make([]any, len(cands))
	for i, c := range cands {
		if c.Price == nil {
			out[i] = nil
		} else {
			out[i] = *c.Price
		}
	}
	return out
}

func TestScenario_BudgetFilterAscendingWithAbsentLast(t *testing.T) {
	raw := models.RawSearchResult{
		BestFlights: []models.RawOffer{
			offer("KLM", "450", "615"),
			offer("Delta", "700", "600"),
			offer("Lufthansa", "300", "720"),
		},
		OtherFlights: []models.RawOffer{
			offer("United", "9999", "800"),
			offer("Iberia", "", "650"),
		},
	}

	normalized := Normalize(raw, testQuery)
	require.Len(t, normalized.Candidates, 5)

	res := Filter(normalized.Candidates, prefs(ptr(600)))
	assert.Equal(t, KindOK, res.Kind)
	assert.Equal(t, []any{300.0, 450.0, nil}, prices(res.Candidates))
}

func TestFilter_Constraints(t *testing.T) {
	tests := []struct {
		name string
		cand models.FlightCandidate
		keep bool
	}{
		{name: "matching", cand: candidate("a", ptr(100), "2025-12-25 10:00"), keep: true},
		{name: "lowercase codes", cand: func() models.FlightCandidate {
			c := candidate("b", ptr(100), "2025-12-26")
			c.DepartureCode, c.ArrivalCode = "ams", "atl"
			return c
		}(), keep: true},
		{name: "wrong departure", cand: func() models.FlightCandidate {
			c := candidate("c", ptr(100), "2025-12-26")
			c.DepartureCode = "CDG"
			return c
		}(), keep: false},
		{name: "wrong arrival", cand: func() models.FlightCandidate {
			c := candidate("d", ptr(100), "2025-12-26")
			c.ArrivalCode = "JFK"
			return c
		}(), keep: false},
		{name: "unspecified codes", cand: func() models.FlightCandidate {
			c := candidate("e", ptr(100), "2025-12-26")
			c.DepartureCode, c.ArrivalCode = "", ""
			return c
		}(), keep: true},
		{name: "over budget", cand: candidate("f", ptr(601), "2025-12-26"), keep: false},
		{name: "exactly budget", cand: candidate("g", ptr(600), "2025-12-26"), keep: true},
		{name: "no price", cand: candidate("h", nil, "2025-12-26"), keep: true},
		{name: "window end inclusive", cand: candidate("i", ptr(1), "2026-01-04 23:00"), keep: true},
		{name: "after window", cand: candidate("j", ptr(1), "2026-01-05"), keep: false},
		{name: "before window", cand: candidate("k", ptr(1), "2025-12-24"), keep: false},
		{name: "unparseable date", cand: candidate("l", ptr(1), "Christmas"), keep: true},
		{name: "missing date", cand: candidate("m", ptr(1), ""), keep: true},
		{name: "negative price isolated", cand: candidate("n", ptr(-3), "2025-12-26"), keep: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Filter([]models.FlightCandidate{tt.cand}, prefs(ptr(600)))
			if tt.keep {
				assert.Equal(t, KindOK, res.Kind)
				assert.Len(t, res.Candidates, 1)
			} else {
				assert.Equal(t, KindEmpty, res.Kind)
				assert.Empty(t, res.Candidates)
			}
		})
	}
}

func TestFilter_UnboundedBudget(t *testing.T) {
	res := Filter([]models.FlightCandidate{candidate("a", ptr(99999), "")}, prefs(nil))
	assert.Len(t, res.Candidates, 1)
}

func TestFilter_BadCandidateDoesNotAbortBatch(t *testing.T) {
	cands := []models.FlightCandidate{
		candidate("bad", ptr(-1), ""),
		candidate("good", ptr(10), ""),
	}

	res := Filter(cands, prefs(nil))
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "good", res.Candidates[0].ID)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "bad")
}

func TestFilter_EmptyInputIsEmptyKind(t *testing.T) {
	res := Filter(nil, prefs(nil))
	assert.Equal(t, KindEmpty, res.Kind)
	assert.NotNil(t, res.Candidates)
}

func TestSortByPrice_StableTies(t *testing.T) {
	cands := []models.FlightCandidate{
		candidate("a", nil, ""),
		candidate("b", ptr(200), ""),
		candidate("c", ptr(100), ""),
		candidate("d", ptr(200), ""),
		candidate("e", nil, ""),
	}

	sorted := SortByPrice(cands)
	ids := make([]string, len(sorted))
	for i, c := range sorted {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"c", "b", "d", "a", "e"}, ids)
	assert.Equal(t, "a", cands[0].ID, "input must not be reordered")
}

// Every surviving candidate is within budget or carries no price.
func TestFilter_BudgetProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("filtered prices never exceed the budget", prop.ForAll(
		func(raw []float64, budget float64) bool {
			cands := make([]models.FlightCandidate, len(raw))
			for i, v := range raw {
				var p *float64
				if v >= 0 {
					p = ptr(v)
				}
				cands[i] = candidate(fmt.Sprintf("c%d", i), p, "")
			}
			res := Filter(cands, prefs(&budget))
			last := -1.0
			seenAbsent := false
			for _, c := range res.Candidates {
				if c.Price == nil {
					seenAbsent = true
					continue
				}
				if *c.Price > budget || seenAbsent || *c.Price < last {
					return false
				}
				last = *c.Price
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(-100, 3000)),
		gen.Float64Range(0, 2000),
	))

	properties.TestingRun(t)
}

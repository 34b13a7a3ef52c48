package candidates

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// Kind tells a caller whether anything survived a stage
type Kind string

const (
	KindOK    Kind = "ok"
	KindEmpty Kind = "empty"
)

// FilterResult is the outcome of applying hard constraints
type FilterResult struct {
	Kind       Kind
	Candidates []models.FlightCandidate
	Warnings   []string
}

type window struct {
	valid      bool
	start, end int64
}

// Filter keeps the candidates matching route, budget and outbound date
// window, ordered by ascending price with absent prices last. Missing or
// unparseable candidate data never excludes a candidate.
func Filter(cands []models.FlightCandidate, p models.TravelPreferences) FilterResult {
	var w window
	if start, err := models.ParseDate(p.OutboundDate); err == nil {
		w = window{
			valid: true,
			start: start.Unix(),
			end:   start.AddDate(0, 0, p.TripDays).Unix(),
		}
	}

	res := FilterResult{Candidates: []models.FlightCandidate{}}
	for _, c := range cands {
		keep, err := matches(c, p, w)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("candidate %s dropped: %v", c.ID, err))
			continue
		}
		if keep {
			res.Candidates = append(res.Candidates, c)
		}
	}

	res.Candidates = SortByPrice(res.Candidates)
	res.Kind = KindOK
	if len(res.Candidates) == 0 {
		res.Kind = KindEmpty
	}
	return res
}

func matches(c models.FlightCandidate, p models.TravelPreferences, w window) (bool, error) {
	if c.DepartureCode != "" && p.DepartureCode != "" && !strings.EqualFold(c.DepartureCode, p.DepartureCode) {
		return false, nil
	}
	if c.ArrivalCode != "" && p.ArrivalCode != "" && !strings.EqualFold(c.ArrivalCode, p.ArrivalCode) {
		return false, nil
	}
	if c.Price != nil {
		price := *c.Price
		if price < 0 || math.IsNaN(price) {
			return false, fmt.Errorf("invalid price %v", price)
		}
		if p.Budget != nil && price > *p.Budget {
			return false, nil
		}
	}
	if w.valid && c.DepartureDate != "" {
		if d, err := models.ParseDate(c.DepartureDate); err == nil {
			if d.Unix() < w.start || d.Unix() > w.end {
				return false, nil
			}
		}
	}
	return true, nil
}

// SortByPrice returns a copy ordered by ascending price. Candidates
// without a price go last; ties keep their input order.
func SortByPrice(cands []models.FlightCandidate) []models.FlightCandidate {
	out := make([]models.FlightCandidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool {
		return priceKey(out[i]) < priceKey(out[j])
	})
	return out
}

func priceKey(c models.FlightCandidate) float64 {
	if c.Price == nil {
		return math.Inf(1)
	}
	return *c.Price
}

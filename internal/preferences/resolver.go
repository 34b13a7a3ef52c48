// Package preferences turns partial user input into resolved travel preferences.
package preferences

import (
	"fmt"
	"math"
	"strings"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

const (
	DefaultDeparture    = "BUD"
	DefaultArrival      = "LIN"
	DefaultOutboundDate = "2025-12-25"
	DefaultTripDays     = 10
	DefaultCurrency     = "USD"
)

// Result is a resolved preference record plus every substitution made
// while resolving it
type Result struct {
	Preferences  models.TravelPreferences
	Degradations []string
}

// Resolve fills missing or invalid fields with defaults and derives the
// return date. It never fails.
func Resolve(in models.PreferenceInput) Result {
	var res Result
	degrade := func(format string, args ...any) {
		res.Degradations = append(res.Degradations, fmt.Sprintf(format, args...))
	}

	p := models.TravelPreferences{Notes: strings.TrimSpace(in.Notes)}

	p.DepartureCode = airportCode(in.DepartureCode)
	if p.DepartureCode == "" {
		p.DepartureCode = DefaultDeparture
		degrade("departure code missing, using %s", DefaultDeparture)
	}
	p.ArrivalCode = airportCode(in.ArrivalCode)
	if p.ArrivalCode == "" {
		p.ArrivalCode = DefaultArrival
		degrade("arrival code missing, using %s", DefaultArrival)
	}

	outbound, _ := models.ParseDate(DefaultOutboundDate)
	switch {
	case in.OutboundDate == nil || strings.TrimSpace(*in.OutboundDate) == "":
		degrade("outbound date missing, using %s", DefaultOutboundDate)
	default:
		d, err := models.ParseDate(*in.OutboundDate)
		if err != nil {
			degrade("outbound date %q invalid, using %s", *in.OutboundDate, DefaultOutboundDate)
		} else {
			outbound = d
		}
	}
	p.OutboundDate = models.FormatDate(outbound)

	p.TripDays = DefaultTripDays
	switch {
	case in.TripDays == nil:
		degrade("trip length missing, using %d days", DefaultTripDays)
	case *in.TripDays <= 0:
		degrade("trip length %d invalid, using %d days", *in.TripDays, DefaultTripDays)
	default:
		p.TripDays = *in.TripDays
	}
	p.ReturnDate = models.FormatDate(outbound.AddDate(0, 0, p.TripDays))

	p.Currency = DefaultCurrency
	if in.Currency != nil && strings.TrimSpace(*in.Currency) != "" {
		p.Currency = strings.ToUpper(strings.TrimSpace(*in.Currency))
	}

	if in.Budget != nil {
		b := *in.Budget
		if b < 0 || math.IsNaN(b) || math.IsInf(b, 0) {
			degrade("budget %v invalid, treating as unbounded", b)
		} else {
			p.Budget = &b
		}
	}

	res.Preferences = p
	return res
}

func airportCode(s *string) string {
	if s == nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(*s))
}

// Merge overlays the fields set in next onto prev. Notes are replaced
// only when next carries any.
func Merge(prev, next models.PreferenceInput) models.PreferenceInput {
	out := prev
	if next.DepartureCode != nil {
		out.DepartureCode = next.DepartureCode
	}
	if next.ArrivalCode != nil {
		out.ArrivalCode = next.ArrivalCode
	}
	if next.OutboundDate != nil {
		out.OutboundDate = next.OutboundDate
	}
	if next.TripDays != nil {
		out.TripDays = next.TripDays
	}
	if next.Currency != nil {
		out.Currency = next.Currency
	}
	if next.Budget != nil {
		out.Budget = next.Budget
	}
	if next.Notes != "" {
		out.Notes = next.Notes
	}
	return out
}

// Package candidates converts provider offers into canonical flight
// candidates and applies the hard search constraints to them.
package candidates

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

var (
	ErrNoSegments = errors.New("offer has no flight segments")
	errAbsent     = errors.New("absent")
)

// NormalizeResult holds the normalized candidates and a note for each
// offer that had to be dropped
type NormalizeResult struct {
	Candidates []models.FlightCandidate
	Dropped    []string
}

// Normalize converts best offers followed by alternative offers into
// candidates. Offer order is preserved; it is the tie-break baseline for
// every later sort.
func Normalize(raw models.RawSearchResult, q models.SearchQuery) NormalizeResult {
	var res NormalizeResult
	for i, offer := range raw.Offers() {
		c, err := normalizeOffer(offer, q)
		if err != nil {
			res.Dropped = append(res.Dropped, fmt.Sprintf("offer %d: %v", i+1, err))
			continue
		}
		c.ID = fmt.Sprintf("f_%d", i+1)
		res.Candidates = append(res.Candidates, c)
	}
	return res
}

func normalizeOffer(offer models.RawOffer, q models.SearchQuery) (models.FlightCandidate, error) {
	if len(offer.Flights) == 0 {
		return models.FlightCandidate{}, ErrNoSegments
	}
	first := offer.Flights[0]
	last := offer.Flights[len(offer.Flights)-1]

	c := models.FlightCandidate{
		Airline:       firstNonEmpty(first.Airline, offer.Airline, "Unknown"),
		Currency:      q.Currency,
		DepartureCode: strings.ToUpper(firstNonEmpty(first.DepartureAirport.ID, q.DepartureCode)),
		ArrivalCode:   strings.ToUpper(firstNonEmpty(last.ArrivalAirport.ID, q.ArrivalCode)),
		DepartureDate: firstNonEmpty(first.DepartureAirport.Time, q.OutboundDate),
		ReturnDate:    q.ReturnDate,
	}
	c.Route = fmt.Sprintf("%s → %s",
		strings.ToUpper(firstNonEmpty(first.DepartureAirport.ID, q.DepartureCode)),
		strings.ToUpper(firstNonEmpty(first.ArrivalAirport.ID, q.ArrivalCode)))

	if price, err := parsePrice(offer.Price); err == nil {
		c.Price = &price
	}

	durationField := offer.TotalDuration
	if isAbsent(durationField) {
		durationField = offer.Duration
	}
	if minutes, err := parseMinutes(durationField); err == nil {
		c.DurationMinutes = &minutes
		c.Duration = FormatDuration(minutes)
	}

	c.Extras = extras(offer, first, last)
	return c, nil
}

// FormatDuration renders minutes as "Hh Mm", dropping a zero minute part
func FormatDuration(minutes int) string {
	h, m := minutes/60, minutes%60
	if m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}

func extras(offer models.RawOffer, first, last models.RawSegment) map[string]string {
	out := map[string]string{}
	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	put("departure_airport", first.DepartureAirport.Name)
	put("arrival_airport", last.ArrivalAirport.Name)
	put("departure_time", first.DepartureAirport.Time)
	put("arrival_time", last.ArrivalAirport.Time)
	put("airline_logo", firstNonEmpty(first.AirlineLogo, offer.AirlineLogo))
	put("flight_number", first.FlightNumber)
	put("type", offer.Type)
	if !isAbsent(offer.CarbonEmissions) {
		put("carbon_emissions", string(offer.CarbonEmissions))
	}
	if stops := len(offer.Flights) - 1; stops > 0 {
		put("stops", strconv.Itoa(stops))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parsePrice accepts a number, a numeric string or an {"amount": n} object
func parsePrice(raw json.RawMessage) (float64, error) {
	if isAbsent(raw) {
		return 0, errAbsent
	}
	var obj struct {
		Amount json.RawMessage `json:"amount"`
	}
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		if err := json.Unmarshal(raw, &obj); err != nil {
			return 0, err
		}
		return parsePrice(obj.Amount)
	}
	f, err := parseNumber(raw)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("negative price %v", f)
	}
	return f, nil
}

func parseMinutes(raw json.RawMessage) (int, error) {
	if isAbsent(raw) {
		return 0, errAbsent
	}
	f, err := parseNumber(raw)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("negative duration %v", f)
	}
	return int(math.Round(f)), nil
}

func parseNumber(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	s = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "$€£"))
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	return f, nil
}

func isAbsent(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

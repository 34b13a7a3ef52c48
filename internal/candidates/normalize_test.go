package candidates

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

var testQuery = models.SearchQuery{
	DepartureCode: "AMS",
	ArrivalCode:   "ATL",
	OutboundDate:  "2025-12-25",
	ReturnDate:    "2026-01-04",
	Currency:      "USD",
	SortBy:        models.SortBest,
}

func segment(airline, from, to, departs string) models.RawSegment {
	return models.RawSegment{
		DepartureAirport: models.RawAirport{Name: from + " Airport", ID: from, Time: departs},
		ArrivalAirport:   models.RawAirport{Name: to + " Airport", ID: to},
		Airline:          airline,
	}
}

func offer(airline, price, duration string) models.RawOffer {
	o := models.RawOffer{
		Flights: []models.RawSegment{segment(airline, "AMS", "ATL", "2025-12-25 10:00")},
	}
	if price != "" {
		o.Price = json.RawMessage(price)
	}
	if duration != "" {
		o.TotalDuration = json.RawMessage(duration)
	}
	return o
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "0h"},
		{45, "0h 45m"},
		{300, "5h"},
		{615, "10h 15m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.minutes))
	}
}

func TestNormalize_BestBeforeOther(t *testing.T) {
	raw := models.RawSearchResult{
		BestFlights:  []models.RawOffer{offer("KLM", "450", "615"), offer("Delta", "700", "600")},
		OtherFlights: []models.RawOffer{offer("Lufthansa", "300", "720")},
	}

	res := Normalize(raw, testQuery)
	require.Len(t, res.Candidates, 3)
	assert.Empty(t, res.Dropped)

	assert.Equal(t, []string{"KLM", "Delta", "Lufthansa"}, []string{
		res.Candidates[0].Airline, res.Candidates[1].Airline, res.Candidates[2].Airline,
	})

	c := res.Candidates[0]
	assert.Equal(t, "f_1", c.ID)
	assert.Equal(t, "AMS → ATL", c.Route)
	assert.Equal(t, "10h 15m", c.Duration)
	require.NotNil(t, c.DurationMinutes)
	assert.Equal(t, 615, *c.DurationMinutes)
	require.NotNil(t, c.Price)
	assert.Equal(t, 450.0, *c.Price)
	assert.Equal(t, "USD", c.Currency)
	assert.Equal(t, "2025-12-25 10:00", c.DepartureDate)
	assert.Equal(t, "2026-01-04", c.ReturnDate)
	assert.Equal(t, "AMS Airport", c.Extras["departure_airport"])
}

func TestNormalize_PriceShapes(t *testing.T) {
	tests := []struct {
		name  string
		price string
		want  *float64
	}{
		{name: "number", price: `450`, want: ptr(450)},
		{name: "numeric string", price: `"450.50"`, want: ptr(450.5)},
		{name: "currency string", price: `"$1,200"`, want: ptr(1200)},
		{name: "amount object", price: `{"amount": 320}`, want: ptr(320)},
		{name: "null", price: `null`},
		{name: "missing"},
		{name: "garbage", price: `"call us"`},
		{name: "negative", price: `-5`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Normalize(models.RawSearchResult{BestFlights: []models.RawOffer{offer("KLM", tt.price, "")}}, testQuery)
			require.Len(t, res.Candidates, 1, "malformed price must not drop the offer")
			if tt.want == nil {
				assert.Nil(t, res.Candidates[0].Price)
				return
			}
			require.NotNil(t, res.Candidates[0].Price)
			assert.Equal(t, *tt.want, *res.Candidates[0].Price)
		})
	}
}

func TestNormalize_DurationFallbacks(t *testing.T) {
	o := offer("KLM", "100", "")
	o.Duration = json.RawMessage(`"90"`)
	missing := offer("KLM", "100", "")
	bad := offer("KLM", "100", `"long"`)

	res := Normalize(models.RawSearchResult{BestFlights: []models.RawOffer{o, missing, bad}}, testQuery)
	require.Len(t, res.Candidates, 3)

	assert.Equal(t, "1h 30m", res.Candidates[0].Duration)
	assert.Empty(t, res.Candidates[1].Duration)
	assert.Nil(t, res.Candidates[1].DurationMinutes)
	assert.Nil(t, res.Candidates[2].DurationMinutes)
}

func TestNormalize_DropsOffersWithoutSegments(t *testing.T) {
	raw := models.RawSearchResult{
		BestFlights: []models.RawOffer{{Price: json.RawMessage(`10`)}, offer("KLM", "200", "60")},
	}

	res := Normalize(raw, testQuery)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "f_2", res.Candidates[0].ID)
	require.Len(t, res.Dropped, 1)
	assert.Contains(t, res.Dropped[0], ErrNoSegments.Error())
}

func TestNormalize_ConnectionKeepsFinalArrival(t *testing.T) {
	o := models.RawOffer{
		Price: json.RawMessage(`510`),
		Flights: []models.RawSegment{
			segment("Air France", "AMS", "CDG", "2025-12-25 07:00"),
			segment("Delta", "CDG", "ATL", "2025-12-25 11:00"),
		},
	}

	res := Normalize(models.RawSearchResult{BestFlights: []models.RawOffer{o}}, testQuery)
	require.Len(t, res.Candidates, 1)

	c := res.Candidates[0]
	assert.Equal(t, "Air France", c.Airline)
	assert.Equal(t, "AMS → CDG", c.Route)
	assert.Equal(t, "ATL", c.ArrivalCode)
	assert.Equal(t, "1", c.Extras["stops"])
}

func TestNormalize_MissingCodesFallBackToQuery(t *testing.T) {
	o := models.RawOffer{Flights: []models.RawSegment{{Airline: ""}}, Airline: "Wizz"}

	res := Normalize(models.RawSearchResult{OtherFlights: []models.RawOffer{o}}, testQuery)
	require.Len(t, res.Candidates, 1)

	c := res.Candidates[0]
	assert.Equal(t, "Wizz", c.Airline)
	assert.Equal(t, "AMS → ATL", c.Route)
	assert.Equal(t, "2025-12-25", c.DepartureDate)
}

func ptr(f float64) *float64 { return &f }

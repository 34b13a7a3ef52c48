package preferences

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

func strPtr(s string) *string     { return &s }
func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func TestResolve_FullInput(t *testing.T) {
	res := Resolve(models.PreferenceInput{
		DepartureCode: strPtr("ams"),
		ArrivalCode:   strPtr(" atl "),
		OutboundDate:  strPtr("2025-12-25"),
		TripDays:      intPtr(10),
		Currency:      strPtr("eur"),
		Budget:        floatPtr(600),
		Notes:         "window seat",
	})

	p := res.Preferences
	assert.Empty(t, res.Degradations)
	assert.Equal(t, "AMS", p.DepartureCode)
	assert.Equal(t, "ATL", p.ArrivalCode)
	assert.Equal(t, "2025-12-25", p.OutboundDate)
	assert.Equal(t, "2026-01-04", p.ReturnDate)
	assert.Equal(t, "EUR", p.Currency)
	require.NotNil(t, p.Budget)
	assert.Equal(t, 600.0, *p.Budget)
	assert.Equal(t, "window seat", p.Notes)
}

func TestResolve_Defaults(t *testing.T) {
	res := Resolve(models.PreferenceInput{})

	p := res.Preferences
	assert.Equal(t, DefaultDeparture, p.DepartureCode)
	assert.Equal(t, DefaultArrival, p.ArrivalCode)
	assert.Equal(t, DefaultOutboundDate, p.OutboundDate)
	assert.Equal(t, DefaultTripDays, p.TripDays)
	assert.Equal(t, "2026-01-04", p.ReturnDate)
	assert.Equal(t, DefaultCurrency, p.Currency)
	assert.Nil(t, p.Budget, "missing budget means unbounded")
	assert.Len(t, res.Degradations, 4)
}

func TestResolve_InvalidValues(t *testing.T) {
	tests := []struct {
		name     string
		in       models.PreferenceInput
		check    func(t *testing.T, p models.TravelPreferences)
		degraded string
	}{
		{
			name: "unparseable date",
			in:   models.PreferenceInput{OutboundDate: strPtr("next tuesday")},
			check: func(t *testing.T, p models.TravelPreferences) {
				assert.Equal(t, DefaultOutboundDate, p.OutboundDate)
			},
			degraded: "outbound date \"next tuesday\" invalid",
		},
		{
			name: "impossible calendar date",
			in:   models.PreferenceInput{OutboundDate: strPtr("2025-02-30")},
			check: func(t *testing.T, p models.TravelPreferences) {
				assert.Equal(t, DefaultOutboundDate, p.OutboundDate)
			},
			degraded: "invalid",
		},
		{
			name: "negative trip length",
			in:   models.PreferenceInput{TripDays: intPtr(-2)},
			check: func(t *testing.T, p models.TravelPreferences) {
				assert.Equal(t, DefaultTripDays, p.TripDays)
			},
			degraded: "trip length -2 invalid",
		},
		{
			name: "negative budget",
			in:   models.PreferenceInput{Budget: floatPtr(-1)},
			check: func(t *testing.T, p models.TravelPreferences) {
				assert.Nil(t, p.Budget)
			},
			degraded: "budget -1 invalid",
		},
		{
			name: "timestamp date keeps the day",
			in:   models.PreferenceInput{OutboundDate: strPtr("2026-03-01T09:30:00Z"), TripDays: intPtr(3)},
			check: func(t *testing.T, p models.TravelPreferences) {
				assert.Equal(t, "2026-03-01", p.OutboundDate)
				assert.Equal(t, "2026-03-04", p.ReturnDate)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.in)
			tt.check(t, res.Preferences)
			if tt.degraded != "" {
				assert.Contains(t, strings.Join(res.Degradations, "; "), tt.degraded)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	prev := models.PreferenceInput{
		DepartureCode: strPtr("AMS"),
		ArrivalCode:   strPtr("ATL"),
		Budget:        floatPtr(600),
		Notes:         "aisle",
	}
	next := models.PreferenceInput{Budget: floatPtr(800)}

	out := Merge(prev, next)
	assert.Equal(t, "AMS", *out.DepartureCode)
	assert.Equal(t, "ATL", *out.ArrivalCode)
	assert.Equal(t, 800.0, *out.Budget)
	assert.Equal(t, "aisle", out.Notes)
}

package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

var query = models.SearchQuery{
	DepartureCode: "ams",
	ArrivalCode:   "ATL",
	OutboundDate:  "2025-12-25",
	ReturnDate:    "2026-01-04",
	Currency:      "USD",
	SortBy:        models.SortBest,
}

const serpBody = `{
  "best_flights": [
    {"flights": [{"departure_airport": {"name": "Schiphol", "id": "AMS", "time": "2025-12-25 10:00"},
                  "arrival_airport": {"name": "Hartsfield", "id": "ATL", "time": "2025-12-25 14:30"},
                  "airline": "KLM", "flight_number": "KL 621"}],
     "total_duration": 630, "price": 450}
  ],
  "other_flights": [
    {"flights": [{"departure_airport": {"id": "AMS"}, "arrival_airport": {"id": "ATL"}, "airline": "Delta"}],
     "total_duration": 600}
  ]
}`

func TestSerpAPI_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "google_flights", q.Get("engine"))
		assert.Equal(t, "AMS", q.Get("departure_id"))
		assert.Equal(t, "ATL", q.Get("arrival_id"))
		assert.Equal(t, "2025-12-25", q.Get("outbound_date"))
		assert.Equal(t, "2026-01-04", q.Get("return_date"))
		assert.Equal(t, "1", q.Get("sort_by"))
		assert.Equal(t, "serp-key", q.Get("api_key"))
		_, _ = w.Write([]byte(serpBody))
	}))
	defer srv.Close()

	client := NewSerpAPI(Options{BaseURL: srv.URL, APIKey: "serp-key", Timeout: 5 * time.Second})
	res, err := client.Search(context.Background(), query)
	require.NoError(t, err)

	require.Len(t, res.BestFlights, 1)
	require.Len(t, res.OtherFlights, 1)
	assert.Equal(t, "KLM", res.BestFlights[0].Flights[0].Airline)
	assert.JSONEq(t, "450", string(res.BestFlights[0].Price))
	assert.Empty(t, res.OtherFlights[0].Price)
}

func TestSerpAPI_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "http error", status: http.StatusTooManyRequests, body: "slow down", wantErr: "status 429"},
		{name: "api error", status: http.StatusOK, body: `{"error": "Invalid API key."}`, wantErr: "Invalid API key."},
		{name: "bad body", status: http.StatusOK, body: `<html>`, wantErr: "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewSerpAPI(Options{BaseURL: srv.URL, Timeout: time.Second}).Search(context.Background(), query)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSerpAPI_CancelledContext(t *testing.T) {
	client := NewSerpAPI(Options{BaseURL: "http://127.0.0.1:1", RequestsPerSecond: 0.001, Burst: 1})
	ctx, cancel := context.WithCancel(context.Background())

	// first call consumes the burst token
	_, _ = client.Search(ctx, query)
	cancel()

	_, err := client.Search(ctx, query)
	assert.ErrorContains(t, err, "rate limiter")
}

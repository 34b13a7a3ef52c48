// Package provider fetches raw flight offers from the search API.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// Searcher returns raw offers for a query
type Searcher interface {
	Search(ctx context.Context, q models.SearchQuery) (models.RawSearchResult, error)
}

// Options configures the SerpAPI client
type Options struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// SerpAPI queries the Google Flights engine of SerpAPI. Requests from
// every session share one limiter.
type SerpAPI struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSerpAPI creates a SerpAPI client
func NewSerpAPI(opts Options) *SerpAPI {
	limit := rate.Limit(opts.RequestsPerSecond)
	if opts.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &SerpAPI{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
	}
}

type serpResponse struct {
	models.RawSearchResult
	Error string `json:"error,omitempty"`
}

// Search performs one request. It does not retry.
func (s *SerpAPI) Search(ctx context.Context, q models.SearchQuery) (models.RawSearchResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return models.RawSearchResult{}, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("engine", "google_flights")
	params.Set("departure_id", strings.ToUpper(q.DepartureCode))
	params.Set("arrival_id", strings.ToUpper(q.ArrivalCode))
	params.Set("outbound_date", q.OutboundDate)
	params.Set("return_date", q.ReturnDate)
	params.Set("currency", q.Currency)
	params.Set("hl", "en")
	params.Set("sort_by", strconv.Itoa(int(q.SortBy)))
	params.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return models.RawSearchResult{}, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return models.RawSearchResult{}, fmt.Errorf("flight search failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.RawSearchResult{}, fmt.Errorf("flight search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var body serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.RawSearchResult{}, fmt.Errorf("failed to decode search response: %w", err)
	}
	if body.Error != "" {
		return models.RawSearchResult{}, fmt.Errorf("flight search error: %s", body.Error)
	}
	return body.RawSearchResult, nil
}

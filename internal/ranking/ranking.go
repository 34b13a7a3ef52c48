// Package ranking asks the ranking oracle for a shortlist of candidates and
// falls back to a deterministic cheapest-first shortlist whenever the
// oracle's answer cannot be used.
package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cx-tal-miterani/flight-assistant/internal/candidates"
	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

const (
	FallbackJustification = "Fallback: Cheapest available option"
	DefaultShortlistSize  = 3
)

var (
	ErrEmptyShortlist = errors.New("oracle returned no flights")
	// ErrNoKnownFlights is returned when none of the oracle's picks is a candidate
	ErrNoKnownFlights = errors.New("oracle picked no known flights")
)

// Oracle answers a natural-language prompt
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Result is the ranked shortlist plus where it came from. Cause is set
// when the fallback was used.
type Result struct {
	Source    models.ShortlistSource
	Shortlist []models.RankedFlight
	Cause     error
}

// Ranker produces shortlists
type Ranker struct {
	oracle Oracle
	size   int
	logger *slog.Logger
}

// NewRanker creates a Ranker returning at most size flights
func NewRanker(oracle Oracle, size int, logger *slog.Logger) *Ranker {
	if size <= 0 {
		size = DefaultShortlistSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ranker{oracle: oracle, size: size, logger: logger}
}

// WithSize returns a copy of the Ranker capped at size flights. A
// non-positive size keeps the current cap.
func (r *Ranker) WithSize(size int) *Ranker {
	if size <= 0 || size == r.size {
		return r
	}
	sized := *r
	sized.size = size
	return &sized
}

// Rank never fails: any oracle or parsing problem yields the fallback
func (r *Ranker) Rank(ctx context.Context, cands []models.FlightCandidate, preferenceText string) Result {
	if len(cands) == 0 {
		return Result{Source: models.SourceEmpty, Shortlist: []models.RankedFlight{}}
	}

	resp, err := r.oracle.Complete(ctx, BuildPrompt(cands, preferenceText, r.size))
	if err != nil {
		return r.fallback(cands, fmt.Errorf("oracle call failed: %w", err))
	}

	items, err := ParseShortlist(resp)
	if err != nil {
		return r.fallback(cands, err)
	}

	shortlist := Reconcile(items, cands)
	if len(shortlist) == 0 {
		return r.fallback(cands, ErrNoKnownFlights)
	}
	if dropped := len(items) - len(shortlist); dropped > 0 {
		r.logger.Warn("dropping oracle picks that match no candidate", slog.Int("dropped", dropped))
	}
	if len(shortlist) > r.size {
		shortlist = shortlist[:r.size]
	}
	return Result{Source: models.SourceOracle, Shortlist: shortlist}
}

func (r *Ranker) fallback(cands []models.FlightCandidate, cause error) Result {
	r.logger.Warn("using fallback ranking", slog.String("error", cause.Error()), slog.Int("candidates", len(cands)))
	return Result{
		Source:    models.SourceFallback,
		Shortlist: Fallback(cands, r.size),
		Cause:     cause,
	}
}

// Fallback returns the size cheapest candidates, ties in input order
func Fallback(cands []models.FlightCandidate, size int) []models.RankedFlight {
	sorted := candidates.SortByPrice(cands)
	if len(sorted) > size {
		sorted = sorted[:size]
	}
	out := make([]models.RankedFlight, len(sorted))
	for i, c := range sorted {
		out[i] = models.RankedFlight{FlightCandidate: c, Justification: FallbackJustification}
	}
	return out
}

type promptFlight struct {
	ID       string   `json:"id"`
	Airline  string   `json:"airline"`
	Price    *float64 `json:"price,omitempty"`
	Currency string   `json:"currency,omitempty"`
	Duration string   `json:"duration,omitempty"`
	Route    string   `json:"route"`
	Depart   string   `json:"departure,omitempty"`
	Return   string   `json:"return,omitempty"`
}

// BuildPrompt lists the candidates and the user's wishes and asks for a
// strictly structured JSON answer
func BuildPrompt(cands []models.FlightCandidate, preferenceText string, size int) string {
	flights := make([]promptFlight, len(cands))
	for i, c := range cands {
		flights[i] = promptFlight{
			ID: c.ID, Airline: c.Airline, Price: c.Price, Currency: c.Currency,
			Duration: c.Duration, Route: c.Route, Depart: c.DepartureDate, Return: c.ReturnDate,
		}
	}
	listing, _ := json.MarshalIndent(flights, "", "  ")

	if strings.TrimSpace(preferenceText) == "" {
		preferenceText = "No additional preferences."
	}

	var b strings.Builder
	b.WriteString("You are helping a traveller choose a flight.\n\n")
	b.WriteString("Traveller preferences:\n")
	b.WriteString(preferenceText)
	b.WriteString("\n\nAvailable flights:\n")
	b.Write(listing)
	fmt.Fprintf(&b, "\n\nPick the %d best flights for this traveller. ", size)
	b.WriteString("Return ONLY a JSON array, no prose, where each element is an object with the keys ")
	b.WriteString(`"airline", "price", "duration", "route" and "justification". `)
	b.WriteString("Copy airline, price, duration and route exactly from the list above.")
	return b.String()
}

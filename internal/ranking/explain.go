package ranking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cx-tal-miterani/flight-assistant/internal/llmjson"
	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

const (
	ReasoningUnavailable = "Could not generate reasoning."
	ReasoningNoFlights   = "No flights available to generate reasoning."
)

// Explain asks the oracle for step-by-step reasoning about a shortlist.
// Like Rank it degrades instead of failing.
func (r *Ranker) Explain(ctx context.Context, shortlist []models.RankedFlight, prefs models.TravelPreferences) []string {
	if len(shortlist) == 0 {
		return []string{ReasoningNoFlights}
	}

	resp, err := r.oracle.Complete(ctx, buildReasoningPrompt(shortlist, prefs))
	if err != nil {
		r.logger.Warn("reasoning unavailable", slog.String("error", err.Error()))
		return []string{ReasoningUnavailable}
	}

	steps, err := parseReasoning(resp)
	if err != nil {
		r.logger.Warn("reasoning unparseable", slog.String("error", err.Error()))
		return []string{ReasoningUnavailable}
	}
	return steps
}

func buildReasoningPrompt(shortlist []models.RankedFlight, prefs models.TravelPreferences) string {
	flights, _ := json.MarshalIndent(shortlist, "", "  ")
	budget := "no budget limit"
	if prefs.Budget != nil {
		budget = fmt.Sprintf("budget %.2f %s", *prefs.Budget, prefs.Currency)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "A traveller wants to fly %s → %s, leaving %s and returning %s, with %s.\n",
		prefs.DepartureCode, prefs.ArrivalCode, prefs.OutboundDate, prefs.ReturnDate, budget)
	if prefs.Notes != "" {
		fmt.Fprintf(&b, "Their notes: %s\n", prefs.Notes)
	}
	b.WriteString("\nThese flights were shortlisted:\n")
	b.Write(flights)
	b.WriteString("\n\nExplain step by step how the shortlist satisfies the traveller. ")
	b.WriteString(`Return ONLY a JSON object of the form {"reasoning_steps": ["step 1", "step 2"]}.`)
	return b.String()
}

func parseReasoning(resp string) ([]string, error) {
	data, err := llmjson.Extract(resp)
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Steps []string `json:"reasoning_steps"`
	}
	if bytes.HasPrefix(data, []byte("{")) {
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("invalid reasoning JSON: %w", err)
		}
	} else if err := json.Unmarshal(data, &wrapped.Steps); err != nil {
		return nil, fmt.Errorf("invalid reasoning JSON: %w", err)
	}

	steps := make([]string, 0, len(wrapped.Steps))
	for _, s := range wrapped.Steps {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("no reasoning steps")
	}
	return steps, nil
}

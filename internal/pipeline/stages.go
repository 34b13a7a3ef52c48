package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/cx-tal-miterani/flight-assistant/internal/calendar"
	"github.com/cx-tal-miterani/flight-assistant/internal/candidates"
	"github.com/cx-tal-miterani/flight-assistant/internal/preferences"
	"github.com/cx-tal-miterani/flight-assistant/internal/provider"
	"github.com/cx-tal-miterani/flight-assistant/internal/ranking"
	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// Ranker ranks candidates and explains the result
type Ranker interface {
	Rank(ctx context.Context, cands []models.FlightCandidate, preferenceText string) ranking.Result
	Explain(ctx context.Context, shortlist []models.RankedFlight, prefs models.TravelPreferences) []string
}

// ApplyPreferences resolves the input into the session
func ApplyPreferences(s *models.PipelineState, in models.PreferenceInput, text string) Signal {
	res := preferences.Resolve(in)
	prefs := res.Preferences
	s.Preferences = &prefs
	s.Degradations = append(s.Degradations, res.Degradations...)

	s.PreferenceText = strings.TrimSpace(text)
	if s.PreferenceText == "" {
		s.PreferenceText = prefs.Notes
	}
	return SignalOK
}

// Fetch queries the provider and normalizes what it returns. A provider
// error is reported as a failed result, never returned.
func Fetch(ctx context.Context, searcher provider.Searcher, prefs models.TravelPreferences) models.FetchResult {
	raw, err := searcher.Search(ctx, models.QueryFor(prefs))
	if err != nil {
		return models.FetchResult{
			Status:     models.SearchStatusFailed,
			Candidates: []models.FlightCandidate{},
			Error:      err.Error(),
		}
	}

	norm := candidates.Normalize(raw, models.QueryFor(prefs))
	res := models.FetchResult{
		Status:     models.SearchStatusOK,
		Candidates: norm.Candidates,
		Dropped:    len(norm.Dropped),
	}
	if len(res.Candidates) == 0 {
		res.Status = models.SearchStatusEmpty
	}
	return res
}

// ApplyFetch stores the fetched candidates
func ApplyFetch(s *models.PipelineState, r models.FetchResult) Signal {
	s.Candidates = r.Candidates
	s.SearchStatus = r.Status
	if r.Dropped > 0 {
		s.Degradations = append(s.Degradations, fmt.Sprintf("%d offers without segments dropped", r.Dropped))
	}

	switch r.Status {
	case models.SearchStatusFailed:
		s.Degradations = append(s.Degradations, "flight search failed: "+r.Error)
		return SignalFailed
	case models.SearchStatusEmpty:
		return SignalEmpty
	}
	return SignalOK
}

// ApplyFilter applies the hard constraints to the fetched candidates
func ApplyFilter(s *models.PipelineState) Signal {
	var prefs models.TravelPreferences
	if s.Preferences != nil {
		prefs = *s.Preferences
	}
	res := candidates.Filter(s.Candidates, prefs)
	s.Filtered = res.Candidates
	s.Degradations = append(s.Degradations, res.Warnings...)
	if res.Kind == candidates.KindEmpty {
		s.SearchStatus = models.SearchStatusEmpty
		return SignalEmpty
	}
	return SignalOK
}

// CalendarWindow is the date range whose events can collide with a trip
func CalendarWindow(prefs models.TravelPreferences) (from, to string) {
	return prefs.OutboundDate, prefs.ReturnDate
}

// ApplyCalendar removes candidates that collide with the user's events.
// An unavailable calendar skips the stage.
func ApplyCalendar(s *models.PipelineState, events []models.CalendarEvent, err error) Signal {
	if err != nil {
		s.CalendarStatus = models.CalendarSkipped
		s.Degradations = append(s.Degradations, "calendar unavailable: "+err.Error())
		return SignalOK
	}

	res := calendar.FilterConflicts(s.Filtered, events)
	s.Filtered = res.Candidates
	s.CalendarStatus = res.Status
	s.Degradations = append(s.Degradations, res.Warnings...)
	if res.Status == models.CalendarReverted {
		s.Degradations = append(s.Degradations, "every candidate conflicts with the calendar, keeping all of them")
	}
	return SignalOK
}

// RankShortlist ranks candidates and asks for the reasoning behind the
// shortlist
func RankShortlist(ctx context.Context, r Ranker, cands []models.FlightCandidate, text string, prefs models.TravelPreferences) models.RankOutput {
	res := r.Rank(ctx, cands, text)
	out := models.RankOutput{
		Shortlist: res.Shortlist,
		Source:    res.Source,
		Reasoning: r.Explain(ctx, res.Shortlist, prefs),
	}
	if res.Cause != nil {
		out.Error = res.Cause.Error()
	}
	return out
}

// ApplyRank stores the shortlist
func ApplyRank(s *models.PipelineState, out models.RankOutput) Signal {
	s.Shortlist = out.Shortlist
	if s.Shortlist == nil {
		s.Shortlist = []models.RankedFlight{}
	}
	s.ShortlistSource = out.Source
	s.Reasoning = out.Reasoning
	if out.Source == models.SourceFallback {
		s.Degradations = append(s.Degradations, "ranking oracle unusable, using cheapest flights: "+out.Error)
	}
	if len(s.Shortlist) == 0 {
		return SignalEmpty
	}
	return SignalOK
}

// ApplyDecision records the user's answer and returns the chosen flight
// when booking. Booking with an empty shortlist is treated as refine.
func ApplyDecision(s *models.PipelineState, d models.DecisionSignal) (Signal, *models.RankedFlight, error) {
	switch d.Choice {
	case models.ChoiceRefine:
		s.Decision = models.ChoiceRefine
		return SignalRefine, nil, nil
	case models.ChoiceBook:
		if len(s.Shortlist) == 0 {
			s.Decision = models.ChoiceRefine
			return SignalRefine, nil, nil
		}
		if d.Index < 0 || d.Index >= len(s.Shortlist) {
			return "", nil, fmt.Errorf("%w: no flight #%d in a shortlist of %d", ErrInvalidChoice, d.Index+1, len(s.Shortlist))
		}
		s.Decision = models.ChoiceBook
		flight := s.Shortlist[d.Index]
		return SignalBook, &flight, nil
	}
	return "", nil, fmt.Errorf("%w: %q", ErrInvalidChoice, d.Choice)
}

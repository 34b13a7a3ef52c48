package workflows

import (
	"go.temporal.io/sdk/workflow"

	"github.com/cx-tal-miterani/flight-assistant/internal/pipeline"
	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// SearchWorkflowID returns the workflow id used for a one-shot search
func SearchWorkflowID(searchID string) string {
	return "search-" + searchID
}

// SearchWorkflow runs fetch, filter, calendar and rank once and reports
// what came out
func SearchWorkflow(ctx workflow.Context, input models.SearchWorkflowInput) (*models.SearchResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Search workflow started", "searchId", input.SearchID)

	state := models.NewPipelineState(input.SearchID, input.UserEmail)
	if err := pipeline.Advance(state, pipeline.SignalOK); err != nil {
		return nil, err
	}
	state.ResetRound()
	if err := runRound(withSingleShotActivities(ctx), state, input.Input, input.Text, input.ShortlistSize); err != nil {
		return nil, err
	}

	result := &models.SearchResult{
		SearchID:        input.SearchID,
		Status:          searchStatus(state),
		Preferences:     *state.Preferences,
		Degradations:    state.Degradations,
		Flights:         state.Filtered,
		Shortlist:       state.Shortlist,
		ShortlistSource: state.ShortlistSource,
		CalendarStatus:  state.CalendarStatus,
		Reasoning:       state.Reasoning,
	}
	if result.Flights == nil {
		result.Flights = []models.FlightCandidate{}
	}
	if result.ShortlistSource == "" {
		result.ShortlistSource = models.SourceEmpty
	}
	logger.Info("Search workflow finished", "searchId", input.SearchID, "status", result.Status, "flights", len(result.Flights))
	return result, nil
}

func searchStatus(state *models.PipelineState) string {
	switch {
	case state.SearchStatus == models.SearchStatusFailed:
		return models.SearchFailed
	case len(state.Filtered) == 0:
		return models.SearchEmpty
	}
	return models.SearchCompleted
}

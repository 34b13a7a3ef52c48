package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/cx-tal-miterani/flight-assistant/internal/activities"
	"github.com/cx-tal-miterani/flight-assistant/internal/pipeline"
	"github.com/cx-tal-miterani/flight-assistant/internal/ranking"
	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

const (
	// ActivityTimeout bounds a single provider, calendar or oracle call
	ActivityTimeout = 2 * time.Minute
	// DefaultIdleTimeout ends a session nobody talks to
	DefaultIdleTimeout = 30 * time.Minute
)

// withSingleShotActivities applies the activity options every stage uses:
// external calls are attempted once and failures degrade the stage
func withSingleShotActivities(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: ActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
}

// runRound drives the state from COLLECT_PREFERENCES to PRESENT
func runRound(ctx workflow.Context, state *models.PipelineState, input models.PreferenceInput, text string, size int) error {
	var a *activities.Activities
	logger := workflow.GetLogger(ctx)

	for state.Stage != models.StagePresent {
		stage := state.Stage
		seen := len(state.Degradations)

		var signal pipeline.Signal
		switch stage {
		case models.StageCollectPreferences:
			signal = pipeline.ApplyPreferences(state, input, text)
			err := workflow.ExecuteActivity(ctx, a.SaveSession, models.SaveSessionInput{
				SessionID:   state.SessionID,
				UserEmail:   state.UserEmail,
				Preferences: *state.Preferences,
			}).Get(ctx, nil)
			if err != nil {
				logger.Warn("Failed to persist preferences", "error", err)
			}

		case models.StageFetchCandidates:
			var res models.FetchResult
			if err := workflow.ExecuteActivity(ctx, a.SearchCandidates, *state.Preferences).Get(ctx, &res); err != nil {
				res = models.FetchResult{
					Status:     models.SearchStatusFailed,
					Candidates: []models.FlightCandidate{},
					Error:      err.Error(),
				}
			}
			signal = pipeline.ApplyFetch(state, res)

		case models.StageFilter:
			signal = pipeline.ApplyFilter(state)

		case models.StageCalendarFilter:
			from, to := pipeline.CalendarWindow(*state.Preferences)
			var events []models.CalendarEvent
			err := workflow.ExecuteActivity(ctx, a.LoadBusyIntervals, models.BusyIntervalsInput{
				UserEmail: state.UserEmail,
				From:      from,
				To:        to,
			}).Get(ctx, &events)
			signal = pipeline.ApplyCalendar(state, events, err)

		case models.StageRank:
			var out models.RankOutput
			err := workflow.ExecuteActivity(ctx, a.RankCandidates, models.RankInput{
				Candidates:     state.Filtered,
				PreferenceText: state.PreferenceText,
				Preferences:    *state.Preferences,
				ShortlistSize:  size,
			}).Get(ctx, &out)
			if err != nil {
				out = models.RankOutput{
					Shortlist: ranking.Fallback(state.Filtered, shortlistSize(size)),
					Source:    models.SourceFallback,
					Reasoning: []string{ranking.ReasoningUnavailable},
					Error:     err.Error(),
				}
			}
			signal = pipeline.ApplyRank(state, out)

		default:
			return fmt.Errorf("%w: no stage runs at %s", pipeline.ErrInvalidTransition, stage)
		}

		for _, d := range state.Degradations[seen:] {
			logger.Warn("Stage degraded", "stage", stage, "detail", d)
		}
		if err := pipeline.Advance(state, signal); err != nil {
			return err
		}
		state.UpdatedAt = workflow.Now(ctx)
		logger.Info("Stage finished", "stage", stage, "signal", signal, "next", state.Stage)
	}
	return nil
}

func shortlistSize(size int) int {
	if size <= 0 {
		return ranking.DefaultShortlistSize
	}
	return size
}

package workflows

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/cx-tal-miterani/flight-assistant/internal/activities"
	"github.com/cx-tal-miterani/flight-assistant/internal/pipeline"
	"github.com/cx-tal-miterani/flight-assistant/internal/preferences"
	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// WorkflowID returns the workflow id used for a session
func WorkflowID(sessionID string) string {
	return "assistant-" + sessionID
}

// AssistantWorkflow hosts one interactive session. Preferences and
// decisions arrive as signals, the state is served by a query, and the
// session ends when the user books or stays silent for the idle timeout.
func AssistantWorkflow(ctx workflow.Context, input models.AssistantWorkflowInput) (*models.AssistantWorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Assistant workflow started", "sessionId", input.SessionID)

	idle := input.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}

	state := models.NewPipelineState(input.SessionID, input.UserEmail)
	state.UpdatedAt = workflow.Now(ctx)
	if err := workflow.SetQueryHandler(ctx, models.QueryGetState, func() (*models.PipelineState, error) {
		return state, nil
	}); err != nil {
		return nil, err
	}

	actx := withSingleShotActivities(ctx)
	prefsCh := workflow.GetSignalChannel(ctx, models.SignalSubmitPreferences)
	decideCh := workflow.GetSignalChannel(ctx, models.SignalDecide)

	if input.UserEmail != "" {
		var a *activities.Activities
		var invs []models.Invitation
		err := workflow.ExecuteActivity(actx, a.ScanInvitations, models.ScanInvitationsInput{
			SessionID: input.SessionID,
			UserEmail: input.UserEmail,
		}).Get(ctx, &invs)
		if err != nil {
			logger.Warn("Invitation scan failed", "error", err)
		} else {
			state.Invitations = invs
		}
	}
	if err := pipeline.Advance(state, pipeline.SignalOK); err != nil {
		return nil, err
	}

	var merged models.PreferenceInput
	var pending *models.PreferencesSignal
	for {
		sig := pending
		pending = nil
		if sig == nil {
			sig = waitForPreferences(ctx, prefsCh, idle)
			if sig == nil {
				return finish(ctx, state, models.OutcomeIncomplete), nil
			}
		}

		merged = preferences.Merge(merged, sig.Input)
		state.ResetRound()
		if err := runRound(actx, state, merged, sig.Text, input.ShortlistSize); err != nil {
			return nil, err
		}
		if err := pipeline.Advance(state, pipeline.SignalOK); err != nil {
			return nil, err
		}

		for state.Stage == models.StageDecision {
			d, refine, ok := waitForDecision(ctx, decideCh, prefsCh, idle)
			if !ok {
				return finish(ctx, state, models.OutcomeIncomplete), nil
			}
			if refine != nil {
				d = models.DecisionSignal{Choice: models.ChoiceRefine}
				pending = refine
			}

			signal, flight, err := pipeline.ApplyDecision(state, d)
			if errors.Is(err, pipeline.ErrInvalidChoice) {
				logger.Warn("Ignoring decision", "error", err)
				continue
			}
			if err != nil {
				return nil, err
			}
			if err := pipeline.Advance(state, signal); err != nil {
				return nil, err
			}

			if signal == pipeline.SignalBook {
				state.Booking = recordBooking(actx, state, *flight)
				return finish(ctx, state, models.OutcomeBookingConfirmed), nil
			}
			state.Outcome = models.OutcomeLoopBack
			state.UpdatedAt = workflow.Now(ctx)
			logger.Info("Refining search", "round", state.Round)
		}
	}
}

func waitForPreferences(ctx workflow.Context, ch workflow.ReceiveChannel, idle time.Duration) *models.PreferencesSignal {
	timerCtx, cancel := workflow.WithCancel(ctx)
	defer cancel()

	var sig *models.PreferencesSignal
	sel := workflow.NewSelector(ctx)
	sel.AddReceive(ch, func(c workflow.ReceiveChannel, _ bool) {
		var p models.PreferencesSignal
		c.Receive(ctx, &p)
		sig = &p
	})
	sel.AddFuture(workflow.NewTimer(timerCtx, idle), func(workflow.Future) {})
	sel.Select(ctx)
	return sig
}

func waitForDecision(ctx workflow.Context, decideCh, prefsCh workflow.ReceiveChannel, idle time.Duration) (models.DecisionSignal, *models.PreferencesSignal, bool) {
	timerCtx, cancel := workflow.WithCancel(ctx)
	defer cancel()

	var (
		decision models.DecisionSignal
		refine   *models.PreferencesSignal
		received bool
	)
	sel := workflow.NewSelector(ctx)
	sel.AddReceive(decideCh, func(c workflow.ReceiveChannel, _ bool) {
		c.Receive(ctx, &decision)
		received = true
	})
	sel.AddReceive(prefsCh, func(c workflow.ReceiveChannel, _ bool) {
		var p models.PreferencesSignal
		c.Receive(ctx, &p)
		refine = &p
		received = true
	})
	sel.AddFuture(workflow.NewTimer(timerCtx, idle), func(workflow.Future) {})
	sel.Select(ctx)
	return decision, refine, received
}

func recordBooking(ctx workflow.Context, state *models.PipelineState, flight models.RankedFlight) *models.Booking {
	var a *activities.Activities
	var booking models.Booking
	err := workflow.ExecuteActivity(ctx, a.RecordBooking, models.RecordBookingInput{
		SessionID: state.SessionID,
		UserEmail: state.UserEmail,
		Flight:    flight,
	}).Get(ctx, &booking)
	if err == nil {
		return &booking
	}

	workflow.GetLogger(ctx).Warn("Booking store unavailable, keeping local record", "error", err)
	encoded := workflow.SideEffect(ctx, func(workflow.Context) interface{} {
		b, _ := pipeline.LocalBooker{}.Book(context.Background(), state.SessionID, state.UserEmail, flight)
		return b
	})
	var local models.Booking
	if err := encoded.Get(&local); err != nil {
		return nil
	}
	return &local
}

func finish(ctx workflow.Context, state *models.PipelineState, outcome models.Outcome) *models.AssistantWorkflowResult {
	state.Outcome = outcome
	state.UpdatedAt = workflow.Now(ctx)
	workflow.GetLogger(ctx).Info("Assistant workflow finished", "sessionId", state.SessionID, "outcome", outcome, "rounds", state.Round)
	return &models.AssistantWorkflowResult{
		SessionID: state.SessionID,
		Outcome:   outcome,
		Rounds:    state.Round,
		Booking:   state.Booking,
	}
}

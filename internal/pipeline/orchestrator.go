package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cx-tal-miterani/flight-assistant/internal/calendar"
	"github.com/cx-tal-miterani/flight-assistant/internal/logging"
	"github.com/cx-tal-miterani/flight-assistant/internal/observability"
	"github.com/cx-tal-miterani/flight-assistant/internal/preferences"
	"github.com/cx-tal-miterani/flight-assistant/internal/provider"
	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// Interactor is the user side of a session
type Interactor interface {
	// Preferences asks for a new or refined set of preferences.
	Preferences(ctx context.Context, state *models.PipelineState) (models.PreferencesSignal, error)
	// Present shows the round's results.
	Present(ctx context.Context, state *models.PipelineState) error
	// Decide asks whether to book or refine.
	Decide(ctx context.Context, state *models.PipelineState) (models.DecisionSignal, error)
}

// InvitationScanner looks for event invitations in the user's mailbox
type InvitationScanner interface {
	Scan(ctx context.Context, sessionID, userEmail string) ([]models.Invitation, error)
}

// Orchestrator runs whole sessions in-process
type Orchestrator struct {
	searcher    provider.Searcher
	calendar    calendar.Source
	ranker      Ranker
	booker      Booker
	invitations InvitationScanner
	metrics     observability.MetricsRecorder
	spans       observability.SpanManager
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

func WithBooker(b Booker) Option { return func(o *Orchestrator) { o.booker = b } }

func WithInvitations(s InvitationScanner) Option { return func(o *Orchestrator) { o.invitations = s } }

func WithMetrics(m observability.MetricsRecorder) Option { return func(o *Orchestrator) { o.metrics = m } }

func WithSpans(s observability.SpanManager) Option { return func(o *Orchestrator) { o.spans = s } }

func WithLogger(l *slog.Logger) Option { return func(o *Orchestrator) { o.logger = l } }

func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// NewOrchestrator creates an Orchestrator. A nil calendar source skips
// the calendar stage.
func NewOrchestrator(searcher provider.Searcher, source calendar.Source, ranker Ranker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		searcher: searcher,
		calendar: source,
		ranker:   ranker,
		booker:   LocalBooker{},
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.calendar == nil {
		o.calendar = calendar.NopSource{}
	}
	return o
}

// Run drives one session until the user books or stops answering. The
// session's own failures never surface as errors: end of input and
// cancellation end the session as incomplete. Only a broken state
// machine is returned as an error.
func (o *Orchestrator) Run(ctx context.Context, sessionID, userEmail string, ui Interactor) (*models.PipelineState, error) {
	state := models.NewPipelineState(sessionID, userEmail)
	logger := logging.ForSession(o.logger, sessionID)

	o.scanInvitations(ctx, state, logger)
	if err := Advance(state, SignalOK); err != nil {
		return state, err
	}

	var input models.PreferenceInput
	for {
		if ctx.Err() != nil {
			return o.finish(ctx, state, models.OutcomeIncomplete, ctx.Err(), logger), nil
		}
		sig, err := ui.Preferences(ctx, state)
		if err != nil {
			return o.finish(ctx, state, models.OutcomeIncomplete, err, logger), nil
		}
		input = preferences.Merge(input, sig.Input)
		state.ResetRound()

		roundCtx, span := o.spans.StartRoundSpan(ctx, sessionID, state.Round)
		err = o.runRound(roundCtx, state, input, sig.Text, logger)
		o.spans.EndSpanWithError(span, err)
		if err != nil {
			return state, err
		}

		if err := ui.Present(ctx, state); err != nil {
			return o.finish(ctx, state, models.OutcomeIncomplete, err, logger), nil
		}
		if err := Advance(state, SignalOK); err != nil {
			return state, err
		}

		signal, flight, err := o.decide(ctx, state, ui, logger)
		if err != nil {
			return o.finish(ctx, state, models.OutcomeIncomplete, err, logger), nil
		}
		if err := Advance(state, signal); err != nil {
			return state, err
		}

		if signal == SignalBook {
			state.Booking = o.book(ctx, state, *flight, logger)
			return o.finish(ctx, state, models.OutcomeBookingConfirmed, nil, logger), nil
		}
		state.Outcome = models.OutcomeLoopBack
		logger.Info("refining search", slog.Int("round", state.Round))
	}
}

func (o *Orchestrator) runRound(ctx context.Context, state *models.PipelineState, input models.PreferenceInput, text string, logger *slog.Logger) error {
	for state.Stage != models.StagePresent {
		var run func(context.Context) Signal
		switch state.Stage {
		case models.StageCollectPreferences:
			run = func(context.Context) Signal { return ApplyPreferences(state, input, text) }
		case models.StageFetchCandidates:
			run = func(ctx context.Context) Signal {
				return ApplyFetch(state, Fetch(ctx, o.searcher, *state.Preferences))
			}
		case models.StageFilter:
			run = func(context.Context) Signal { return ApplyFilter(state) }
		case models.StageCalendarFilter:
			run = func(ctx context.Context) Signal {
				from, to := CalendarWindow(*state.Preferences)
				events, err := o.calendar.Events(ctx, from, to)
				return ApplyCalendar(state, events, err)
			}
		case models.StageRank:
			run = func(ctx context.Context) Signal {
				out := RankShortlist(ctx, o.ranker, state.Filtered, state.PreferenceText, *state.Preferences)
				if out.Source == models.SourceFallback {
					o.metrics.RecordFallback(ctx, models.StageRank, "oracle_unusable")
				}
				return ApplyRank(state, out)
			}
		default:
			return fmt.Errorf("%w: no stage runs at %s", ErrInvalidTransition, state.Stage)
		}
		if err := o.step(ctx, state, run, logger); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) step(ctx context.Context, state *models.PipelineState, run func(context.Context) Signal, logger *slog.Logger) error {
	stage := state.Stage
	seen := len(state.Degradations)

	ctx, span := o.spans.StartStageSpan(ctx, stage)
	start := o.now()
	signal := run(ctx)
	o.metrics.RecordStage(ctx, stage, string(signal), o.now().Sub(start))
	err := Advance(state, signal)
	o.spans.EndSpanWithError(span, err)

	for _, d := range state.Degradations[seen:] {
		logger.Warn("degraded", slog.String("stage", string(stage)), slog.String("detail", d))
	}
	logger.Debug("stage finished", slog.String("stage", string(stage)), slog.String("signal", string(signal)))
	state.UpdatedAt = o.now().UTC()
	return err
}

func (o *Orchestrator) decide(ctx context.Context, state *models.PipelineState, ui Interactor, logger *slog.Logger) (Signal, *models.RankedFlight, error) {
	for {
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		d, err := ui.Decide(ctx, state)
		if err != nil {
			return "", nil, err
		}
		signal, flight, err := ApplyDecision(state, d)
		if errors.Is(err, ErrInvalidChoice) {
			logger.Warn("asking again", slog.String("error", err.Error()))
			continue
		}
		return signal, flight, err
	}
}

func (o *Orchestrator) book(ctx context.Context, state *models.PipelineState, flight models.RankedFlight, logger *slog.Logger) *models.Booking {
	booking, err := o.booker.Book(ctx, state.SessionID, state.UserEmail, flight)
	if err != nil {
		logger.Warn("booking store unavailable, keeping local record", slog.String("error", err.Error()))
		booking, _ = LocalBooker{}.Book(ctx, state.SessionID, state.UserEmail, flight)
	}
	return booking
}

func (o *Orchestrator) scanInvitations(ctx context.Context, state *models.PipelineState, logger *slog.Logger) {
	if o.invitations == nil || state.UserEmail == "" {
		return
	}
	invs, err := o.invitations.Scan(ctx, state.SessionID, state.UserEmail)
	if err != nil {
		logger.Warn("invitation scan failed", slog.String("error", err.Error()))
		return
	}
	state.Invitations = invs
}

func (o *Orchestrator) finish(ctx context.Context, state *models.PipelineState, outcome models.Outcome, cause error, logger *slog.Logger) *models.PipelineState {
	state.Outcome = outcome
	state.UpdatedAt = o.now().UTC()
	o.metrics.RecordOutcome(context.WithoutCancel(ctx), outcome, state.Round)

	attrs := []any{slog.String("outcome", string(outcome)), slog.Int("rounds", state.Round)}
	if cause != nil && !errors.Is(cause, io.EOF) {
		attrs = append(attrs, slog.String("cause", cause.Error()))
	}
	logger.Info("session finished", attrs...)
	return state
}

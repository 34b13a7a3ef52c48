package activities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/cx-tal-miterani/flight-assistant/internal/calendar"
	"github.com/cx-tal-miterani/flight-assistant/internal/observability"
	"github.com/cx-tal-miterani/flight-assistant/internal/pipeline"
	"github.com/cx-tal-miterani/flight-assistant/internal/provider"
	"github.com/cx-tal-miterani/flight-assistant/internal/ranking"
	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// ErrNoCalendar is returned when no calendar source is configured
var ErrNoCalendar = errors.New("no calendar configured")

// Store persists sessions and bookings
type Store interface {
	SaveSessionPreferences(ctx context.Context, sessionID, userEmail string, prefs models.TravelPreferences) error
	CreateBooking(ctx context.Context, sessionID, userEmail string, flight models.RankedFlight) (*models.Booking, error)
}

// Activities holds the collaborators the workflows reach through
// activities. Nil collaborators degrade: no store means nothing is
// persisted, no calendar means the calendar stage is skipped.
type Activities struct {
	Searcher    provider.Searcher
	Calendar    calendar.Source
	Ranker      pipeline.Ranker
	Store       Store
	Invitations pipeline.InvitationScanner
	Metrics     observability.MetricsRecorder
}

// resizable is implemented by rankers whose shortlist cap can be set per call
type resizable interface {
	WithSize(size int) *ranking.Ranker
}

func (a *Activities) ranker(size int) pipeline.Ranker {
	if r, ok := a.Ranker.(resizable); ok && size > 0 {
		return r.WithSize(size)
	}
	return a.Ranker
}

func (a *Activities) metrics() observability.MetricsRecorder {
	if a.Metrics == nil {
		return observability.NoopMetrics{}
	}
	return a.Metrics
}

// SearchCandidates fetches and normalizes offers. Provider failures are
// part of the result, not an activity error.
func (a *Activities) SearchCandidates(ctx context.Context, prefs models.TravelPreferences) (models.FetchResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Searching flights", "from", prefs.DepartureCode, "to", prefs.ArrivalCode, "date", prefs.OutboundDate)

	start := time.Now()
	res := pipeline.Fetch(ctx, a.Searcher, prefs)
	a.metrics().RecordStage(ctx, models.StageFetchCandidates, string(res.Status), time.Since(start))

	if res.Status == models.SearchStatusFailed {
		logger.Warn("Flight search failed", "error", res.Error)
	} else {
		logger.Info("Flight search finished", "candidates", len(res.Candidates), "dropped", res.Dropped)
	}
	return res, nil
}

// LoadBusyIntervals reads the user's calendar events in a date range
func (a *Activities) LoadBusyIntervals(ctx context.Context, input models.BusyIntervalsInput) ([]models.CalendarEvent, error) {
	if a.Calendar == nil {
		return nil, ErrNoCalendar
	}
	events, err := a.Calendar.Events(ctx, input.From, input.To)
	if err != nil {
		activity.GetLogger(ctx).Warn("Calendar unavailable", "error", err)
		return nil, fmt.Errorf("failed to load calendar events: %w", err)
	}
	return events, nil
}

// RankCandidates asks the oracle for a shortlist and its reasoning
func (a *Activities) RankCandidates(ctx context.Context, input models.RankInput) (models.RankOutput, error) {
	logger := activity.GetLogger(ctx)

	start := time.Now()
	out := pipeline.RankShortlist(ctx, a.ranker(input.ShortlistSize), input.Candidates, input.PreferenceText, input.Preferences)
	a.metrics().RecordStage(ctx, models.StageRank, string(out.Source), time.Since(start))

	if out.Source == models.SourceFallback {
		a.metrics().RecordFallback(ctx, models.StageRank, "oracle_unusable")
		logger.Warn("Using fallback ranking", "error", out.Error)
	}
	logger.Info("Ranking finished", "source", out.Source, "shortlist", len(out.Shortlist))
	return out, nil
}

// SaveSession stores the resolved preferences of a session
func (a *Activities) SaveSession(ctx context.Context, input models.SaveSessionInput) error {
	if a.Store == nil {
		return nil
	}
	if err := a.Store.SaveSessionPreferences(ctx, input.SessionID, input.UserEmail, input.Preferences); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ScanInvitations looks for event invitations in the user's mailbox
func (a *Activities) ScanInvitations(ctx context.Context, input models.ScanInvitationsInput) ([]models.Invitation, error) {
	if a.Invitations == nil || input.UserEmail == "" {
		return []models.Invitation{}, nil
	}
	invs, err := a.Invitations.Scan(ctx, input.SessionID, input.UserEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to scan invitations: %w", err)
	}
	activity.GetLogger(ctx).Info("Invitations found", "sessionId", input.SessionID, "count", len(invs))
	return invs, nil
}

// RecordBooking persists the chosen flight
func (a *Activities) RecordBooking(ctx context.Context, input models.RecordBookingInput) (*models.Booking, error) {
	logger := activity.GetLogger(ctx)
	if a.Store == nil {
		return pipeline.LocalBooker{}.Book(ctx, input.SessionID, input.UserEmail, input.Flight)
	}

	booking, err := a.Store.CreateBooking(ctx, input.SessionID, input.UserEmail, input.Flight)
	if err != nil {
		return nil, fmt.Errorf("failed to record booking: %w", err)
	}
	logger.Info("Booking recorded", "bookingId", booking.ID, "confirmation", booking.ConfirmationNumber)
	return booking, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/cx-tal-miterani/flight-assistant/internal/database"
	"github.com/cx-tal-miterani/flight-assistant/internal/workflows"
	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

var (
	// ErrSessionNotFound is returned when no workflow runs for a session id
	ErrSessionNotFound = errors.New("session not found")
	// ErrBookingNotFound is returned for unknown booking ids
	ErrBookingNotFound = errors.New("booking not found")
	// ErrInvalidDecision is returned for choices other than book or refine
	ErrInvalidDecision = errors.New("choice must be book or refine")
	// ErrNotAwaitingDecision is returned when a decision arrives before
	// the shortlist was presented
	ErrNotAwaitingDecision = errors.New("session is not awaiting a decision")
)

// AssistantService defines the assistant service interface
type AssistantService interface {
	StartSession(ctx context.Context, req *models.StartSessionRequest) (*models.PipelineState, error)
	GetSession(ctx context.Context, sessionID string) (*models.PipelineState, error)
	SubmitPreferences(ctx context.Context, sessionID string, req *models.PreferencesRequest) (*models.PipelineState, error)
	Decide(ctx context.Context, sessionID string, req *models.DecisionRequest) (*models.PipelineState, error)
	SearchFlights(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error)
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
}

// BookingReader loads stored bookings
type BookingReader interface {
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
}

// assistantServiceImpl implements AssistantService
type assistantServiceImpl struct {
	temporalClient client.Client
	bookings       BookingReader
	taskQueue      string
	shortlistSize  int
	idleTimeout    time.Duration
	now            func() time.Time
}

// Option configures the service
type Option func(*assistantServiceImpl)

// WithIdleTimeout sets how long a session waits for the user
func WithIdleTimeout(d time.Duration) Option {
	return func(s *assistantServiceImpl) { s.idleTimeout = d }
}

// WithTaskQueue sets the Temporal task queue the workflows are started on.
// It must match the queue the worker polls.
func WithTaskQueue(queue string) Option {
	return func(s *assistantServiceImpl) {
		if queue != "" {
			s.taskQueue = queue
		}
	}
}

// WithShortlistSize sets how many flights a session shortlists
func WithShortlistSize(n int) Option {
	return func(s *assistantServiceImpl) { s.shortlistSize = n }
}

// NewAssistantService creates a new AssistantService. bookings may be nil
// when no database is configured.
func NewAssistantService(temporalClient client.Client, bookings BookingReader, opts ...Option) AssistantService {
	svc := &assistantServiceImpl{
		temporalClient: temporalClient,
		bookings:       bookings,
		taskQueue:      models.TaskQueue,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func newID() string {
	return uuid.New().String()[:8]
}

func (s *assistantServiceImpl) StartSession(ctx context.Context, req *models.StartSessionRequest) (*models.PipelineState, error) {
	sessionID := newID()
	email := strings.TrimSpace(req.UserEmail)

	input := models.AssistantWorkflowInput{
		SessionID:     sessionID,
		UserEmail:     email,
		IdleTimeout:   s.idleTimeout,
		ShortlistSize: s.shortlistSize,
	}
	workflowOptions := client.StartWorkflowOptions{
		ID:        workflows.WorkflowID(sessionID),
		TaskQueue: s.taskQueue,
	}
	if _, err := s.temporalClient.ExecuteWorkflow(ctx, workflowOptions, workflows.AssistantWorkflow, input); err != nil {
		return nil, fmt.Errorf("failed to start workflow: %w", err)
	}

	state := models.NewPipelineState(sessionID, email)
	state.UpdatedAt = s.now().UTC()
	return state, nil
}

func (s *assistantServiceImpl) GetSession(ctx context.Context, sessionID string) (*models.PipelineState, error) {
	response, err := s.temporalClient.QueryWorkflow(ctx, workflows.WorkflowID(sessionID), "", models.QueryGetState)
	if err != nil {
		return nil, translate(err, "failed to query workflow")
	}

	var state models.PipelineState
	if err := response.Get(&state); err != nil {
		return nil, fmt.Errorf("failed to decode workflow state: %w", err)
	}
	return &state, nil
}

func (s *assistantServiceImpl) SubmitPreferences(ctx context.Context, sessionID string, req *models.PreferencesRequest) (*models.PipelineState, error) {
	signal := models.PreferencesSignal{
		Input: req.PreferenceInput,
		Text:  strings.TrimSpace(req.Text),
	}
	if err := s.temporalClient.SignalWorkflow(ctx, workflows.WorkflowID(sessionID), "", models.SignalSubmitPreferences, signal); err != nil {
		return nil, translate(err, "failed to signal preferences")
	}
	return s.GetSession(ctx, sessionID)
}

func (s *assistantServiceImpl) Decide(ctx context.Context, sessionID string, req *models.DecisionRequest) (*models.PipelineState, error) {
	if req.Choice != models.ChoiceBook && req.Choice != models.ChoiceRefine {
		return nil, ErrInvalidDecision
	}

	state, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Stage != models.StageDecision {
		return nil, fmt.Errorf("%w: stage is %s", ErrNotAwaitingDecision, state.Stage)
	}

	signal := models.DecisionSignal{Choice: req.Choice, Index: req.Index}
	if err := s.temporalClient.SignalWorkflow(ctx, workflows.WorkflowID(sessionID), "", models.SignalDecide, signal); err != nil {
		return nil, translate(err, "failed to signal decision")
	}
	return s.GetSession(ctx, sessionID)
}

func (s *assistantServiceImpl) SearchFlights(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error) {
	searchID := newID()
	input := models.SearchWorkflowInput{
		SearchID:      searchID,
		Input:         req.PreferenceInput,
		Text:          strings.TrimSpace(req.Text),
		UserEmail:     strings.TrimSpace(req.UserEmail),
		ShortlistSize: s.shortlistSize,
	}
	workflowOptions := client.StartWorkflowOptions{
		ID:        workflows.SearchWorkflowID(searchID),
		TaskQueue: s.taskQueue,
	}

	run, err := s.temporalClient.ExecuteWorkflow(ctx, workflowOptions, workflows.SearchWorkflow, input)
	if err != nil {
		return nil, fmt.Errorf("failed to start workflow: %w", err)
	}

	var result models.SearchResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, fmt.Errorf("search workflow failed: %w", err)
	}
	return &result, nil
}

func (s *assistantServiceImpl) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	if s.bookings == nil {
		return nil, ErrBookingNotFound
	}
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// translate maps Temporal's not-found errors onto ErrSessionNotFound
func translate(err error, msg string) error {
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		return ErrSessionNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

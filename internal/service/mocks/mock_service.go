package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// MockAssistantService is a mock implementation of AssistantService
type MockAssistantService struct {
	mock.Mock
}

func (m *MockAssistantService) StartSession(ctx context.Context, req *models.StartSessionRequest) (*models.PipelineState, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PipelineState), args.Error(1)
}

func (m *MockAssistantService) GetSession(ctx context.Context, sessionID string) (*models.PipelineState, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PipelineState), args.Error(1)
}

func (m *MockAssistantService) SubmitPreferences(ctx context.Context, sessionID string, req *models.PreferencesRequest) (*models.PipelineState, error) {
	args := m.Called(ctx, sessionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PipelineState), args.Error(1)
}

func (m *MockAssistantService) Decide(ctx context.Context, sessionID string, req *models.DecisionRequest) (*models.PipelineState, error) {
	args := m.Called(ctx, sessionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PipelineState), args.Error(1)
}

func (m *MockAssistantService) SearchFlights(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SearchResult), args.Error(1)
}

func (m *MockAssistantService) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

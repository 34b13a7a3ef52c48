package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// Booker records a confirmed booking
type Booker interface {
	Book(ctx context.Context, sessionID, userEmail string, flight models.RankedFlight) (*models.Booking, error)
}

// LocalBooker issues bookings without persisting them
type LocalBooker struct{}

// Book always succeeds
func (LocalBooker) Book(_ context.Context, sessionID, userEmail string, flight models.RankedFlight) (*models.Booking, error) {
	id := uuid.New()
	return &models.Booking{
		ID:                 "b_" + id.String()[:8],
		ConfirmationNumber: fmt.Sprintf("CONF%06d", id.ID()%1000000),
		SessionID:          sessionID,
		UserEmail:          userEmail,
		Flight:             flight,
		Status:             models.BookingStatusConfirmed,
		CreatedAt:          time.Now().UTC(),
	}, nil
}

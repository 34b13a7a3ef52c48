package history

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

func finished(id string, outcome models.Outcome, at time.Time) *models.PipelineState {
	s := models.NewPipelineState(id, "")
	s.Stage = models.StageDecision
	s.Round = 2
	s.Outcome = outcome
	s.UpdatedAt = at
	return s
}

func TestStore_SaveListGet(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, finished("older", models.OutcomeIncomplete, base)))
	require.NoError(t, store.Save(ctx, finished("newer", models.OutcomeIncomplete, base.Add(time.Hour))))

	booked := finished("older", models.OutcomeBookingConfirmed, base.Add(2*time.Hour))
	booked.Booking = &models.Booking{ID: "b_1", ConfirmationNumber: "CONF000001"}
	require.NoError(t, store.Save(ctx, booked))

	entries, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "older", entries[0].SessionID)
	assert.Equal(t, models.OutcomeBookingConfirmed, entries[0].Outcome)
	assert.Equal(t, "newer", entries[1].SessionID)

	got, err := store.Get(ctx, "older")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Rounds)
	require.NotNil(t, got.State.Booking)
	assert.Equal(t, "CONF000001", got.State.Booking.ConfirmationNumber)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Closed(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Save(context.Background(), finished("x", models.OutcomeIncomplete, time.Now())), ErrStoreClosed)
	_, err = store.List(context.Background(), 5)
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestStore_SaveError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS sessions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WithArgs("s-1", "incomplete", 2, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("disk I/O error"))

	store, err := NewStore(db)
	require.NoError(t, err)

	err = store.Save(context.Background(), finished("s-1", models.OutcomeIncomplete, time.Now()))
	assert.ErrorContains(t, err, "save session")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CorruptRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS sessions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	rows := sqlmock.NewRows([]string{"session_id", "outcome", "rounds", "finished_at", "data"}).
		AddRow("s-1", "incomplete", 1, "2025-12-01T10:00:00Z", []byte("{not json"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT session_id, outcome, rounds, finished_at, data")).
		WithArgs(20).
		WillReturnRows(rows)

	store, err := NewStore(db)
	require.NoError(t, err)

	_, err = store.List(context.Background(), 0)
	assert.ErrorContains(t, err, "decode session s-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SchemaFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE")).WillReturnError(errors.New("read-only file system"))

	_, err = NewStore(db)
	assert.ErrorContains(t, err, "create table")
}

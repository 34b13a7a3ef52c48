package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from   models.Stage
		signal Signal
		want   models.Stage
	}{
		{models.StageStart, SignalOK, models.StageCollectPreferences},
		{models.StageCollectPreferences, SignalOK, models.StageFetchCandidates},
		{models.StageFetchCandidates, SignalOK, models.StageFilter},
		{models.StageFetchCandidates, SignalEmpty, models.StagePresent},
		{models.StageFetchCandidates, SignalFailed, models.StagePresent},
		{models.StageFilter, SignalOK, models.StageCalendarFilter},
		{models.StageFilter, SignalEmpty, models.StagePresent},
		{models.StageCalendarFilter, SignalOK, models.StageRank},
		{models.StageRank, SignalOK, models.StagePresent},
		{models.StageRank, SignalEmpty, models.StagePresent},
		{models.StagePresent, SignalOK, models.StageDecision},
		{models.StageDecision, SignalBook, models.StageBookingConfirmed},
		{models.StageDecision, SignalRefine, models.StageCollectPreferences},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.signal), func(t *testing.T) {
			got, err := Transition(tt.from, tt.signal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransition_Undefined(t *testing.T) {
	tests := []struct {
		from   models.Stage
		signal Signal
	}{
		{models.StageStart, SignalBook},
		{models.StageFilter, SignalFailed},
		{models.StageCalendarFilter, SignalEmpty},
		{models.StagePresent, SignalRefine},
		{models.StageDecision, SignalOK},
		{models.Stage("UNKNOWN"), SignalOK},
	}

	for _, tt := range tests {
		got, err := Transition(tt.from, tt.signal)
		assert.ErrorIs(t, err, ErrInvalidTransition, "%s on %s", tt.from, tt.signal)
		assert.Equal(t, tt.from, got)
	}
}

func TestTransition_Terminal(t *testing.T) {
	for _, sig := range []Signal{SignalOK, SignalBook, SignalRefine} {
		_, err := Transition(models.StageBookingConfirmed, sig)
		assert.ErrorIs(t, err, ErrTerminalState)
	}
	assert.True(t, IsTerminal(models.StageBookingConfirmed))
	assert.False(t, IsTerminal(models.StageDecision))
}

func TestAdvance_KeepsStageOnError(t *testing.T) {
	s := models.NewPipelineState("s-1", "")
	require.NoError(t, Advance(s, SignalOK))
	assert.Equal(t, models.StageCollectPreferences, s.Stage)

	err := Advance(s, SignalBook)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.StageCollectPreferences, s.Stage)
}

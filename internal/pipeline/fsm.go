// Package pipeline sequences the assistant stages as an explicit state
// machine. The stage helpers here are pure so both the in-process
// orchestrator and the Temporal workflow can drive them.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// Signal is what a stage reports when it finishes
type Signal string

const (
	SignalOK     Signal = "ok"
	SignalEmpty  Signal = "empty"
	SignalFailed Signal = "failed"
	SignalBook   Signal = "book"
	SignalRefine Signal = "refine"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrTerminalState     = errors.New("session already finished")
	ErrInvalidChoice     = errors.New("invalid decision")
)

var transitions = map[models.Stage]map[Signal]models.Stage{
	models.StageStart: {
		SignalOK: models.StageCollectPreferences,
	},
	models.StageCollectPreferences: {
		SignalOK: models.StageFetchCandidates,
	},
	models.StageFetchCandidates: {
		SignalOK:     models.StageFilter,
		SignalEmpty:  models.StagePresent,
		SignalFailed: models.StagePresent,
	},
	models.StageFilter: {
		SignalOK:    models.StageCalendarFilter,
		SignalEmpty: models.StagePresent,
	},
	models.StageCalendarFilter: {
		SignalOK: models.StageRank,
	},
	models.StageRank: {
		SignalOK:    models.StagePresent,
		SignalEmpty: models.StagePresent,
	},
	models.StagePresent: {
		SignalOK: models.StageDecision,
	},
	models.StageDecision: {
		SignalBook:   models.StageBookingConfirmed,
		SignalRefine: models.StageCollectPreferences,
	},
}

// Transition returns the stage that follows from after signal
func Transition(from models.Stage, signal Signal) (models.Stage, error) {
	if from == models.StageBookingConfirmed {
		return from, ErrTerminalState
	}
	next, ok := transitions[from][signal]
	if !ok {
		return from, fmt.Errorf("%w: %s on %q", ErrInvalidTransition, from, signal)
	}
	return next, nil
}

// Advance moves the session to the next stage. The state is untouched
// when the transition is rejected.
func Advance(s *models.PipelineState, signal Signal) error {
	next, err := Transition(s.Stage, signal)
	if err != nil {
		return err
	}
	s.Stage = next
	return nil
}

// IsTerminal reports whether nothing can follow stage
func IsTerminal(stage models.Stage) bool {
	return stage == models.StageBookingConfirmed
}

package models

import "time"

// Stage is a pipeline state
type Stage string

const (
	StageStart              Stage = "START"
	StageCollectPreferences Stage = "COLLECT_PREFERENCES"
	StageFetchCandidates    Stage = "FETCH_CANDIDATES"
	StageFilter             Stage = "FILTER"
	StageCalendarFilter     Stage = "CALENDAR_FILTER"
	StageRank               Stage = "RANK"
	StagePresent            Stage = "PRESENT"
	StageDecision           Stage = "DECISION"
	StageBookingConfirmed   Stage = "BOOKING_CONFIRMED"
)

// Choice is the user's answer at the decision point
type Choice string

const (
	ChoiceUndecided Choice = ""
	ChoiceBook      Choice = "book"
	ChoiceRefine    Choice = "refine"
)

// Outcome is how a session (or one round of it) ended
type Outcome string

const (
	OutcomeBookingConfirmed Outcome = "booking_confirmed"
	OutcomeIncomplete       Outcome = "incomplete"
	OutcomeLoopBack         Outcome = "loop_back"
)

// SearchStatus distinguishes "no matches" from "search errored"
type SearchStatus string

const (
	SearchStatusOK     SearchStatus = "ok"
	SearchStatusEmpty  SearchStatus = "empty"
	SearchStatusFailed SearchStatus = "failed"
)

// CalendarStatus reports what the calendar filter did
type CalendarStatus string

const (
	CalendarApplied  CalendarStatus = "applied"
	CalendarSkipped  CalendarStatus = "skipped"
	CalendarReverted CalendarStatus = "reverted"
)

// ShortlistSource tells where the ranked shortlist came from
type ShortlistSource string

const (
	SourceOracle   ShortlistSource = "oracle"
	SourceFallback ShortlistSource = "fallback"
	SourceEmpty    ShortlistSource = "empty"
)

// Invitation is an event invitation found in the user's mailbox
type Invitation struct {
	EmailID       int64  `json:"emailId"`
	Subject       string `json:"subject,omitempty"`
	EventTitle    string `json:"eventTitle"`
	EventLocation string `json:"eventLocation,omitempty"`
	EventTime     string `json:"eventTime,omitempty"`
}

// BookingStatusConfirmed is the only status a simulated booking reaches
const BookingStatusConfirmed = "confirmed"

// Booking is a simulated, confirmed reservation
type Booking struct {
	ID                 string       `json:"bookingId"`
	ConfirmationNumber string       `json:"confirmationNumber"`
	SessionID          string       `json:"sessionId,omitempty"`
	UserEmail          string       `json:"userEmail,omitempty"`
	Flight             RankedFlight `json:"flight"`
	Status             string       `json:"status"`
	CreatedAt          time.Time    `json:"createdAt"`
}

// PipelineState is the per-session state of one assistant conversation
type PipelineState struct {
	SessionID       string             `json:"sessionId"`
	Stage           Stage              `json:"stage"`
	Round           int                `json:"round"`
	UserEmail       string             `json:"userEmail,omitempty"`
	PreferenceText  string             `json:"preferenceText,omitempty"`
	Preferences     *TravelPreferences `json:"preferences,omitempty"`
	Degradations    []string           `json:"degradations,omitempty"`
	Candidates      []FlightCandidate  `json:"candidates,omitempty"`
	Filtered        []FlightCandidate  `json:"filtered,omitempty"`
	Shortlist       []RankedFlight     `json:"shortlist"`
	ShortlistSource ShortlistSource    `json:"shortlistSource,omitempty"`
	SearchStatus    SearchStatus       `json:"searchStatus,omitempty"`
	CalendarStatus  CalendarStatus     `json:"calendarStatus,omitempty"`
	Reasoning       []string           `json:"reasoning,omitempty"`
	Invitations     []Invitation       `json:"invitations,omitempty"`
	Decision        Choice             `json:"decision,omitempty"`
	Outcome         Outcome            `json:"outcome,omitempty"`
	Booking         *Booking           `json:"booking,omitempty"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// NewPipelineState returns a fresh state for a session
func NewPipelineState(sessionID, userEmail string) *PipelineState {
	return &PipelineState{
		SessionID: sessionID,
		Stage:     StageStart,
		UserEmail: userEmail,
		Shortlist: []RankedFlight{},
	}
}

// ResetRound clears the per-round results before a new search
func (s *PipelineState) ResetRound() {
	s.Round++
	s.Degradations = nil
	s.Candidates = nil
	s.Filtered = nil
	s.Shortlist = []RankedFlight{}
	s.ShortlistSource = ""
	s.SearchStatus = ""
	s.CalendarStatus = ""
	s.Reasoning = nil
	s.Decision = ChoiceUndecided
}

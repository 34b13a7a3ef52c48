package models

import "time"

// TaskQueue is the Temporal task queue shared by the API server and worker
const TaskQueue = "flight-assistant-queue"

// Signals for workflow communication
const (
	SignalSubmitPreferences = "submit_preferences"
	SignalDecide            = "decide"
)

// Queries for workflow state
const (
	QueryGetState = "get_state"
)

// AssistantWorkflowInput starts one interactive session. ShortlistSize caps
// every shortlist of the session, the fallback one included.
type AssistantWorkflowInput struct {
	SessionID     string        `json:"sessionId"`
	UserEmail     string        `json:"userEmail,omitempty"`
	IdleTimeout   time.Duration `json:"idleTimeout,omitempty"`
	ShortlistSize int           `json:"shortlistSize,omitempty"`
}

// AssistantWorkflowResult is returned when a session ends
type AssistantWorkflowResult struct {
	SessionID string   `json:"sessionId"`
	Outcome   Outcome  `json:"outcome"`
	Rounds    int      `json:"rounds"`
	Booking   *Booking `json:"booking,omitempty"`
}

// PreferencesSignal carries a new set of preferences into a session
type PreferencesSignal struct {
	Input PreferenceInput `json:"input"`
	Text  string          `json:"text,omitempty"`
}

// DecisionSignal carries the user's book/refine answer. Index selects
// the shortlist entry to book.
type DecisionSignal struct {
	Choice Choice `json:"choice"`
	Index  int    `json:"index"`
}

// SearchWorkflowInput runs a single fetch, filter and rank pass
type SearchWorkflowInput struct {
	SearchID      string          `json:"searchId"`
	Input         PreferenceInput `json:"input"`
	Text          string          `json:"text,omitempty"`
	UserEmail     string          `json:"userEmail,omitempty"`
	ShortlistSize int             `json:"shortlistSize,omitempty"`
}

// Search result statuses
const (
	SearchCompleted = "completed"
	SearchEmpty     = "empty"
	SearchFailed    = "failed"
)

// SearchResult is the outcome of a one-shot search
type SearchResult struct {
	SearchID        string            `json:"searchId"`
	Status          string            `json:"status"`
	Preferences     TravelPreferences `json:"preferences"`
	Degradations    []string          `json:"degradations,omitempty"`
	Flights         []FlightCandidate `json:"flights"`
	Shortlist       []RankedFlight    `json:"shortlist"`
	ShortlistSource ShortlistSource   `json:"shortlistSource"`
	CalendarStatus  CalendarStatus    `json:"calendarStatus,omitempty"`
	Reasoning       []string          `json:"reasoning,omitempty"`
}

// Activity inputs and outputs

// FetchResult is what the search activity hands back to a workflow
type FetchResult struct {
	Status     SearchStatus      `json:"status"`
	Candidates []FlightCandidate `json:"candidates"`
	Dropped    int               `json:"dropped"`
	Error      string            `json:"error,omitempty"`
}

// BusyIntervalsInput asks the calendar for events inside a date range
type BusyIntervalsInput struct {
	UserEmail string `json:"userEmail,omitempty"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// RankInput is the ranking activity payload
type RankInput struct {
	Candidates     []FlightCandidate `json:"candidates"`
	PreferenceText string            `json:"preferenceText"`
	Preferences    TravelPreferences `json:"preferences"`
	ShortlistSize  int               `json:"shortlistSize,omitempty"`
}

// RankOutput is the ranking activity result
type RankOutput struct {
	Shortlist []RankedFlight  `json:"shortlist"`
	Source    ShortlistSource `json:"source"`
	Reasoning []string        `json:"reasoning,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// RecordBookingInput persists a confirmed booking
type RecordBookingInput struct {
	SessionID string       `json:"sessionId"`
	UserEmail string       `json:"userEmail,omitempty"`
	Flight    RankedFlight `json:"flight"`
}

// SaveSessionInput persists resolved preferences for a session
type SaveSessionInput struct {
	SessionID   string            `json:"sessionId"`
	UserEmail   string            `json:"userEmail,omitempty"`
	Preferences TravelPreferences `json:"preferences"`
}

// ScanInvitationsInput asks for the invitation scan of a mailbox
type ScanInvitationsInput struct {
	SessionID string `json:"sessionId"`
	UserEmail string `json:"userEmail"`
}

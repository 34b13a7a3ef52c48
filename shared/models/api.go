package models

// StartSessionRequest is the body of POST /api/sessions
type StartSessionRequest struct {
	UserEmail string `json:"userEmail,omitempty"`
}

// PreferencesRequest is the body of POST /api/sessions/{id}/preferences
type PreferencesRequest struct {
	PreferenceInput
	Text string `json:"text,omitempty"`
}

// DecisionRequest is the body of POST /api/sessions/{id}/decision
type DecisionRequest struct {
	Choice Choice `json:"choice"`
	Index  int    `json:"index,omitempty"`
}

// SearchRequest is the body of POST /api/flights/search
type SearchRequest struct {
	PreferenceInput
	Text      string `json:"text,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}

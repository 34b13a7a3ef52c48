package models

// TimeMarker is either a precise timestamp or an all-day date
type TimeMarker struct {
	DateTime string `json:"dateTime,omitempty" yaml:"dateTime,omitempty"`
	Date     string `json:"date,omitempty" yaml:"date,omitempty"`
}

// IsAllDay reports whether the marker carries only a date
func (m TimeMarker) IsAllDay() bool {
	return m.DateTime == "" && m.Date != ""
}

// Value returns whichever representation is set
func (m TimeMarker) Value() string {
	if m.DateTime != "" {
		return m.DateTime
	}
	return m.Date
}

// CalendarEvent is a busy interval. All-day end dates are exclusive.
type CalendarEvent struct {
	ID       string     `json:"id,omitempty" yaml:"id,omitempty"`
	Title    string     `json:"summary" yaml:"summary"`
	Location string     `json:"location,omitempty" yaml:"location,omitempty"`
	Start    TimeMarker `json:"start" yaml:"start"`
	End      TimeMarker `json:"end" yaml:"end"`
}

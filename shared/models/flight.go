package models

import "encoding/json"

// PreferenceInput is the partial, user-supplied form of TravelPreferences.
// A nil field means the user did not provide it.
type PreferenceInput struct {
	DepartureCode *string  `json:"departureCode,omitempty"`
	ArrivalCode   *string  `json:"arrivalCode,omitempty"`
	OutboundDate  *string  `json:"outboundDate,omitempty"`
	TripDays      *int     `json:"tripDays,omitempty"`
	Currency      *string  `json:"currency,omitempty"`
	Budget        *float64 `json:"budget,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// TravelPreferences is a fully resolved preference record
type TravelPreferences struct {
	DepartureCode string   `json:"departureCode"`
	ArrivalCode   string   `json:"arrivalCode"`
	OutboundDate  string   `json:"outboundDate"`
	ReturnDate    string   `json:"returnDate"`
	TripDays      int      `json:"tripDays"`
	Currency      string   `json:"currency"`
	Budget        *float64 `json:"budget,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// SearchQuery is what the flight-search provider is asked for
type SearchQuery struct {
	DepartureCode string   `json:"departureCode"`
	ArrivalCode   string   `json:"arrivalCode"`
	OutboundDate  string   `json:"outboundDate"`
	ReturnDate    string   `json:"returnDate"`
	Currency      string   `json:"currency"`
	SortBy        SortMode `json:"sortBy"`
}

// SortMode mirrors the provider's sort parameter
type SortMode int

const (
	SortBest  SortMode = 1
	SortPrice SortMode = 2
)

// QueryFor builds the provider query for resolved preferences
func QueryFor(p TravelPreferences) SearchQuery {
	return SearchQuery{
		DepartureCode: p.DepartureCode,
		ArrivalCode:   p.ArrivalCode,
		OutboundDate:  p.OutboundDate,
		ReturnDate:    p.ReturnDate,
		Currency:      p.Currency,
		SortBy:        SortBest,
	}
}

// RawSearchResult is the provider payload before normalization.
// Fields that vary in shape are kept as raw JSON.
type RawSearchResult struct {
	BestFlights  []RawOffer `json:"best_flights"`
	OtherFlights []RawOffer `json:"other_flights"`
}

// Offers returns best offers followed by alternatives, each in provider order
func (r RawSearchResult) Offers() []RawOffer {
	offers := make([]RawOffer, 0, len(r.BestFlights)+len(r.OtherFlights))
	offers = append(offers, r.BestFlights...)
	return append(offers, r.OtherFlights...)
}

// RawOffer is one provider offer record
type RawOffer struct {
	Flights         []RawSegment    `json:"flights"`
	Airline         string          `json:"airline,omitempty"`
	Price           json.RawMessage `json:"price,omitempty"`
	TotalDuration   json.RawMessage `json:"total_duration,omitempty"`
	Duration        json.RawMessage `json:"duration,omitempty"`
	Type            string          `json:"type,omitempty"`
	AirlineLogo     string          `json:"airline_logo,omitempty"`
	CarbonEmissions json.RawMessage `json:"carbon_emissions,omitempty"`
}

// RawSegment is a single flight leg inside an offer
type RawSegment struct {
	DepartureAirport RawAirport `json:"departure_airport"`
	ArrivalAirport   RawAirport `json:"arrival_airport"`
	Airline          string     `json:"airline"`
	AirlineLogo      string     `json:"airline_logo,omitempty"`
	FlightNumber     string     `json:"flight_number,omitempty"`
	Duration         int        `json:"duration,omitempty"`
}

// RawAirport identifies an airport plus the local time at it
type RawAirport struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Time string `json:"time"`
}

// FlightCandidate is the canonical offer record used by every pipeline stage
type FlightCandidate struct {
	ID              string            `json:"id"`
	Airline         string            `json:"airline"`
	Price           *float64          `json:"price,omitempty"`
	Currency        string            `json:"currency,omitempty"`
	Duration        string            `json:"duration,omitempty"`
	DurationMinutes *int              `json:"durationMinutes,omitempty"`
	Route           string            `json:"route"`
	DepartureCode   string            `json:"departureCode,omitempty"`
	ArrivalCode     string            `json:"arrivalCode,omitempty"`
	DepartureDate   string            `json:"departureDate,omitempty"`
	ReturnDate      string            `json:"returnDate,omitempty"`
	Extras          map[string]string `json:"extras,omitempty"`
}

// RankedFlight is a candidate annotated by the ranking step
type RankedFlight struct {
	FlightCandidate
	Justification string `json:"justification"`
}

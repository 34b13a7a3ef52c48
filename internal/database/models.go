package database

import "time"

// User is a row of the users table
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Bookings  int       `json:"bookings"`
	CreatedAt time.Time `json:"createdAt"`
}

// FlightRecord is a row of the flights table: one confirmed booking
type FlightRecord struct {
	ID        int64
	SessionID *string
	UserEmail *string
	Departure string
	Arrival   string
	Currency  string
	Price     *float64
	Airline   string
	Details   []byte
	CreatedAt time.Time
}

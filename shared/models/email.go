package models

import "time"

// Email is a stored message from a user's mailbox
type Email struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	Sender     string    `json:"sender"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"receivedAt"`
}

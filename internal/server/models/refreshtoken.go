package models

import "time"

// RefreshToken is a server-stored, single-use token bound to the session
// it was issued for.
type RefreshToken struct {
	ID        string
	UserID    string
	SessionID string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}

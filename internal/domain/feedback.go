package domain

import "time"

const (
	MinFeedbackRating = 1
	MaxFeedbackRating = 5
)

// Feedback is the requester's rating of a resolved ticket. One per ticket.
type Feedback struct {
	ID        string
	TicketID  string
	UserID    string
	Rating    int
	Comments  string
	CreatedAt time.Time
}

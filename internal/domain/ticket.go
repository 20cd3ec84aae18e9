package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "open"
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusResolved TicketStatus = "resolved"
	TicketStatusClosed   TicketStatus = "closed"
)

var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:     {TicketStatusPending},
	TicketStatusPending:  {TicketStatusResolved},
	TicketStatusResolved: {TicketStatusClosed},
	TicketStatusClosed:   {},
}

// Valid reports whether s is a known ticket status.
func (s TicketStatus) Valid() bool {
	_, ok := ticketTransitions[s]
	return ok
}

// CanTransitionTo reports whether the ticket state machine allows s -> next.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	for _, candidate := range ticketTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// AcceptsWorkOrder reports whether a work order may still be raised for a ticket in s.
func (s TicketStatus) AcceptsWorkOrder() bool {
	return s != TicketStatusResolved && s != TicketStatusClosed
}

// Ticket is a requester-filed issue report.
type Ticket struct {
	ID          string
	Title       string
	Description string
	AssetID     *string
	RequesterID string
	Status      TicketStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

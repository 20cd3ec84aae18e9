package domain

import "time"

// EntityType identifies which aggregate a status change belongs to.
type EntityType string

const (
	EntityTypeTicket    EntityType = "ticket"
	EntityTypeWorkOrder EntityType = "work_order"
)

// StatusChange is an immutable audit trail entry for a lifecycle transition.
type StatusChange struct {
	ID         string
	EntityType EntityType
	EntityID   string
	ActorID    string
	OldStatus  string
	NewStatus  string
	Comment    string
	CreatedAt  time.Time
}

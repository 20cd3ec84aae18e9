package events

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated        EventType = "ticket_created"
	EventTicketStatusChanged  EventType = "ticket_status_changed"
	EventFeedbackSubmitted    EventType = "feedback_submitted"
	EventWorkOrderCreated     EventType = "work_order_created"
	EventWorkOrderAssigned    EventType = "work_order_assigned"
	EventWorkOrderApproved    EventType = "work_order_approved"
	EventWorkOrderStatusMoved EventType = "work_order_status_changed"
	EventInventoryDeducted    EventType = "inventory_deducted"
)

// AllEventTypes lists every type the service publishes.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventFeedbackSubmitted,
	EventWorkOrderCreated,
	EventWorkOrderAssigned,
	EventWorkOrderApproved,
	EventWorkOrderStatusMoved,
	EventInventoryDeducted,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted after a transaction commits.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	TicketID    string      `json:"ticket_id,omitempty"`
	WorkOrderID string      `json:"work_order_id,omitempty"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// StatusChangedPayload payload for ticket and work order transitions.
type StatusChangedPayload struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Comment   string `json:"comment,omitempty"`
}

// WorkOrderCreatedPayload payload.
type WorkOrderCreatedPayload struct {
	AssetID  string                 `json:"asset_id"`
	Status   domain.WorkOrderStatus `json:"status"`
	Priority int                    `json:"priority"`
	Title    string                 `json:"title"`
}

// WorkOrderApprovedPayload payload.
type WorkOrderApprovedPayload struct {
	Track         domain.ApprovalTrack `json:"track"`
	FullyApproved bool                 `json:"fully_approved"`
	ApprovedAt    time.Time            `json:"approved_at"`
}

// WorkOrderAssignedPayload payload.
type WorkOrderAssignedPayload struct {
	TechnicianID string `json:"technician_id"`
}

// InventoryDeductedPayload payload.
type InventoryDeductedPayload struct {
	PartID    string `json:"part_id"`
	Quantity  int    `json:"quantity"`
	Remaining int    `json:"remaining"`
}

// FeedbackSubmittedPayload payload.
type FeedbackSubmittedPayload struct {
	FeedbackID string `json:"feedback_id"`
	Rating     int    `json:"rating"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	AssetID *string `json:"asset_id,omitempty"`
	Title   string  `json:"title"`
}

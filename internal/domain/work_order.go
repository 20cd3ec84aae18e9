package domain

import "time"

// WorkOrderStatus enumerates lifecycle states for work orders.
type WorkOrderStatus string

const (
	WorkOrderStatusAwaitingApproval WorkOrderStatus = "awaiting_approval"
	WorkOrderStatusOnHold           WorkOrderStatus = "on_hold"
	WorkOrderStatusOpen             WorkOrderStatus = "open"
	WorkOrderStatusInProgress       WorkOrderStatus = "in_progress"
	WorkOrderStatusCompleted        WorkOrderStatus = "completed"
	WorkOrderStatusClosed           WorkOrderStatus = "closed"
)

// DefaultWorkOrderPriority is applied when no priority is given.
const DefaultWorkOrderPriority = 3

// awaiting_approval and closed have no outgoing transitions here; nothing in
// the workflow moves a work order out of them.
var workOrderTransitions = map[WorkOrderStatus][]WorkOrderStatus{
	WorkOrderStatusAwaitingApproval: {},
	WorkOrderStatusOnHold:           {WorkOrderStatusOpen},
	WorkOrderStatusOpen:             {WorkOrderStatusInProgress},
	WorkOrderStatusInProgress:       {WorkOrderStatusCompleted},
	WorkOrderStatusCompleted:        {},
	WorkOrderStatusClosed:           {},
}

// Valid reports whether s is a known work order status.
func (s WorkOrderStatus) Valid() bool {
	_, ok := workOrderTransitions[s]
	return ok
}

// CanTransitionTo reports whether the work order state machine allows s -> next.
func (s WorkOrderStatus) CanTransitionTo(next WorkOrderStatus) bool {
	for _, candidate := range workOrderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsFinished reports whether the work has been completed or closed.
func (s WorkOrderStatus) IsFinished() bool {
	return s == WorkOrderStatusCompleted || s == WorkOrderStatusClosed
}

// ApprovalTrack names one of the two independent sign-off channels.
type ApprovalTrack string

const (
	ApprovalTrackMaintenance ApprovalTrack = "maintenance"
	ApprovalTrackProduction  ApprovalTrack = "production"
)

// Valid reports whether t is a known track.
func (t ApprovalTrack) Valid() bool {
	return t == ApprovalTrackMaintenance || t == ApprovalTrackProduction
}

// Approval records who signed off a track and when.
type Approval struct {
	ApproverID string
	ApprovedAt time.Time
}

// Approvals holds the sign-off for each track. A nil entry means not yet approved.
type Approvals struct {
	Maintenance *Approval
	Production  *Approval
}

// For returns the approval recorded on track, or nil.
func (a Approvals) For(track ApprovalTrack) *Approval {
	switch track {
	case ApprovalTrackMaintenance:
		return a.Maintenance
	case ApprovalTrackProduction:
		return a.Production
	}
	return nil
}

// Record stores approval on track, replacing nothing: callers check For first.
func (a *Approvals) Record(track ApprovalTrack, approval Approval) {
	switch track {
	case ApprovalTrackMaintenance:
		a.Maintenance = &approval
	case ApprovalTrackProduction:
		a.Production = &approval
	}
}

// IsFullyApproved reports whether both tracks are signed off.
func (a Approvals) IsFullyApproved() bool {
	return a.Maintenance != nil && a.Production != nil
}

// WorkRecord captures what the technician did.
type WorkRecord struct {
	RootCause            string
	ActionTaken          string
	NextOSRecommendation string
	ActualStartAt        *time.Time
	CompletedAt          *time.Time
}

// WorkOrder is an actionable maintenance task, optionally raised from a ticket.
type WorkOrder struct {
	ID           string
	Title        string
	Description  string
	AssetID      string
	AssignedToID *string
	TicketID     *string
	Status       WorkOrderStatus
	Priority     int
	Approvals    Approvals
	Record       WorkRecord
	Parts        []WorkOrderPart
	Photos       []WorkOrderPhoto
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAssignedTo reports whether userID is the assigned technician.
func (w *WorkOrder) IsAssignedTo(userID string) bool {
	return w.AssignedToID != nil && *w.AssignedToID == userID
}

// CanExecuteWork reports whether actor may start or complete the work order:
// the assignee, or any manager/admin.
func CanExecuteWork(actor Actor, wo *WorkOrder) bool {
	return wo.IsAssignedTo(actor.ID) || actor.Role.IsPrivileged()
}

// CanViewWorkOrder reports whether actor may read the work order details.
// Kept separate from CanExecuteWork; reading is open to every authenticated role.
func CanViewWorkOrder(actor Actor, _ *WorkOrder) bool {
	return actor.Role.Valid()
}

// WorkOrderPart records the quantity of a part consumed by a work order.
type WorkOrderPart struct {
	WorkOrderID  string
	PartID       string
	QuantityUsed int
}

// WorkOrderPhoto references an image held by the blob store.
type WorkOrderPhoto struct {
	ID           string
	WorkOrderID  string
	StorageKey   string
	FileName     string
	MimeType     string
	SizeBytes    int64
	Description  string
	UploadedByID string
	UploadedAt   time.Time
}

package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// CreateWorkOrderRequest payload for standalone work orders.
type CreateWorkOrderRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	AssetID     string `json:"asset_id" validate:"required,uuid"`
	Priority    int    `json:"priority" validate:"omitempty,min=1,max=5"`
}

// AssignRequest payload.
type AssignRequest struct {
	TechnicianID string `json:"technician_id" validate:"required,uuid"`
}

// PartUsageRequest is one consumed part line. Non-positive quantities are ignored.
type PartUsageRequest struct {
	PartID       string `json:"part_id"`
	QuantityUsed int    `json:"quantity_used"`
}

// PhotoRequest references an uploaded image.
type PhotoRequest struct {
	StorageKey  string `json:"storage_key" validate:"required"`
	FileName    string `json:"file_name"`
	MimeType    string `json:"mime_type"`
	SizeBytes   int64  `json:"size_bytes" validate:"gte=0"`
	Description string `json:"description"`
}

// CompleteWorkRequest payload.
type CompleteWorkRequest struct {
	RootCause            string             `json:"root_cause"`
	ActionTaken          string             `json:"action_taken"`
	NextOSRecommendation string             `json:"next_os_recommendation"`
	PartsUsed            []PartUsageRequest `json:"parts_used"`
	Photos               []PhotoRequest     `json:"photos" validate:"dive"`
}

// ApprovalResponse describes one track's sign-off.
type ApprovalResponse struct {
	ApproverID string    `json:"approver_id"`
	ApprovedAt time.Time `json:"approved_at"`
}

// WorkOrderPartResponse describes a consumed part line.
type WorkOrderPartResponse struct {
	PartID       string `json:"part_id"`
	QuantityUsed int    `json:"quantity_used"`
}

// PhotoResponse describes an attached photo.
type PhotoResponse struct {
	ID           string    `json:"id"`
	StorageKey   string    `json:"storage_key"`
	FileName     string    `json:"file_name"`
	MimeType     string    `json:"mime_type"`
	SizeBytes    int64     `json:"size_bytes"`
	Description  string    `json:"description"`
	UploadedByID string    `json:"uploaded_by_id"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// WorkOrderResponse describes a work order.
type WorkOrderResponse struct {
	ID                   string                  `json:"id"`
	Title                string                  `json:"title"`
	Description          string                  `json:"description"`
	AssetID              string                  `json:"asset_id"`
	AssignedToID         *string                 `json:"assigned_to_id"`
	TicketID             *string                 `json:"ticket_id"`
	Status               domain.WorkOrderStatus  `json:"status"`
	Priority             int                     `json:"priority"`
	MaintenanceApproval  *ApprovalResponse       `json:"maintenance_approval"`
	ProductionApproval   *ApprovalResponse       `json:"production_approval"`
	RootCause            string                  `json:"root_cause,omitempty"`
	ActionTaken          string                  `json:"action_taken,omitempty"`
	NextOSRecommendation string                  `json:"next_os_recommendation,omitempty"`
	ActualStartAt        *time.Time              `json:"actual_start_at"`
	CompletedAt          *time.Time              `json:"completed_at"`
	Parts                []WorkOrderPartResponse `json:"parts"`
	Photos               []PhotoResponse         `json:"photos"`
	CreatedAt            time.Time               `json:"created_at"`
	UpdatedAt            time.Time               `json:"updated_at"`
}

// NewWorkOrderResponse maps a work order; nil stays nil.
func NewWorkOrderResponse(wo *domain.WorkOrder) *WorkOrderResponse {
	if wo == nil {
		return nil
	}
	resp := &WorkOrderResponse{
		ID:                   wo.ID,
		Title:                wo.Title,
		Description:          wo.Description,
		AssetID:              wo.AssetID,
		AssignedToID:         wo.AssignedToID,
		TicketID:             wo.TicketID,
		Status:               wo.Status,
		Priority:             wo.Priority,
		MaintenanceApproval:  approvalResponse(wo.Approvals.Maintenance),
		ProductionApproval:   approvalResponse(wo.Approvals.Production),
		RootCause:            wo.Record.RootCause,
		ActionTaken:          wo.Record.ActionTaken,
		NextOSRecommendation: wo.Record.NextOSRecommendation,
		ActualStartAt:        wo.Record.ActualStartAt,
		CompletedAt:          wo.Record.CompletedAt,
		Parts:                make([]WorkOrderPartResponse, 0, len(wo.Parts)),
		Photos:               make([]PhotoResponse, 0, len(wo.Photos)),
		CreatedAt:            wo.CreatedAt,
		UpdatedAt:            wo.UpdatedAt,
	}
	for _, part := range wo.Parts {
		resp.Parts = append(resp.Parts, WorkOrderPartResponse{PartID: part.PartID, QuantityUsed: part.QuantityUsed})
	}
	for _, photo := range wo.Photos {
		resp.Photos = append(resp.Photos, PhotoResponse{
			ID:           photo.ID,
			StorageKey:   photo.StorageKey,
			FileName:     photo.FileName,
			MimeType:     photo.MimeType,
			SizeBytes:    photo.SizeBytes,
			Description:  photo.Description,
			UploadedByID: photo.UploadedByID,
			UploadedAt:   photo.UploadedAt,
		})
	}
	return resp
}

func approvalResponse(a *domain.Approval) *ApprovalResponse {
	if a == nil {
		return nil
	}
	return &ApprovalResponse{ApproverID: a.ApproverID, ApprovedAt: a.ApprovedAt}
}

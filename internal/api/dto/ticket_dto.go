package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description string  `json:"description"`
	AssetID     *string `json:"asset_id" validate:"omitempty,uuid"`
}

// FeedbackRequest payload. The rating range is enforced by the service.
type FeedbackRequest struct {
	Rating   int    `json:"rating"`
	Comments string `json:"comments" validate:"max=4000"`
}

// TicketResponse describes a ticket.
type TicketResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	AssetID     *string             `json:"asset_id"`
	RequesterID string              `json:"requester_id"`
	Status      domain.TicketStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// TicketDetailResponse adds the linked work order and feedback.
type TicketDetailResponse struct {
	TicketResponse
	WorkOrder *WorkOrderResponse `json:"work_order"`
	Feedback  *FeedbackResponse  `json:"feedback"`
}

// FeedbackResponse describes stored feedback.
type FeedbackResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comments  string    `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		AssetID:     t.AssetID,
		RequesterID: t.RequesterID,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// NewFeedbackResponse maps feedback; nil stays nil.
func NewFeedbackResponse(f *domain.Feedback) *FeedbackResponse {
	if f == nil {
		return nil
	}
	return &FeedbackResponse{
		ID:        f.ID,
		TicketID:  f.TicketID,
		UserID:    f.UserID,
		Rating:    f.Rating,
		Comments:  f.Comments,
		CreatedAt: f.CreatedAt,
	}
}

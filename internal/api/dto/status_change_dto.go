package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// StatusChangeResponse describes one audit trail entry.
type StatusChangeResponse struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewStatusChangeResponses maps an audit trail in order.
func NewStatusChangeResponses(changes []domain.StatusChange) []StatusChangeResponse {
	out := make([]StatusChangeResponse, 0, len(changes))
	for _, change := range changes {
		out = append(out, StatusChangeResponse{
			ID:        change.ID,
			ActorID:   change.ActorID,
			OldStatus: change.OldStatus,
			NewStatus: change.NewStatus,
			Comment:   change.Comment,
			CreatedAt: change.CreatedAt,
		})
	}
	return out
}

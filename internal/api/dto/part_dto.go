package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// InventoryTransactionResponse describes a ledger entry.
type InventoryTransactionResponse struct {
	ID              string                          `json:"id"`
	PartID          string                          `json:"part_id"`
	QuantityChanged int                             `json:"quantity_changed"`
	Type            domain.InventoryTransactionType `json:"type"`
	UserID          string                          `json:"user_id"`
	WorkOrderID     *string                         `json:"work_order_id"`
	CreatedAt       time.Time                       `json:"created_at"`
}

// NewInventoryTransactionResponse maps a ledger entry.
func NewInventoryTransactionResponse(txn domain.InventoryTransaction) InventoryTransactionResponse {
	return InventoryTransactionResponse{
		ID:              txn.ID,
		PartID:          txn.PartID,
		QuantityChanged: txn.QuantityChanged,
		Type:            txn.Type,
		UserID:          txn.UserID,
		WorkOrderID:     txn.WorkOrderID,
		CreatedAt:       txn.CreatedAt,
	}
}

package service

import (
	"context"
	"errors"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// InventoryLedger records stock movements. It holds no state; every call runs
// against the unit of work it is handed.
type InventoryLedger struct{}

// Deduct appends a deduction entry for part and lowers its stock by quantity.
// The decrement is evaluated by the store against the committed value, so a
// stale read of the part never decides the outcome.
func (InventoryLedger) Deduct(ctx context.Context, uow *unitOfWork, part *domain.Part, quantity int, workOrderID *string) (*domain.InventoryTransaction, error) {
	if quantity < 1 {
		return nil, apperrors.NewValidationError("deduction quantity must be at least 1", map[string]any{
			"part_id":  part.ID,
			"quantity": quantity,
		})
	}

	remaining, err := uow.repos.Parts.Decrement(ctx, part.ID, quantity)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, apperrors.NewValidationError("insufficient stock", map[string]any{
				"part_id":   part.ID,
				"requested": quantity,
			})
		}
		return nil, err
	}

	txn := &domain.InventoryTransaction{
		PartID:          part.ID,
		QuantityChanged: quantity,
		Type:            domain.InventoryTransactionDeduction,
		UserID:          uow.actor.ID,
		WorkOrderID:     workOrderID,
	}
	if err := uow.repos.Inventory.Append(ctx, txn); err != nil {
		return nil, err
	}
	part.QuantityOnHand = remaining

	uow.emit(events.Event{
		Type:        events.EventInventoryDeducted,
		WorkOrderID: derefString(workOrderID),
		Payload: events.InventoryDeductedPayload{
			PartID:    part.ID,
			Quantity:  quantity,
			Remaining: remaining,
		},
	})
	return txn, nil
}

// Ledger returns the append-only history for a part.
func (InventoryLedger) Ledger(ctx context.Context, repos repository.Repositories, partID string) ([]domain.InventoryTransaction, error) {
	if _, err := repos.Parts.GetByID(ctx, partID); err != nil {
		return nil, notFoundOr(err, "part", "part_id", partID)
	}
	return repos.Inventory.ListByPart(ctx, partID)
}

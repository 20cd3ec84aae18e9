package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// PartsHandler exposes the inventory ledger.
type PartsHandler struct {
	service *service.MaintenanceService
}

// NewPartsHandler constructs handler.
func NewPartsHandler(maintenance *service.MaintenanceService) *PartsHandler {
	return &PartsHandler{service: maintenance}
}

// Transactions GET /api/v1/parts/:id/transactions.
func (h *PartsHandler) Transactions(c *fiber.Ctx) error {
	txns, err := h.service.PartLedger(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.InventoryTransactionResponse, 0, len(txns))
	for _, txn := range txns {
		items = append(items, dto.NewInventoryTransactionResponse(txn))
	}
	return c.JSON(fiber.Map{"data": items})
}

package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// WorkOrdersHandler manages work order endpoints.
type WorkOrdersHandler struct {
	service *service.MaintenanceService
}

// NewWorkOrdersHandler constructs handler.
func NewWorkOrdersHandler(maintenance *service.MaintenanceService) *WorkOrdersHandler {
	return &WorkOrdersHandler{service: maintenance}
}

// Create POST /api/v1/work-orders.
func (h *WorkOrdersHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateWorkOrderRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	wo, err := h.service.CreateWorkOrder(c.UserContext(), p.Actor.ID, service.WorkOrderInput{
		Title:       req.Title,
		Description: req.Description,
		AssetID:     req.AssetID,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewWorkOrderResponse(wo)})
}

// Get GET /api/v1/work-orders/:id.
func (h *WorkOrdersHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	wo, err := h.service.GetWorkOrder(c.UserContext(), c.Params("id"), p.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkOrderResponse(wo)})
}

// Assign POST /api/v1/work-orders/:id/assign.
func (h *WorkOrdersHandler) Assign(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	wo, err := h.service.AssignTechnician(c.UserContext(), c.Params("id"), req.TechnicianID, p.Actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkOrderResponse(wo)})
}

// Approve returns the handler for POST /api/v1/work-orders/:id/approvals/<track>.
func (h *WorkOrdersHandler) Approve(track domain.ApprovalTrack) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return err
		}
		var wo *domain.WorkOrder
		switch track {
		case domain.ApprovalTrackProduction:
			wo, err = h.service.ApproveProduction(c.UserContext(), c.Params("id"), p.Actor.ID)
		default:
			wo, err = h.service.ApproveMaintenance(c.UserContext(), c.Params("id"), p.Actor.ID)
		}
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.NewWorkOrderResponse(wo)})
	}
}

// Start POST /api/v1/work-orders/:id/start.
func (h *WorkOrdersHandler) Start(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	wo, err := h.service.StartWork(c.UserContext(), c.Params("id"), p.Actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkOrderResponse(wo)})
}

// Complete POST /api/v1/work-orders/:id/complete.
func (h *WorkOrdersHandler) Complete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CompleteWorkRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	data := service.CompletionData{
		RootCause:            req.RootCause,
		ActionTaken:          req.ActionTaken,
		NextOSRecommendation: req.NextOSRecommendation,
		PartsUsed:            make([]service.PartUsage, 0, len(req.PartsUsed)),
		Photos:               make([]service.PhotoInput, 0, len(req.Photos)),
	}
	for _, line := range req.PartsUsed {
		data.PartsUsed = append(data.PartsUsed, service.PartUsage{PartID: line.PartID, QuantityUsed: line.QuantityUsed})
	}
	for _, photo := range req.Photos {
		data.Photos = append(data.Photos, service.PhotoInput{
			StorageKey:  photo.StorageKey,
			FileName:    photo.FileName,
			MimeType:    photo.MimeType,
			SizeBytes:   photo.SizeBytes,
			Description: photo.Description,
		})
	}

	wo, err := h.service.CompleteWork(c.UserContext(), c.Params("id"), data, p.Actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkOrderResponse(wo)})
}

// History GET /api/v1/work-orders/:id/history.
func (h *WorkOrdersHandler) History(c *fiber.Ctx) error {
	changes, err := h.service.StatusHistory(c.UserContext(), domain.EntityTypeWorkOrder, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStatusChangeResponses(changes)})
}

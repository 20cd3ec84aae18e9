package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.MaintenanceService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(maintenance *service.MaintenanceService) *TicketsHandler {
	return &TicketsHandler{service: maintenance}
}

// CreateTicket POST /api/v1/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), p.Actor.ID, service.TicketInput{
		Title:       req.Title,
		Description: req.Description,
		AssetID:     req.AssetID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// GetTicket GET /api/v1/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	view, err := h.service.GetTicket(c.UserContext(), c.Params("id"), p.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketDetailResponse{
		TicketResponse: dto.NewTicketResponse(view.Ticket),
		WorkOrder:      dto.NewWorkOrderResponse(view.WorkOrder),
		Feedback:       dto.NewFeedbackResponse(view.Feedback),
	}})
}

// CreateWorkOrder POST /api/v1/tickets/:id/work-order.
func (h *TicketsHandler) CreateWorkOrder(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	wo, err := h.service.CreateWorkOrderFromTicket(c.UserContext(), c.Params("id"), p.Actor.ID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewWorkOrderResponse(wo)})
}

// Resolve POST /api/v1/tickets/:id/resolve.
func (h *TicketsHandler) Resolve(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.ResolveTicket(c.UserContext(), c.Params("id"), p.Actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Close POST /api/v1/tickets/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.CloseTicket(c.UserContext(), c.Params("id"), p.Actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// SubmitFeedback POST /api/v1/tickets/:id/feedback.
func (h *TicketsHandler) SubmitFeedback(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.FeedbackRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	feedback, err := h.service.SubmitFeedback(c.UserContext(), c.Params("id"), p.Actor.ID, req.Rating, req.Comments)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewFeedbackResponse(feedback)})
}

// History GET /api/v1/tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	changes, err := h.service.StatusHistory(c.UserContext(), domain.EntityTypeTicket, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStatusChangeResponses(changes)})
}

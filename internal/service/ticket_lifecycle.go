package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// TicketInput captures the fields a requester supplies when filing a ticket.
type TicketInput struct {
	Title       string
	Description string
	AssetID     *string
}

// TicketLifecycle owns ticket status transitions and feedback capture.
type TicketLifecycle struct{}

// Create files a new open ticket on behalf of the acting user.
func (TicketLifecycle) Create(ctx context.Context, uow *unitOfWork, input TicketInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if input.AssetID != nil && *input.AssetID != "" {
		if _, err := uow.repos.Assets.GetByID(ctx, *input.AssetID); err != nil {
			return nil, notFoundOr(err, "asset", "asset_id", *input.AssetID)
		}
	} else {
		input.AssetID = nil
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: input.Description,
		AssetID:     input.AssetID,
		RequesterID: uow.actor.ID,
		Status:      domain.TicketStatusOpen,
	}
	if err := uow.repos.Tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	uow.emit(events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload:  events.TicketCreatedPayload{AssetID: ticket.AssetID, Title: ticket.Title},
	})
	return ticket, nil
}

// MarkPending moves a ticket to pending once a work order has been raised for it.
func (l TicketLifecycle) MarkPending(ctx context.Context, uow *unitOfWork, ticket *domain.Ticket) error {
	return l.transition(ctx, uow, ticket, domain.TicketStatusPending, "work order created")
}

// Resolve moves a pending ticket to resolved once its work order is completed.
func (l TicketLifecycle) Resolve(ctx context.Context, uow *unitOfWork, ticketID string) (*domain.Ticket, error) {
	if !uow.actor.Role.IsPrivileged() {
		return nil, apperrors.NewForbidden("only managers can resolve tickets")
	}
	ticket, err := uow.repos.Tickets.GetByIDForUpdate(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", "ticket_id", ticketID)
	}
	if ticket.Status != domain.TicketStatusPending {
		return nil, apperrors.NewInvalidState("ticket must be pending to resolve", map[string]any{
			"ticket_id": ticket.ID,
			"status":    ticket.Status,
		})
	}

	wo, err := uow.repos.WorkOrders.GetByTicketID(ctx, ticket.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewPreconditionFailed("ticket has no work order", map[string]any{"ticket_id": ticket.ID})
		}
		return nil, err
	}
	if wo.Status != domain.WorkOrderStatusCompleted {
		return nil, apperrors.NewPreconditionFailed("work order not completed", map[string]any{
			"ticket_id":     ticket.ID,
			"work_order_id": wo.ID,
			"status":        wo.Status,
		})
	}

	if err := l.transition(ctx, uow, ticket, domain.TicketStatusResolved, "work order completed"); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Close moves a resolved ticket to its terminal state.
func (l TicketLifecycle) Close(ctx context.Context, uow *unitOfWork, ticketID string) (*domain.Ticket, error) {
	if !uow.actor.Role.IsPrivileged() {
		return nil, apperrors.NewForbidden("only managers can close tickets")
	}
	ticket, err := uow.repos.Tickets.GetByIDForUpdate(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", "ticket_id", ticketID)
	}
	if ticket.Status != domain.TicketStatusResolved {
		return nil, apperrors.NewInvalidState("ticket must be resolved to close", map[string]any{
			"ticket_id": ticket.ID,
			"status":    ticket.Status,
		})
	}
	if err := l.transition(ctx, uow, ticket, domain.TicketStatusClosed, ""); err != nil {
		return nil, err
	}
	return ticket, nil
}

// SubmitFeedback stores the requester's rating for a resolved ticket. The
// ticket status is left unchanged.
func (TicketLifecycle) SubmitFeedback(ctx context.Context, uow *unitOfWork, ticketID string, rating int, comments string) (*domain.Feedback, error) {
	if rating < domain.MinFeedbackRating || rating > domain.MaxFeedbackRating {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": rating})
	}
	ticket, err := uow.repos.Tickets.GetByIDForUpdate(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", "ticket_id", ticketID)
	}
	if ticket.RequesterID != uow.actor.ID {
		return nil, apperrors.NewForbidden("only the requester can leave feedback")
	}
	if ticket.Status != domain.TicketStatusResolved {
		return nil, apperrors.NewInvalidState("feedback requires a resolved ticket", map[string]any{
			"ticket_id": ticket.ID,
			"status":    ticket.Status,
		})
	}

	_, err = uow.repos.Feedback.GetByTicketID(ctx, ticket.ID)
	switch {
	case err == nil:
		return nil, apperrors.NewConflict("feedback already submitted", map[string]any{"ticket_id": ticket.ID})
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	feedback := &domain.Feedback{
		TicketID: ticket.ID,
		UserID:   uow.actor.ID,
		Rating:   rating,
		Comments: comments,
	}
	if err := uow.repos.Feedback.Create(ctx, feedback); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("feedback already submitted", map[string]any{"ticket_id": ticket.ID})
		}
		return nil, err
	}
	uow.emit(events.Event{
		Type:     events.EventFeedbackSubmitted,
		TicketID: ticket.ID,
		Payload:  events.FeedbackSubmittedPayload{FeedbackID: feedback.ID, Rating: rating},
	})
	return feedback, nil
}

func (TicketLifecycle) transition(ctx context.Context, uow *unitOfWork, ticket *domain.Ticket, next domain.TicketStatus, comment string) error {
	old := ticket.Status
	if !old.CanTransitionTo(next) {
		return apperrors.NewInvalidState("invalid ticket transition", map[string]any{
			"ticket_id": ticket.ID,
			"from":      old,
			"to":        next,
		})
	}
	ticket.Status = next
	if err := uow.repos.Tickets.UpdateStatus(ctx, ticket); err != nil {
		return err
	}
	return uow.recordTicketStatus(ctx, ticket, old, comment)
}

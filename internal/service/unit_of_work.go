package service

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// unitOfWork carries everything a lifecycle step needs inside one
// transaction: the transaction-bound repositories, the acting user, a single
// timestamp for every write, and the events to publish once it commits.
type unitOfWork struct {
	repos  repository.Repositories
	actor  domain.Actor
	now    time.Time
	events []events.Event
}

func (u *unitOfWork) emit(event events.Event) {
	event.Actor = events.Actor{ID: u.actor.ID, Role: u.actor.Role}
	event.Timestamp = u.now
	u.events = append(u.events, event)
}

func (u *unitOfWork) recordTicketStatus(ctx context.Context, ticket *domain.Ticket, old domain.TicketStatus, comment string) error {
	if err := u.recordStatusChange(ctx, domain.EntityTypeTicket, ticket.ID, string(old), string(ticket.Status), comment); err != nil {
		return err
	}
	u.emit(events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Payload: events.StatusChangedPayload{
			OldStatus: string(old),
			NewStatus: string(ticket.Status),
			Comment:   comment,
		},
	})
	return nil
}

func (u *unitOfWork) recordWorkOrderStatus(ctx context.Context, wo *domain.WorkOrder, old domain.WorkOrderStatus, comment string) error {
	if err := u.recordStatusChange(ctx, domain.EntityTypeWorkOrder, wo.ID, string(old), string(wo.Status), comment); err != nil {
		return err
	}
	u.emit(events.Event{
		Type:        events.EventWorkOrderStatusMoved,
		TicketID:    derefString(wo.TicketID),
		WorkOrderID: wo.ID,
		Payload: events.StatusChangedPayload{
			OldStatus: string(old),
			NewStatus: string(wo.Status),
			Comment:   comment,
		},
	})
	return nil
}

func (u *unitOfWork) recordStatusChange(ctx context.Context, entityType domain.EntityType, entityID, old, next, comment string) error {
	entry := &domain.StatusChange{
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    u.actor.ID,
		OldStatus:  old,
		NewStatus:  next,
		Comment:    comment,
	}
	return u.repos.StatusChanges.Create(ctx, entry)
}

// translateError maps repository sentinels that reached the service boundary
// without a more specific translation.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("record", nil)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("record already exists", nil)
	case errors.Is(err, repository.ErrInsufficientStock):
		return apperrors.NewValidationError("insufficient stock", nil)
	}
	return apperrors.NewInternalError(err)
}

// notFoundOr converts ErrNotFound into a NotFound for resource, passing other errors through.
func notFoundOr(err error, resource, idKey, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{idKey: id})
	}
	return err
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

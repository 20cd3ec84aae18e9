package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// MaintenanceService is the entry point for the ticket and work order
// workflow. Each operation runs as a single transaction and publishes its
// events only after commit.
type MaintenanceService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	clock      func() time.Time

	tickets    TicketLifecycle
	workOrders WorkOrderLifecycle
	ledger     InventoryLedger
}

// MaintenanceDependencies wires collaborators.
type MaintenanceDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewMaintenanceService constructs the service.
func NewMaintenanceService(deps MaintenanceDependencies) *MaintenanceService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	tickets := TicketLifecycle{}
	ledger := InventoryLedger{}
	return &MaintenanceService{
		store:      deps.Store,
		dispatcher: dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		clock:      clock,
		tickets:    tickets,
		workOrders: WorkOrderLifecycle{tickets: tickets, ledger: ledger},
		ledger:     ledger,
	}
}

// TicketView is a ticket together with its work order and feedback, when present.
type TicketView struct {
	Ticket    *domain.Ticket
	WorkOrder *domain.WorkOrder
	Feedback  *domain.Feedback
}

// CreateTicket files a ticket for the acting requester.
func (s *MaintenanceService) CreateTicket(ctx context.Context, requesterID string, input TicketInput) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	err := s.run(ctx, "create_ticket", requesterID, func(ctx context.Context, uow *unitOfWork) error {
		var err error
		ticket, err = s.tickets.Create(ctx, uow, input)
		return err
	})
	return ticket, err
}

// CreateWorkOrderFromTicket raises the work order for a ticket and moves the ticket to pending.
func (s *MaintenanceService) CreateWorkOrderFromTicket(ctx context.Context, ticketID, actorID string) (*domain.WorkOrder, error) {
	var wo *domain.WorkOrder
	err := s.run(ctx, "create_work_order_from_ticket", actorID, func(ctx context.Context, uow *unitOfWork) error {
		var err error
		wo, err = s.workOrders.CreateFromTicket(ctx, uow, ticketID)
		return err
	}, zap.String("ticket_id", ticketID))
	return wo, err
}

// CreateWorkOrder raises a standalone work order for an asset.
func (s *MaintenanceService) CreateWorkOrder(ctx context.Context, actorID string, input WorkOrderInput) (*domain.WorkOrder, error) {
	var wo *domain.WorkOrder
	err := s.run(ctx, "create_work_order", actorID, func(ctx context.Context, uow *unitOfWork) error {
		var err error
		wo, err = s.workOrders.Create(ctx, uow, input)
		return err
	}, zap.String("asset_id", input.AssetID))
	return wo, err
}

// ApproveMaintenance records the maintenance sign-off.
func (s *MaintenanceService) ApproveMaintenance(ctx context.Context, workOrderID, approverID string) (*domain.WorkOrder, error) {
	return s.approve(ctx, workOrderID, approverID, domain.ApprovalTrackMaintenance)
}

// ApproveProduction records the production sign-off.
func (s *MaintenanceService) ApproveProduction(ctx context.Context, workOrderID, approverID string) (*domain.WorkOrder, error) {
	return s.approve(ctx, workOrderID, approverID, domain.ApprovalTrackProduction)
}

func (s *MaintenanceService) approve(ctx context.Context, workOrderID, approverID string, track domain.ApprovalTrack) (*domain.WorkOrder, error) {
	var wo *domain.WorkOrder
	err := s.run(ctx, "approve_"+string(track), approverID, func(ctx context.Context, uow *unitOfWork) error {
		var err error
		wo, err = s.workOrders.Approve(ctx, uow, workOrderID, track)
		return err
	}, zap.String("work_order_id", workOrderID))
	return wo, err
}

// AssignTechnician assigns the technician responsible for a work order.
func (s *MaintenanceService) AssignTechnician(ctx context.Context, workOrderID, technicianID, actorID string) (*domain.WorkOrder, error) {
	var wo *domain.WorkOrder
	err := s.run(ctx, "assign_technician", actorID, func(ctx context.Context, uow *unitOfWork) error {
		var err error
		wo, err = s.workOrders.AssignTechnician(ctx, uow, workOrderID, technicianID)
		return err
	}, zap.String("work_order_id", workOrderID), zap.String("technician_id", technicianID))
	return wo, err
}

// StartWork moves an open work order into progress.
func (s *MaintenanceService) StartWork(ctx context.Context, workOrderID, technicianID string) (*domain.WorkOrder, error) {
	var wo *domain.WorkOrder
	err := s.run(ctx, "start_work", technicianID, func(ctx context.Context, uow *unitOfWork) error {
		var err error
		wo, err = s.workOrders.Start(ctx, uow, workOrderID)
		return err
	}, zap.String("work_order_id", workOrderID))
	return wo, err
}

// CompleteWork finishes a work order, consuming parts and attaching photos atomically.
func (s *MaintenanceService) CompleteWork(ctx context.Context, workOrderID string, data CompletionData, technicianID string) (*domain.WorkOrder, error) {
	var wo *domain.WorkOrder
	err := s.run(ctx, "complete_work", technicianID, func(ctx context.Context, uow *unitOfWork) error {
		var err error
		wo, err = s.workOrders.Complete(ctx, uow, workOrderID, data)
		return err
	}, zap.String("work_order_id", workOrderID), zap.Int("parts_lines", len(data.PartsUsed)))
	return wo, err
}

// ResolveTicket resolves a pending ticket whose work order is completed.
func (s *MaintenanceService) ResolveTicket(ctx context.Context, ticketID, managerID string) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	err := s.run(ctx, "resolve_ticket", managerID, func(ctx context.Context, uow *unitOfWork) error {
		var err error
		ticket, err = s.tickets.Resolve(ctx, uow, ticketID)
		return err
	}, zap.String("ticket_id", ticketID))
	return ticket, err
}

// CloseTicket closes a resolved ticket.
func (s *MaintenanceService) CloseTicket(ctx context.Context, ticketID, managerID string) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	err := s.run(ctx, "close_ticket", managerID, func(ctx context.Context, uow *unitOfWork) error {
		var err error
		ticket, err = s.tickets.Close(ctx, uow, ticketID)
		return err
	}, zap.String("ticket_id", ticketID))
	return ticket, err
}

// SubmitFeedback stores the requester's one-time rating of a resolved ticket.
func (s *MaintenanceService) SubmitFeedback(ctx context.Context, ticketID, requesterID string, rating int, comments string) (*domain.Feedback, error) {
	var feedback *domain.Feedback
	err := s.run(ctx, "submit_feedback", requesterID, func(ctx context.Context, uow *unitOfWork) error {
		var err error
		feedback, err = s.tickets.SubmitFeedback(ctx, uow, ticketID, rating, comments)
		return err
	}, zap.String("ticket_id", ticketID))
	return feedback, err
}

// GetTicket loads a ticket with its work order and feedback.
func (s *MaintenanceService) GetTicket(ctx context.Context, ticketID string, actor domain.Actor) (*TicketView, error) {
	repos := s.store.Repositories()
	ticket, err := repos.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, translateError(notFoundOr(err, "ticket", "ticket_id", ticketID))
	}
	if actor.Role == domain.RoleRequester && ticket.RequesterID != actor.ID {
		return nil, apperrors.NewForbidden("ticket belongs to another requester")
	}
	view := &TicketView{Ticket: ticket}
	if wo, err := repos.WorkOrders.GetByTicketID(ctx, ticketID); err == nil {
		view.WorkOrder = wo
	} else if !isNotFound(err) {
		return nil, translateError(err)
	}
	if feedback, err := repos.Feedback.GetByTicketID(ctx, ticketID); err == nil {
		view.Feedback = feedback
	} else if !isNotFound(err) {
		return nil, translateError(err)
	}
	return view, nil
}

// GetWorkOrder loads a work order with its consumed parts and photos.
func (s *MaintenanceService) GetWorkOrder(ctx context.Context, workOrderID string, actor domain.Actor) (*domain.WorkOrder, error) {
	repos := s.store.Repositories()
	wo, err := repos.WorkOrders.GetByID(ctx, workOrderID)
	if err != nil {
		return nil, translateError(notFoundOr(err, "work order", "work_order_id", workOrderID))
	}
	if !domain.CanViewWorkOrder(actor, wo) {
		return nil, apperrors.NewForbidden("not allowed to view this work order")
	}
	if wo.Parts, err = repos.WorkOrders.ListParts(ctx, wo.ID); err != nil {
		return nil, translateError(err)
	}
	if wo.Photos, err = repos.Photos.ListByWorkOrder(ctx, wo.ID); err != nil {
		return nil, translateError(err)
	}
	return wo, nil
}

// PartLedger returns the stock movements recorded for a part.
func (s *MaintenanceService) PartLedger(ctx context.Context, partID string) ([]domain.InventoryTransaction, error) {
	txns, err := s.ledger.Ledger(ctx, s.store.Repositories(), partID)
	if err != nil {
		return nil, translateError(err)
	}
	return txns, nil
}

// StatusHistory returns the audit trail for a ticket or work order.
func (s *MaintenanceService) StatusHistory(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.StatusChange, error) {
	changes, err := s.store.Repositories().StatusChanges.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, translateError(err)
	}
	return changes, nil
}

// run resolves the actor, executes fn inside one transaction and, once it
// has committed, publishes the collected events.
func (s *MaintenanceService) run(ctx context.Context, op, actorID string, fn func(context.Context, *unitOfWork) error, fields ...zap.Field) error {
	started := s.clock()
	uow := &unitOfWork{now: started.UTC()}

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		actor, err := s.lookupActor(ctx, repos, actorID)
		if err != nil {
			return err
		}
		uow.repos = repos
		uow.actor = actor
		uow.events = nil
		return fn(ctx, uow)
	})

	fields = append(fields, zap.String("operation", op), zap.String("actor_id", actorID))
	if err != nil {
		err = translateError(err)
		domainErr := apperrors.ToDomainError(err)
		s.metrics.RecordOperation(op, domainErr.Code, time.Since(started))
		if domainErr.Code == apperrors.CodeInternal {
			s.logger.Error("operation failed", append(fields, zap.Error(err))...)
		} else {
			s.logger.Warn("operation rejected", append(fields, zap.String("code", domainErr.Code), zap.String("reason", domainErr.Message))...)
		}
		return err
	}

	s.metrics.RecordOperation(op, "ok", time.Since(started))
	s.logger.Info("operation committed", append(fields, zap.Int("events", len(uow.events)))...)
	s.publish(ctx, uow.events)
	return nil
}

func (s *MaintenanceService) lookupActor(ctx context.Context, repos repository.Repositories, actorID string) (domain.Actor, error) {
	user, err := repos.Users.GetByID(ctx, actorID)
	if err != nil {
		return domain.Actor{}, notFoundOr(err, "user", "user_id", actorID)
	}
	if !user.Active {
		return domain.Actor{}, apperrors.NewForbidden("user is inactive")
	}
	return user.Actor(), nil
}

// publish delivers committed events. Delivery failures are logged; the
// transaction has already committed and is not affected.
func (s *MaintenanceService) publish(ctx context.Context, batch []events.Event) {
	for _, event := range batch {
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		if payload, ok := event.Payload.(events.InventoryDeductedPayload); ok {
			s.metrics.RecordDeduction(payload.PartID, payload.Quantity)
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event delivery failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err),
			)
		}
	}
}

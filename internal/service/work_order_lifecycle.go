package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// WorkOrderInput describes a work order raised directly against an asset.
type WorkOrderInput struct {
	Title       string
	Description string
	AssetID     string
	Priority    int
}

// PartUsage is one parts-used line of a completion report.
type PartUsage struct {
	PartID       string
	QuantityUsed int
}

// PhotoInput references an uploaded image by its blob storage key.
type PhotoInput struct {
	StorageKey  string
	FileName    string
	MimeType    string
	SizeBytes   int64
	Description string
}

// CompletionData is what a technician submits when finishing the work.
type CompletionData struct {
	RootCause            string
	ActionTaken          string
	NextOSRecommendation string
	PartsUsed            []PartUsage
	Photos               []PhotoInput
}

// WorkOrderLifecycle owns work order transitions, the dual approval gate and
// work execution.
type WorkOrderLifecycle struct {
	tickets TicketLifecycle
	ledger  InventoryLedger
}

// CreateFromTicket raises the single work order a ticket may have and moves
// the ticket to pending in the same unit of work.
func (l WorkOrderLifecycle) CreateFromTicket(ctx context.Context, uow *unitOfWork, ticketID string) (*domain.WorkOrder, error) {
	if !uow.actor.Role.IsPrivileged() {
		return nil, apperrors.NewForbidden("only managers can create work orders")
	}
	ticket, err := uow.repos.Tickets.GetByIDForUpdate(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", "ticket_id", ticketID)
	}

	existing, err := uow.repos.WorkOrders.GetByTicketID(ctx, ticket.ID)
	switch {
	case err == nil:
		return nil, apperrors.NewConflict("ticket already has a work order", map[string]any{
			"ticket_id":     ticket.ID,
			"work_order_id": existing.ID,
		})
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	if !ticket.Status.AcceptsWorkOrder() {
		return nil, apperrors.NewInvalidState("ticket is already resolved or closed", map[string]any{
			"ticket_id": ticket.ID,
			"status":    ticket.Status,
		})
	}
	if ticket.AssetID == nil || *ticket.AssetID == "" {
		return nil, apperrors.NewPreconditionFailed("ticket has no asset", map[string]any{"ticket_id": ticket.ID})
	}

	ticketRef := ticket.ID
	wo := &domain.WorkOrder{
		Title:       ticket.Title,
		Description: ticket.Description,
		AssetID:     *ticket.AssetID,
		TicketID:    &ticketRef,
		Status:      domain.WorkOrderStatusOnHold,
		Priority:    domain.DefaultWorkOrderPriority,
	}
	if err := l.insert(ctx, uow, wo); err != nil {
		return nil, err
	}
	if err := l.tickets.MarkPending(ctx, uow, ticket); err != nil {
		return nil, err
	}
	return wo, nil
}

// Create raises a standalone work order. It starts in awaiting_approval and
// nothing in the workflow moves it further.
func (l WorkOrderLifecycle) Create(ctx context.Context, uow *unitOfWork, input WorkOrderInput) (*domain.WorkOrder, error) {
	if !uow.actor.Role.IsPrivileged() {
		return nil, apperrors.NewForbidden("only managers can create work orders")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	priority := input.Priority
	if priority == 0 {
		priority = domain.DefaultWorkOrderPriority
	}
	if priority < 1 || priority > 5 {
		return nil, apperrors.NewValidationError("priority must be between 1 and 5", map[string]any{"priority": priority})
	}
	if input.AssetID == "" {
		return nil, apperrors.NewValidationError("asset_id is required", nil)
	}
	if _, err := uow.repos.Assets.GetByID(ctx, input.AssetID); err != nil {
		return nil, notFoundOr(err, "asset", "asset_id", input.AssetID)
	}

	wo := &domain.WorkOrder{
		Title:       title,
		Description: input.Description,
		AssetID:     input.AssetID,
		Status:      domain.WorkOrderStatusAwaitingApproval,
		Priority:    priority,
	}
	if err := l.insert(ctx, uow, wo); err != nil {
		return nil, err
	}
	return wo, nil
}

func (WorkOrderLifecycle) insert(ctx context.Context, uow *unitOfWork, wo *domain.WorkOrder) error {
	if err := uow.repos.WorkOrders.Create(ctx, wo); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.NewConflict("ticket already has a work order", map[string]any{"ticket_id": derefString(wo.TicketID)})
		}
		return err
	}
	uow.emit(events.Event{
		Type:        events.EventWorkOrderCreated,
		TicketID:    derefString(wo.TicketID),
		WorkOrderID: wo.ID,
		Payload: events.WorkOrderCreatedPayload{
			AssetID:  wo.AssetID,
			Status:   wo.Status,
			Priority: wo.Priority,
			Title:    wo.Title,
		},
	})
	return nil
}

// Approve signs off one track. The gate check runs against the locked row, so
// whichever approval lands second opens the work order.
func (l WorkOrderLifecycle) Approve(ctx context.Context, uow *unitOfWork, workOrderID string, track domain.ApprovalTrack) (*domain.WorkOrder, error) {
	if !track.Valid() {
		return nil, apperrors.NewValidationError("unknown approval track", map[string]any{"track": track})
	}
	if !uow.actor.Role.IsPrivileged() {
		return nil, apperrors.NewForbidden("only managers can approve work orders")
	}
	wo, err := l.lock(ctx, uow, workOrderID)
	if err != nil {
		return nil, err
	}
	if wo.Status != domain.WorkOrderStatusOnHold {
		return nil, apperrors.NewInvalidState("work order is not awaiting approval", map[string]any{
			"work_order_id": wo.ID,
			"status":        wo.Status,
		})
	}
	if wo.Approvals.For(track) != nil {
		return nil, apperrors.NewConflict("track already approved", map[string]any{
			"work_order_id": wo.ID,
			"track":         track,
		})
	}

	wo.Approvals.Record(track, domain.Approval{ApproverID: uow.actor.ID, ApprovedAt: uow.now})
	old := wo.Status
	if wo.Approvals.IsFullyApproved() {
		wo.Status = domain.WorkOrderStatusOpen
	}
	if err := uow.repos.WorkOrders.Update(ctx, wo); err != nil {
		return nil, err
	}

	uow.emit(events.Event{
		Type:        events.EventWorkOrderApproved,
		TicketID:    derefString(wo.TicketID),
		WorkOrderID: wo.ID,
		Payload: events.WorkOrderApprovedPayload{
			Track:         track,
			FullyApproved: wo.Approvals.IsFullyApproved(),
			ApprovedAt:    uow.now,
		},
	})
	if wo.Status != old {
		if err := uow.recordWorkOrderStatus(ctx, wo, old, "approved on both tracks"); err != nil {
			return nil, err
		}
	}
	return wo, nil
}

// AssignTechnician sets or replaces the technician responsible for the work.
func (l WorkOrderLifecycle) AssignTechnician(ctx context.Context, uow *unitOfWork, workOrderID, technicianID string) (*domain.WorkOrder, error) {
	if !uow.actor.Role.IsPrivileged() {
		return nil, apperrors.NewForbidden("only managers can assign technicians")
	}
	wo, err := l.lock(ctx, uow, workOrderID)
	if err != nil {
		return nil, err
	}
	if wo.Status.IsFinished() {
		return nil, apperrors.NewInvalidState("work order is already finished", map[string]any{
			"work_order_id": wo.ID,
			"status":        wo.Status,
		})
	}
	tech, err := uow.repos.Users.GetByID(ctx, technicianID)
	if err != nil {
		return nil, notFoundOr(err, "user", "user_id", technicianID)
	}
	if tech.Role != domain.RoleTechnician || !tech.Active {
		return nil, apperrors.NewValidationError("assignee must be an active technician", map[string]any{
			"user_id": tech.ID,
			"role":    tech.Role,
		})
	}

	wo.AssignedToID = &tech.ID
	if err := uow.repos.WorkOrders.Update(ctx, wo); err != nil {
		return nil, err
	}
	uow.emit(events.Event{
		Type:        events.EventWorkOrderAssigned,
		TicketID:    derefString(wo.TicketID),
		WorkOrderID: wo.ID,
		Payload:     events.WorkOrderAssignedPayload{TechnicianID: tech.ID},
	})
	return wo, nil
}

// Start moves an approved work order into progress.
func (l WorkOrderLifecycle) Start(ctx context.Context, uow *unitOfWork, workOrderID string) (*domain.WorkOrder, error) {
	wo, err := l.lock(ctx, uow, workOrderID)
	if err != nil {
		return nil, err
	}
	if wo.Status != domain.WorkOrderStatusOpen {
		return nil, apperrors.NewInvalidState("work order must be open to start", map[string]any{
			"work_order_id": wo.ID,
			"status":        wo.Status,
		})
	}
	if !domain.CanExecuteWork(uow.actor, wo) {
		return nil, apperrors.NewForbidden("only the assigned technician or a manager can start this work order")
	}

	startedAt := uow.now
	wo.Record.ActualStartAt = &startedAt
	if err := l.transition(ctx, uow, wo, domain.WorkOrderStatusInProgress); err != nil {
		return nil, err
	}
	return wo, nil
}

// Complete records the outcome of the work: status, parts consumed with their
// ledger entries, and photos. Every referenced part is resolved before the
// first write.
func (l WorkOrderLifecycle) Complete(ctx context.Context, uow *unitOfWork, workOrderID string, data CompletionData) (*domain.WorkOrder, error) {
	wo, err := l.lock(ctx, uow, workOrderID)
	if err != nil {
		return nil, err
	}
	if wo.Status != domain.WorkOrderStatusInProgress {
		return nil, apperrors.NewInvalidState("work order must be in progress to complete", map[string]any{
			"work_order_id": wo.ID,
			"status":        wo.Status,
		})
	}
	if !domain.CanExecuteWork(uow.actor, wo) {
		return nil, apperrors.NewForbidden("only the assigned technician or a manager can complete this work order")
	}
	for i, photo := range data.Photos {
		if strings.TrimSpace(photo.StorageKey) == "" {
			return nil, apperrors.NewValidationError("photo storage key is required", map[string]any{"index": i})
		}
	}

	usages := consolidateParts(data.PartsUsed)
	parts := make([]*domain.Part, 0, len(usages))
	for _, usage := range usages {
		part, err := uow.repos.Parts.GetByID(ctx, usage.PartID)
		if err != nil {
			return nil, notFoundOr(err, "part", "part_id", usage.PartID)
		}
		parts = append(parts, part)
	}

	completedAt := uow.now
	wo.Record.RootCause = data.RootCause
	wo.Record.ActionTaken = data.ActionTaken
	wo.Record.NextOSRecommendation = data.NextOSRecommendation
	wo.Record.CompletedAt = &completedAt
	if err := l.transition(ctx, uow, wo, domain.WorkOrderStatusCompleted); err != nil {
		return nil, err
	}

	woRef := wo.ID
	for i, usage := range usages {
		line := domain.WorkOrderPart{WorkOrderID: wo.ID, PartID: usage.PartID, QuantityUsed: usage.QuantityUsed}
		if err := uow.repos.WorkOrders.AddPart(ctx, &line); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, apperrors.NewConflict("part already recorded on work order", map[string]any{"part_id": usage.PartID})
			}
			return nil, err
		}
		if _, err := l.ledger.Deduct(ctx, uow, parts[i], usage.QuantityUsed, &woRef); err != nil {
			return nil, err
		}
		wo.Parts = append(wo.Parts, line)
	}

	for _, input := range data.Photos {
		photo := &domain.WorkOrderPhoto{
			WorkOrderID:  wo.ID,
			StorageKey:   input.StorageKey,
			FileName:     input.FileName,
			MimeType:     input.MimeType,
			SizeBytes:    input.SizeBytes,
			Description:  input.Description,
			UploadedByID: uow.actor.ID,
		}
		if err := uow.repos.Photos.Create(ctx, photo); err != nil {
			return nil, err
		}
		wo.Photos = append(wo.Photos, *photo)
	}
	return wo, nil
}

func (WorkOrderLifecycle) lock(ctx context.Context, uow *unitOfWork, workOrderID string) (*domain.WorkOrder, error) {
	wo, err := uow.repos.WorkOrders.GetByIDForUpdate(ctx, workOrderID)
	if err != nil {
		return nil, notFoundOr(err, "work order", "work_order_id", workOrderID)
	}
	return wo, nil
}

func (WorkOrderLifecycle) transition(ctx context.Context, uow *unitOfWork, wo *domain.WorkOrder, next domain.WorkOrderStatus) error {
	old := wo.Status
	if !old.CanTransitionTo(next) {
		return apperrors.NewInvalidState("invalid work order transition", map[string]any{
			"work_order_id": wo.ID,
			"from":          old,
			"to":            next,
		})
	}
	wo.Status = next
	if err := uow.repos.WorkOrders.Update(ctx, wo); err != nil {
		return err
	}
	return uow.recordWorkOrderStatus(ctx, wo, old, "")
}

// consolidateParts drops blank and non-positive lines, sums repeated parts and
// orders the result by part id so concurrent completions lock rows in the same order.
func consolidateParts(lines []PartUsage) []PartUsage {
	totals := make(map[string]int, len(lines))
	for _, line := range lines {
		id := strings.TrimSpace(line.PartID)
		if id == "" || line.QuantityUsed <= 0 {
			continue
		}
		totals[id] += line.QuantityUsed
	}
	out := make([]PartUsage, 0, len(totals))
	for id, qty := range totals {
		out = append(out, PartUsage{PartID: id, QuantityUsed: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PartID < out[j].PartID })
	return out
}

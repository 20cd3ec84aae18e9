package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

const workOrderColumns = `id, title, description, asset_id, assigned_to_id, ticket_id, status, priority,
        maintenance_approver_id, maintenance_approved_at, production_approver_id, production_approved_at,
        root_cause, action_taken, next_os_recommendation, actual_start_at, completed_at,
        created_at, updated_at`

type workOrderRepository struct {
	db DBTX
}

// NewWorkOrderRepository instantiates repository.
func NewWorkOrderRepository(db DBTX) WorkOrderRepository {
	return &workOrderRepository{db: db}
}

func (r *workOrderRepository) Create(ctx context.Context, wo *domain.WorkOrder) error {
	const query = `
        INSERT INTO work_orders (title, description, asset_id, assigned_to_id, ticket_id, status, priority)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		wo.Title,
		wo.Description,
		wo.AssetID,
		wo.AssignedToID,
		wo.TicketID,
		wo.Status,
		wo.Priority,
	).Scan(&wo.ID, &wo.CreatedAt, &wo.UpdatedAt)
	return mapError(err)
}

func (r *workOrderRepository) Update(ctx context.Context, wo *domain.WorkOrder) error {
	const query = `
        UPDATE work_orders SET assigned_to_id=$1, status=$2, priority=$3,
            maintenance_approver_id=$4, maintenance_approved_at=$5,
            production_approver_id=$6, production_approved_at=$7,
            root_cause=$8, action_taken=$9, next_os_recommendation=$10,
            actual_start_at=$11, completed_at=$12, updated_at=NOW()
        WHERE id=$13
        RETURNING updated_at`
	mApprover, mAt := approvalColumns(wo.Approvals.Maintenance)
	pApprover, pAt := approvalColumns(wo.Approvals.Production)
	err := r.db.QueryRow(ctx, query,
		wo.AssignedToID,
		wo.Status,
		wo.Priority,
		mApprover, mAt,
		pApprover, pAt,
		wo.Record.RootCause,
		wo.Record.ActionTaken,
		wo.Record.NextOSRecommendation,
		wo.Record.ActualStartAt,
		wo.Record.CompletedAt,
		wo.ID,
	).Scan(&wo.UpdatedAt)
	return mapError(err)
}

func (r *workOrderRepository) GetByID(ctx context.Context, id string) (*domain.WorkOrder, error) {
	return r.fetchSingle(ctx, `SELECT `+workOrderColumns+` FROM work_orders WHERE id=$1`, id)
}

func (r *workOrderRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.WorkOrder, error) {
	return r.fetchSingle(ctx, `SELECT `+workOrderColumns+` FROM work_orders WHERE id=$1 FOR UPDATE`, id)
}

func (r *workOrderRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.WorkOrder, error) {
	return r.fetchSingle(ctx, `SELECT `+workOrderColumns+` FROM work_orders WHERE ticket_id=$1`, ticketID)
}

func (r *workOrderRepository) AddPart(ctx context.Context, part *domain.WorkOrderPart) error {
	const query = `
        INSERT INTO work_order_parts (work_order_id, part_id, quantity_used)
        VALUES ($1,$2,$3)`
	_, err := r.db.Exec(ctx, query, part.WorkOrderID, part.PartID, part.QuantityUsed)
	return mapError(err)
}

func (r *workOrderRepository) ListParts(ctx context.Context, workOrderID string) ([]domain.WorkOrderPart, error) {
	const query = `
        SELECT work_order_id, part_id, quantity_used
        FROM work_order_parts WHERE work_order_id=$1 ORDER BY part_id`
	rows, err := r.db.Query(ctx, query, workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkOrderPart
	for rows.Next() {
		var part domain.WorkOrderPart
		if err := rows.Scan(&part.WorkOrderID, &part.PartID, &part.QuantityUsed); err != nil {
			return nil, err
		}
		result = append(result, part)
	}
	return result, rows.Err()
}

func (r *workOrderRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.WorkOrder, error) {
	wo, err := scanWorkOrder(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapError(err)
	}
	return wo, nil
}

func scanWorkOrder(row pgx.Row) (*domain.WorkOrder, error) {
	var (
		wo                   domain.WorkOrder
		mApprover, pApprover *string
		mAt, pAt             *time.Time
	)
	if err := row.Scan(
		&wo.ID,
		&wo.Title,
		&wo.Description,
		&wo.AssetID,
		&wo.AssignedToID,
		&wo.TicketID,
		&wo.Status,
		&wo.Priority,
		&mApprover,
		&mAt,
		&pApprover,
		&pAt,
		&wo.Record.RootCause,
		&wo.Record.ActionTaken,
		&wo.Record.NextOSRecommendation,
		&wo.Record.ActualStartAt,
		&wo.Record.CompletedAt,
		&wo.CreatedAt,
		&wo.UpdatedAt,
	); err != nil {
		return nil, err
	}
	wo.Approvals.Maintenance = approvalFromColumns(mApprover, mAt)
	wo.Approvals.Production = approvalFromColumns(pApprover, pAt)
	return &wo, nil
}

func approvalColumns(a *domain.Approval) (*string, *time.Time) {
	if a == nil {
		return nil, nil
	}
	approver, at := a.ApproverID, a.ApprovedAt
	return &approver, &at
}

// A track counts as approved only when its timestamp is set.
func approvalFromColumns(approver *string, at *time.Time) *domain.Approval {
	if at == nil {
		return nil
	}
	approval := &domain.Approval{ApprovedAt: *at}
	if approver != nil {
		approval.ApproverID = *approver
	}
	return approval
}

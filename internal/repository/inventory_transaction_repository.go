package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// inventoryTransactionRepository deliberately has no update or delete.
type inventoryTransactionRepository struct {
	db DBTX
}

// NewInventoryTransactionRepository builds repository.
func NewInventoryTransactionRepository(db DBTX) InventoryTransactionRepository {
	return &inventoryTransactionRepository{db: db}
}

func (r *inventoryTransactionRepository) Append(ctx context.Context, txn *domain.InventoryTransaction) error {
	const query = `
        INSERT INTO inventory_transactions (part_id, quantity_changed, transaction_type, user_id, work_order_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		txn.PartID,
		txn.QuantityChanged,
		txn.Type,
		txn.UserID,
		txn.WorkOrderID,
	).Scan(&txn.ID, &txn.CreatedAt)
	return mapError(err)
}

func (r *inventoryTransactionRepository) ListByPart(ctx context.Context, partID string) ([]domain.InventoryTransaction, error) {
	const query = `
        SELECT id, part_id, quantity_changed, transaction_type, user_id, work_order_id, created_at
        FROM inventory_transactions WHERE part_id=$1 ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, partID)
}

func (r *inventoryTransactionRepository) ListByWorkOrder(ctx context.Context, workOrderID string) ([]domain.InventoryTransaction, error) {
	const query = `
        SELECT id, part_id, quantity_changed, transaction_type, user_id, work_order_id, created_at
        FROM inventory_transactions WHERE work_order_id=$1 ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, workOrderID)
}

func (r *inventoryTransactionRepository) list(ctx context.Context, query string, arg any) ([]domain.InventoryTransaction, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInventoryTransactions(rows)
}

func scanInventoryTransactions(rows pgx.Rows) ([]domain.InventoryTransaction, error) {
	var result []domain.InventoryTransaction
	for rows.Next() {
		var txn domain.InventoryTransaction
		if err := rows.Scan(
			&txn.ID,
			&txn.PartID,
			&txn.QuantityChanged,
			&txn.Type,
			&txn.UserID,
			&txn.WorkOrderID,
			&txn.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, txn)
	}
	return result, rows.Err()
}

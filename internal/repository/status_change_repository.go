package repository

import (
	"context"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

type statusChangeRepository struct {
	db DBTX
}

// NewStatusChangeRepository builds repository.
func NewStatusChangeRepository(db DBTX) StatusChangeRepository {
	return &statusChangeRepository{db: db}
}

func (r *statusChangeRepository) Create(ctx context.Context, change *domain.StatusChange) error {
	const query = `
        INSERT INTO status_changes (entity_type, entity_id, actor_id, old_status, new_status, comment)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		change.EntityType,
		change.EntityID,
		change.ActorID,
		change.OldStatus,
		change.NewStatus,
		change.Comment,
	).Scan(&change.ID, &change.CreatedAt)
	return mapError(err)
}

func (r *statusChangeRepository) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.StatusChange, error) {
	const query = `
        SELECT id, entity_type, entity_id, actor_id, old_status, new_status, comment, created_at
        FROM status_changes WHERE entity_type=$1 AND entity_id=$2 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusChange
	for rows.Next() {
		var change domain.StatusChange
		if err := rows.Scan(
			&change.ID,
			&change.EntityType,
			&change.EntityID,
			&change.ActorID,
			&change.OldStatus,
			&change.NewStatus,
			&change.Comment,
			&change.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, change)
	}
	return result, rows.Err()
}

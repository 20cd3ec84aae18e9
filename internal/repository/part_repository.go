package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

type partRepository struct {
	db DBTX
}

// NewPartRepository constructs repository.
func NewPartRepository(db DBTX) PartRepository {
	return &partRepository{db: db}
}

func (r *partRepository) Create(ctx context.Context, part *domain.Part) error {
	const query = `
        INSERT INTO parts (name, part_number, quantity_on_hand)
        VALUES ($1,$2,$3)
        RETURNING id`
	return mapError(r.db.QueryRow(ctx, query, part.Name, part.PartNumber, part.QuantityOnHand).Scan(&part.ID))
}

func (r *partRepository) GetByID(ctx context.Context, id string) (*domain.Part, error) {
	const query = `SELECT id, name, part_number, quantity_on_hand FROM parts WHERE id=$1`
	var part domain.Part
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&part.ID,
		&part.Name,
		&part.PartNumber,
		&part.QuantityOnHand,
	); err != nil {
		return nil, mapError(err)
	}
	return &part, nil
}

// Decrement evaluates the subtraction in SQL so concurrent writers serialize
// on the row lock instead of overwriting each other's reads.
func (r *partRepository) Decrement(ctx context.Context, id string, quantity int) (int, error) {
	const query = `
        UPDATE parts SET quantity_on_hand = quantity_on_hand - $1
        WHERE id=$2 AND quantity_on_hand >= $1
        RETURNING quantity_on_hand`
	var remaining int
	err := mapError(r.db.QueryRow(ctx, query, quantity, id).Scan(&remaining))
	if errors.Is(err, ErrNotFound) {
		// The part exists (callers resolve it first), so the guard rejected it.
		return 0, ErrInsufficientStock
	}
	return remaining, err
}

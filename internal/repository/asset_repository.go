package repository

import (
	"context"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

type assetRepository struct {
	db DBTX
}

// NewAssetRepository constructs repository.
func NewAssetRepository(db DBTX) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	const query = `
        INSERT INTO assets (name, asset_tag, criticality)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, asset.Name, asset.AssetTag, asset.Criticality).
		Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)
	return mapError(err)
}

func (r *assetRepository) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	const query = `
        SELECT id, name, asset_tag, criticality, created_at, updated_at
        FROM assets WHERE id=$1`
	var asset domain.Asset
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&asset.ID,
		&asset.Name,
		&asset.AssetTag,
		&asset.Criticality,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &asset, nil
}

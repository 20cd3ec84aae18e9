package repository

import (
	"context"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

type workOrderPhotoRepository struct {
	db DBTX
}

// NewWorkOrderPhotoRepository constructs repository.
func NewWorkOrderPhotoRepository(db DBTX) WorkOrderPhotoRepository {
	return &workOrderPhotoRepository{db: db}
}

func (r *workOrderPhotoRepository) Create(ctx context.Context, photo *domain.WorkOrderPhoto) error {
	const query = `
        INSERT INTO work_order_photos (work_order_id, storage_key, file_name, mime_type, size_bytes, description, uploaded_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, uploaded_at`
	err := r.db.QueryRow(ctx, query,
		photo.WorkOrderID,
		photo.StorageKey,
		photo.FileName,
		photo.MimeType,
		photo.SizeBytes,
		photo.Description,
		photo.UploadedByID,
	).Scan(&photo.ID, &photo.UploadedAt)
	return mapError(err)
}

func (r *workOrderPhotoRepository) ListByWorkOrder(ctx context.Context, workOrderID string) ([]domain.WorkOrderPhoto, error) {
	const query = `
        SELECT id, work_order_id, storage_key, file_name, mime_type, size_bytes, description, uploaded_by_id, uploaded_at
        FROM work_order_photos WHERE work_order_id=$1 ORDER BY uploaded_at DESC`
	rows, err := r.db.Query(ctx, query, workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkOrderPhoto
	for rows.Next() {
		var photo domain.WorkOrderPhoto
		if err := rows.Scan(
			&photo.ID,
			&photo.WorkOrderID,
			&photo.StorageKey,
			&photo.FileName,
			&photo.MimeType,
			&photo.SizeBytes,
			&photo.Description,
			&photo.UploadedByID,
			&photo.UploadedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, photo)
	}
	return result, rows.Err()
}

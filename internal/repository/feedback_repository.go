package repository

import (
	"context"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

type feedbackRepository struct {
	db DBTX
}

// NewFeedbackRepository constructs repository.
func NewFeedbackRepository(db DBTX) FeedbackRepository {
	return &feedbackRepository{db: db}
}

// Create relies on the unique index on ticket_id; a second row yields ErrDuplicate.
func (r *feedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	const query = `
        INSERT INTO feedback (ticket_id, user_id, rating, comments)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		feedback.TicketID,
		feedback.UserID,
		feedback.Rating,
		feedback.Comments,
	).Scan(&feedback.ID, &feedback.CreatedAt)
	return mapError(err)
}

func (r *feedbackRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Feedback, error) {
	const query = `
        SELECT id, ticket_id, user_id, rating, comments, created_at
        FROM feedback WHERE ticket_id=$1`
	var feedback domain.Feedback
	if err := r.db.QueryRow(ctx, query, ticketID).Scan(
		&feedback.ID,
		&feedback.TicketID,
		&feedback.UserID,
		&feedback.Rating,
		&feedback.Comments,
		&feedback.CreatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &feedback, nil
}

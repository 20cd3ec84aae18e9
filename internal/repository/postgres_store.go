package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore runs repositories against a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps the pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Repositories returns pool-bound repositories.
func (s *PostgresStore) Repositories() Repositories {
	return newRepositories(s.pool)
}

// WithinTx runs fn in a READ COMMITTED transaction. Lifecycle code takes
// explicit row locks (FOR UPDATE, guarded UPDATE) on every row it transitions.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, newRepositories(tx))
	})
}

func newRepositories(db DBTX) Repositories {
	return Repositories{
		Users:         NewUserRepository(db),
		Assets:        NewAssetRepository(db),
		Tickets:       NewTicketRepository(db),
		WorkOrders:    NewWorkOrderRepository(db),
		Parts:         NewPartRepository(db),
		Inventory:     NewInventoryTransactionRepository(db),
		Photos:        NewWorkOrderPhotoRepository(db),
		Feedback:      NewFeedbackRepository(db),
		StatusChanges: NewStatusChangeRepository(db),
	}
}

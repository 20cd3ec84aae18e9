package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness rule.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInsufficientStock is returned when a decrement would drive stock below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so repositories run
// unchanged inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository resolves actors.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// AssetRepository gives read access to equipment records.
type AssetRepository interface {
	Create(ctx context.Context, asset *domain.Asset) error
	GetByID(ctx context.Context, id string) (*domain.Asset, error)
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetByIDForUpdate loads the ticket and holds a row lock until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, ticket *domain.Ticket) error
}

// WorkOrderRepository encapsulates work order persistence, including its parts.
type WorkOrderRepository interface {
	Create(ctx context.Context, wo *domain.WorkOrder) error
	GetByID(ctx context.Context, id string) (*domain.WorkOrder, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.WorkOrder, error)
	GetByTicketID(ctx context.Context, ticketID string) (*domain.WorkOrder, error)
	Update(ctx context.Context, wo *domain.WorkOrder) error
	AddPart(ctx context.Context, part *domain.WorkOrderPart) error
	ListParts(ctx context.Context, workOrderID string) ([]domain.WorkOrderPart, error)
}

// PartRepository reads parts and applies atomic stock decrements.
type PartRepository interface {
	Create(ctx context.Context, part *domain.Part) error
	GetByID(ctx context.Context, id string) (*domain.Part, error)
	// Decrement subtracts quantity from the on-hand value current at execution
	// time and returns the new value. It fails with ErrInsufficientStock rather
	// than going negative.
	Decrement(ctx context.Context, id string, quantity int) (int, error)
}

// InventoryTransactionRepository is the append-only stock ledger.
type InventoryTransactionRepository interface {
	Append(ctx context.Context, txn *domain.InventoryTransaction) error
	ListByPart(ctx context.Context, partID string) ([]domain.InventoryTransaction, error)
	ListByWorkOrder(ctx context.Context, workOrderID string) ([]domain.InventoryTransaction, error)
}

// WorkOrderPhotoRepository persists photo references.
type WorkOrderPhotoRepository interface {
	Create(ctx context.Context, photo *domain.WorkOrderPhoto) error
	ListByWorkOrder(ctx context.Context, workOrderID string) ([]domain.WorkOrderPhoto, error)
}

// FeedbackRepository persists ticket feedback.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.Feedback) error
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Feedback, error)
}

// StatusChangeRepository stores audit entries.
type StatusChangeRepository interface {
	Create(ctx context.Context, change *domain.StatusChange) error
	ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.StatusChange, error)
}

// Repositories bundles every repository bound to the same connection or transaction.
type Repositories struct {
	Users         UserRepository
	Assets        AssetRepository
	Tickets       TicketRepository
	WorkOrders    WorkOrderRepository
	Parts         PartRepository
	Inventory     InventoryTransactionRepository
	Photos        WorkOrderPhotoRepository
	Feedback      FeedbackRepository
	StatusChanges StatusChangeRepository
}

// Store hands out repositories and runs units of work atomically.
type Store interface {
	// Repositories returns repositories outside any transaction, for reads.
	Repositories() Repositories
	// WithinTx runs fn in one transaction. Returning an error rolls everything back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicate
		case "22P02":
			// malformed uuid: no row can match it
			return ErrNotFound
		}
	}
	return err
}

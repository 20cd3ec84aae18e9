package domain

import "time"

// Part is a stocked component consumed by maintenance work.
type Part struct {
	ID             string
	Name           string
	PartNumber     *string
	QuantityOnHand int
}

// InventoryTransactionType classifies a stock movement.
type InventoryTransactionType string

const (
	InventoryTransactionDeduction InventoryTransactionType = "deduction"
	InventoryTransactionAddition  InventoryTransactionType = "addition"
)

// InventoryTransaction is an immutable ledger entry for a stock change.
type InventoryTransaction struct {
	ID              string
	PartID          string
	QuantityChanged int
	Type            InventoryTransactionType
	UserID          string
	WorkOrderID     *string
	CreatedAt       time.Time
}

package domain

import "time"

// Asset is a piece of equipment that tickets and work orders refer to.
type Asset struct {
	ID          string
	Name        string
	AssetTag    *string
	Criticality int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

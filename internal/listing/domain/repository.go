package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shegerhomes/gebeya/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	CompanyID   snowflake.ID
	Status      PropertyStatus
	ListingType ListingType
	Cursor      *pagination.Cursor
	Limit       int
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, property *Property) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Property, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Property, error)

	// MarkActive stamps the consumed grant while the row is still inactive.
	// Returns false when the precondition did not hold.
	MarkActive(ctx context.Context, db *gorm.DB, id, grantID snowflake.ID, now time.Time) (bool, error)

	// MarkInactive moves an active row to the target status and clears the
	// grant stamp. Returns false when the row was not active.
	MarkInactive(ctx context.Context, db *gorm.DB, id snowflake.ID, target PropertyStatus, now time.Time) (bool, error)

	// MarkRemoved tombstones the row from any non-removed state.
	MarkRemoved(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)

	Update(ctx context.Context, db *gorm.DB, property *Property) error
}

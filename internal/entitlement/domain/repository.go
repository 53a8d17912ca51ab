package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, grant *EntitlementGrant) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*EntitlementGrant, error)
	FindByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*EntitlementGrant, error)
	ListByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]EntitlementGrant, error)

	// ListConsumable returns active grants with free capacity ordered by
	// expires_at ascending, so the grant closest to lapsing is drained first.
	ListConsumable(ctx context.Context, db *gorm.DB, companyID snowflake.ID, now time.Time) ([]EntitlementGrant, error)

	// TryConsume increments capacity_used by one iff the grant still has
	// free capacity. Returns false when the guarded update matched no row.
	TryConsume(ctx context.Context, db *gorm.DB, grantID snowflake.ID, now time.Time) (bool, error)

	// Release decrements capacity_used by one, floored at zero. Returns
	// false when the grant was already at zero.
	Release(ctx context.Context, db *gorm.DB, grantID snowflake.ID, now time.Time) (bool, error)

	Summarize(ctx context.Context, db *gorm.DB, companyID snowflake.ID, now time.Time) (*SummaryRow, error)
}

// SummaryRow is the aggregate over a company's active grants.
type SummaryRow struct {
	GrantCount    int64
	TotalCapacity int64
	UsedCapacity  int64
	NearestExpiry *time.Time
}

// Package domain contains persistence models for the entitlement ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// EntitlementGrant is one purchased package instance. The package fields are
// a snapshot taken at credit time; later catalog edits never reach a grant.
// Invariant: 0 <= capacity_used <= capacity_total. capacity_used moves up
// only when a listing is activated and down only when one is permanently
// removed. A grant is active iff now < expires_at; capacity consumed against
// a grant that has since expired stays consumed (already-placed listings are
// grandfathered).
type EntitlementGrant struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	CompanyID     snowflake.ID `gorm:"not null;index:ix_entitlement_grants_company"`
	PackageID     snowflake.ID `gorm:"not null"`
	PackageName   string       `gorm:"type:text;not null"`
	Tier          string       `gorm:"type:text;not null"`
	PriceUSD      int64        `gorm:"not null"`
	PriceETB      int64        `gorm:"not null"`
	DurationDays  int          `gorm:"not null"`
	CapacityTotal int          `gorm:"not null"`
	CapacityUsed  int          `gorm:"not null;default:0"`
	PaymentMethod string       `gorm:"type:text;not null"`
	TransactionID string       `gorm:"type:text;not null;uniqueIndex:ux_entitlement_grants_txn"`
	PurchasedAt   time.Time    `gorm:"not null"`
	ExpiresAt     time.Time    `gorm:"not null;index:ix_entitlement_grants_expiry"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (EntitlementGrant) TableName() string { return "entitlement_grants" }

// Active reports whether the grant still counts at the given instant.
func (g EntitlementGrant) Active(now time.Time) bool {
	return now.Before(g.ExpiresAt)
}

// PackageSnapshot is the definition state copied onto a grant at credit time.
type PackageSnapshot struct {
	PackageID    snowflake.ID
	Name         string
	Tier         string
	PriceUSD     int64
	PriceETB     int64
	DurationDays int
	Capacity     int
}

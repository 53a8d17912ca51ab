// Package domain contains persistence models for the package catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// PackageTier is the commercial tier of a package definition.
type PackageTier string

const (
	TierStandard PackageTier = "standard"
	TierPremium  PackageTier = "premium"
)

// PackageDefinition is a purchasable listing package. Both prices are
// mandatory and independently set; neither is derived from the other at read
// time. Grants copy the definition at purchase time, so edits here never
// change what an existing purchase entitles.
type PackageDefinition struct {
	ID               snowflake.ID      `gorm:"primaryKey"`
	Code             string            `gorm:"type:text;not null;uniqueIndex:ux_package_definitions_code"`
	Name             string            `gorm:"type:text;not null"`
	Tier             PackageTier       `gorm:"type:text;not null"`
	PriceUSD         int64             `gorm:"not null"` // cents
	PriceETB         int64             `gorm:"not null"` // santim
	DurationDays     int               `gorm:"not null"`
	PropertyCapacity int               `gorm:"not null"`
	Description      *string           `gorm:"type:text"`
	Active           bool              `gorm:"not null;default:true"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PackageDefinition) TableName() string { return "package_definitions" }

// ValidTier reports whether the raw tier value is recognized.
func ValidTier(raw PackageTier) bool {
	switch raw {
	case TierStandard, TierPremium:
		return true
	default:
		return false
	}
}

// Package domain contains persistence models for property listings.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PropertyStatus is the lifecycle state of a listing.
type PropertyStatus string

const (
	StatusDraft   PropertyStatus = "draft"
	StatusActive  PropertyStatus = "active"
	StatusRemoved PropertyStatus = "removed"
)

// ListingType distinguishes sale listings from rentals.
type ListingType string

const (
	TypeSale ListingType = "sale"
	TypeRent ListingType = "rent"
)

// Property is a company-owned listing. ConsumedGrantID records which
// entitlement grant currently funds the active state; it is set exactly when
// status is active and cleared on deactivation so the unit can be released
// back to that same grant.
type Property struct {
	ID              snowflake.ID   `gorm:"primaryKey"`
	CompanyID       snowflake.ID   `gorm:"not null;index:ix_properties_company"`
	Title           string         `gorm:"type:text;not null"`
	Description     *string        `gorm:"type:text"`
	ListingType     ListingType    `gorm:"type:text;not null"`
	Price           int64          `gorm:"not null"` // minor units
	Currency        string         `gorm:"type:text;not null"`
	Location        string         `gorm:"type:text;not null"`
	Status          PropertyStatus `gorm:"type:text;not null;default:'draft';index:ix_properties_status"`
	ConsumedGrantID *snowflake.ID  `gorm:""`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Property) TableName() string { return "properties" }

// ValidListingType reports whether the raw listing type is recognized.
func ValidListingType(raw ListingType) bool {
	switch raw {
	case TypeSale, TypeRent:
		return true
	default:
		return false
	}
}

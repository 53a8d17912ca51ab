package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Credit records a purchased package as a new grant. Idempotent on
	// transactionID: a replay returns the grant created the first time.
	Credit(ctx context.Context, companyID snowflake.ID, snapshot PackageSnapshot, paymentMethod, transactionID string) (*GrantResponse, error)

	// ConsumeCapacity takes one capacity unit from the active grant with
	// the earliest expiry that still has room and returns its id.
	ConsumeCapacity(ctx context.Context, companyID snowflake.ID) (snowflake.ID, error)

	// ReleaseCapacity returns one capacity unit to the grant. A double
	// release never drives the count negative.
	ReleaseCapacity(ctx context.Context, grantID snowflake.ID) error

	ActiveSummary(ctx context.Context, companyID snowflake.ID) (*Summary, error)
	ListGrants(ctx context.Context, companyID snowflake.ID) ([]GrantResponse, error)
}

type Summary struct {
	CompanyID         string     `json:"company_id"`
	ActiveGrants      int64      `json:"active_grants"`
	TotalCapacity     int64      `json:"total_capacity"`
	UsedCapacity      int64      `json:"used_capacity"`
	AvailableCapacity int64      `json:"available_capacity"`
	NearestExpiry     *time.Time `json:"nearest_expiry,omitempty"`
}

type GrantResponse struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"company_id"`
	PackageID     string    `json:"package_id"`
	PackageName   string    `json:"package_name"`
	Tier          string    `json:"tier"`
	PriceUSD      int64     `json:"price_usd"`
	PriceETB      int64     `json:"price_etb"`
	DurationDays  int       `json:"duration_days"`
	CapacityTotal int       `json:"capacity_total"`
	CapacityUsed  int       `json:"capacity_used"`
	PaymentMethod string    `json:"payment_method"`
	TransactionID string    `json:"transaction_id"`
	PurchasedAt   time.Time `json:"purchased_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	Active        bool      `json:"active"`
}

var (
	ErrGrantNotFound       = errors.New("grant_not_found")
	ErrNoCapacityAvailable = errors.New("no_capacity_available")
	ErrInvalidCompany      = errors.New("invalid_company")
	ErrInvalidSnapshot     = errors.New("invalid_snapshot")
	ErrInvalidTransaction  = errors.New("invalid_transaction")
)

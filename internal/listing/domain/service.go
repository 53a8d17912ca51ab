package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shegerhomes/gebeya/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, companyID snowflake.ID, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, *pagination.PageInfo, error)
	Update(ctx context.Context, companyID snowflake.ID, req UpdateRequest) (*Response, error)

	// Activate publishes a draft listing, consuming one capacity unit from
	// the owner's entitlement ledger.
	Activate(ctx context.Context, companyID snowflake.ID, id string) (*Response, error)

	// Deactivate unpublishes an active listing and returns its capacity
	// unit to the grant that funded it.
	Deactivate(ctx context.Context, companyID snowflake.ID, id string) (*Response, error)

	// Remove tombstones a listing, releasing capacity when it was active.
	Remove(ctx context.Context, companyID snowflake.ID, id string) error
}

type CreateRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	ListingType string  `json:"listing_type"`
	Price       int64   `json:"price"`
	Currency    string  `json:"currency"`
	Location    string  `json:"location"`
}

type UpdateRequest struct {
	ID          string  `json:"-"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Currency    *string `json:"currency"`
	Location    *string `json:"location"`
}

type ListRequest struct {
	CompanyID   snowflake.ID
	Status      string
	ListingType string
	Pagination  pagination.Pagination
}

type Response struct {
	ID              string    `json:"id"`
	CompanyID       string    `json:"company_id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description,omitempty"`
	ListingType     string    `json:"listing_type"`
	Price           int64     `json:"price"`
	Currency        string    `json:"currency"`
	Location        string    `json:"location"`
	Status          string    `json:"status"`
	ConsumedGrantID *string   `json:"consumed_grant_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

var (
	ErrNotFound           = errors.New("not_found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidTitle       = errors.New("invalid_title")
	ErrInvalidListingType = errors.New("invalid_listing_type")
	ErrInvalidPrice       = errors.New("invalid_price")
	ErrInvalidLocation    = errors.New("invalid_location")
	ErrInvalidStatus      = errors.New("invalid_status")
	ErrInvalidTransition  = errors.New("invalid_transition")
)

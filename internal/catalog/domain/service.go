package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Archive(ctx context.Context, id string) (*Response, error)
}

type ListRequest struct {
	Tier   string
	Active *bool
}

type CreateRequest struct {
	Code             string         `json:"code"`
	Name             string         `json:"name"`
	Tier             string         `json:"tier"`
	PriceUSD         int64          `json:"price_usd"`
	PriceETB         int64          `json:"price_etb"`
	DurationDays     int            `json:"duration_days"`
	PropertyCapacity int            `json:"property_capacity"`
	Description      *string        `json:"description"`
	Metadata         map[string]any `json:"metadata"`
}

// UpdateRequest applies prospective-only edits. Fields left nil are kept.
// Existing grants are never touched; they carry their own snapshot.
type UpdateRequest struct {
	ID           string         `json:"-"`
	Name         *string        `json:"name"`
	PriceUSD     *int64         `json:"price_usd"`
	PriceETB     *int64         `json:"price_etb"`
	DurationDays *int           `json:"duration_days"`
	Capacity     *int           `json:"property_capacity"`
	Description  *string        `json:"description"`
	Active       *bool          `json:"active"`
	Metadata     map[string]any `json:"metadata"`
}

type Response struct {
	ID               string         `json:"id"`
	Code             string         `json:"code"`
	Name             string         `json:"name"`
	Tier             string         `json:"tier"`
	PriceUSD         int64          `json:"price_usd"`
	PriceETB         int64          `json:"price_etb"`
	DurationDays     int            `json:"duration_days"`
	PropertyCapacity int            `json:"property_capacity"`
	Description      *string        `json:"description,omitempty"`
	Active           bool           `json:"active"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

var (
	ErrNotFound        = errors.New("not_found")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidCode     = errors.New("invalid_code")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidTier     = errors.New("invalid_tier")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidDuration = errors.New("invalid_duration")
	ErrInvalidCapacity = errors.New("invalid_capacity")
)

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shegerhomes/gebeya/pkg/db/pagination"
)

type Service interface {
	// Create records a pending viewing request by a customer against an
	// active listing.
	Create(ctx context.Context, customerID snowflake.ID, req CreateRequest) (*Response, error)

	// SetStatus is the company-side decision on a pending request. Only
	// pending appointments move; a concurrent decision loses cleanly.
	SetStatus(ctx context.Context, companyID snowflake.ID, id, status string) (*Response, error)

	// Delete is the customer withdrawing a request, whatever its state.
	Delete(ctx context.Context, customerID snowflake.ID, id string) error

	ListByCompany(ctx context.Context, companyID snowflake.ID, req ListRequest) ([]Response, *pagination.PageInfo, error)
	ListByCustomer(ctx context.Context, customerID snowflake.ID, req ListRequest) ([]Response, *pagination.PageInfo, error)
}

type CreateRequest struct {
	PropertyID    string    `json:"property_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Message       *string   `json:"message"`
}

type ListRequest struct {
	Status     string
	PropertyID string
	Pagination pagination.Pagination
}

type Response struct {
	ID            string    `json:"id"`
	PropertyID    string    `json:"property_id"`
	CompanyID     string    `json:"company_id"`
	CustomerID    string    `json:"customer_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Message       *string   `json:"message,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

var (
	ErrNotFound          = errors.New("not_found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidProperty   = errors.New("invalid_property")
	ErrInvalidSchedule   = errors.New("invalid_schedule")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidTransition = errors.New("invalid_transition")
)

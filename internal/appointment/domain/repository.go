package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shegerhomes/gebeya/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	CompanyID  snowflake.ID
	CustomerID snowflake.ID
	PropertyID snowflake.ID
	Status     AppointmentStatus
	Cursor     *pagination.Cursor
	Limit      int
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, appointment *Appointment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Appointment, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Appointment, error)

	// Transition moves the row to target only while it is still pending.
	// Returns false when the precondition did not hold.
	Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, target AppointmentStatus, now time.Time) (bool, error)

	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}

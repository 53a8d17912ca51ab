// Package domain contains persistence models for viewing appointments.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// AppointmentStatus is the scheduling state of a viewing request.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is a customer's viewing request against a listed property.
// CompanyID is denormalized from the property at creation so company-side
// queries and authorization never join through properties.
type Appointment struct {
	ID            snowflake.ID      `gorm:"primaryKey"`
	PropertyID    snowflake.ID      `gorm:"not null;index:ix_appointments_property"`
	CompanyID     snowflake.ID      `gorm:"not null;index:ix_appointments_company"`
	CustomerID    snowflake.ID      `gorm:"not null;index:ix_appointments_customer"`
	ScheduledDate time.Time         `gorm:"not null"`
	Message       *string           `gorm:"type:text"`
	Status        AppointmentStatus `gorm:"type:text;not null;default:'pending'"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Appointment) TableName() string { return "appointments" }

// ValidTargetStatus reports whether a company may move a pending appointment
// to the given status.
func ValidTargetStatus(raw AppointmentStatus) bool {
	switch raw {
	case StatusConfirmed, StatusCancelled:
		return true
	default:
		return false
	}
}

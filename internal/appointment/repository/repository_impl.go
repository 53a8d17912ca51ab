package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shegerhomes/gebeya/internal/appointment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, appointment *domain.Appointment) error {
	return db.WithContext(ctx).Create(appointment).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Appointment, error) {
	var appointment domain.Appointment
	err := db.WithContext(ctx).Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Appointment, error) {
	query := db.WithContext(ctx).Model(&domain.Appointment{})

	if filter.CompanyID != 0 {
		query = query.Where("company_id = ?", filter.CompanyID)
	}
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.PropertyID != 0 {
		query = query.Where("property_id = ?", filter.PropertyID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Cursor != nil && filter.Cursor.ID != "" {
		query = query.Where("(created_at, id) < (?, ?)", filter.Cursor.CreatedAt, filter.Cursor.ID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit + 1)
	}

	var appointments []domain.Appointment
	if err := query.Order("created_at DESC, id DESC").Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

// Transition keeps the pending precondition inside the UPDATE so two racing
// decisions cannot both apply; the loser sees zero rows.
func (r *repo) Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, target domain.AppointmentStatus, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE appointments
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		target, now, id, domain.StatusPending,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM appointments WHERE id = ?`, id).Error
}

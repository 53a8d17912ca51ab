package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shegerhomes/gebeya/internal/listing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, property *domain.Property) error {
	return db.WithContext(ctx).Create(property).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Property, error) {
	var property domain.Property
	err := db.WithContext(ctx).Where("id = ?", id).First(&property).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &property, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Property, error) {
	query := db.WithContext(ctx).Model(&domain.Property{})

	if filter.CompanyID != 0 {
		query = query.Where("company_id = ?", filter.CompanyID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	} else {
		query = query.Where("status <> ?", domain.StatusRemoved)
	}
	if filter.ListingType != "" {
		query = query.Where("listing_type = ?", filter.ListingType)
	}
	if filter.Cursor != nil && filter.Cursor.ID != "" {
		query = query.Where("(created_at, id) < (?, ?)", filter.Cursor.CreatedAt, filter.Cursor.ID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit + 1)
	}

	var properties []domain.Property
	if err := query.Order("created_at DESC, id DESC").Find(&properties).Error; err != nil {
		return nil, err
	}
	return properties, nil
}

// MarkActive carries its status precondition inside the UPDATE so two racing
// activations cannot both stamp the row; the loser sees zero rows.
func (r *repo) MarkActive(ctx context.Context, db *gorm.DB, id, grantID snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE properties
		 SET status = ?, consumed_grant_id = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusActive, grantID, now, id, domain.StatusDraft,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) MarkInactive(ctx context.Context, db *gorm.DB, id snowflake.ID, target domain.PropertyStatus, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE properties
		 SET status = ?, consumed_grant_id = NULL, updated_at = ?
		 WHERE id = ? AND status = ?`,
		target, now, id, domain.StatusActive,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) MarkRemoved(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE properties
		 SET status = ?, consumed_grant_id = NULL, updated_at = ?
		 WHERE id = ? AND status <> ?`,
		domain.StatusRemoved, now, id, domain.StatusRemoved,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, property *domain.Property) error {
	return db.WithContext(ctx).Exec(
		`UPDATE properties
		 SET title = ?, description = ?, price = ?, currency = ?, location = ?, updated_at = ?
		 WHERE id = ?`,
		property.Title, property.Description, property.Price, property.Currency,
		property.Location, property.UpdatedAt, property.ID,
	).Error
}

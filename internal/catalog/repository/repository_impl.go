package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shegerhomes/gebeya/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, pkg *domain.PackageDefinition) error {
	return db.WithContext(ctx).Create(pkg).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PackageDefinition, error) {
	var pkg domain.PackageDefinition
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.PackageDefinition, error) {
	stmt := db.WithContext(ctx).Model(&domain.PackageDefinition{})

	if tier := strings.TrimSpace(filter.Tier); tier != "" {
		stmt = stmt.Where("tier = ?", tier)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}

	var items []domain.PackageDefinition
	if err := stmt.Order("price_usd ASC, created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, pkg *domain.PackageDefinition) error {
	if pkg == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE package_definitions
		 SET name = ?, price_usd = ?, price_etb = ?, duration_days = ?, property_capacity = ?,
		     description = ?, active = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		pkg.Name,
		pkg.PriceUSD,
		pkg.PriceETB,
		pkg.DurationDays,
		pkg.PropertyCapacity,
		pkg.Description,
		pkg.Active,
		pkg.Metadata,
		pkg.UpdatedAt,
		pkg.ID,
	).Error
}

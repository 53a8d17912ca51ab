package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shegerhomes/gebeya/internal/entitlement/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, grant *domain.EntitlementGrant) error {
	return db.WithContext(ctx).Create(grant).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.EntitlementGrant, error) {
	var grant domain.EntitlementGrant
	err := db.WithContext(ctx).Where("id = ?", id).First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &grant, nil
}

func (r *repo) FindByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*domain.EntitlementGrant, error) {
	var grant domain.EntitlementGrant
	err := db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &grant, nil
}

func (r *repo) ListByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]domain.EntitlementGrant, error) {
	var grants []domain.EntitlementGrant
	err := db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("expires_at ASC, id ASC").
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *repo) ListConsumable(ctx context.Context, db *gorm.DB, companyID snowflake.ID, now time.Time) ([]domain.EntitlementGrant, error) {
	var grants []domain.EntitlementGrant
	err := db.WithContext(ctx).
		Where("company_id = ? AND expires_at > ? AND capacity_used < capacity_total", companyID, now).
		Order("expires_at ASC, id ASC").
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

// TryConsume is the compare-and-swap that serializes concurrent capacity
// consumption: the capacity precondition lives inside the UPDATE itself, so
// two racing callers can never both take the last unit.
func (r *repo) TryConsume(ctx context.Context, db *gorm.DB, grantID snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE entitlement_grants
		 SET capacity_used = capacity_used + 1, updated_at = ?
		 WHERE id = ? AND capacity_used < capacity_total AND expires_at > ?`,
		now, grantID, now,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) Release(ctx context.Context, db *gorm.DB, grantID snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE entitlement_grants
		 SET capacity_used = capacity_used - 1, updated_at = ?
		 WHERE id = ? AND capacity_used > 0`,
		now, grantID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) Summarize(ctx context.Context, db *gorm.DB, companyID snowflake.ID, now time.Time) (*domain.SummaryRow, error) {
	var row struct {
		GrantCount    int64
		TotalCapacity int64
		UsedCapacity  int64
		NearestExpiry *time.Time
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) AS grant_count,
		        COALESCE(SUM(capacity_total), 0) AS total_capacity,
		        COALESCE(SUM(capacity_used), 0) AS used_capacity,
		        MIN(expires_at) AS nearest_expiry
		 FROM entitlement_grants
		 WHERE company_id = ? AND expires_at > ?`,
		companyID, now,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &domain.SummaryRow{
		GrantCount:    row.GrantCount,
		TotalCapacity: row.TotalCapacity,
		UsedCapacity:  row.UsedCapacity,
		NearestExpiry: row.NearestExpiry,
	}, nil
}

// Package seed bootstraps the default package catalog so a fresh install has
// something purchasable without operator action.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/shegerhomes/gebeya/internal/catalog/domain"
	"gorm.io/gorm"
)

func defaultPackages(node *snowflake.Node, now time.Time) []catalogdomain.PackageDefinition {
	standardDesc := "Up to 5 active listings for 30 days."
	premiumDesc := "Up to 20 active listings for 90 days with premium placement."

	return []catalogdomain.PackageDefinition{
		{
			ID:               node.Generate(),
			Code:             "standard-30",
			Name:             "Standard",
			Tier:             catalogdomain.TierStandard,
			PriceUSD:         999,   // cents
			PriceETB:         49900, // santim
			DurationDays:     30,
			PropertyCapacity: 5,
			Description:      &standardDesc,
			Active:           true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		{
			ID:               node.Generate(),
			Code:             "premium-90",
			Name:             "Premium",
			Tier:             catalogdomain.TierPremium,
			PriceUSD:         2999,
			PriceETB:         149900,
			DurationDays:     90,
			PropertyCapacity: 20,
			Description:      &premiumDesc,
			Active:           true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
	}
}

// EnsureDefaultPackages inserts the built-in packages when their codes are
// absent. Existing rows are never modified.
func EnsureDefaultPackages(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	now := time.Now().UTC()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, pkg := range defaultPackages(node, now) {
			var count int64
			if err := tx.Model(&catalogdomain.PackageDefinition{}).
				Where("code = ?", pkg.Code).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(&pkg).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

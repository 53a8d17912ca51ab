package migration

import (
	appointmentdomain "github.com/shegerhomes/gebeya/internal/appointment/domain"
	catalogdomain "github.com/shegerhomes/gebeya/internal/catalog/domain"
	"github.com/shegerhomes/gebeya/internal/config"
	entitlementdomain "github.com/shegerhomes/gebeya/internal/entitlement/domain"
	listingdomain "github.com/shegerhomes/gebeya/internal/listing/domain"
	"github.com/shegerhomes/gebeya/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Versioned migrations target postgres; other dialects are for
			// local development and take the schema straight from the models.
			if err := conn.AutoMigrate(
				&catalogdomain.PackageDefinition{},
				&entitlementdomain.EntitlementGrant{},
				&listingdomain.Property{},
				&appointmentdomain.Appointment{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDefaultPackages {
			return seed.EnsureDefaultPackages(conn)
		}
		return nil
	}),
)

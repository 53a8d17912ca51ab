package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, pkg *PackageDefinition) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PackageDefinition, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]PackageDefinition, error)
	Update(ctx context.Context, db *gorm.DB, pkg *PackageDefinition) error
}

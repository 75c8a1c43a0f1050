package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jask/hangarledger/internal/database/repository"
)

type defaultCategory struct {
	name string
	fuel bool
}

var defaultCategories = []defaultCategory{
	{name: "Fuel", fuel: true},
	{name: "Landing Fees"},
	{name: "Handling"},
	{name: "Hangar"},
	{name: "Catering"},
	{name: "Crew Travel"},
	{name: "Maintenance"},
	{name: "Other"},
}

// SeedDefaults ensures baseline expense categories exist for new databases.
// It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	catRepo := repository.NewCategoryRepo(db)
	existing, err := catRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, dc := range defaultCategories {
		cat := repository.Category{
			ID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte("cat:"+dc.name)).String(),
			Name:           dc.name,
			IsSystem:       true,
			IsActive:       true,
			IsFuelCategory: dc.fuel,
			IsDefault:      dc.name == "Other",
		}
		if err := catRepo.Insert(ctx, cat); err != nil {
			return err
		}
	}
	return nil
}

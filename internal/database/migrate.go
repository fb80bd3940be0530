package database

import (
	"fmt"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

// RunMigrations brings the schema up to date, including the unique, check
// and cascading foreign key constraints declared on the models.
func RunMigrations(db *gorm.DB) error {
	logging.Info().Str("dialect", db.Dialector.Name()).Msg("running auto-migration")

	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	for _, m := range models.All() {
		if !db.Migrator().HasTable(m) {
			return fmt.Errorf("table for %T missing after migration", m)
		}
	}

	logging.Info().Int("tables", len(models.All())).Msg("schema up to date")
	return nil
}

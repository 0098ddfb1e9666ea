// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/domain/catalog"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger *logrus.Logger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// RunAutoMigrations runs GORM auto-migrations for the catalog mirror
func (m *Migration) RunAutoMigrations() error {
	models := []interface{}{
		&catalog.ProductRecord{},
	}

	for _, model := range models {
		m.logger.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates the indexes used by listing queries
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_catalog_products_price ON catalog_products(price)",
		"CREATE INDEX IF NOT EXISTS idx_catalog_products_rating ON catalog_products(rating_rate DESC)",
		"CREATE INDEX IF NOT EXISTS idx_catalog_products_updated_at ON catalog_products(updated_at DESC)",
	}

	for _, stmt := range indexes {
		if err := m.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	m.logger.WithField("count", len(indexes)).Info("Database indexes ensured")
	return nil
}

// CountProducts reports how many products the mirror holds
func (m *Migration) CountProducts() (int64, error) {
	var count int64
	if err := m.db.Model(&catalog.ProductRecord{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// internal/domain/catalog/db_source.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRecord is the Postgres mirror row of a catalog product
type ProductRecord struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false"`
	Title       string    `gorm:"not null"`
	Description string    `gorm:"type:text"`
	Price       float64   `gorm:"not null"`
	Category    string    `gorm:"index;not null"`
	Image       string
	RatingRate  float64
	RatingCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides the table name
func (ProductRecord) TableName() string {
	return "catalog_products"
}

func (r ProductRecord) toProduct() Product {
	return Product{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		Image:       r.Image,
		Rating:      Rating{Rate: r.RatingRate, Count: r.RatingCount},
	}
}

func recordFrom(p Product) ProductRecord {
	return ProductRecord{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Image:       p.Image,
		RatingRate:  p.Rating.Rate,
		RatingCount: p.Rating.Count,
	}
}

// DBSource serves the catalog from a database mirror of the remote source
type DBSource struct {
	db *gorm.DB
}

// NewDBSource creates a new database-backed product source
func NewDBSource(db *gorm.DB) *DBSource {
	return &DBSource{db: db}
}

// List returns every mirrored product ordered by id
func (s *DBSource) List(ctx context.Context) ([]Product, error) {
	var records []ProductRecord
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	products := make([]Product, len(records))
	for i, r := range records {
		products[i] = r.toProduct()
	}
	return products, nil
}

// Get returns a mirrored product by id
func (s *DBSource) Get(ctx context.Context, id int64) (*Product, error) {
	var record ProductRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	product := record.toProduct()
	return &product, nil
}

// Mirror upserts products into the mirror table
func (s *DBSource) Mirror(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}

	records := make([]ProductRecord, len(products))
	for i, p := range products {
		records[i] = recordFrom(p)
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "price", "category", "image", "rating_rate", "rating_count", "updated_at"}),
	}).Create(&records).Error
	if err != nil {
		return fmt.Errorf("failed to mirror products: %w", err)
	}
	return nil
}

// SyncFrom copies the full catalog of another source into the mirror
func (s *DBSource) SyncFrom(ctx context.Context, source ProductSource) (int, error) {
	products, err := source.List(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.Mirror(ctx, products); err != nil {
		return 0, err
	}
	return len(products), nil
}

package persistence

import (
	"context"
	"fmt"

	"github.com/pharmdist/salesflow/internal/domain/territory"
	"github.com/pharmdist/salesflow/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerLocationRepository reads known client locations from dim_customer
type GormCustomerLocationRepository struct {
	db *gorm.DB
}

// NewGormCustomerLocationRepository creates a customer location repository
func NewGormCustomerLocationRepository(db *gorm.DB) *GormCustomerLocationRepository {
	return &GormCustomerLocationRepository{db: db}
}

// HasCustomers reports whether the customer dimension holds any row
func (r *GormCustomerLocationRepository) HasCustomers(ctx context.Context) (bool, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).Model(&models.DimCustomerModel{}).
		Limit(1).
		Pluck("customer_id", &ids).Error; err != nil {
		return false, fmt.Errorf("failed to query dim_customer: %w", err)
	}
	return len(ids) > 0, nil
}

// FindLocations returns the stored region and territory of the given customers
func (r *GormCustomerLocationRepository) FindLocations(ctx context.Context, customers []string) (map[string]territory.Location, error) {
	out := make(map[string]territory.Location, len(customers))
	if len(customers) == 0 {
		return out, nil
	}
	var rows []models.DimCustomerModel
	if err := r.db.WithContext(ctx).
		Where("customer IN ?", customers).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query dim_customer: %w", err)
	}
	for _, row := range rows {
		out[row.Customer] = territory.Location{
			Customer:  row.Customer,
			Region:    deref(row.Region),
			Territory: deref(row.Territory),
		}
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

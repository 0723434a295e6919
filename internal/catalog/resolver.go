package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mkarpushin/storefront/internal/models"
)

// Resolver is the read-only view of the catalog the cart needs:
// inventory rows and sale prices.
type Resolver struct {
	DB *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{DB: db}
}

// ResolveInventory finds the inventory row for a draft entry: by id when
// one is given, otherwise the first row matching the sku key. When
// several rows share a sku key the pick is whatever the store returns
// first; there is no canonical ordering. Returns nil, nil when nothing
// matches.
func (r *Resolver) ResolveInventory(ctx context.Context, inventoryID uint, skuKey *string) (*models.Inventory, error) {
	var inv models.Inventory

	if inventoryID != 0 {
		err := r.DB.WithContext(ctx).First(&inv, inventoryID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("inventory lookup: %w", err)
		}
		return &inv, nil
	}

	if skuKey != nil && *skuKey != "" {
		err := r.DB.WithContext(ctx).Where("sku_key = ?", *skuKey).First(&inv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("inventory lookup by sku: %w", err)
		}
		return &inv, nil
	}

	return nil, nil
}

// ResolveProduct returns nil, nil when the product no longer exists.
func (r *Resolver) ResolveProduct(ctx context.Context, productID uint) (*models.Product, error) {
	var product models.Product
	err := r.DB.WithContext(ctx).First(&product, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("product lookup: %w", err)
	}
	return &product, nil
}

// ResolvePrice looks up the sale price for (product, sku key). On no
// match, or on any lookup failure, it degrades to zero with resolved set
// to false: a missing price must never block an otherwise valid line
// item, and the flag keeps the degradation visible to callers.
func (r *Resolver) ResolvePrice(ctx context.Context, productID uint, skuKey *string) (float64, bool) {
	q := r.DB.WithContext(ctx).Where("product_id = ?", productID)
	if skuKey != nil && *skuKey != "" {
		q = q.Where("sku_key = ?", *skuKey)
	} else {
		q = q.Where("sku_key IS NULL")
	}

	var price models.Price
	if err := q.First(&price).Error; err != nil {
		return 0, false
	}
	return price.Amount, true
}

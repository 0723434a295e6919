package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/mkarpushin/storefront/internal/models"
)

type CartRepository struct {
	DB *gorm.DB

	userLocks sync.Map
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{DB: db}
}

// LockUser serializes cart writes for one user inside this process.
// Find-or-create and find-or-upsert are read-then-write sequences; two
// concurrent requests for the same user would otherwise both observe
// "nothing there yet" and both insert.
func (r *CartRepository) LockUser(userID uint) func() {
	v, _ := r.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// GetOrCreateActiveCart returns the single active cart for the user,
// creating one with zero aggregates on first read.
func (r *CartRepository) GetOrCreateActiveCart(ctx context.Context, userID uint) (*models.Cart, error) {
	unlock := r.LockUser(userID)
	defer unlock()

	return r.GetOrCreateActiveCartLocked(ctx, userID)
}

// GetOrCreateActiveCartLocked is the variant for callers already holding
// the user lock (the merge engine holds it across the whole merge).
func (r *CartRepository) GetOrCreateActiveCartLocked(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.CartStatusActive).
		First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("cart lookup: %w", err)
	}

	cart = models.Cart{
		UserID:   userID,
		Status:   models.CartStatusActive,
		Currency: models.DefaultCurrency,
	}
	if err := r.DB.WithContext(ctx).Create(&cart).Error; err != nil {
		return nil, fmt.Errorf("cart create: %w", err)
	}
	return &cart, nil
}

func (r *CartRepository) ListItems(ctx context.Context, cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).Where("cart_id = ?", cartID).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("cart items: %w", err)
	}
	return items, nil
}

// FindItem returns nil without error when no row matches.
func (r *CartRepository) FindItem(ctx context.Context, cartID, inventoryID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).
		Where("cart_id = ? AND inventory_id = ?", cartID, inventoryID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart item lookup: %w", err)
	}
	return &item, nil
}

// ItemPatch carries the freshly resolved values applied on every write.
type ItemPatch struct {
	ProductID       uint
	SKUKey          *string
	Name            string
	ImageURL        string
	QuantityDelta   int
	UnitPrice       float64
	Currency        string
	SelectedOptions map[string]string
}

// UpsertItem is the single mutation point for cart items. If a row with
// this (cart, inventory) key exists the quantity is accumulated and the
// snapshots refreshed; otherwise a new row is inserted. A create that
// loses to a concurrent insert on the unique (cart_id, inventory_id)
// index is retried as an update.
func (r *CartRepository) UpsertItem(ctx context.Context, cartID, inventoryID uint, patch ItemPatch) (*models.CartItem, bool, error) {
	existing, err := r.FindItem(ctx, cartID, inventoryID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		item, err := r.applyPatch(ctx, existing, patch)
		return item, false, err
	}

	item := models.CartItem{
		CartID:          cartID,
		InventoryID:     inventoryID,
		ProductID:       patch.ProductID,
		SKUKey:          patch.SKUKey,
		Name:            patch.Name,
		ImageURL:        patch.ImageURL,
		Quantity:        patch.QuantityDelta,
		UnitPrice:       patch.UnitPrice,
		Currency:        patch.Currency,
		LineTotal:       patch.UnitPrice * float64(patch.QuantityDelta),
		SelectedOptions: patch.SelectedOptions,
	}
	if err := r.DB.WithContext(ctx).Create(&item).Error; err != nil {
		// Unique index violation: someone inserted this key between our
		// read and write. Re-read and fold into the winner's row.
		raced, findErr := r.FindItem(ctx, cartID, inventoryID)
		if findErr != nil || raced == nil {
			return nil, false, fmt.Errorf("cart item create: %w", err)
		}
		updated, patchErr := r.applyPatch(ctx, raced, patch)
		return updated, false, patchErr
	}
	return &item, true, nil
}

func (r *CartRepository) applyPatch(ctx context.Context, item *models.CartItem, patch ItemPatch) (*models.CartItem, error) {
	item.Quantity += patch.QuantityDelta
	item.ProductID = patch.ProductID
	item.SKUKey = patch.SKUKey
	item.Name = patch.Name
	item.ImageURL = patch.ImageURL
	item.UnitPrice = patch.UnitPrice
	item.Currency = patch.Currency
	item.SelectedOptions = patch.SelectedOptions
	item.LineTotal = item.UnitPrice * float64(item.Quantity)

	if err := r.DB.WithContext(ctx).Save(item).Error; err != nil {
		return nil, fmt.Errorf("cart item update: %w", err)
	}
	return item, nil
}

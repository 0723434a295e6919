package merge

import (
	"context"
	"errors"

	"github.com/mkarpushin/storefront/internal/catalog"
	"github.com/mkarpushin/storefront/internal/models"
	"github.com/mkarpushin/storefront/internal/repo"
)

// ErrUnauthorized is returned for a merge without a resolved identity;
// only an account can own the persisted cart the drafts fold into.
var ErrUnauthorized = errors.New("merge requires an authenticated user")

// DraftItem is a client-held cart line gathered before login. It never
// carries a trusted price; prices are always re-resolved server-side.
type DraftItem struct {
	ProductID       uint              `json:"product_id"`
	InventoryID     uint              `json:"inventory_id,omitempty"`
	SKUKey          *string           `json:"sku_key,omitempty"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `json:"selected_options,omitempty"`
}

type Outcome string

const (
	OutcomeAdded   Outcome = "added"
	OutcomeMerged  Outcome = "merged"
	OutcomeRemoved Outcome = "removed"
)

type RemovalReason string

const (
	ReasonInventoryUnresolved RemovalReason = "inventory_unresolved"
	ReasonProductUnresolved   RemovalReason = "product_unresolved"
)

// ItemOutcome records what happened to one draft entry. PriceUnresolved
// distinguishes "priced at zero" from "no price record found".
type ItemOutcome struct {
	Outcome         Outcome       `json:"outcome"`
	Reason          RemovalReason `json:"reason,omitempty"`
	InventoryID     uint          `json:"inventory_id,omitempty"`
	PriceUnresolved bool          `json:"price_unresolved,omitempty"`
}

type Summary struct {
	Added   int `json:"added"`
	Merged  int `json:"merged"`
	Removed int `json:"removed"`
}

type Result struct {
	Cart     *models.Cart
	Items    []models.CartItem
	Summary  Summary
	Outcomes []ItemOutcome
}

// Engine folds anonymous draft items into a user's persisted cart.
type Engine struct {
	Repo    *repo.CartRepository
	Catalog *catalog.Resolver
}

func NewEngine(r *repo.CartRepository, c *catalog.Resolver) *Engine {
	return &Engine{Repo: r, Catalog: c}
}

// Merge processes drafts sequentially in input order; each step may
// read-then-write the same (cart, inventory) key, so the loop must not
// run concurrently with itself. The whole call holds the per-user lock.
//
// Merging is additive: a draft quantity is added to whatever the user
// already has, so replaying the same draft doubles quantities. Callers
// are expected to merge once per login transition.
func (e *Engine) Merge(ctx context.Context, userID uint, drafts []DraftItem) (*Result, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}

	unlock := e.Repo.LockUser(userID)
	defer unlock()

	cart, err := e.Repo.GetOrCreateActiveCartLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &Result{Outcomes: make([]ItemOutcome, 0, len(drafts))}

	for _, draft := range drafts {
		outcome, err := e.mergeOne(ctx, cart, draft)
		if err != nil {
			return nil, err
		}
		result.Outcomes = append(result.Outcomes, outcome)
		switch outcome.Outcome {
		case OutcomeAdded:
			result.Summary.Added++
		case OutcomeMerged:
			result.Summary.Merged++
		case OutcomeRemoved:
			result.Summary.Removed++
		}
	}

	// Re-read from the store so the response reflects exactly what was
	// persisted, not in-memory deltas.
	items, err := e.Repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	result.Cart = cart
	result.Items = items
	return result, nil
}

func (e *Engine) mergeOne(ctx context.Context, cart *models.Cart, draft DraftItem) (ItemOutcome, error) {
	quantity := draft.Quantity
	if quantity < 1 {
		quantity = 1
	}

	inv, err := e.Catalog.ResolveInventory(ctx, draft.InventoryID, draft.SKUKey)
	if err != nil {
		return ItemOutcome{}, err
	}
	if inv == nil {
		// A stale draft entry must not fail the whole batch.
		return ItemOutcome{Outcome: OutcomeRemoved, Reason: ReasonInventoryUnresolved}, nil
	}

	product, err := e.Catalog.ResolveProduct(ctx, inv.ProductID)
	if err != nil {
		return ItemOutcome{}, err
	}
	if product == nil {
		return ItemOutcome{Outcome: OutcomeRemoved, Reason: ReasonProductUnresolved, InventoryID: inv.ID}, nil
	}

	unitPrice, priced := e.Catalog.ResolvePrice(ctx, product.ID, inv.SKUKey)

	patch := repo.ItemPatch{
		ProductID:       product.ID,
		SKUKey:          inv.SKUKey,
		Name:            product.Name,
		ImageURL:        product.ImageURL,
		QuantityDelta:   quantity,
		UnitPrice:       unitPrice,
		Currency:        cart.Currency,
		SelectedOptions: draft.SelectedOptions,
	}
	_, created, err := e.Repo.UpsertItem(ctx, cart.ID, inv.ID, patch)
	if err != nil {
		return ItemOutcome{}, err
	}

	outcome := ItemOutcome{Outcome: OutcomeMerged, InventoryID: inv.ID, PriceUnresolved: !priced}
	if created {
		outcome.Outcome = OutcomeAdded
	}
	return outcome, nil
}

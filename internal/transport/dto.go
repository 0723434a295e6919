package transport

import "github.com/mkarpushin/storefront/internal/models"

type CartItemResponse struct {
	ID              uint              `json:"id"`
	ProductID       uint              `json:"product_id"`
	InventoryID     uint              `json:"inventory_id"`
	SKUKey          *string           `json:"sku_key"`
	Name            string            `json:"name"`
	ImageURL        string            `json:"image_url"`
	Quantity        int               `json:"quantity"`
	UnitPrice       float64           `json:"unit_price"`
	Currency        string            `json:"currency"`
	LineTotal       float64           `json:"line_total"`
	SelectedOptions map[string]string `json:"selected_options"`
}

type CartTotals struct {
	Subtotal    float64 `json:"subtotal"`
	Discount    float64 `json:"discount"`
	ShippingFee float64 `json:"shipping_fee"`
	Tax         float64 `json:"tax"`
	GrandTotal  float64 `json:"grand_total"`
	Quantity    int     `json:"quantity"`
}

type CartResponse struct {
	ID       *uint              `json:"id"`
	Status   string             `json:"status"`
	Currency string             `json:"currency"`
	Totals   CartTotals         `json:"totals"`
	Items    []CartItemResponse `json:"items"`
}

// ProjectCart maps a persisted cart and its items into the external cart
// shape. Line totals are recomputed from unit price and quantity at this
// boundary; the cart-level aggregates are passed through as stored (they
// are maintained by order/pricing logic, not derived from items here,
// and may legitimately diverge from the sum of line totals).
func ProjectCart(cart *models.Cart, items []models.CartItem) CartResponse {
	out := make([]CartItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, CartItemResponse{
			ID:              item.ID,
			ProductID:       item.ProductID,
			InventoryID:     item.InventoryID,
			SKUKey:          item.SKUKey,
			Name:            item.Name,
			ImageURL:        item.ImageURL,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			Currency:        item.Currency,
			LineTotal:       item.UnitPrice * float64(item.Quantity),
			SelectedOptions: item.SelectedOptions,
		})
	}

	id := cart.ID
	return CartResponse{
		ID:       &id,
		Status:   cart.Status,
		Currency: cart.Currency,
		Totals: CartTotals{
			Subtotal:    cart.Subtotal,
			Discount:    cart.Discount,
			ShippingFee: cart.ShippingFee,
			Tax:         cart.Tax,
			GrandTotal:  cart.GrandTotal,
			Quantity:    cart.TotalQuantity,
		},
		Items: out,
	}
}

// GuestCart is the representational empty snapshot for anonymous
// callers; it is never persisted.
func GuestCart() CartResponse {
	return CartResponse{
		ID:       nil,
		Status:   models.CartStatusActive,
		Currency: models.DefaultCurrency,
		Items:    []CartItemResponse{},
	}
}

package models

import "time"

const (
	CartStatusActive = "active"

	DefaultCurrency = "TWD"
)

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"not null"                 json:"name"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Price       float64 `gorm:"not null"                 json:"price"`
	Status      string  `gorm:"default:published"        json:"status"`
}

type Inventory struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint    `gorm:"index;not null"           json:"product_id"`
	SKUKey    *string `gorm:"index"                    json:"sku_key"`
	Stock     int     `gorm:"default:0"                json:"stock"`
}

// Price is the sale-price table keyed by (product, sku key). The cart
// never trusts client prices; it always re-reads from here.
type Price struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint    `gorm:"index;not null"           json:"product_id"`
	SKUKey    *string `gorm:"index"                    json:"sku_key"`
	Amount    float64 `gorm:"not null"                 json:"amount"`
	Currency  string  `gorm:"default:TWD"              json:"currency"`
}

// Cart aggregates (subtotal..grand total) are written by order/pricing
// logic elsewhere; this service only reads them back.
type Cart struct {
	ID            uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint    `gorm:"index;not null"           json:"user_id"`
	Status        string  `gorm:"index;not null"           json:"status"`
	Currency      string  `gorm:"default:TWD"              json:"currency"`
	Subtotal      float64 `json:"subtotal"`
	Discount      float64 `json:"discount"`
	ShippingFee   float64 `json:"shipping_fee"`
	Tax           float64 `json:"tax"`
	GrandTotal    float64 `json:"grand_total"`
	TotalQuantity int     `json:"total_quantity"`
}

type CartItem struct {
	ID              uint              `gorm:"primaryKey;autoIncrement"                json:"id"`
	CartID          uint              `gorm:"uniqueIndex:idx_cart_inventory;not null" json:"cart_id"`
	InventoryID     uint              `gorm:"uniqueIndex:idx_cart_inventory;not null" json:"inventory_id"`
	ProductID       uint              `gorm:"not null"                                json:"product_id"`
	SKUKey          *string           `json:"sku_key"`
	Name            string            `gorm:"not null"                                json:"name"`
	ImageURL        string            `json:"image_url"`
	Quantity        int               `gorm:"default:1;check:quantity>0"              json:"quantity"`
	UnitPrice       float64           `gorm:"not null"                                json:"unit_price"`
	Currency        string            `gorm:"default:TWD"                             json:"currency"`
	LineTotal       float64           `gorm:"not null"                                json:"line_total"`
	SelectedOptions map[string]string `gorm:"serializer:json"                         json:"selected_options"`
	IsGift          bool              `gorm:"default:false"                           json:"is_gift"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	Token     string    `gorm:"unique;not null" json:"token"`
	UserID    uint      `gorm:"index;not null"  json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"        json:"expires_at"`
	Revoked   bool      `gorm:"default:false"   json:"revoked"`
}

package domain

import "time"

// Product represents a catalog item with its current stock level. Price is
// stored in minor currency units; Stock must never go negative.
type Product struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku"`
	Price     int64     `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InStock checks whether the requested quantity can be reserved.
func (p *Product) InStock(quantity int) bool {
	return quantity > 0 && p.Stock >= quantity
}

// StockMovement records a change in a product's stock quantity.
type StockMovement struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	TenantID       string    `json:"tenant_id"`
	QuantityChange int       `json:"quantity_change"`
	Reason         string    `json:"reason"`
	ReferenceID    *string   `json:"reference_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Stock movement reasons.
const (
	MovementReasonOrder      = "order"
	MovementReasonRestock    = "restock"
	MovementReasonAdjustment = "adjustment"
)

// ValidMovementReasons returns the set of valid movement reasons.
func ValidMovementReasons() []string {
	return []string{MovementReasonOrder, MovementReasonRestock, MovementReasonAdjustment}
}

// IsValidMovementReason checks whether the given reason is a valid stock movement reason.
func IsValidMovementReason(reason string) bool {
	for _, r := range ValidMovementReasons() {
		if r == reason {
			return true
		}
	}
	return false
}

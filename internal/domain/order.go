package domain

import "time"

// Order status constants.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCanceled  = "canceled"
)

// Order represents one checkout attempt. It is created in pending status and
// driven to exactly one of the terminal statuses (confirmed or canceled) by
// the checkout workflow; it is never mutated afterwards.
type Order struct {
	ID             string      `json:"id"`
	TenantID       string      `json:"tenant_id"`
	BuyerID        string      `json:"buyer_id"`
	Status         string      `json:"status"`
	Items          []OrderItem `json:"items"`
	TotalAmount    int64       `json:"total_amount"`
	Currency       string      `json:"currency"`
	CanceledReason string      `json:"canceled_reason,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// OrderItem represents a line item in an order. UnitPrice is a snapshot of
// the product price at order-creation time; later catalog price changes must
// not affect already-placed orders.
type OrderItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// LineTotal returns the total price for this line item.
func (i *OrderItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{OrderStatusPending, OrderStatusConfirmed, OrderStatusCanceled}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// AllowedTransitions defines which status transitions are valid. Confirmed
// and canceled are both terminal and only reachable from pending.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCanceled},
		OrderStatusConfirmed: {},
		OrderStatusCanceled:  {},
	}
}

// CanTransitionTo checks if the order can transition to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the order is in a final status.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusConfirmed || o.Status == OrderStatusCanceled
}

// CalculateTotal computes the order total from its items.
func (o *Order) CalculateTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.LineTotal()
	}
	return total
}

package model

import "time"

// Order status values.  An administrator may move an order to any value
// in this set; no transition graph is enforced.
const (
	OrderStatusReserved  = "reserved"
	OrderStatusContacted = "contacted"
	OrderStatusPaid      = "paid"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// OrderStatusAllowed reports whether s is a recognised order status.
func OrderStatusAllowed(s string) bool {
	switch s {
	case OrderStatusReserved, OrderStatusContacted, OrderStatusPaid,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order records a finalized checkout with the customer's contact
// details.  Orders are created exactly once per successful checkout and
// are immutable afterwards except for status changes by an
// administrator.
//
// Fields:
//  ID         – primary key identifier.
//  OrderCode  – generated human-readable code, unique, used for receipts.
//  Name       – customer name.
//  Phone      – customer phone number.
//  Instagram  – customer contact handle.
//  Notes      – optional free-form notes from the customer.
//  TotalCents – sum of the captured item prices at time of purchase.
//  Status     – one of the order status values above.
//  CreatedAt  – when the order was placed.
type Order struct {
	ID         uint64    `json:"id"`
	OrderCode  string    `json:"order_code"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Instagram  string    `json:"instagram"`
	Notes      *string   `json:"notes,omitempty"`
	TotalCents int64     `json:"total_cents"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// OrderItem links an order to an item, capturing the price at time of
// sale.  The price is copied, not referenced, so later catalog edits
// never retroactively change historical orders.
//
// Fields:
//  ID         – primary key identifier.
//  OrderID    – reference to the order.
//  ItemID     – item that was sold.
//  PriceCents – price captured at the moment of sale.
type OrderItem struct {
	ID         uint64 `json:"id"`
	OrderID    uint64 `json:"order_id"`
	ItemID     uint64 `json:"item_id"`
	PriceCents int64  `json:"price_cents"`
}

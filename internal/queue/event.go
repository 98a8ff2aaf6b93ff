// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderPlacedEvent is published when a checkout is successfully
// finalized.  It carries enough information for downstream consumers
// to log or notify without querying the primary database.
type OrderPlacedEvent struct {
	OrderID    uint64   `json:"order_id"`
	OrderCode  string   `json:"order_code"`
	SessionID  string   `json:"session_id"`
	Customer   string   `json:"customer"`
	ItemIDs    []uint64 `json:"item_ids"`
	ItemNames  []string `json:"item_names"`
	TotalCents int64    `json:"total_cents"`
	PlacedAt   string   `json:"placed_at"`
}
